// Command cardvault is a CLI client for the CardVault service.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/cardvault/internal/client"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// app holds the global flags and the lazily built session.
type app struct {
	server    string
	caPath    string
	insecure  bool
	tokenFile string
	timeout   time.Duration

	sess *client.Session
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "cardvault",
		Short:         "Digital business card vault",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.server, "server", envOr("CARDVAULT_SERVER", "http://localhost:8080"), "server base URL")
	pf.StringVar(&a.caPath, "cacert", "", "CA cert (PEM) for https servers")
	pf.BoolVar(&a.insecure, "insecure", false, "skip cert verify (dev)")
	pf.StringVar(&a.tokenFile, "token-file", "", "token file (default $XDG_CONFIG_HOME/cardvault/token.json)")
	pf.DurationVar(&a.timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		versionCmd(),
		signUpCmd(a), signInCmd(a), signOutCmd(a), meCmd(a),
		addCmd(a), lsCmd(a), watchCmd(a), getCmd(a), editCmd(a), rmCmd(a), qrCmd(a),
		viewCmd(a), saveCmd(a), scanCmd(a),
		profileCmd(a),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "cardvault %s (%s)\n", version, buildDate)
			return nil
		},
	}
}

func (a *app) init() error {
	if a.sess != nil {
		return nil
	}
	hc, err := httpClient(a.caPath, a.insecure)
	if err != nil {
		return err
	}
	c := client.New(a.server, hc)
	a.sess = client.NewSession(c, client.NewFileStore(a.tokenFile))
	return nil
}

// authed restores the stored token; commands needing an account call it first.
func (a *app) authed(ctx context.Context) error {
	if _, ok := a.sess.Current(); ok {
		return nil
	}
	if _, err := a.sess.Restore(ctx); err != nil {
		if errors.Is(err, client.ErrNoToken) {
			return errors.New("not signed in (run: cardvault signin)")
		}
		return err
	}
	return nil
}

func (a *app) ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

func (a *app) api() *client.Client { return a.sess.Client() }

// ---- transport ----

func httpClient(caPath string, insecure bool) (*http.Client, error) {
	cfg, err := loadTLS(caPath, insecure)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return http.DefaultClient, nil
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = cfg
	return &http.Client{Transport: tr}, nil
}

// loadTLS returns nil when the system defaults apply.
func loadTLS(caPath string, insecure bool) (*tls.Config, error) {
	if insecure {
		return &tls.Config{InsecureSkipVerify: true}, nil //nolint:gosec // opt-in dev flag
	}
	if caPath == "" {
		return nil, nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return &tls.Config{RootCAs: pool}, nil
}

// ---- utils ----

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// readAll reads a file, or stdin when p is "-".
func readAll(in io.Reader, p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(in)
	}
	return os.ReadFile(p)
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
