package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/and161185/cardvault/internal/convert"
	"github.com/and161185/cardvault/internal/qr"
)

// shareID accepts a share link or a bare share id.
func shareID(arg string) (string, error) {
	if id := qr.ParseScan(arg); id != "" {
		return id, nil
	}
	return "", errors.New("empty share id")
}

func viewCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "view <link|share-id>",
		Short: "Show a shared card (no sign-in needed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shareID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			card, err := a.api().PublicCard(ctx, id)
			if err != nil {
				return err
			}
			printCard(cmd.OutOrStdout(), card)
			if out == "" {
				return nil
			}
			png, err := a.api().PublicQR(ctx, id)
			if err != nil {
				return err
			}
			return os.WriteFile(out, png, 0o644)
		},
	}
	cmd.Flags().StringVar(&out, "qr", "", "also save the QR code as PNG")
	return cmd
}

func saveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <link|share-id>",
		Short: "Copy a shared card into your vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shareID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.authed(ctx); err != nil {
				return err
			}
			card, err := a.api().SaveCard(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", card.ID, card.ShareURL)
			return nil
		},
	}
}

func scanCmd(a *app) *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "scan [text]",
		Short: "Resolve scanned text or a photo of a QR code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (image == "") == (len(args) == 0) {
				return errors.New("give either scanned text or --image")
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()

			var (
				res convert.ScanResponse
				err error
			)
			if image != "" {
				up, uerr := openUpload(cmd, image)
				if uerr != nil {
					return uerr
				}
				res, err = a.api().ScanImage(ctx, *up)
			} else {
				res, err = a.api().Scan(ctx, args[0])
			}
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if !res.Found {
				fmt.Fprintf(w, "card %s not found\n", res.ShareID)
				return nil
			}
			printCard(w, *res.Card)
			return nil
		},
	}
	cmd.Flags().StringVar(&image, "image", "", "photo of a QR code (- for stdin)")
	return cmd
}
