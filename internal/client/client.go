// Package client is a Go client for the CardVault HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/and161185/cardvault/internal/convert"
	"github.com/and161185/cardvault/internal/errs"
)

// APIError is a non-2xx response. It unwraps to the matching errs sentinel.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return errs.ErrValidation
	case http.StatusUnauthorized:
		return errs.ErrUnauthorized
	case http.StatusNotFound:
		return errs.ErrNotFound
	case http.StatusConflict:
		return errs.ErrAlreadyExists
	case http.StatusTooManyRequests:
		return errs.ErrRateLimited
	case http.StatusBadGateway:
		return errs.ErrStorage
	}
	return nil
}

// File is an upload attached to a multipart request.
type File struct {
	Name string
	Body io.Reader
}

// NewCard is the input of CreateCard. Front is required by the server.
type NewCard struct {
	FullName, Company, JobTitle string
	Email, Phone, Website       string
	Socials                     string
	Tags                        []string
	Front, Back                 *File
}

// Client talks to one CardVault server.
type Client struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	token string
}

// New returns a client for baseURL. A nil hc uses http.DefaultClient.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

// SetToken sets the bearer token sent with every request; empty sends none.
func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	switch v := out.(type) {
	case nil:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case *[]byte:
		*v, err = io.ReadAll(resp.Body)
		return err
	default:
		return json.NewDecoder(resp.Body).Decode(out)
	}
}

func decodeError(resp *http.Response) error {
	var e convert.ErrorDTO
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &e) != nil || e.Error == "" {
		e.Error = strings.TrimSpace(string(raw))
	}
	return &APIError{Status: resp.StatusCode, Message: e.Error}
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var (
		body io.Reader
		ct   string
	)
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body, ct = bytes.NewReader(raw), "application/json"
	}
	req, err := c.newRequest(ctx, method, path, body, ct)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

// doMultipart streams the form through a pipe so large images are not buffered.
func (c *Client) doMultipart(ctx context.Context, path string, fields url.Values, files map[string]*File, out any) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, fields, files))
	}()
	req, err := c.newRequest(ctx, http.MethodPost, path, pr, mw.FormDataContentType())
	if err != nil {
		_ = pr.Close()
		return err
	}
	err = c.send(req, out)
	_ = pr.Close()
	return err
}

func writeForm(mw *multipart.Writer, fields url.Values, files map[string]*File) error {
	for k, vs := range fields {
		for _, v := range vs {
			if err := mw.WriteField(k, v); err != nil {
				return err
			}
		}
	}
	for field, f := range files {
		if f == nil {
			continue
		}
		w, err := mw.CreateFormFile(field, f.Name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, f.Body); err != nil {
			return err
		}
	}
	return mw.Close()
}

// --- auth ---

func (c *Client) SignUp(ctx context.Context, req convert.SignUpRequest) (convert.SessionDTO, error) {
	var s convert.SessionDTO
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", req, &s)
	return s, err
}

func (c *Client) SignIn(ctx context.Context, email, password string) (convert.SessionDTO, error) {
	var s convert.SessionDTO
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/signin", convert.SignInRequest{Email: email, Password: password}, &s)
	return s, err
}

func (c *Client) SignOut(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/signout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (convert.AccountDTO, error) {
	var a convert.AccountDTO
	err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &a)
	return a, err
}

// --- cards ---

// ListCards returns the caller's cards, newest first, filtered by query when set.
func (c *Client) ListCards(ctx context.Context, query string) ([]convert.CardDTO, error) {
	path := "/api/cards"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	var out []convert.CardDTO
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) CreateCard(ctx context.Context, in NewCard) (convert.CardDTO, error) {
	fields := url.Values{}
	for k, v := range map[string]string{
		"fullName": in.FullName, "company": in.Company, "jobTitle": in.JobTitle,
		"email": in.Email, "phone": in.Phone, "website": in.Website, "socials": in.Socials,
	} {
		if v != "" {
			fields.Set(k, v)
		}
	}
	for _, t := range in.Tags {
		fields.Add("tags", t)
	}
	var out convert.CardDTO
	err := c.doMultipart(ctx, "/api/cards", fields, map[string]*File{"front": in.Front, "back": in.Back}, &out)
	return out, err
}

func (c *Client) GetCard(ctx context.Context, id string) (convert.CardDTO, error) {
	var out convert.CardDTO
	err := c.doJSON(ctx, http.MethodGet, "/api/cards/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) UpdateCard(ctx context.Context, id string, patch convert.CardPatchDTO) (convert.CardDTO, error) {
	var out convert.CardDTO
	err := c.doJSON(ctx, http.MethodPatch, "/api/cards/"+url.PathEscape(id), patch, &out)
	return out, err
}

func (c *Client) DeleteCard(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/cards/"+url.PathEscape(id), nil, nil)
}

// CardQR returns the PNG of an owned card's share link.
func (c *Client) CardQR(ctx context.Context, id string) ([]byte, error) {
	var png []byte
	err := c.doJSON(ctx, http.MethodGet, "/api/cards/"+url.PathEscape(id)+"/qr.png", nil, &png)
	return png, err
}

// --- share ---

func (c *Client) PublicCard(ctx context.Context, shareID string) (convert.PublicCardDTO, error) {
	var out convert.PublicCardDTO
	err := c.doJSON(ctx, http.MethodGet, "/card/"+url.PathEscape(shareID), nil, &out)
	return out, err
}

func (c *Client) PublicQR(ctx context.Context, shareID string) ([]byte, error) {
	var png []byte
	err := c.doJSON(ctx, http.MethodGet, "/card/"+url.PathEscape(shareID)+"/qr.png", nil, &png)
	return png, err
}

// SaveCard clones a shared card into the caller's vault.
func (c *Client) SaveCard(ctx context.Context, shareID string) (convert.CardDTO, error) {
	var out convert.CardDTO
	err := c.doJSON(ctx, http.MethodPost, "/card/"+url.PathEscape(shareID)+"/save", nil, &out)
	return out, err
}

// Scan resolves scanned text (a share link or a bare share id).
func (c *Client) Scan(ctx context.Context, text string) (convert.ScanResponse, error) {
	var out convert.ScanResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/scan", convert.ScanRequest{Text: text}, &out)
	return out, err
}

// ScanImage uploads a photo of a QR code for decoding on the server.
func (c *Client) ScanImage(ctx context.Context, img File) (convert.ScanResponse, error) {
	var out convert.ScanResponse
	err := c.doMultipart(ctx, "/api/scan", nil, map[string]*File{"image": &img}, &out)
	return out, err
}

// --- profile ---

func (c *Client) Profile(ctx context.Context) (convert.ProfileDTO, error) {
	var out convert.ProfileDTO
	err := c.doJSON(ctx, http.MethodGet, "/api/profile", nil, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, patch convert.ProfilePatchDTO) (convert.ProfileDTO, error) {
	var out convert.ProfileDTO
	err := c.doJSON(ctx, http.MethodPatch, "/api/profile", patch, &out)
	return out, err
}

func (c *Client) UploadPhoto(ctx context.Context, photo File) (convert.ProfileDTO, error) {
	var out convert.ProfileDTO
	err := c.doMultipart(ctx, "/api/profile/photo", nil, map[string]*File{"photo": &photo}, &out)
	return out, err
}

// IsUnauthorized reports whether err means the token is missing or revoked.
func IsUnauthorized(err error) bool { return errors.Is(err, errs.ErrUnauthorized) }
