package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/cardvault/internal/convert"
	"github.com/and161185/cardvault/internal/limiter"
	"github.com/and161185/cardvault/internal/live"
	"github.com/and161185/cardvault/internal/qr"
	"github.com/and161185/cardvault/internal/repository/memory"
	"github.com/and161185/cardvault/internal/service"
	"github.com/and161185/cardvault/internal/storage"
)

func init() { gin.SetMode(gin.TestMode) }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type testAPI struct {
	srv     *Server
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zaptest.NewLogger(t)
	st := memory.New()
	hub := live.NewHub()
	dir := t.TempDir()
	objects, err := storage.NewLocal(dir, "http://vault.test")
	require.NoError(t, err)

	srv := New(Deps{
		Auth:       service.NewAuthService(st.Accounts(), []byte("test-key"), time.Hour, limiter.NewMemory(limiter.DefaultPolicy), log),
		Cards:      service.NewCardService(st.Cards(), objects, hub, log),
		Share:      service.NewShareService(st.Cards(), hub, "http://vault.test"),
		Profiles:   service.NewProfileService(st.Profiles(), objects),
		Codec:      qr.NewCodec(),
		Health:     pinger{},
		Log:        log,
		ObjectsDir: dir,
	})
	return &testAPI{srv: srv, handler: srv.Router()}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

type part struct {
	field, filename string
	data            []byte
}

func (a *testAPI) multipart(t *testing.T, path, token string, fields map[string][]string, files ...part) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) signUp(t *testing.T, email string) convert.SessionDTO {
	t.Helper()
	name := "Tester"
	rec := a.do(t, http.MethodPost, "/api/auth/signup", "", convert.SignUpRequest{Email: email, Password: "secret1", Name: &name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[convert.SessionDTO](t, rec)
}

func (a *testAPI) addCard(t *testing.T, token, name string, tags ...string) convert.CardDTO {
	t.Helper()
	rec := a.multipart(t, "/api/cards", token,
		map[string][]string{"fullName": {name}, "company": {"Acme"}, "tags": tags},
		part{"front", "front.png", []byte("front-bytes")})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[convert.CardDTO](t, rec)
}

var errBoom = errors.New("boom")
