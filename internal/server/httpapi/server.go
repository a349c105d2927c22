// Package httpapi exposes the CardVault HTTP/JSON API on gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/cardvault/internal/qr"
	"github.com/and161185/cardvault/internal/service"
)

// DefaultMaxUpload bounds multipart request bodies.
const DefaultMaxUpload = 20 << 20

// Pinger reports backend reachability for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API is wired to.
type Deps struct {
	Auth     service.AuthService
	Cards    service.CardService
	Share    service.ShareService
	Profiles service.ProfileService
	Codec    *qr.Codec
	Health   Pinger
	Log      *zap.Logger

	// ObjectsDir, when set, is served under /objects/ for the local object store.
	ObjectsDir string
	MaxUpload  int64
	// Heartbeat is the keep-alive interval of SSE streams.
	Heartbeat time.Duration
}

// Server wires services into HTTP handlers.
type Server struct {
	Deps
}

// New constructs the API server.
func New(d Deps) *Server {
	if d.MaxUpload <= 0 {
		d.MaxUpload = DefaultMaxUpload
	}
	if d.Heartbeat <= 0 {
		d.Heartbeat = 25 * time.Second
	}
	if d.Codec == nil {
		d.Codec = qr.NewCodec()
	}
	return &Server{Deps: d}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(Recover(s.Log), Logging(s.Log))

	r.GET("/healthz", s.healthz)

	api := r.Group("/api")
	api.POST("/auth/signup", s.signUp)
	api.POST("/auth/signin", s.signIn)
	api.POST("/scan", s.scan)

	authed := api.Group("", RequireAuth(s.Auth))
	authed.POST("/auth/signout", s.signOut)
	authed.GET("/auth/me", s.me)

	authed.GET("/cards", s.listCards)
	authed.GET("/cards/watch", s.watchCards)
	authed.POST("/cards", s.createCard)
	authed.GET("/cards/:id", s.getCard)
	authed.PATCH("/cards/:id", s.updateCard)
	authed.DELETE("/cards/:id", s.deleteCard)
	authed.GET("/cards/:id/qr.png", s.cardQR)

	authed.GET("/profile", s.getProfile)
	authed.PATCH("/profile", s.updateProfile)
	authed.POST("/profile/photo", s.uploadPhoto)

	r.GET("/card/:shareId", s.publicCard)
	r.GET("/card/:shareId/qr.png", s.publicQR)
	r.POST("/card/:shareId/save", RequireAuth(s.Auth), s.saveCard)

	if s.ObjectsDir != "" {
		r.Static("/objects", s.ObjectsDir)
	}
	return r
}

// fail writes the error response; server-side failures are logged.
func (s *Server) fail(c *gin.Context, err error) {
	code, _ := StatusOf(err)
	if code >= http.StatusInternalServerError {
		s.Log.Warn("request failed", zap.String("path", c.FullPath()), zap.Int("status", code), zap.Error(err))
	}
	abortError(c, err)
}

func (s *Server) healthz(c *gin.Context) {
	db := "ok"
	code := http.StatusOK
	if s.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.Health.Ping(ctx); err != nil {
			db, code = "down", http.StatusServiceUnavailable
		}
	}
	status := "ok"
	if code != http.StatusOK {
		status = "degraded"
	}
	c.JSON(code, gin.H{"status": status, "db": db})
}
