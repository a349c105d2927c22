package httpapi

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/cardvault/internal/errs"
	"github.com/and161185/cardvault/internal/model"
	"github.com/and161185/cardvault/internal/service"
)

// Logging logs one line per request.
func Logging(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// no payloads, metadata only
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", c.ClientIP()),
		)
	}
}

// Recover turns handler panics into 500 responses.
func Recover(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			}
		}()
		c.Next()
	}
}

// RequireAuth resolves the bearer token to an account or aborts with 401.
// EventSource clients that cannot set headers may pass access_token in the query.
func RequireAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c.GetHeader("Authorization"))
		if tok == "" {
			tok = c.Query("access_token")
		}
		if tok == "" {
			abortError(c, errs.ErrUnauthorized)
			return
		}
		a, err := auth.Authenticate(c.Request.Context(), tok)
		if err != nil {
			abortError(c, err)
			return
		}
		c.Request = c.Request.WithContext(WithAccount(c.Request.Context(), a))
		c.Next()
	}
}

func account(c *gin.Context) model.Account {
	a, _ := AccountFromContext(c.Request.Context())
	return a
}
