package api

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/Domenick1991/flightticket/internal/metrics"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

type TokenParser interface {
	Parse(token string) (domain.Principal, error)
}

// RequireAuth accepts "Authorization: Bearer <token>" and stores the caller's
// principal in the context.
func RequireAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			abortWith(c, &domain.AuthError{Reason: "no Authorization header provided"})
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || scheme != "Bearer" || token == "" {
			abortWith(c, &domain.AuthError{Reason: "malformed Authorization header"})
			return
		}

		principal, err := parser.Parse(token)
		if err != nil {
			abortWith(c, err)
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !principalFrom(c).IsAdmin {
			abortWith(c, &domain.ForbiddenError{Reason: "admin access required"})
			return
		}
		c.Next()
	}
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(started).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		metrics.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(started))
	}
}

func principalFrom(c *gin.Context) domain.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(domain.Principal); ok {
			return p
		}
	}
	return domain.Principal{}
}

func abortWith(c *gin.Context, err error) {
	writeError(c, err)
	c.Abort()
}
