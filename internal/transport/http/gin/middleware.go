package httpgin

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kirinyoku/tix-factory/internal/auth"
	"github.com/kirinyoku/tix-factory/internal/domain"
)

const (
	ctxRequestID = "request_id"
	ctxCaller    = "caller"
)

// TokenParser turns a raw bearer token into the caller it identifies.
type TokenParser interface {
	Parse(raw string) (domain.Caller, error)
}

// maxRequestIDLen bounds client supplied request ids before they reach logs.
const maxRequestIDLen = 64

// RequestIDMiddleware propagates X-Request-ID, minting a fresh id when the
// client sends none or an unusable one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" || len(id) > maxRequestIDLen || strings.ContainsAny(id, " \t\r\n") {
			id = uuid.NewString()
		}

		c.Header("X-Request-ID", id)
		c.Set(ctxRequestID, id)
		c.Next()
	}
}

// CORS allows the given origins, or any origin when none are listed. The
// idempotency and conditional request headers must survive preflight.
func CORS(origins ...string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	cfg.AddAllowHeaders("Authorization", "X-Request-ID", "Idempotency-Key", "If-None-Match")
	cfg.ExposeHeaders = []string{"X-Request-ID", "ETag", "Cache-Control", "Retry-After"}
	cfg.MaxAge = 12 * time.Hour

	return cors.New(cfg)
}

// LoggingMiddleware writes one line per request. Server errors log at error
// level and client errors at warn.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		reqID := c.GetString(ctxRequestID)

		args := []any{
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.String("path", c.Request.URL.RequestURI()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", c.Writer.Size()),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", reqID),
		}
		if caller, ok := callerFrom(c); ok {
			args = append(args, slog.String("caller", string(caller.Account)))
		}
		if len(c.Errors) > 0 {
			args = append(args, slog.String("errors", c.Errors.String()))
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		logger.LogAttrs(c.Request.Context(), level, "http", slog.Group("http", args...))
	}
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller for the handlers.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := auth.FromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
			return
		}

		caller, err := tokens.Parse(raw)
		if err != nil {
			msg := auth.ErrInvalidToken.Error()
			if !errors.Is(err, auth.ErrInvalidToken) {
				msg = err.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: msg})
			return
		}

		c.Set(ctxCaller, caller)
		c.Next()
	}
}

func callerFrom(c *gin.Context) (domain.Caller, bool) {
	v, ok := c.Get(ctxCaller)
	if !ok {
		return domain.Caller{}, false
	}
	caller, ok := v.(domain.Caller)
	return caller, ok
}
