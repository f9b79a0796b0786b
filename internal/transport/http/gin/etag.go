package httpgin

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// publicFor builds a Cache-Control value for shared caches.
func publicFor(maxAge time.Duration) string {
	return fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))
}

// writeJSONWithCache writes v as JSON with a weak ETag and Cache-Control.
// A matching If-None-Match gets 304 without a body.
func writeJSONWithCache(c *gin.Context, status int, v any, maxAge time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "encode response"})
		return
	}

	sum := sha256.Sum256(b)
	tag := `W/"` + hex.EncodeToString(sum[:16]) + `"`

	c.Header("ETag", tag)
	if maxAge > 0 {
		c.Header("Cache-Control", publicFor(maxAge))
	} else {
		c.Header("Cache-Control", "no-cache")
	}

	if c.GetHeader("If-None-Match") == tag {
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(status, "application/json; charset=utf-8", b)
}
