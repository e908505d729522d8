package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/church-ops-api/pkg/middleware/requestid"
)

const (
	responseMetaKey  = "response_meta"
	responseStartKey = "response_started_at"

	// Keys emitted under the envelope's meta object.
	MetaCacheHit  = "cacheHit"
	MetaRequestID = "requestId"
	MetaElapsedMS = "elapsedMs"
)

// WithResponseMeta marks the start of the request so handlers can report timing
// alongside snapshot cache details.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit records whether the template snapshot came from redis.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[MetaCacheHit] = hit
}

// ExtractMeta returns the metadata for the response being written, stamped with
// the request id and the time spent so far. It returns nil when nothing was recorded.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, ok := raw.(map[string]interface{})
	if !ok || len(meta) == 0 {
		return nil
	}
	if id := requestid.Value(c); id != "" {
		meta[MetaRequestID] = id
	}
	if started, ok := c.Get(responseStartKey); ok {
		if at, ok := started.(time.Time); ok {
			meta[MetaElapsedMS] = time.Since(at).Milliseconds()
		}
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
