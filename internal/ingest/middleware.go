package ingest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Context keys set by the API key middleware for downstream handlers.
const (
	ContextSourceKey = "adapterSource"
	ContextKeyIDKey  = "adapterKeyID"
)

// APIKeyAuthMiddleware validates the X-Adapter-API-Key header and sets the
// adapter source on the gin context. Handlers use the source bound to the
// key, never a source claimed in the payload alone.
func APIKeyAuthMiddleware(repo *Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-Adapter-API-Key")
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		key, err := repo.GetByHash(c.Request.Context(), HashKey(apiKey))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Set(ContextSourceKey, key.Source)
		c.Set(ContextKeyIDKey, key.ID)
		c.Next()
	}
}
