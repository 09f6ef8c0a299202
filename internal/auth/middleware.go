package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hgonzalo/tienda-service/pkg/cache"
	"github.com/hgonzalo/tienda-service/pkg/logger"
)

const tokenCachePrefix = "auth:token:"

// Middleware resolves the bearer token to an owner id via the identity
// provider and stores it on the request context. Verified tokens are cached
// briefly in Redis to keep provider round-trips off the hot path.
func Middleware(provider Provider, redis *cache.RedisClient, ttl time.Duration, log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		cacheKey := tokenCachePrefix + token
		if redis != nil {
			if ownerID, err := redis.Client.Get(c.Request.Context(), cacheKey).Result(); err == nil && ownerID != "" {
				c.Request = c.Request.WithContext(WithOwnerID(c.Request.Context(), ownerID))
				c.Next()
				return
			}
		}

		session, err := provider.CurrentSession(c.Request.Context(), token)
		if err != nil {
			if err != ErrInvalidToken {
				log.Error("identity provider lookup failed", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		if redis != nil {
			if err := redis.Client.Set(c.Request.Context(), cacheKey, session.User.ID, ttl).Err(); err != nil {
				log.Warn("failed to cache token", zap.Error(err))
			}
		}

		c.Request = c.Request.WithContext(WithOwnerID(c.Request.Context(), session.User.ID))
		c.Next()
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
