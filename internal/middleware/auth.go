package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/models"
)

const identityKey = "identity"

// TokenVerifier resolves a bearer token to the caller's identity.
type TokenVerifier interface {
	Verify(token string) (models.Identity, error)
}

func authLog() *zap.Logger {
	return zap.L().With(zap.String("area", "auth"))
}

// AdminAuth admits only tokens carrying isAdmin. A valid non-admin token is
// treated like a missing one.
func AdminAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authenticate(c, verifier)
		if !ok {
			return
		}
		if !identity.IsAdmin {
			authLog().Warn("admin route rejected non-admin token",
				zap.String("user", identity.UserID.Hex()),
				zap.String("path", c.FullPath()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin access required"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by UserAuth or AdminAuth, or the
// zero Identity on routes without auth.
func IdentityFrom(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(models.Identity); ok {
			return identity
		}
	}
	return models.Identity{}
}

func authenticate(c *gin.Context, verifier TokenVerifier) (models.Identity, bool) {
	token, err := auth.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		authLog().Debug("bearer token rejected", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return models.Identity{}, false
	}

	identity, err := verifier.Verify(token)
	if err != nil {
		authLog().Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return models.Identity{}, false
	}
	return identity, true
}
