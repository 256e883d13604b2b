package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserAuth validates the bearer token and injects the caller's identity into
// the context.
func UserAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authenticate(c, verifier)
		if !ok {
			return
		}

		authLog().Debug("user token validated", zap.String("user", identity.UserID.Hex()))
		c.Set(identityKey, identity)
		c.Next()
	}
}
