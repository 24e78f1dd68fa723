package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PepaPanda/uu-backend-project/internal/apperr"
	"github.com/PepaPanda/uu-backend-project/internal/models"
)

const (
	// CookieName is the httpOnly cookie that carries the access token.
	CookieName = "access_token"

	identityKey = "identity"
	userIDKey   = "userID"
)

// JWTMiddleware rejects requests without a valid token. The token is read
// from the Authorization bearer header first, then from the access cookie.
func JWTMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(CookieName)
		}
		if token == "" {
			abortUnauthenticated(c, "Authentication required")
			return
		}

		claims, err := verifier.ValidateToken(token)
		if err != nil {
			abortUnauthenticated(c, "Invalid or expired token")
			return
		}

		c.Set(identityKey, claims.Identity)
		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func abortUnauthenticated(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(apperr.KindAuthFailed), gin.H{
		"error": msg,
		"code":  apperr.KindAuthFailed,
	})
}

func GetIdentity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok && id.UserID != ""
}

func GetUserID(c *gin.Context) (string, bool) {
	id, ok := GetIdentity(c)
	return id.UserID, ok
}
