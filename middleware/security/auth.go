package security

import (
	"net/http"
	"strings"

	errs "ChatHub/tools/errs"
	sec "ChatHub/tools/security"

	"github.com/gin-gonic/gin"
)

// context key for the authenticated user id
const CtxUserIDKey = "authUserId"

// Middleware verifies the bearer token on REST routes and stores the
// resolved user id in the request context.
func Middleware(verifier *sec.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader("Authorization"))
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[len("bearer "):])
		}

		userID, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.CodeOf(err))
			return
		}
		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// UserID reads the authenticated user id set by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
