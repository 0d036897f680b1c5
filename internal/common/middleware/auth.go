package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"airdrop-claim-backend/internal/common/errors"
)

// RequireAdmin guards operator routes with the configured admin
// credentials, passed as X-Admin-Username / X-Admin-Password headers.
func RequireAdmin(username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		gotUser := c.GetHeader("X-Admin-Username")
		gotPass := c.GetHeader("X-Admin-Password")

		userOK := subtle.ConstantTimeCompare([]byte(gotUser), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(gotPass), []byte(password)) == 1
		if !userOK || !passOK {
			SendErrorResponse(c, errors.NewUnauthorizedError("admin credentials required"))
			return
		}

		c.Next()
	}
}
