package middlewares

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// BasicAuth protects the management routes. Credentials come from the
// API_USER / API_PASSWD environment pair; comparison is constant-time.
func BasicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Header("WWW-Authenticate", `Basic realm="Restricted"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		token := strings.Split(authHeader, "Basic ")
		if len(token) != 2 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(token[1])
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		// SplitN keeps passwords containing ':' intact
		credentials := strings.SplitN(string(decoded), ":", 2)
		if len(credentials) != 2 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		userOk := subtle.ConstantTimeCompare([]byte(credentials[0]), []byte(os.Getenv("API_USER"))) == 1
		passOk := subtle.ConstantTimeCompare([]byte(credentials[1]), []byte(os.Getenv("API_PASSWD"))) == 1
		if !userOk || !passOk {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}
