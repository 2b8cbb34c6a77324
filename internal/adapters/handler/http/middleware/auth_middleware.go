package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	authorizationType   = "Bearer"
	ContextDeviceIDKey  = "deviceID"
)

type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// AuthMiddleware accepts a Bearer header, or a token query parameter on
// websocket upgrades where browsers cannot set headers.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""

		authHeader := c.GetHeader(authorizationHeader)
		switch {
		case authHeader != "":
			fields := strings.Fields(authHeader)
			if len(fields) < 2 || fields[0] != authorizationType {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
				return
			}
			tokenString = fields[1]
		case strings.EqualFold(c.GetHeader("Upgrade"), "websocket"):
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		deviceID, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set(ContextDeviceIDKey, deviceID)

		c.Next()
	}
}

func GetDeviceID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ContextDeviceIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := id.(string)
	return idStr, ok
}
