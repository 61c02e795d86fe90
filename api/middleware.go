package api

import (
	"net/http"
	"strings"

	"api_pos/internal/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionKey = "session"

// requireSession resolves the bearer token into a session and stores it on
// the request context.
func requireSession(authService *auth.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		session, err := authService.Authenticate(token)
		if err != nil {
			logger.Debug("rejected session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// requireRole lets the request through only for sessions whose role grants
// required.
func requireRole(required auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := currentSession(c)
		if !session.Role.Allows(required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role " + string(session.Role) + " cannot access this view"})
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return auth.Session{}
	}
	session, _ := v.(auth.Session)
	return session
}

// viewsFor lists the views the terminal offers to a role.
func viewsFor(role auth.Role) []string {
	views := []string{"products", "sell", "sales"}
	if role.Allows(auth.RoleAdmin) {
		views = append(views, "inventory", "users")
	}
	return views
}
