package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/memorialqr/internal/db"
)

const currentUserKey = "currentUser"

// AuthRequired validates the bearer token and stores the current user in the
// request context. Responses follow the original 401 contract, including the
// WWW-Authenticate header.
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			abortUnauthorized(c)
			return
		}

		user, err := a.auth.UserFromToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	respondError(c, http.StatusUnauthorized, "No se pudieron validar las credenciales")
	c.Abort()
}

// currentUser returns the authenticated user placed by AuthRequired.
func currentUser(c *gin.Context) *db.User {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*db.User)
	if !ok {
		return nil
	}
	return user
}
