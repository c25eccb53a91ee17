package handler

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const visitorSessionKey = "visitor_id"

// visitorID prefers the client-generated identifier and falls back to a
// server-assigned one kept in the cookie session, so visit records stay
// attributable even for clients that never send an id.
func visitorID(c *gin.Context, explicit string) string {
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		return trimmed
	}

	session := sessions.Default(c)
	if stored, ok := session.Get(visitorSessionKey).(string); ok && stored != "" {
		return stored
	}

	generated := uuid.New().String()
	session.Set(visitorSessionKey, generated)
	// A failed cookie write only costs the fallback id continuity.
	_ = session.Save()
	return generated
}
