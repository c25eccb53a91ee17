package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memorialqr/internal/service"
)

type reactionPayload struct {
	ReactionType string `json:"reaction_type" binding:"required"`
	VisitorID    string `json:"visitor_id"`
}

// RegisterVisit counts one public visit for a memorial. The caller treats it
// as fire-and-forget, so geolocation runs in the background and a missing
// memorial answers with a plain error body rather than a failure status.
func (a *API) RegisterVisit(c *gin.Context) {
	memorial, err := a.memorials.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrMemorialNotFound) {
			c.JSON(http.StatusOK, gin.H{"error": "Memorial no encontrado"})
			return
		}
		respondError(c, http.StatusInternalServerError, "No se pudo registrar la visita")
		return
	}

	if _, err := a.analytics.RecordVisit(
		memorial.ID,
		visitorID(c, c.Query("visitor_id")),
		clientIP(c),
		c.GetHeader("User-Agent"),
		c.GetHeader("Referer"),
	); err != nil {
		respondError(c, http.StatusInternalServerError, "No se pudo registrar la visita")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Visita registrada", "memorial_id": memorial.ID})
}

// GetReactions returns reaction tallies plus the requesting visitor's active
// set.
func (a *API) GetReactions(c *gin.Context) {
	memorial, err := a.memorials.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrMemorialNotFound) {
			c.JSON(http.StatusOK, service.MemorialReactions{
				MemorialID:    0,
				Counts:        service.ReactionCounts{},
				UserReactions: []string{},
			})
			return
		}
		respondError(c, http.StatusInternalServerError, "No se pudieron cargar las reacciones")
		return
	}

	reactions, err := a.analytics.Reactions(memorial.ID, strings.TrimSpace(c.Query("visitor_id")))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "No se pudieron cargar las reacciones")
		return
	}
	c.JSON(http.StatusOK, reactions)
}

// ToggleReaction flips one reaction for a visitor and returns the refreshed
// tallies so the client never computes counts locally.
func (a *API) ToggleReaction(c *gin.Context) {
	memorial, err := a.memorials.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrMemorialNotFound) {
			c.JSON(http.StatusOK, gin.H{"error": "Memorial no encontrado"})
			return
		}
		respondError(c, http.StatusInternalServerError, "No se pudo registrar la reacción")
		return
	}

	var payload reactionPayload
	if !bindJSON(c, &payload, "Datos de la reacción no válidos") {
		return
	}

	// Reactions key on the client-generated id alone; no session fallback,
	// a missing id is a client error.
	visitor := strings.TrimSpace(payload.VisitorID)
	action, err := a.analytics.ToggleReaction(memorial.ID, payload.ReactionType, visitor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReactionTypeInvalid):
			c.JSON(http.StatusOK, gin.H{"error": "Tipo de reacción no válido"})
		case errors.Is(err, service.ErrVisitorIDMissing):
			respondError(c, http.StatusUnprocessableEntity, "Falta el identificador de visitante")
		default:
			respondError(c, http.StatusInternalServerError, "No se pudo registrar la reacción")
		}
		return
	}

	reactions, err := a.analytics.Reactions(memorial.ID, visitor)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "No se pudo registrar la reacción")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action":         action,
		"reaction_type":  payload.ReactionType,
		"counts":         reactions.Counts,
		"user_reactions": reactions.UserReactions,
	})
}

// GetDashboardAnalytics aggregates every memorial of the current user,
// optionally filtered by a named period or an explicit date range.
func (a *API) GetDashboardAnalytics(c *gin.Context) {
	dateRange, ok := a.resolveDateRange(c)
	if !ok {
		return
	}

	dashboard, err := a.analytics.Dashboard(currentUser(c).ID, dateRange)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "No se pudieron cargar las estadísticas")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GetFilteredAnalytics returns the analytics block for one owned memorial.
func (a *API) GetFilteredAnalytics(c *gin.Context) {
	memorial, err := a.memorials.GetOwnedBySlug(c.Param("slug"), currentUser(c).ID)
	if err != nil {
		// Ownership failures read as not-found so slugs are not probeable.
		respondError(c, http.StatusNotFound, "Memorial no encontrado")
		return
	}

	dateRange, ok := a.resolveDateRange(c)
	if !ok {
		return
	}

	analytics, err := a.analytics.MemorialAnalytics(memorial, dateRange)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "No se pudieron cargar las estadísticas")
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// GetLocationStats returns the visitor location breakdown, owner only.
func (a *API) GetLocationStats(c *gin.Context) {
	memorial, err := a.memorials.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrMemorialNotFound) {
			c.JSON(http.StatusOK, gin.H{"error": "Memorial no encontrado"})
			return
		}
		respondError(c, http.StatusInternalServerError, "No se pudieron cargar las estadísticas")
		return
	}

	if memorial.OwnerID != currentUser(c).ID {
		respondError(c, http.StatusForbidden, "No tienes permiso para ver estas estadísticas")
		return
	}

	locations, err := a.analytics.LocationStats(memorial.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "No se pudieron cargar las estadísticas")
		return
	}
	c.JSON(http.StatusOK, gin.H{"memorial_id": memorial.ID, "locations": locations})
}

// resolveDateRange reads period/start_date/end_date query params. A named
// period wins over explicit dates, matching the original precedence.
func (a *API) resolveDateRange(c *gin.Context) (*service.DateRange, bool) {
	if period := strings.TrimSpace(c.Query("period")); period != "" {
		return a.analytics.RangeForPeriod(period), true
	}

	startRaw := strings.TrimSpace(c.Query("start_date"))
	endRaw := strings.TrimSpace(c.Query("end_date"))
	if startRaw == "" && endRaw == "" {
		return nil, true
	}
	if startRaw == "" || endRaw == "" {
		respondError(c, http.StatusUnprocessableEntity, "Se requieren fecha de inicio y fin")
		return nil, false
	}

	start, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Fecha de inicio no válida (YYYY-MM-DD)")
		return nil, false
	}
	end, err := time.Parse("2006-01-02", endRaw)
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Fecha de fin no válida (YYYY-MM-DD)")
		return nil, false
	}

	return &service.DateRange{Start: start, End: end}, true
}
