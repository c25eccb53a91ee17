package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memorialqr/internal/db"
	"github.com/memorialqr/internal/service"
)

type condolencePayload struct {
	AuthorName         string `json:"author_name" binding:"required,min=2"`
	AuthorEmail        string `json:"author_email" binding:"omitempty,email"`
	AuthorRelationship string `json:"author_relationship"`
	Message            string `json:"message" binding:"required,min=10"`
	VisitorID          string `json:"visitor_id"`
}

type moderationPayload struct {
	IsApproved *bool `json:"is_approved"`
	IsFeatured *bool `json:"is_featured"`
}

type condolenceResponse struct {
	ID                 uint       `json:"id"`
	MemorialID         uint       `json:"memorial_id"`
	AuthorName         string     `json:"author_name"`
	AuthorRelationship string     `json:"author_relationship,omitempty"`
	Message            string     `json:"message"`
	IsApproved         bool       `json:"is_approved"`
	IsFeatured         bool       `json:"is_featured"`
	CreatedAt          time.Time  `json:"created_at"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
}

func toCondolenceResponse(condolence *db.Condolence) condolenceResponse {
	return condolenceResponse{
		ID:                 condolence.ID,
		MemorialID:         condolence.MemorialID,
		AuthorName:         condolence.AuthorName,
		AuthorRelationship: condolence.AuthorRelationship,
		Message:            condolence.Message,
		IsApproved:         condolence.IsApproved,
		IsFeatured:         condolence.IsFeatured,
		CreatedAt:          condolence.CreatedAt,
		ApprovedAt:         condolence.ApprovedAt,
	}
}

func toCondolenceListResponse(list *service.CondolenceList) gin.H {
	items := make([]condolenceResponse, 0, len(list.Items))
	for i := range list.Items {
		items = append(items, toCondolenceResponse(&list.Items[i]))
	}
	return gin.H{
		"items":         items,
		"total":         list.Total,
		"pending_count": list.PendingCount,
	}
}

// ListCondolences returns the approved guestbook of a memorial (public view).
func (a *API) ListCondolences(c *gin.Context) {
	list, err := a.condolences.List(
		c.Param("slug"),
		true,
		parseIntQuery(c, "limit", 50),
		parseIntQuery(c, "offset", 0),
	)
	if err != nil {
		a.respondCondolenceError(c, err, "No se pudieron cargar las condolencias")
		return
	}
	c.JSON(http.StatusOK, toCondolenceListResponse(list))
}

// CreateCondolence stores a visitor message, pending moderation.
func (a *API) CreateCondolence(c *gin.Context) {
	var payload condolencePayload
	if !bindJSON(c, &payload, "El nombre debe tener al menos 2 caracteres y el mensaje al menos 10") {
		return
	}

	condolence, err := a.condolences.Create(c.Param("slug"), service.CondolenceInput{
		AuthorName:         payload.AuthorName,
		AuthorEmail:        payload.AuthorEmail,
		AuthorRelationship: payload.AuthorRelationship,
		Message:            payload.Message,
		VisitorID:          strings.TrimSpace(payload.VisitorID),
		IPAddress:          clientIP(c),
	})
	if err != nil {
		a.respondCondolenceError(c, err, "No se pudo enviar la condolencia")
		return
	}

	c.JSON(http.StatusCreated, toCondolenceResponse(condolence))
}

// ListCondolencesForOwner is the moderation queue: every state plus the
// pending count, owner only.
func (a *API) ListCondolencesForOwner(c *gin.Context) {
	list, err := a.condolences.ListOwned(
		c.Param("slug"),
		currentUser(c).ID,
		parseIntQuery(c, "limit", 50),
		parseIntQuery(c, "offset", 0),
	)
	if err != nil {
		a.respondCondolenceError(c, err, "No se pudieron cargar las condolencias")
		return
	}
	c.JSON(http.StatusOK, toCondolenceListResponse(list))
}

// ModerateCondolence approves, rejects or features a message.
func (a *API) ModerateCondolence(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ID de condolencia no válido")
		return
	}

	var payload moderationPayload
	if !bindJSON(c, &payload, "Datos de moderación no válidos") {
		return
	}

	condolence, err := a.condolences.Moderate(id, currentUser(c).ID, service.ModerationInput{
		IsApproved: payload.IsApproved,
		IsFeatured: payload.IsFeatured,
	})
	if err != nil {
		a.respondCondolenceError(c, err, "No se pudo moderar la condolencia")
		return
	}

	c.JSON(http.StatusOK, toCondolenceResponse(condolence))
}

// DeleteCondolence removes a message permanently.
func (a *API) DeleteCondolence(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ID de condolencia no válido")
		return
	}

	if err := a.condolences.Delete(id, currentUser(c).ID); err != nil {
		a.respondCondolenceError(c, err, "No se pudo eliminar la condolencia")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Condolencia eliminada"})
}

func (a *API) respondCondolenceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrMemorialNotFound):
		respondError(c, http.StatusNotFound, "Memorial no encontrado")
	case errors.Is(err, service.ErrCondolenceNotFound):
		respondError(c, http.StatusNotFound, "Condolencia no encontrada")
	case errors.Is(err, service.ErrNotOwner):
		respondError(c, http.StatusForbidden, "No tienes permiso para gestionar estas condolencias")
	case errors.Is(err, service.ErrAuthorNameTooShort), errors.Is(err, service.ErrMessageTooShort):
		respondError(c, http.StatusUnprocessableEntity, "El nombre debe tener al menos 2 caracteres y el mensaje al menos 10")
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
