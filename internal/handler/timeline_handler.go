package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memorialqr/internal/db"
	"github.com/memorialqr/internal/service"
)

type timelineEventPayload struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	EventDate    string `json:"event_date" binding:"required"`
	EventType    string `json:"event_type"`
	Icon         string `json:"icon"`
	DisplayOrder int    `json:"display_order"`
}

func (p timelineEventPayload) toInput() service.TimelineEventInput {
	return service.TimelineEventInput{
		Title:        p.Title,
		Description:  p.Description,
		EventDate:    p.EventDate,
		EventType:    p.EventType,
		Icon:         p.Icon,
		DisplayOrder: p.DisplayOrder,
	}
}

type timelineEventResponse struct {
	ID            uint      `json:"id"`
	MemorialID    uint      `json:"memorial_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	EventDate     string    `json:"event_date"`
	EventType     string    `json:"event_type"`
	ImageFilename string    `json:"image_filename,omitempty"`
	Icon          string    `json:"icon,omitempty"`
	DisplayOrder  int       `json:"display_order"`
	CreatedAt     time.Time `json:"created_at"`
}

func toTimelineEventResponse(event *db.TimelineEvent) timelineEventResponse {
	return timelineEventResponse{
		ID:            event.ID,
		MemorialID:    event.MemorialID,
		Title:         event.Title,
		Description:   event.Description,
		EventDate:     event.EventDate,
		EventType:     event.EventType,
		ImageFilename: event.ImageFilename,
		Icon:          event.Icon,
		DisplayOrder:  event.DisplayOrder,
		CreatedAt:     event.CreatedAt,
	}
}

// GetPublicTimeline returns a memorial's life timeline for visitors.
func (a *API) GetPublicTimeline(c *gin.Context) {
	memorialID, events, err := a.timelines.ListBySlug(c.Param("slug"))
	if err != nil {
		a.respondTimelineError(c, err, "No se pudo cargar la línea de tiempo")
		return
	}

	out := make([]timelineEventResponse, 0, len(events))
	for i := range events {
		out = append(out, toTimelineEventResponse(&events[i]))
	}
	c.JSON(http.StatusOK, gin.H{"memorial_id": memorialID, "events": out})
}

// GetTimelineEventTypes lists the event categories clients may pick from.
func (a *API) GetTimelineEventTypes(c *gin.Context) {
	c.JSON(http.StatusOK, service.EventTypes())
}

// CreateTimelineEvent adds a life event to an owned memorial. The route
// wildcard is named "id" to share the tree with the event routes, but here it
// carries the memorial id.
func (a *API) CreateTimelineEvent(c *gin.Context) {
	memorialID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ID de memorial no válido")
		return
	}

	var payload timelineEventPayload
	if !bindJSON(c, &payload, "El título y la fecha del evento son obligatorios") {
		return
	}

	event, err := a.timelines.Create(memorialID, currentUser(c).ID, payload.toInput())
	if err != nil {
		a.respondTimelineError(c, err, "No se pudo crear el evento")
		return
	}

	c.JSON(http.StatusCreated, toTimelineEventResponse(event))
}

// UpdateTimelineEvent edits a life event.
func (a *API) UpdateTimelineEvent(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ID de evento no válido")
		return
	}

	var payload timelineEventPayload
	if !bindJSON(c, &payload, "El título y la fecha del evento son obligatorios") {
		return
	}

	event, err := a.timelines.Update(id, currentUser(c).ID, payload.toInput())
	if err != nil {
		a.respondTimelineError(c, err, "No se pudo actualizar el evento")
		return
	}

	c.JSON(http.StatusOK, toTimelineEventResponse(event))
}

// DeleteTimelineEvent removes a life event.
func (a *API) DeleteTimelineEvent(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ID de evento no válido")
		return
	}

	if err := a.timelines.Delete(id, currentUser(c).ID); err != nil {
		a.respondTimelineError(c, err, "No se pudo eliminar el evento")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Evento eliminado"})
}

// UploadTimelineEventImage attaches a photo to a life event.
func (a *API) UploadTimelineEventImage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ID de evento no válido")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No se encontró el archivo")
		return
	}

	content, err := readFormFile(file, a.cfg.MaxUploadSizeBytes)
	if err != nil {
		respondError(c, http.StatusBadRequest, "El archivo excede el tamaño máximo permitido (10MB)")
		return
	}

	event, err := a.timelines.AttachImage(id, currentUser(c).ID, content, file.Filename, file.Header.Get("Content-Type"))
	if err != nil {
		a.respondTimelineError(c, err, "No se pudo subir la imagen")
		return
	}

	c.JSON(http.StatusOK, toTimelineEventResponse(event))
}

func (a *API) respondTimelineError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrMemorialNotFound):
		respondError(c, http.StatusNotFound, "Memorial no encontrado")
	case errors.Is(err, service.ErrEventNotFound):
		respondError(c, http.StatusNotFound, "Evento no encontrado")
	case errors.Is(err, service.ErrNotOwner):
		respondError(c, http.StatusForbidden, "No tienes permiso para modificar este memorial")
	case errors.Is(err, service.ErrEventTitleMissing), errors.Is(err, service.ErrEventDateMissing):
		respondError(c, http.StatusUnprocessableEntity, "El título y la fecha del evento son obligatorios")
	case errors.Is(err, service.ErrMediaTypeInvalid):
		respondError(c, http.StatusBadRequest, "Tipo de archivo no permitido")
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
