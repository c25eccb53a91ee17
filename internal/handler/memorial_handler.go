package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memorialqr/internal/db"
	"github.com/memorialqr/internal/service"
)

type memorialPayload struct {
	Name      string `json:"name" binding:"required"`
	Epitaph   string `json:"epitaph"`
	Bio       string `json:"bio"`
	BirthDate string `json:"birth_date"`
	DeathDate string `json:"death_date"`
}

func (p memorialPayload) toInput() service.MemorialInput {
	return service.MemorialInput{
		Name:      p.Name,
		Epitaph:   p.Epitaph,
		Bio:       p.Bio,
		BirthDate: p.BirthDate,
		DeathDate: p.DeathDate,
	}
}

type memorialResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Epitaph       string    `json:"epitaph,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	BirthDate     string    `json:"birth_date,omitempty"`
	DeathDate     string    `json:"death_date,omitempty"`
	ImageFilename string    `json:"image_filename,omitempty"`
	OwnerID       uint      `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type publicMemorialResponse struct {
	memorialResponse
	BioHTML string `json:"bio_html,omitempty"`
	Age     *int   `json:"age,omitempty"`
}

func toMemorialResponse(m *db.Memorial) memorialResponse {
	return memorialResponse{
		ID:            m.ID,
		Name:          m.Name,
		Slug:          m.Slug,
		Epitaph:       m.Epitaph,
		Bio:           m.Bio,
		BirthDate:     m.BirthDate,
		DeathDate:     m.DeathDate,
		ImageFilename: m.ImageFilename,
		OwnerID:       m.OwnerID,
		CreatedAt:     m.CreatedAt,
	}
}

// CreateMemorial creates a memorial owned by the current user.
func (a *API) CreateMemorial(c *gin.Context) {
	var payload memorialPayload
	if !bindJSON(c, &payload, "Datos del memorial no válidos") {
		return
	}

	memorial, err := a.memorials.Create(payload.toInput(), currentUser(c).ID)
	if err != nil {
		if errors.Is(err, service.ErrNameRequired) {
			respondError(c, http.StatusUnprocessableEntity, "El nombre es obligatorio")
			return
		}
		respondError(c, http.StatusInternalServerError, "No se pudo crear el memorial")
		return
	}

	c.JSON(http.StatusCreated, toMemorialResponse(memorial))
}

// ListMemorials returns the current user's memorials.
func (a *API) ListMemorials(c *gin.Context) {
	memorials, err := a.memorials.ListByOwner(currentUser(c).ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "No se pudieron cargar los memoriales")
		return
	}

	out := make([]memorialResponse, 0, len(memorials))
	for i := range memorials {
		out = append(out, toMemorialResponse(&memorials[i]))
	}
	c.JSON(http.StatusOK, out)
}

// UpdateMemorial applies edits to an owned memorial. The slug never changes.
func (a *API) UpdateMemorial(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ID de memorial no válido")
		return
	}

	var payload memorialPayload
	if !bindJSON(c, &payload, "Datos del memorial no válidos") {
		return
	}

	memorial, err := a.memorials.Update(id, currentUser(c).ID, payload.toInput())
	if err != nil {
		a.respondMemorialError(c, err, "No se pudo actualizar el memorial")
		return
	}

	c.JSON(http.StatusOK, toMemorialResponse(memorial))
}

// DeleteMemorial removes an owned memorial and all attached content.
func (a *API) DeleteMemorial(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ID de memorial no válido")
		return
	}

	if err := a.memorials.Delete(id, currentUser(c).ID); err != nil {
		a.respondMemorialError(c, err, "No se pudo eliminar el memorial")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Memorial eliminado"})
}

// GetPublicMemorial serves the visitor-facing memorial page data.
func (a *API) GetPublicMemorial(c *gin.Context) {
	memorial, err := a.memorials.GetBySlug(c.Param("slug"))
	if err != nil {
		a.respondMemorialError(c, err, "No se pudo cargar el memorial")
		return
	}

	response := publicMemorialResponse{
		memorialResponse: toMemorialResponse(memorial),
		BioHTML:          renderBioHTML(memorial.Bio),
	}
	if age := service.Age(memorial.BirthDate, memorial.DeathDate); age >= 0 {
		response.Age = &age
	}

	c.JSON(http.StatusOK, response)
}

// GetMemorialQR streams the printable QR code PNG for a memorial slug.
func (a *API) GetMemorialQR(c *gin.Context) {
	slug := c.Param("slug")
	if _, err := a.memorials.GetBySlug(slug); err != nil {
		a.respondMemorialError(c, err, "No se pudo generar el código QR")
		return
	}

	png, err := a.qr.GeneratePNG(slug)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "No se pudo generar el código QR")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s-qr.png", slug))
	c.Data(http.StatusOK, "image/png", png)
}

// UploadMemorialPhoto replaces the memorial's main photo.
func (a *API) UploadMemorialPhoto(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ID de memorial no válido")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No se encontró el archivo")
		return
	}

	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		respondError(c, http.StatusBadRequest, "Solo se permiten imágenes")
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(fileExtOrDefault(file.Filename), "."))
	filename := fmt.Sprintf("%s.%s", newUploadToken(), ext)
	if err := c.SaveUploadedFile(file, a.uploadPath(filename)); err != nil {
		respondError(c, http.StatusInternalServerError, "No se pudo guardar el archivo")
		return
	}

	memorial, err := a.memorials.UpdateImage(id, currentUser(c).ID, filename)
	if err != nil {
		a.respondMemorialError(c, err, "No se pudo actualizar el memorial")
		return
	}

	c.JSON(http.StatusOK, toMemorialResponse(memorial))
}

func (a *API) respondMemorialError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrMemorialNotFound):
		respondError(c, http.StatusNotFound, "Memorial no encontrado")
	case errors.Is(err, service.ErrNotOwner):
		respondError(c, http.StatusForbidden, "No tienes permiso para editar este memorial")
	case errors.Is(err, service.ErrNameRequired):
		respondError(c, http.StatusUnprocessableEntity, "El nombre es obligatorio")
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
