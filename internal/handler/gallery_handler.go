package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memorialqr/internal/db"
	"github.com/memorialqr/internal/service"
)

type mediaUpdatePayload struct {
	Title        *string `json:"title"`
	Caption      *string `json:"caption"`
	AltText      *string `json:"alt_text"`
	TakenAt      *string `json:"taken_at"`
	Location     *string `json:"location"`
	DisplayOrder *int    `json:"display_order"`
	IsFeatured   *bool   `json:"is_featured"`
	IsCover      *bool   `json:"is_cover"`
}

type mediaItemResponse struct {
	ID           uint      `json:"id"`
	MemorialID   uint      `json:"memorial_id"`
	Filename     string    `json:"filename"`
	MediaType    string    `json:"media_type"`
	MimeType     string    `json:"mime_type,omitempty"`
	FileSize     int64     `json:"file_size,omitempty"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	Title        string    `json:"title,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	AltText      string    `json:"alt_text,omitempty"`
	TakenAt      string    `json:"taken_at,omitempty"`
	Location     string    `json:"location,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsFeatured   bool      `json:"is_featured"`
	IsCover      bool      `json:"is_cover"`
	CreatedAt    time.Time `json:"created_at"`
}

func toMediaItemResponse(item *db.MediaItem) mediaItemResponse {
	return mediaItemResponse{
		ID:           item.ID,
		MemorialID:   item.MemorialID,
		Filename:     item.Filename,
		MediaType:    item.MediaType,
		MimeType:     item.MimeType,
		FileSize:     item.FileSize,
		Width:        item.Width,
		Height:       item.Height,
		Title:        item.Title,
		Caption:      item.Caption,
		AltText:      item.AltText,
		TakenAt:      item.TakenAt,
		Location:     item.Location,
		DisplayOrder: item.DisplayOrder,
		IsFeatured:   item.IsFeatured,
		IsCover:      item.IsCover,
		CreatedAt:    item.CreatedAt,
	}
}

// GetPublicGallery returns a memorial's gallery for visitors.
func (a *API) GetPublicGallery(c *gin.Context) {
	memorialID, items, err := a.galleries.ListBySlug(c.Param("slug"))
	if err != nil {
		a.respondGalleryError(c, err, "No se pudo cargar la galería")
		return
	}

	out := make([]mediaItemResponse, 0, len(items))
	for i := range items {
		out = append(out, toMediaItemResponse(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"memorial_id": memorialID,
		"items":       out,
		"total":       len(out),
	})
}

// UploadMedia adds a photo or video to an owned memorial's gallery.
func (a *API) UploadMedia(c *gin.Context) {
	memorialID, err := parseUintParam(c, "memorialID")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ID de memorial no válido")
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

	item, err := a.galleries.Upload(memorialID, currentUser(c).ID, service.MediaUpload{
		Content:          content,
		OriginalFilename: file.Filename,
		ContentType:      file.Header.Get("Content-Type"),
		Title:            c.PostForm("title"),
		Caption:          c.PostForm("caption"),
		TakenAt:          c.PostForm("taken_at"),
		Location:         c.PostForm("location"),
	})
	if err != nil {
		a.respondGalleryError(c, err, "No se pudo subir el archivo")
		return
	}

	c.JSON(http.StatusCreated, toMediaItemResponse(item))
}

// UpdateMediaItem edits metadata of a gallery item.
func (a *API) UpdateMediaItem(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ID de elemento no válido")
		return
	}

	var payload mediaUpdatePayload
	if !bindJSON(c, &payload, "Datos del elemento no válidos") {
		return
	}

	item, err := a.galleries.Update(id, currentUser(c).ID, service.MediaUpdate{
		Title:        payload.Title,
		Caption:      payload.Caption,
		AltText:      payload.AltText,
		TakenAt:      payload.TakenAt,
		Location:     payload.Location,
		DisplayOrder: payload.DisplayOrder,
		IsFeatured:   payload.IsFeatured,
		IsCover:      payload.IsCover,
	})
	if err != nil {
		a.respondGalleryError(c, err, "No se pudo actualizar el elemento")
		return
	}

	c.JSON(http.StatusOK, toMediaItemResponse(item))
}

// DeleteMediaItem removes a gallery item and its file.
func (a *API) DeleteMediaItem(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "ID de elemento no válido")
		return
	}

	if err := a.galleries.Delete(id, currentUser(c).ID); err != nil {
		a.respondGalleryError(c, err, "No se pudo eliminar el elemento")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Elemento eliminado"})
}

func (a *API) respondGalleryError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrMemorialNotFound):
		respondError(c, http.StatusNotFound, "Memorial no encontrado")
	case errors.Is(err, service.ErrMediaNotFound):
		respondError(c, http.StatusNotFound, "Elemento no encontrado")
	case errors.Is(err, service.ErrNotOwner):
		respondError(c, http.StatusForbidden, "No tienes permiso para modificar este memorial")
	case errors.Is(err, service.ErrMediaTypeInvalid):
		respondError(c, http.StatusBadRequest, "Tipo de archivo no permitido")
	case errors.Is(err, service.ErrMediaTooLarge):
		respondError(c, http.StatusBadRequest, "El archivo excede el tamaño máximo permitido (10MB)")
	case errors.Is(err, service.ErrGalleryFull):
		respondError(c, http.StatusBadRequest, "Límite de 50 archivos alcanzado")
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
