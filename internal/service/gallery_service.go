package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/memorialqr/internal/db"
	"gorm.io/gorm"

	_ "golang.org/x/image/webp"
)

var (
	ErrMediaNotFound    = errors.New("media item not found")
	ErrMediaTypeInvalid = errors.New("media type is not allowed")
	ErrMediaTooLarge    = errors.New("media file exceeds the size limit")
	ErrGalleryFull      = errors.New("gallery item limit reached")
)

const (
	maxItemsPerMemorial = 50
	maxMediaFileSize    = 10 * 1024 * 1024
)

var (
	allowedImageTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  true,
	}
	allowedVideoTypes = map[string]bool{
		"video/mp4":  true,
		"video/webm": true,
	}
)

// GalleryService manages a memorial's multimedia gallery, including the files
// on disk.
type GalleryService struct {
	db        *gorm.DB
	memorials *MemorialService
	uploadDir string
}

// MediaUpload carries an uploaded file plus optional descriptive metadata.
type MediaUpload struct {
	Content          []byte
	OriginalFilename string
	ContentType      string
	Title            string
	Caption          string
	TakenAt          string
	Location         string
}

// MediaUpdate carries metadata changes. Nil fields are left untouched.
type MediaUpdate struct {
	Title        *string
	Caption      *string
	AltText      *string
	TakenAt      *string
	Location     *string
	DisplayOrder *int
	IsFeatured   *bool
	IsCover      *bool
}

// NewGalleryService creates a GalleryService storing files under uploadDir.
func NewGalleryService(gdb *gorm.DB, memorials *MemorialService, uploadDir string) *GalleryService {
	return &GalleryService{db: gdb, memorials: memorials, uploadDir: uploadDir}
}

// ListBySlug returns the gallery of a memorial, featured first then by
// display order.
func (s *GalleryService) ListBySlug(slug string) (uint, []db.MediaItem, error) {
	memorial, err := s.memorials.GetBySlug(slug)
	if err != nil {
		return 0, nil, err
	}

	var items []db.MediaItem
	if err := s.db.Where("memorial_id = ?", memorial.ID).
		Order("is_featured desc").
		Order("display_order asc").
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return memorial.ID, items, nil
}

// Upload validates and stores a media file for the memorial owner.
func (s *GalleryService) Upload(memorialID, ownerID uint, upload MediaUpload) (*db.MediaItem, error) {
	memorial, err := s.memorials.GetOwned(memorialID, ownerID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&db.MediaItem{}).Where("memorial_id = ?", memorial.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count >= maxItemsPerMemorial {
		return nil, ErrGalleryFull
	}

	contentType := strings.TrimSpace(upload.ContentType)
	var mediaType string
	switch {
	case allowedImageTypes[contentType]:
		mediaType = "image"
	case allowedVideoTypes[contentType]:
		mediaType = "video"
	default:
		return nil, ErrMediaTypeInvalid
	}

	if int64(len(upload.Content)) > maxMediaFileSize {
		return nil, ErrMediaTooLarge
	}

	token := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	filename := fmt.Sprintf("gallery_%d_%s%s", memorial.ID, token, fileExt(upload.OriginalFilename))
	if err := s.saveFile(filename, upload.Content); err != nil {
		return nil, err
	}

	item := db.MediaItem{
		MemorialID:       memorial.ID,
		Filename:         filename,
		OriginalFilename: upload.OriginalFilename,
		MediaType:        mediaType,
		MimeType:         contentType,
		FileSize:         int64(len(upload.Content)),
		Title:            strings.TrimSpace(upload.Title),
		Caption:          strings.TrimSpace(upload.Caption),
		TakenAt:          strings.TrimSpace(upload.TakenAt),
		Location:         strings.TrimSpace(upload.Location),
	}

	if mediaType == "image" {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(upload.Content)); err == nil {
			item.Width = cfg.Width
			item.Height = cfg.Height
		}
	}

	if err := s.db.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Update applies metadata changes to an item the user owns.
func (s *GalleryService) Update(itemID, ownerID uint, update MediaUpdate) (*db.MediaItem, error) {
	item, err := s.getOwned(itemID, ownerID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		item.Title = strings.TrimSpace(*update.Title)
	}
	if update.Caption != nil {
		item.Caption = strings.TrimSpace(*update.Caption)
	}
	if update.AltText != nil {
		item.AltText = strings.TrimSpace(*update.AltText)
	}
	if update.TakenAt != nil {
		item.TakenAt = strings.TrimSpace(*update.TakenAt)
	}
	if update.Location != nil {
		item.Location = strings.TrimSpace(*update.Location)
	}
	if update.DisplayOrder != nil {
		item.DisplayOrder = *update.DisplayOrder
	}
	if update.IsFeatured != nil {
		item.IsFeatured = *update.IsFeatured
	}
	if update.IsCover != nil {
		item.IsCover = *update.IsCover
	}

	if err := s.db.Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a gallery item and its stored file.
func (s *GalleryService) Delete(itemID, ownerID uint) error {
	item, err := s.getOwned(itemID, ownerID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(item).Error; err != nil {
		return err
	}

	if item.Filename != "" {
		// Best effort; a missing file is not an error worth surfacing.
		_ = os.Remove(filepath.Join(s.uploadDir, item.Filename))
	}
	return nil
}

func (s *GalleryService) getOwned(itemID, ownerID uint) (*db.MediaItem, error) {
	var item db.MediaItem
	if err := s.db.Preload("Memorial").First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	if item.Memorial == nil || item.Memorial.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return &item, nil
}

func (s *GalleryService) saveFile(filename string, content []byte) error {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.uploadDir, filename), content, 0o644)
}

func fileExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return ext
}
