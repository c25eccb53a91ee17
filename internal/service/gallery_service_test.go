package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/memorialqr/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupGalleryFixture(t *testing.T) (*gorm.DB, *GalleryService, string, *db.User, *db.Memorial) {
	t.Helper()
	dsn := fmt.Sprintf("file:gallery-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.User{}, &db.Memorial{}, &db.MediaItem{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	uploadDir := t.TempDir()
	memorials := NewMemorialService(gdb)
	svc := NewGalleryService(gdb, memorials, uploadDir)

	user := createTestUser(t, gdb, "owner@example.com")
	memorial, err := memorials.Create(MemorialInput{Name: "Galería"}, user.ID)
	if err != nil {
		t.Fatalf("create memorial: %v", err)
	}
	return gdb, svc, uploadDir, user, memorial
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestGalleryService_UploadStoresFileAndDimensions(t *testing.T) {
	_, svc, uploadDir, user, memorial := setupGalleryFixture(t)

	item, err := svc.Upload(memorial.ID, user.ID, MediaUpload{
		Content:          pngBytes(t, 32, 24),
		OriginalFilename: "abuela.png",
		ContentType:      "image/png",
		Title:            "En la playa",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if item.MediaType != "image" {
		t.Fatalf("media type %q, want image", item.MediaType)
	}
	if item.Width != 32 || item.Height != 24 {
		t.Fatalf("dimensions %dx%d, want 32x24", item.Width, item.Height)
	}
	if filepath.Ext(item.Filename) != ".png" {
		t.Fatalf("stored filename %q lost its extension", item.Filename)
	}

	if _, err := os.Stat(filepath.Join(uploadDir, item.Filename)); err != nil {
		t.Fatalf("uploaded file missing on disk: %v", err)
	}
}

func TestGalleryService_UploadRejectsUnknownType(t *testing.T) {
	_, svc, _, user, memorial := setupGalleryFixture(t)

	if _, err := svc.Upload(memorial.ID, user.ID, MediaUpload{
		Content:          []byte("not an image"),
		OriginalFilename: "notas.txt",
		ContentType:      "text/plain",
	}); !errors.Is(err, ErrMediaTypeInvalid) {
		t.Fatalf("expected ErrMediaTypeInvalid, got %v", err)
	}
}

func TestGalleryService_UploadEnforcesItemLimit(t *testing.T) {
	gdb, svc, _, user, memorial := setupGalleryFixture(t)

	for i := 0; i < maxItemsPerMemorial; i++ {
		item := db.MediaItem{MemorialID: memorial.ID, Filename: fmt.Sprintf("f%d.jpg", i), MediaType: "image"}
		if err := gdb.Create(&item).Error; err != nil {
			t.Fatalf("seed item %d: %v", i, err)
		}
	}

	if _, err := svc.Upload(memorial.ID, user.ID, MediaUpload{
		Content:          pngBytes(t, 4, 4),
		OriginalFilename: "una-mas.png",
		ContentType:      "image/png",
	}); !errors.Is(err, ErrGalleryFull) {
		t.Fatalf("expected ErrGalleryFull, got %v", err)
	}
}

func TestGalleryService_UpdateAndDelete(t *testing.T) {
	_, svc, uploadDir, user, memorial := setupGalleryFixture(t)

	item, err := svc.Upload(memorial.ID, user.ID, MediaUpload{
		Content:          pngBytes(t, 8, 8),
		OriginalFilename: "retrato.png",
		ContentType:      "image/png",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	title := "Retrato familiar"
	featured := true
	updated, err := svc.Update(item.ID, user.ID, MediaUpdate{Title: &title, IsFeatured: &featured})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title || !updated.IsFeatured {
		t.Fatalf("metadata not applied: %+v", updated)
	}

	if err := svc.Delete(item.ID, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(uploadDir, item.Filename)); !os.IsNotExist(err) {
		t.Fatalf("file still on disk after delete: %v", err)
	}
	if _, err := svc.Update(item.ID, user.ID, MediaUpdate{}); !errors.Is(err, ErrMediaNotFound) {
		t.Fatalf("expected ErrMediaNotFound, got %v", err)
	}
}

func TestGalleryService_ListOrdersFeaturedFirst(t *testing.T) {
	gdb, svc, _, _, memorial := setupGalleryFixture(t)

	items := []db.MediaItem{
		{MemorialID: memorial.ID, Filename: "a.jpg", MediaType: "image", DisplayOrder: 1},
		{MemorialID: memorial.ID, Filename: "b.jpg", MediaType: "image", DisplayOrder: 2, IsFeatured: true},
		{MemorialID: memorial.ID, Filename: "c.jpg", MediaType: "image", DisplayOrder: 3},
	}
	for i := range items {
		if err := gdb.Create(&items[i]).Error; err != nil {
			t.Fatalf("seed item %d: %v", i, err)
		}
	}

	_, listed, err := svc.ListBySlug(memorial.Slug)
	if err != nil {
		t.Fatalf("list gallery: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 items, got %d", len(listed))
	}
	if listed[0].Filename != "b.jpg" {
		t.Fatalf("featured item not first: %s", listed[0].Filename)
	}
}
