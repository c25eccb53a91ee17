package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memorialqr/internal/config"
	"github.com/memorialqr/internal/db"
	"github.com/memorialqr/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) (*API, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Memorial{}, &db.Condolence{}, &db.MediaItem{}, &db.TimelineEvent{}, &db.Reaction{}, &db.Visit{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	cfg := config.AppConfig{
		SecretKey:      "test-secret",
		AccessTokenTTL: time.Minute,
		UploadDir:      t.TempDir(),
		UploadURLPath:  "/static",
		FrontendURL:    "http://localhost:5173",
	}

	return NewAPI(gdb, cfg), func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func seedOwner(t *testing.T, email string) *db.User {
	t.Helper()
	user := db.User{Email: email, HashedPassword: "x", IsActive: true}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return &user
}

func seedMemorial(t *testing.T, api *API, owner *db.User, name string) *db.Memorial {
	t.Helper()
	memorial, err := api.memorials.Create(service.MemorialInput{
		Name:      name,
		Bio:       "Una vida **plena** y generosa.",
		BirthDate: "1950-03-15",
		DeathDate: "2024-01-20",
	}, owner.ID)
	if err != nil {
		t.Fatalf("failed to seed memorial: %v", err)
	}
	return memorial
}

func TestGetPublicMemorialNotFound(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/memorials/public/no-existe", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "slug", Value: "no-existe"}}

	api.GetPublicMemorial(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["detail"] != "Memorial no encontrado" {
		t.Fatalf("unexpected detail: %q", body["detail"])
	}
}

func TestGetPublicMemorialIncludesAgeAndBioHTML(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	owner := seedOwner(t, "owner@example.com")
	memorial := seedMemorial(t, api, owner, "María García")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/memorials/public/"+memorial.Slug, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "slug", Value: memorial.Slug}}

	api.GetPublicMemorial(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Slug    string `json:"slug"`
		Age     *int   `json:"age"`
		BioHTML string `json:"bio_html"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Slug != memorial.Slug {
		t.Fatalf("unexpected slug %q", body.Slug)
	}
	if body.Age == nil || *body.Age != 73 {
		t.Fatalf("expected age 73, got %v", body.Age)
	}
	if !strings.Contains(body.BioHTML, "<strong>plena</strong>") {
		t.Fatalf("bio not rendered to HTML: %q", body.BioHTML)
	}
}

func TestCreateMemorial(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	owner := seedOwner(t, "owner@example.com")

	payload := map[string]any{"name": "Juan Pérez", "epitaph": "Siempre presente"}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/memorials/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(currentUserKey, owner)

	api.CreateMemorial(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if created.Name != "Juan Pérez" {
		t.Fatalf("unexpected name %q", created.Name)
	}
	if !strings.HasPrefix(created.Slug, "juan-perez-") {
		t.Fatalf("unexpected slug %q", created.Slug)
	}
}

func TestUpdateMemorialRejectsForeignOwner(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	owner := seedOwner(t, "owner@example.com")
	other := seedOwner(t, "other@example.com")
	memorial := seedMemorial(t, api, owner, "Ana Torres")

	payload := map[string]any{"name": "Cambiado"}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/memorials/%d", memorial.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "id", Value: fmt.Sprint(memorial.ID)}}
	c.Set(currentUserKey, other)

	api.UpdateMemorial(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetMemorialQRServesPNG(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	owner := seedOwner(t, "owner@example.com")
	memorial := seedMemorial(t, api, owner, "Pedro Sánchez")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/memorials/"+memorial.Slug+"/qr", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "slug", Value: memorial.Slug}}

	api.GetMemorialQR(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("unexpected content type %q", got)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("response body is not a PNG")
	}
}
