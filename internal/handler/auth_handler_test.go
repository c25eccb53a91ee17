package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func registerUser(t *testing.T, api *API, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.Register(c)
	return w
}

func loginUser(t *testing.T, api *API, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.Login(c)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	w := registerUser(t, api, "nuevo@example.com", "secreto123")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created userResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if created.Email != "nuevo@example.com" || !created.IsActive {
		t.Fatalf("unexpected user: %+v", created)
	}

	w = loginUser(t, api, "nuevo@example.com", "secreto123")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &token); err != nil {
		t.Fatalf("failed to decode token: %v", err)
	}
	if token.AccessToken == "" || token.TokenType != "bearer" {
		t.Fatalf("unexpected token response: %+v", token)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	if w := registerUser(t, api, "dup@example.com", "secreto123"); w.Code != http.StatusCreated {
		t.Fatalf("first register failed: %d", w.Code)
	}

	w := registerUser(t, api, "dup@example.com", "otroSecreto")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["detail"] != "El email ya está registrado" {
		t.Fatalf("unexpected detail: %q", body["detail"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	if w := registerUser(t, api, "login@example.com", "secreto123"); w.Code != http.StatusCreated {
		t.Fatalf("register failed: %d", w.Code)
	}

	w := loginUser(t, api, "login@example.com", "incorrecta")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("missing WWW-Authenticate header, got %q", got)
	}
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	if w := registerUser(t, api, "token@example.com", "secreto123"); w.Code != http.StatusCreated {
		t.Fatalf("register failed: %d", w.Code)
	}
	w := loginUser(t, api, "token@example.com", "secreto123")
	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &token); err != nil {
		t.Fatalf("failed to decode token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req

	api.AuthRequired()(c)
	if c.IsAborted() {
		t.Fatalf("valid token rejected: %s", rec.Body.String())
	}

	api.Me(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var me userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if me.Email != "token@example.com" {
		t.Fatalf("unexpected user %q", me.Email)
	}
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req

	api.AuthRequired()(c)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["detail"] != "No se pudieron validar las credenciales" {
		t.Fatalf("unexpected detail: %q", body["detail"])
	}
}
