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

type registerPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type userResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(user *db.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

// Login exchanges form-encoded credentials for an access token. The username
// field carries the email, matching the OAuth2 password-flow form the
// frontend posts.
func (a *API) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if username == "" || password == "" {
		respondError(c, http.StatusUnprocessableEntity, "Usuario y contraseña son obligatorios")
		return
	}

	user, err := a.auth.Authenticate(username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.Header("WWW-Authenticate", "Bearer")
			respondError(c, http.StatusUnauthorized, "Email o contraseña incorrectos")
			return
		}
		respondError(c, http.StatusInternalServerError, "Error interno de autenticación")
		return
	}

	token, err := a.auth.CreateToken(user.Email)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Error interno de autenticación")
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// Register creates a new account.
func (a *API) Register(c *gin.Context) {
	var payload registerPayload
	if !bindJSON(c, &payload, "Email y contraseña no válidos") {
		return
	}

	user, err := a.auth.Register(payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			respondError(c, http.StatusBadRequest, "El email ya está registrado")
			return
		}
		respondError(c, http.StatusInternalServerError, "No se pudo crear el usuario")
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Me returns the authenticated user.
func (a *API) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		abortUnauthorized(c)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}
