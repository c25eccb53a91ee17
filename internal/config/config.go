package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig bundles the runtime settings for the Memorial QR service.
type AppConfig struct {
	ListenAddr         string
	Port               string
	DatabasePath       string
	SecretKey          string
	AccessTokenTTL     time.Duration
	GinMode            string
	UploadDir          string
	UploadURLPath      string
	FrontendURL        string
	BackendURL         string
	CORSOrigins        []string
	SessionSecret      string
	GeoLookupEnabled   bool
	MaxUploadSizeBytes int64
}

// Load reads the configuration from environment variables, falling back to
// safe development defaults for anything missing.
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "memorialqr.db"
	}

	secretKey := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secretKey == "" {
		secretKey = "memorialqr-dev-secret"
	}

	tokenTTL := 30 * time.Minute
	if raw := strings.TrimSpace(os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES")); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			tokenTTL = time.Duration(minutes) * time.Minute
		}
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	uploadDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if uploadDir == "" {
		uploadDir = "uploaded_images"
	}

	uploadURLPath := strings.TrimSpace(os.Getenv("UPLOAD_URL_PATH"))
	if uploadURLPath == "" {
		uploadURLPath = "/static"
	}

	frontendURL := strings.TrimSpace(os.Getenv("FRONTEND_URL"))
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}

	backendURL := strings.TrimSpace(os.Getenv("BACKEND_URL"))
	if backendURL == "" {
		backendURL = fmt.Sprintf("http://localhost:%s", port)
	}

	corsOrigins := splitAndTrim(os.Getenv("CORS_ORIGINS"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{
			"http://localhost:5173",
			"http://localhost:3000",
			"http://127.0.0.1:5173",
		}
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = secretKey
	}

	geoEnabled := true
	if raw := strings.TrimSpace(os.Getenv("GEO_LOOKUP_ENABLED")); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			geoEnabled = parsed
		}
	}

	maxUpload := int64(10 * 1024 * 1024)
	if raw := strings.TrimSpace(os.Getenv("MAX_UPLOAD_SIZE")); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			maxUpload = parsed
		}
	}

	return AppConfig{
		ListenAddr:         listenAddr,
		Port:               port,
		DatabasePath:       databasePath,
		SecretKey:          secretKey,
		AccessTokenTTL:     tokenTTL,
		GinMode:            ginMode,
		UploadDir:          uploadDir,
		UploadURLPath:      uploadURLPath,
		FrontendURL:        frontendURL,
		BackendURL:         backendURL,
		CORSOrigins:        corsOrigins,
		SessionSecret:      sessionSecret,
		GeoLookupEnabled:   geoEnabled,
		MaxUploadSizeBytes: maxUpload,
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
