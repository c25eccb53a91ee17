package handler

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newUploadToken builds a unique filename stem for stored uploads.
func newUploadToken() string {
	return fmt.Sprintf("%s-%s", time.Now().Format("20060102"), uuid.New().String())
}

func fileExtOrDefault(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return ext
}

func (a *API) uploadPath(filename string) string {
	return filepath.Join(a.cfg.UploadDir, filename)
}
