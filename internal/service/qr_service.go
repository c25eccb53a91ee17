package service

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QRService renders the QR code that visitors scan to reach a memorial.
type QRService struct {
	frontendURL string
}

// NewQRService creates a QRService pointing at the public frontend.
func NewQRService(frontendURL string) *QRService {
	return &QRService{frontendURL: strings.TrimRight(strings.TrimSpace(frontendURL), "/")}
}

// MemorialURL returns the public page URL a QR code points at.
func (s *QRService) MemorialURL(slug string) string {
	return fmt.Sprintf("%s/view/%s", s.frontendURL, slug)
}

// GeneratePNG renders a QR code PNG for a memorial slug. High error
// correction keeps engraved or weathered codes scannable.
func (s *QRService) GeneratePNG(slug string) ([]byte, error) {
	return qrcode.Encode(s.MemorialURL(slug), qrcode.High, 512)
}
