package db

import "time"

// Visit records a single QR scan or page view of a memorial, with optional
// geolocation resolved from the client IP.
type Visit struct {
	ID         uint `gorm:"primaryKey"`
	MemorialID uint `gorm:"index"`
	VisitorID  string
	IPAddress  string
	UserAgent  string
	Referrer   string
	Country    string
	City       string
	VisitedAt  time.Time `gorm:"index"`

	Memorial *Memorial `gorm:"foreignKey:MemorialID"`
}
