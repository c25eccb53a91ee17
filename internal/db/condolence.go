package db

import "time"

// Condolence is a visitor-submitted guestbook message. Messages start out
// unapproved and become visible only after the memorial owner approves them.
type Condolence struct {
	ID                 uint   `gorm:"primaryKey"`
	MemorialID         uint   `gorm:"index"`
	AuthorName         string `gorm:"size:100;not null"`
	AuthorEmail        string `gorm:"size:255"`
	AuthorRelationship string `gorm:"size:100"`
	Message            string `gorm:"type:text;not null"`
	IsApproved         bool   `gorm:"default:false"`
	IsFeatured         bool   `gorm:"default:false"`
	VisitorID          string
	IPAddress          string
	CreatedAt          time.Time
	ApprovedAt         *time.Time

	Memorial *Memorial `gorm:"foreignKey:MemorialID"`
}
