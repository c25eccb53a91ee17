package db

import "time"

// TimelineEvent is a milestone on a memorial's life timeline.
type TimelineEvent struct {
	ID            uint   `gorm:"primaryKey"`
	MemorialID    uint   `gorm:"index"`
	Title         string `gorm:"size:200;not null"`
	Description   string `gorm:"type:text"`
	EventDate     string `gorm:"not null"` // YYYY-MM-DD or YYYY
	EventType     string `gorm:"size:50;default:general"`
	ImageFilename string
	Icon          string `gorm:"size:10"`
	DisplayOrder  int    `gorm:"default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Memorial *Memorial `gorm:"foreignKey:MemorialID"`
}
