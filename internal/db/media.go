package db

import "time"

// MediaItem is a photo or video in a memorial's gallery.
type MediaItem struct {
	ID               uint `gorm:"primaryKey"`
	MemorialID       uint `gorm:"index"`
	Filename         string
	OriginalFilename string
	MediaType        string `gorm:"size:20;default:image"` // image, video
	MimeType         string `gorm:"size:100"`
	FileSize         int64
	Width            int
	Height           int
	Duration         int
	Title            string `gorm:"size:200"`
	Caption          string `gorm:"type:text"`
	AltText          string `gorm:"size:500"`
	TakenAt          string
	Location         string `gorm:"size:200"`
	DisplayOrder     int    `gorm:"default:0"`
	IsFeatured       bool   `gorm:"default:false"`
	IsCover          bool   `gorm:"default:false"`
	CreatedAt        time.Time

	Memorial *Memorial `gorm:"foreignKey:MemorialID"`
}

// TableName keeps the original table naming.
func (MediaItem) TableName() string {
	return "media_items"
}
