package db

import "time"

// Memorial is a tribute page for a deceased person. The slug is the sole
// public identifier and never changes once created.
type Memorial struct {
	ID            uint   `gorm:"primaryKey"`
	Slug          string `gorm:"uniqueIndex"`
	Name          string `gorm:"index"`
	Epitaph       string
	Bio           string
	BirthDate     string
	DeathDate     string
	ImageFilename string
	OwnerID       uint `gorm:"index"`
	CreatedAt     time.Time

	Owner          *User           `gorm:"foreignKey:OwnerID"`
	Condolences    []Condolence    `gorm:"foreignKey:MemorialID"`
	MediaItems     []MediaItem     `gorm:"foreignKey:MemorialID"`
	TimelineEvents []TimelineEvent `gorm:"foreignKey:MemorialID"`
	Reactions      []Reaction      `gorm:"foreignKey:MemorialID"`
	Visits         []Visit         `gorm:"foreignKey:MemorialID"`
}
