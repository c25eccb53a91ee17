package db

import "time"

// User is an account that owns memorials.
type User struct {
	ID             uint   `gorm:"primaryKey"`
	Email          string `gorm:"uniqueIndex;not null"`
	HashedPassword string `gorm:"not null"`
	IsActive       bool   `gorm:"default:true"`
	CreatedAt      time.Time

	Memorials []Memorial `gorm:"foreignKey:OwnerID"`
}
