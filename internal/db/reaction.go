package db

import "time"

// Reaction is a lightweight sentiment marker left by a visitor. A visitor can
// hold at most one active reaction per type per memorial.
type Reaction struct {
	ID           uint   `gorm:"primaryKey"`
	MemorialID   uint   `gorm:"index;uniqueIndex:idx_reaction_per_visitor"`
	ReactionType string `gorm:"index;uniqueIndex:idx_reaction_per_visitor"`
	VisitorID    string `gorm:"size:64;index;uniqueIndex:idx_reaction_per_visitor"`
	CreatedAt    time.Time

	Memorial *Memorial `gorm:"foreignKey:MemorialID"`
}
