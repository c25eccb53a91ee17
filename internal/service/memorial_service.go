package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/memorialqr/internal/db"
	"gorm.io/gorm"
)

var (
	ErrMemorialNotFound = errors.New("memorial not found")
	ErrNameRequired     = errors.New("memorial name is required")
	ErrNotOwner         = errors.New("memorial is owned by another user")
)

// MemorialService wraps memorial related database operations.
type MemorialService struct {
	db *gorm.DB
}

// MemorialInput represents fields accepted when creating or updating a memorial.
type MemorialInput struct {
	Name      string
	Epitaph   string
	Bio       string
	BirthDate string
	DeathDate string
}

// NewMemorialService creates a MemorialService instance.
func NewMemorialService(gdb *gorm.DB) *MemorialService {
	return &MemorialService{db: gdb}
}

// ListByOwner returns all memorials owned by a user, newest first.
func (s *MemorialService) ListByOwner(ownerID uint) ([]db.Memorial, error) {
	var memorials []db.Memorial
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at desc").Find(&memorials).Error; err != nil {
		return nil, err
	}
	return memorials, nil
}

// Get fetches a memorial by id.
func (s *MemorialService) Get(id uint) (*db.Memorial, error) {
	var memorial db.Memorial
	if err := s.db.First(&memorial, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemorialNotFound
		}
		return nil, err
	}
	return &memorial, nil
}

// GetBySlug fetches a memorial by its public slug.
func (s *MemorialService) GetBySlug(slugValue string) (*db.Memorial, error) {
	var memorial db.Memorial
	if err := s.db.Where("slug = ?", slugValue).First(&memorial).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemorialNotFound
		}
		return nil, err
	}
	return &memorial, nil
}

// GetOwned fetches a memorial by id and verifies ownership.
func (s *MemorialService) GetOwned(id, ownerID uint) (*db.Memorial, error) {
	memorial, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if memorial.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return memorial, nil
}

// GetOwnedBySlug fetches a memorial by slug and verifies ownership.
func (s *MemorialService) GetOwnedBySlug(slugValue string, ownerID uint) (*db.Memorial, error) {
	memorial, err := s.GetBySlug(slugValue)
	if err != nil {
		return nil, err
	}
	if memorial.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return memorial, nil
}

// Create persists a memorial with a generated slug. The slug is derived from
// the name with a short random suffix so names never collide.
func (s *MemorialService) Create(input MemorialInput, ownerID uint) (*db.Memorial, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	memorial := db.Memorial{
		Name:      name,
		Slug:      generateSlug(name),
		Epitaph:   strings.TrimSpace(input.Epitaph),
		Bio:       input.Bio,
		BirthDate: strings.TrimSpace(input.BirthDate),
		DeathDate: strings.TrimSpace(input.DeathDate),
		OwnerID:   ownerID,
	}

	if err := s.db.Create(&memorial).Error; err != nil {
		return nil, err
	}
	return &memorial, nil
}

// Update applies changes to a memorial. The slug is immutable.
func (s *MemorialService) Update(id, ownerID uint, input MemorialInput) (*db.Memorial, error) {
	memorial, err := s.GetOwned(id, ownerID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	memorial.Name = name
	memorial.Epitaph = strings.TrimSpace(input.Epitaph)
	memorial.Bio = input.Bio
	memorial.BirthDate = strings.TrimSpace(input.BirthDate)
	memorial.DeathDate = strings.TrimSpace(input.DeathDate)

	if err := s.db.Save(memorial).Error; err != nil {
		return nil, err
	}
	return memorial, nil
}

// Delete removes a memorial and everything attached to it.
func (s *MemorialService) Delete(id, ownerID uint) error {
	memorial, err := s.GetOwned(id, ownerID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&db.Condolence{}, &db.MediaItem{}, &db.TimelineEvent{}, &db.Reaction{}, &db.Visit{},
		} {
			if err := tx.Where("memorial_id = ?", memorial.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(memorial).Error
	})
}

// UpdateImage replaces the memorial's main photo filename.
func (s *MemorialService) UpdateImage(id, ownerID uint, filename string) (*db.Memorial, error) {
	memorial, err := s.GetOwned(id, ownerID)
	if err != nil {
		return nil, err
	}

	memorial.ImageFilename = filename
	if err := s.db.Save(memorial).Error; err != nil {
		return nil, err
	}
	return memorial, nil
}

// Age returns the completed years between birth and death dates, or -1 when
// either date is missing or unparseable. One year is subtracted when the
// death month/day precedes the birth month/day.
func Age(birthDate, deathDate string) int {
	birth, err := time.Parse("2006-01-02", strings.TrimSpace(birthDate))
	if err != nil {
		return -1
	}
	death, err := time.Parse("2006-01-02", strings.TrimSpace(deathDate))
	if err != nil {
		return -1
	}

	years := death.Year() - birth.Year()
	if death.Month() < birth.Month() || (death.Month() == birth.Month() && death.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return -1
	}
	return years
}

func generateSlug(name string) string {
	base := slug.Make(name)
	if base == "" {
		base = "memorial"
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s-%s", base, suffix)
}
