package service

import (
	"errors"
	"strings"
	"time"

	"github.com/memorialqr/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCondolenceNotFound = errors.New("condolence not found")
	ErrAuthorNameTooShort = errors.New("author name must be at least 2 characters")
	ErrMessageTooShort    = errors.New("message must be at least 10 characters")
)

const (
	minAuthorNameLen = 2
	minMessageLen    = 10

	defaultCondolenceLimit = 50
	maxCondolenceLimit     = 100
)

// CondolenceService wraps guestbook message operations and moderation.
type CondolenceService struct {
	db        *gorm.DB
	memorials *MemorialService
}

// CondolenceInput represents a visitor submission.
type CondolenceInput struct {
	AuthorName         string
	AuthorEmail        string
	AuthorRelationship string
	Message            string
	VisitorID          string
	IPAddress          string
}

// ModerationInput carries the owner's moderation changes. Nil fields are left
// untouched.
type ModerationInput struct {
	IsApproved *bool
	IsFeatured *bool
}

// CondolenceList aggregates a page of condolences with counters.
type CondolenceList struct {
	Items        []db.Condolence
	Total        int64
	PendingCount int64
}

// NewCondolenceService creates a CondolenceService instance.
func NewCondolenceService(gdb *gorm.DB, memorials *MemorialService) *CondolenceService {
	return &CondolenceService{db: gdb, memorials: memorials}
}

// Create stores a new condolence for the memorial behind slug. Messages are
// always created unapproved and wait for the owner's moderation.
func (s *CondolenceService) Create(slug string, input CondolenceInput) (*db.Condolence, error) {
	memorial, err := s.memorials.GetBySlug(slug)
	if err != nil {
		return nil, err
	}

	authorName := strings.TrimSpace(input.AuthorName)
	message := strings.TrimSpace(input.Message)
	if len([]rune(authorName)) < minAuthorNameLen {
		return nil, ErrAuthorNameTooShort
	}
	if len([]rune(message)) < minMessageLen {
		return nil, ErrMessageTooShort
	}

	condolence := db.Condolence{
		MemorialID:         memorial.ID,
		AuthorName:         authorName,
		AuthorEmail:        strings.TrimSpace(input.AuthorEmail),
		AuthorRelationship: strings.TrimSpace(input.AuthorRelationship),
		Message:            message,
		VisitorID:          input.VisitorID,
		IPAddress:          input.IPAddress,
		IsApproved:         false,
		IsFeatured:         false,
	}

	if err := s.db.Create(&condolence).Error; err != nil {
		return nil, err
	}
	return &condolence, nil
}

// List returns condolences for a memorial, featured first then newest.
// With approvedOnly the pending queue is hidden and PendingCount stays zero.
func (s *CondolenceService) List(slug string, approvedOnly bool, limit, offset int) (*CondolenceList, error) {
	memorial, err := s.memorials.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	return s.listForMemorial(memorial.ID, approvedOnly, limit, offset)
}

// ListOwned is the moderation view: every state, gated on ownership.
func (s *CondolenceService) ListOwned(slug string, ownerID uint, limit, offset int) (*CondolenceList, error) {
	memorial, err := s.memorials.GetOwnedBySlug(slug, ownerID)
	if err != nil {
		return nil, err
	}
	return s.listForMemorial(memorial.ID, false, limit, offset)
}

func (s *CondolenceService) listForMemorial(memorialID uint, approvedOnly bool, limit, offset int) (*CondolenceList, error) {
	if limit <= 0 {
		limit = defaultCondolenceLimit
	}
	if limit > maxCondolenceLimit {
		limit = maxCondolenceLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := s.db.Model(&db.Condolence{}).Where("memorial_id = ?", memorialID)
	if approvedOnly {
		query = query.Where("is_approved = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []db.Condolence
	if err := query.
		Order("is_featured desc").
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}

	result := &CondolenceList{Items: items, Total: total}
	if !approvedOnly {
		if err := s.db.Model(&db.Condolence{}).
			Where("memorial_id = ? AND is_approved = ?", memorialID, false).
			Count(&result.PendingCount).Error; err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Moderate applies approval/feature changes. Every false to true approval
// transition refreshes ApprovedAt; approving an already approved condolence
// keeps the existing stamp.
func (s *CondolenceService) Moderate(id, ownerID uint, input ModerationInput) (*db.Condolence, error) {
	condolence, err := s.getOwned(id, ownerID)
	if err != nil {
		return nil, err
	}

	if input.IsApproved != nil {
		if *input.IsApproved && !condolence.IsApproved {
			now := time.Now().UTC()
			condolence.ApprovedAt = &now
		}
		condolence.IsApproved = *input.IsApproved
	}
	if input.IsFeatured != nil {
		condolence.IsFeatured = *input.IsFeatured
	}

	if err := s.db.Save(condolence).Error; err != nil {
		return nil, err
	}
	return condolence, nil
}

// Delete removes a condolence. Terminal from any state.
func (s *CondolenceService) Delete(id, ownerID uint) error {
	condolence, err := s.getOwned(id, ownerID)
	if err != nil {
		return err
	}
	return s.db.Delete(condolence).Error
}

func (s *CondolenceService) getOwned(id, ownerID uint) (*db.Condolence, error) {
	var condolence db.Condolence
	if err := s.db.Preload("Memorial").First(&condolence, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCondolenceNotFound
		}
		return nil, err
	}
	if condolence.Memorial == nil || condolence.Memorial.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return &condolence, nil
}
