package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/memorialqr/internal/db"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound     = errors.New("timeline event not found")
	ErrEventTitleMissing = errors.New("event title is required")
	ErrEventDateMissing  = errors.New("event date is required")
)

// EventTypeInfo describes one timeline event category as shown to clients.
type EventTypeInfo struct {
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

var eventTypes = map[string]EventTypeInfo{
	"birth":       {Icon: "👶", Label: "Nacimiento"},
	"education":   {Icon: "🎓", Label: "Educación"},
	"career":      {Icon: "💼", Label: "Carrera"},
	"family":      {Icon: "💒", Label: "Familia"},
	"achievement": {Icon: "🏆", Label: "Logro"},
	"travel":      {Icon: "✈️", Label: "Viaje"},
	"hobby":       {Icon: "🎨", Label: "Hobby"},
	"general":     {Icon: "📌", Label: "General"},
	"other":       {Icon: "✨", Label: "Otro"},
}

// EventTypes returns the available event categories keyed by type name.
func EventTypes() map[string]EventTypeInfo {
	return eventTypes
}

// TimelineService manages the life-event timeline of a memorial.
type TimelineService struct {
	db        *gorm.DB
	memorials *MemorialService
	uploadDir string
}

// TimelineEventInput represents fields accepted when creating or updating an
// event.
type TimelineEventInput struct {
	Title        string
	Description  string
	EventDate    string
	EventType    string
	Icon         string
	DisplayOrder int
}

// NewTimelineService creates a TimelineService instance.
func NewTimelineService(gdb *gorm.DB, memorials *MemorialService, uploadDir string) *TimelineService {
	return &TimelineService{db: gdb, memorials: memorials, uploadDir: uploadDir}
}

// ListBySlug returns the timeline of a memorial ordered by event date.
func (s *TimelineService) ListBySlug(slug string) (uint, []db.TimelineEvent, error) {
	memorial, err := s.memorials.GetBySlug(slug)
	if err != nil {
		return 0, nil, err
	}

	var events []db.TimelineEvent
	if err := s.db.Where("memorial_id = ?", memorial.ID).
		Order("event_date asc").
		Order("display_order asc").
		Find(&events).Error; err != nil {
		return 0, nil, err
	}
	return memorial.ID, events, nil
}

// Create adds an event to a memorial the user owns.
func (s *TimelineService) Create(memorialID, ownerID uint, input TimelineEventInput) (*db.TimelineEvent, error) {
	memorial, err := s.memorials.GetOwned(memorialID, ownerID)
	if err != nil {
		return nil, err
	}

	event, err := buildEvent(input)
	if err != nil {
		return nil, err
	}
	event.MemorialID = memorial.ID

	if err := s.db.Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// Update applies changes to an event the user owns.
func (s *TimelineService) Update(eventID, ownerID uint, input TimelineEventInput) (*db.TimelineEvent, error) {
	event, err := s.getOwned(eventID, ownerID)
	if err != nil {
		return nil, err
	}

	updated, err := buildEvent(input)
	if err != nil {
		return nil, err
	}

	event.Title = updated.Title
	event.Description = updated.Description
	event.EventDate = updated.EventDate
	event.EventType = updated.EventType
	event.Icon = updated.Icon
	event.DisplayOrder = updated.DisplayOrder

	if err := s.db.Save(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// Delete removes an event.
func (s *TimelineService) Delete(eventID, ownerID uint) error {
	event, err := s.getOwned(eventID, ownerID)
	if err != nil {
		return err
	}
	return s.db.Delete(event).Error
}

// AttachImage stores an uploaded image for an event and records its filename.
func (s *TimelineService) AttachImage(eventID, ownerID uint, content []byte, originalFilename, contentType string) (*db.TimelineEvent, error) {
	event, err := s.getOwned(eventID, ownerID)
	if err != nil {
		return nil, err
	}

	if !allowedImageTypes[strings.TrimSpace(contentType)] {
		return nil, ErrMediaTypeInvalid
	}

	token := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	filename := fmt.Sprintf("timeline_%d_%s%s", event.ID, token, fileExt(originalFilename))

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(s.uploadDir, filename), content, 0o644); err != nil {
		return nil, err
	}

	event.ImageFilename = filename
	if err := s.db.Save(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (s *TimelineService) getOwned(eventID, ownerID uint) (*db.TimelineEvent, error) {
	var event db.TimelineEvent
	if err := s.db.Preload("Memorial").First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if event.Memorial == nil || event.Memorial.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return &event, nil
}

func buildEvent(input TimelineEventInput) (*db.TimelineEvent, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrEventTitleMissing
	}
	eventDate := strings.TrimSpace(input.EventDate)
	if eventDate == "" {
		return nil, ErrEventDateMissing
	}

	eventType := strings.TrimSpace(input.EventType)
	if _, ok := eventTypes[eventType]; !ok {
		eventType = "general"
	}

	return &db.TimelineEvent{
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		EventDate:    eventDate,
		EventType:    eventType,
		Icon:         strings.TrimSpace(input.Icon),
		DisplayOrder: input.DisplayOrder,
	}, nil
}
