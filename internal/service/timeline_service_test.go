package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/memorialqr/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTimelineFixture(t *testing.T) (*gorm.DB, *TimelineService, *db.User, *db.Memorial) {
	t.Helper()
	dsn := fmt.Sprintf("file:timeline-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.User{}, &db.Memorial{}, &db.TimelineEvent{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	memorials := NewMemorialService(gdb)
	svc := NewTimelineService(gdb, memorials, t.TempDir())

	user := createTestUser(t, gdb, "owner@example.com")
	memorial, err := memorials.Create(MemorialInput{Name: "Cronología"}, user.ID)
	if err != nil {
		t.Fatalf("create memorial: %v", err)
	}
	return gdb, svc, user, memorial
}

func TestTimelineService_CreateValidatesInput(t *testing.T) {
	_, svc, user, memorial := setupTimelineFixture(t)

	if _, err := svc.Create(memorial.ID, user.ID, TimelineEventInput{
		EventDate: "1980-05-01",
	}); !errors.Is(err, ErrEventTitleMissing) {
		t.Fatalf("expected ErrEventTitleMissing, got %v", err)
	}
	if _, err := svc.Create(memorial.ID, user.ID, TimelineEventInput{
		Title: "Graduación",
	}); !errors.Is(err, ErrEventDateMissing) {
		t.Fatalf("expected ErrEventDateMissing, got %v", err)
	}
}

func TestTimelineService_CreateDefaultsUnknownEventType(t *testing.T) {
	_, svc, user, memorial := setupTimelineFixture(t)

	event, err := svc.Create(memorial.ID, user.ID, TimelineEventInput{
		Title:     "Mudanza",
		EventDate: "1990-03-01",
		EventType: "algo-raro",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if event.EventType != "general" {
		t.Fatalf("unknown event type not defaulted, got %q", event.EventType)
	}

	typed, err := svc.Create(memorial.ID, user.ID, TimelineEventInput{
		Title:     "Graduación",
		EventDate: "1995-06-20",
		EventType: "education",
	})
	if err != nil {
		t.Fatalf("create typed event: %v", err)
	}
	if typed.EventType != "education" {
		t.Fatalf("valid event type rewritten to %q", typed.EventType)
	}
}

func TestTimelineService_ListOrdersByEventDate(t *testing.T) {
	_, svc, user, memorial := setupTimelineFixture(t)

	dates := []string{"2000-01-01", "1950-03-15", "1975-08-10"}
	for i, date := range dates {
		if _, err := svc.Create(memorial.ID, user.ID, TimelineEventInput{
			Title:     fmt.Sprintf("Evento %d", i),
			EventDate: date,
		}); err != nil {
			t.Fatalf("create event %d: %v", i, err)
		}
	}

	_, events, err := svc.ListBySlug(memorial.Slug)
	if err != nil {
		t.Fatalf("list timeline: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i-1].EventDate > events[i].EventDate {
			t.Fatalf("events out of order: %s before %s", events[i-1].EventDate, events[i].EventDate)
		}
	}
}

func TestTimelineService_OwnershipEnforced(t *testing.T) {
	gdb, svc, user, memorial := setupTimelineFixture(t)
	other := createTestUser(t, gdb, "other@example.com")

	event, err := svc.Create(memorial.ID, user.ID, TimelineEventInput{
		Title:     "Nacimiento",
		EventDate: "1950-03-15",
		EventType: "birth",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	if _, err := svc.Create(memorial.ID, other.ID, TimelineEventInput{
		Title:     "Intruso",
		EventDate: "2000-01-01",
	}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner on create, got %v", err)
	}
	if _, err := svc.Update(event.ID, other.ID, TimelineEventInput{
		Title:     "Cambiado",
		EventDate: "1950-03-15",
	}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner on update, got %v", err)
	}
	if err := svc.Delete(event.ID, other.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner on delete, got %v", err)
	}
}

func TestEventTypes(t *testing.T) {
	types := EventTypes()
	for _, key := range []string{"birth", "education", "career", "family", "achievement", "travel", "hobby", "general", "other"} {
		info, ok := types[key]
		if !ok {
			t.Fatalf("missing event type %q", key)
		}
		if info.Icon == "" || info.Label == "" {
			t.Fatalf("event type %q missing icon or label", key)
		}
	}
}
