package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func eventAt(eventType EventType, at time.Time) Event {
	return Event{EventType: eventType, OccurredAt: at}
}

func TestApplyEvent_Counters(t *testing.T) {
	now := time.Now().UTC()
	s := NewSignal(uuid.New(), nil, now)

	s.ApplyEvent(eventAt(EventEmailSent, now))
	s.ApplyEvent(eventAt(EventEmailOpened, now))
	s.ApplyEvent(eventAt(EventEmailOpened, now))
	s.ApplyEvent(eventAt(EventWebsiteVisit, now))
	s.ApplyEvent(eventAt(EventMeetingBooked, now))

	if s.EmailsSent != 1 || s.EmailsOpened != 2 || s.WebsiteVisits != 1 || s.MeetingsBooked != 1 {
		t.Fatalf("counters wrong: %+v", s)
	}
	if s.LastOpenAt == nil || !s.LastOpenAt.Equal(now) {
		t.Fatalf("last open not tracked: %v", s.LastOpenAt)
	}
}

func TestApplyEvent_FlagsOnlyRaise(t *testing.T) {
	now := time.Now().UTC()
	s := NewSignal(uuid.New(), nil, now)

	s.ApplyEvent(eventAt(EventConnectionAccepted, now))
	s.ApplyEvent(eventAt(EventContactRequested, now))
	s.ApplyEvent(eventAt(EventPricingPageViewed, now))

	if !s.Connected || !s.RequestedContact || !s.ViewedPricing {
		t.Fatalf("flags not raised: %+v", s)
	}

	// A repeated flag event stays idempotent on the flag.
	s.ApplyEvent(eventAt(EventConnectionAccepted, now))
	if !s.Connected {
		t.Fatal("flag lowered by repeat event")
	}
}

func TestApplyEvent_LateArrivalKeepsNewestTimestamp(t *testing.T) {
	now := time.Now().UTC()
	s := NewSignal(uuid.New(), nil, now)

	s.ApplyEvent(eventAt(EventEmailOpened, now))
	s.ApplyEvent(eventAt(EventEmailOpened, now.Add(-48*time.Hour)))

	if s.EmailsOpened != 2 {
		t.Fatalf("late arrival must still count, got %d", s.EmailsOpened)
	}
	if !s.LastOpenAt.Equal(now) {
		t.Fatalf("older event moved last_open_at backward to %v", s.LastOpenAt)
	}
}

func TestApplyEvent_ManualResetLowersNamedFlags(t *testing.T) {
	now := time.Now().UTC()
	s := NewSignal(uuid.New(), nil, now)
	s.Connected = true
	s.RequestedContact = true
	s.ViewedDemo = true

	s.ApplyEvent(Event{
		EventType:  EventManualReset,
		Source:     SourceManual,
		OccurredAt: now,
		Payload:    map[string]any{"flags": []any{"connected", "requested_contact"}},
	})

	if s.Connected || s.RequestedContact {
		t.Fatal("named flags not cleared")
	}
	if !s.ViewedDemo {
		t.Fatal("unnamed flag must survive the reset")
	}
}

func TestNewSignal_Defaults(t *testing.T) {
	now := time.Now().UTC()
	s := NewSignal(uuid.New(), nil, now)

	if s.CurrentPlatform != PlatformNone {
		t.Fatalf("new lead must start on none, got %s", s.CurrentPlatform)
	}
	if s.EngagementLevel != LevelCold {
		t.Fatalf("new lead must start cold, got %s", s.EngagementLevel)
	}
	if s.Version != 0 {
		t.Fatalf("new lead must start at version 0, got %d", s.Version)
	}
}
