package domain

import (
	"strings"
	"testing"
	"time"

	"leadrouter_backend/platform/apperr"

	"github.com/google/uuid"
)

const skew = 5 * time.Minute

func validRaw() RawEvent {
	id := uuid.New()
	return RawEvent{
		LeadID:      &id,
		Email:       "Lead@Example.COM",
		EventType:   EventEmailOpened,
		Source:      SourceOutreachPlatform,
		SourceBound: true,
		ExternalID:  "evt-123",
		OccurredAt:  time.Now().UTC().Add(-time.Minute),
	}
}

func TestNormalizeEvent_Accepts(t *testing.T) {
	now := time.Now().UTC()

	ev, err := NormalizeEvent(validRaw(), now, skew)
	if err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}
	if ev.Email != "lead@example.com" {
		t.Fatalf("email not lowercased: %q", ev.Email)
	}
	if !ev.Verified {
		t.Fatal("known source from a bound credential must be verified")
	}
	if ev.DedupKey != "outreach_platform:evt-123" {
		t.Fatalf("unexpected dedup key %q", ev.DedupKey)
	}
	if ev.OccurredAt.Location() != time.UTC {
		t.Fatal("occurred_at must be UTC")
	}
}

func TestNormalizeEvent_UnknownTypeRejected(t *testing.T) {
	raw := validRaw()
	raw.EventType = "carrier_pigeon_arrived"

	_, err := NormalizeEvent(raw, time.Now().UTC(), skew)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNormalizeEvent_InternalTypeRejected(t *testing.T) {
	raw := validRaw()
	raw.EventType = EventPlatformTransition

	if _, err := NormalizeEvent(raw, time.Now().UTC(), skew); err == nil {
		t.Fatal("internal event type must not be ingestible")
	}
}

func TestNormalizeEvent_MissingIdentityRejected(t *testing.T) {
	raw := validRaw()
	raw.LeadID = nil
	raw.Email = "   "

	if _, err := NormalizeEvent(raw, time.Now().UTC(), skew); err == nil {
		t.Fatal("event without lead_id or email must be rejected")
	}
}

func TestNormalizeEvent_FutureTimestamp(t *testing.T) {
	now := time.Now().UTC()

	raw := validRaw()
	raw.OccurredAt = now.Add(time.Hour)
	if _, err := NormalizeEvent(raw, now, skew); err == nil {
		t.Fatal("timestamp beyond skew tolerance must be rejected")
	}

	// Within tolerance passes.
	raw.OccurredAt = now.Add(skew - time.Second)
	if _, err := NormalizeEvent(raw, now, skew); err != nil {
		t.Fatalf("timestamp within skew tolerance rejected: %v", err)
	}
}

func TestNormalizeEvent_ZeroTimestampDefaultsToNow(t *testing.T) {
	now := time.Now().UTC()
	raw := validRaw()
	raw.OccurredAt = time.Time{}

	ev, err := NormalizeEvent(raw, now, skew)
	if err != nil {
		t.Fatalf("zero timestamp rejected: %v", err)
	}
	if !ev.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v, got %v", now, ev.OccurredAt)
	}
}

func TestNormalizeEvent_UnknownSourceUnverified(t *testing.T) {
	raw := validRaw()
	raw.Source = "mystery_vendor"

	ev, err := NormalizeEvent(raw, time.Now().UTC(), skew)
	if err != nil {
		t.Fatalf("unknown source must be accepted: %v", err)
	}
	if ev.Verified {
		t.Fatal("unknown source must be flagged unverified")
	}
	if ev.Source != "mystery_vendor" {
		t.Fatalf("source not preserved: %q", ev.Source)
	}
}

func TestNormalizeEvent_UnboundCredentialUnverified(t *testing.T) {
	raw := validRaw()
	raw.SourceBound = false

	ev, err := NormalizeEvent(raw, time.Now().UTC(), skew)
	if err != nil {
		t.Fatalf("unbound submission must be accepted: %v", err)
	}
	if ev.Verified {
		t.Fatal("source claim without a credential binding must stay unverified")
	}
	if ev.Source != SourceOutreachPlatform {
		t.Fatalf("claimed source not preserved: %q", ev.Source)
	}
}

func TestNormalizeEvent_ManualResetSourceEnforced(t *testing.T) {
	raw := validRaw()
	raw.EventType = EventManualReset
	raw.Source = SourceOutreachPlatform

	if _, err := NormalizeEvent(raw, time.Now().UTC(), skew); err == nil {
		t.Fatal("manual_reset from a non-manual source must be rejected")
	}

	raw.Source = SourceManual
	if _, err := NormalizeEvent(raw, time.Now().UTC(), skew); err != nil {
		t.Fatalf("manual_reset from manual source rejected: %v", err)
	}
}

func TestComputeDedupKey_ContentHashStable(t *testing.T) {
	id := uuid.New()
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	raw := RawEvent{
		LeadID:     &id,
		EventType:  EventWebsiteVisit,
		Source:     SourceWebsite,
		OccurredAt: at,
		Payload:    map[string]any{"page": "/pricing", "referrer": "news"},
	}
	same := raw
	same.Payload = map[string]any{"referrer": "news", "page": "/pricing"}

	a := ComputeDedupKey(raw)
	b := ComputeDedupKey(same)
	if a != b {
		t.Fatalf("payload key order changed the hash: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "hash:") {
		t.Fatalf("expected content-hash key, got %q", a)
	}

	different := raw
	different.OccurredAt = at.Add(time.Second)
	if ComputeDedupKey(different) == a {
		t.Fatal("different timestamps must produce different keys")
	}
}
