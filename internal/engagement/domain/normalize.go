package domain

import (
	"strings"
	"time"

	"leadrouter_backend/platform/apperr"
)

const (
	msgUnknownEventType  = "unknown event type"
	msgInternalEventType = "event type cannot be submitted externally"
	msgMissingIdentity   = "either lead_id or email is required"
	msgFutureTimestamp   = "occurred_at is too far in the future"
	msgResetNotManual    = "manual_reset events must have source manual"
)

// NormalizeEvent validates a raw event and produces the normalized form.
// Pure: no side effects, no clock reads beyond the injected now.
//
// Unknown sources are not rejected; they are normalized as-is and flagged
// unverified so downstream consumers can weigh provenance. The same applies
// to known sources claimed by a credential without a source binding. Unknown
// event types ARE rejected: the enumeration is closed.
func NormalizeEvent(raw RawEvent, now time.Time, clockSkewTolerance time.Duration) (Event, error) {
	if !IsKnownEventType(raw.EventType) {
		return Event{}, apperr.Validation(msgUnknownEventType).WithDetails(string(raw.EventType))
	}
	if !IsIngestible(raw.EventType) {
		return Event{}, apperr.Validation(msgInternalEventType).WithDetails(string(raw.EventType))
	}

	email := strings.ToLower(strings.TrimSpace(raw.Email))
	if raw.LeadID == nil && email == "" {
		return Event{}, apperr.Validation(msgMissingIdentity)
	}

	if raw.OccurredAt.IsZero() {
		raw.OccurredAt = now
	}
	if raw.OccurredAt.After(now.Add(clockSkewTolerance)) {
		return Event{}, apperr.Validation(msgFutureTimestamp)
	}

	source := Source(strings.ToLower(strings.TrimSpace(string(raw.Source))))
	verified := IsKnownSource(source) && raw.SourceBound

	// Administrative resets are the one mutation allowed to lower flags and
	// must be attributable to an operator.
	if raw.EventType == EventManualReset && source != SourceManual {
		return Event{}, apperr.Validation(msgResetNotManual)
	}

	normalized := raw
	normalized.Email = email
	normalized.Source = source

	return Event{
		LeadID:     normalized.LeadID,
		Email:      normalized.Email,
		EventType:  normalized.EventType,
		Source:     normalized.Source,
		Verified:   verified,
		DedupKey:   ComputeDedupKey(normalized),
		Payload:    normalized.Payload,
		OccurredAt: normalized.OccurredAt.UTC(),
	}, nil
}
