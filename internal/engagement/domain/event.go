package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// RawEvent is what adapters submit: vendor webhooks and polling results
// already flattened to the normalized schema, but not yet validated.
//
// SourceBound is set by the transport layer when the submitting credential
// is bound to the claimed source. Claims without that backing are carried
// through but never marked verified.
type RawEvent struct {
	LeadID      *uuid.UUID
	Email       string
	EventType   EventType
	Source      Source
	SourceBound bool
	ExternalID  string
	Payload     map[string]any
	OccurredAt  time.Time
}

// Event is a validated, normalized engagement event ready for the signal
// store. Exactly one of the identity fields resolved to a lead reference
// upstream; DedupKey is stable under redelivery.
type Event struct {
	LeadID     *uuid.UUID
	Email      string
	EventType  EventType
	Source     Source
	Verified   bool
	DedupKey   string
	Payload    map[string]any
	OccurredAt time.Time
}

// ComputeDedupKey derives the stable idempotency key for a raw event.
// Adapters that supply an external event id get "source:external_id";
// otherwise the key is a content hash over the identity, type, timestamp
// and payload, so a redelivered identical event collapses to one row.
func ComputeDedupKey(raw RawEvent) string {
	if raw.ExternalID != "" {
		return string(raw.Source) + ":" + raw.ExternalID
	}

	h := sha256.New()
	if raw.LeadID != nil {
		h.Write([]byte(raw.LeadID.String()))
	}
	h.Write([]byte{0})
	h.Write([]byte(raw.Email))
	h.Write([]byte{0})
	h.Write([]byte(raw.EventType))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(raw.OccurredAt.UTC().UnixNano(), 10)))
	h.Write([]byte{0})
	h.Write(canonicalPayload(raw.Payload))
	return "hash:" + hex.EncodeToString(h.Sum(nil))
}

// canonicalPayload renders the payload deterministically. encoding/json
// sorts map keys, which is exactly the stability the hash needs.
func canonicalPayload(payload map[string]any) []byte {
	if len(payload) == 0 {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return []byte(fmt.Sprintf("%v", payload))
	}
	return data
}
