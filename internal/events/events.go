// Package events defines the domain events published on the in-process bus
// after durable commits. Subscribers must tolerate at-least-once delivery.
package events

import (
	"leadrouter_backend/internal/engagement/domain"
	"leadrouter_backend/platform/events"

	"github.com/google/uuid"
)

// Event names.
const (
	EventApplied               = "engagement.event.applied"
	LevelChanged               = "engagement.level.changed"
	TransitionCommitted        = "engagement.transition.committed"
	TransitionCommandIssued    = "engagement.transition.command.issued"
	IllegalTransitionDetected  = "engagement.transition.illegal"
	ReconciliationSweepStarted = "engagement.reconcile.started"
)

// EventAppliedEvent fires after an ingested event has been durably folded
// into the signal aggregate.
type EventAppliedEvent struct {
	events.BaseEvent
	LeadID    uuid.UUID        `json:"leadId"`
	EventType domain.EventType `json:"eventType"`
	Source    domain.Source    `json:"source"`
	Score     float64          `json:"score"`
	Level     domain.Level     `json:"level"`
	Version   int64            `json:"version"`
}

// EventName returns the unique event identifier.
func (e EventAppliedEvent) EventName() string { return EventApplied }

func NewEventApplied(leadID uuid.UUID, eventType domain.EventType, source domain.Source, score float64, level domain.Level, version int64) EventAppliedEvent {
	return EventAppliedEvent{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		EventType: eventType,
		Source:    source,
		Score:     score,
		Level:     level,
		Version:   version,
	}
}

// LevelChangedEvent fires when an apply moved the lead across a level
// boundary in either direction.
type LevelChangedEvent struct {
	events.BaseEvent
	LeadID   uuid.UUID    `json:"leadId"`
	Previous domain.Level `json:"previous"`
	Current  domain.Level `json:"current"`
	Score    float64      `json:"score"`
}

// EventName returns the unique event identifier.
func (e LevelChangedEvent) EventName() string { return LevelChanged }

func NewLevelChanged(leadID uuid.UUID, previous, current domain.Level, score float64) LevelChangedEvent {
	return LevelChangedEvent{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		Previous:  previous,
		Current:   current,
		Score:     score,
	}
}

// TransitionCommittedEvent fires strictly after the transition transaction
// committed. Nothing downstream ever observes an uncommitted transition.
type TransitionCommittedEvent struct {
	events.BaseEvent
	LeadID      uuid.UUID               `json:"leadId"`
	From        domain.Platform         `json:"from"`
	To          domain.Platform         `json:"to"`
	Reason      domain.TransitionReason `json:"reason"`
	DecisionKey string                  `json:"decisionKey"`
	Score       float64                 `json:"score"`
}

// EventName returns the unique event identifier.
func (e TransitionCommittedEvent) EventName() string { return TransitionCommitted }

func NewTransitionCommitted(leadID uuid.UUID, from, to domain.Platform, reason domain.TransitionReason, decisionKey string, score float64) TransitionCommittedEvent {
	return TransitionCommittedEvent{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      leadID,
		From:        from,
		To:          to,
		Reason:      reason,
		DecisionKey: decisionKey,
		Score:       score,
	}
}

// TransitionCommandIssuedEvent fires per outbound command recorded with a
// committed transition.
type TransitionCommandIssuedEvent struct {
	events.BaseEvent
	LeadID      uuid.UUID          `json:"leadId"`
	CommandType domain.CommandType `json:"commandType"`
	DecisionKey string             `json:"decisionKey"`
}

// EventName returns the unique event identifier.
func (e TransitionCommandIssuedEvent) EventName() string { return TransitionCommandIssued }

func NewTransitionCommandIssued(leadID uuid.UUID, commandType domain.CommandType, decisionKey string) TransitionCommandIssuedEvent {
	return TransitionCommandIssuedEvent{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      leadID,
		CommandType: commandType,
		DecisionKey: decisionKey,
	}
}

// ReconciliationSweepStartedEvent fires when a sweep begins scanning the
// aggregate store.
type ReconciliationSweepStartedEvent struct {
	events.BaseEvent
}

// EventName returns the unique event identifier.
func (e ReconciliationSweepStartedEvent) EventName() string { return ReconciliationSweepStarted }

func NewReconciliationSweepStarted() ReconciliationSweepStartedEvent {
	return ReconciliationSweepStartedEvent{BaseEvent: events.NewBaseEvent()}
}

// IllegalTransitionDetectedEvent is the data-integrity alarm raised when a
// decision fails graph validation just before commit. The decision is
// dropped, never applied.
type IllegalTransitionDetectedEvent struct {
	events.BaseEvent
	LeadID uuid.UUID       `json:"leadId"`
	From   domain.Platform `json:"from"`
	Target domain.Platform `json:"target"`
	Cause  string          `json:"cause"`
}

// EventName returns the unique event identifier.
func (e IllegalTransitionDetectedEvent) EventName() string { return IllegalTransitionDetected }

func NewIllegalTransitionDetected(leadID uuid.UUID, from, target domain.Platform, cause string) IllegalTransitionDetectedEvent {
	return IllegalTransitionDetectedEvent{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		From:      from,
		Target:    target,
		Cause:     cause,
	}
}
