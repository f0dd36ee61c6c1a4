// Package transport defines the JSON shapes of the engagement API. Domain
// types never cross the HTTP boundary directly.
package transport

import (
	"encoding/json"
	"time"

	"leadrouter_backend/internal/engagement/domain"
	"leadrouter_backend/internal/engagement/repository"

	"github.com/google/uuid"
)

// SubmitEventRequest is the adapter-facing ingestion payload.
type SubmitEventRequest struct {
	LeadID     *uuid.UUID     `json:"leadId"`
	Email      string         `json:"email" validate:"omitempty,email"`
	EventType  string         `json:"eventType" validate:"required"`
	Source     string         `json:"source" validate:"required"`
	ExternalID string         `json:"externalId"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurredAt" validate:"required"`
}

// ToRawEvent maps the request onto the domain input type.
func (r SubmitEventRequest) ToRawEvent() domain.RawEvent {
	return domain.RawEvent{
		LeadID:     r.LeadID,
		Email:      r.Email,
		EventType:  domain.EventType(r.EventType),
		Source:     domain.Source(r.Source),
		ExternalID: r.ExternalID,
		Payload:    r.Payload,
		OccurredAt: r.OccurredAt,
	}
}

// OverrideRequest is the operator manual-override payload.
type OverrideRequest struct {
	Target string `json:"target" validate:"required,oneof=outreach hybrid crm"`
}

// SignalResponse is the operator view of one aggregate.
type SignalResponse struct {
	LeadID uuid.UUID `json:"leadId"`
	Email  *string   `json:"email,omitempty"`

	Counters CountersResponse `json:"counters"`
	Flags    FlagsResponse    `json:"flags"`

	RecentOpens  int `json:"recentOpens"`
	RecentVisits int `json:"recentVisits"`

	EngagementScore float64 `json:"engagementScore"`
	EngagementLevel string  `json:"engagementLevel"`

	CurrentPlatform     string          `json:"currentPlatform"`
	LastRoutingDecision json.RawMessage `json:"lastRoutingDecision,omitempty"`
	LastRoutedAt        *time.Time      `json:"lastRoutedAt,omitempty"`
	TransitionCount     int             `json:"transitionCount"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CountersResponse struct {
	EmailsSent              int `json:"emailsSent"`
	EmailsOpened            int `json:"emailsOpened"`
	EmailsClicked           int `json:"emailsClicked"`
	EmailsReplied           int `json:"emailsReplied"`
	EmailsBounced           int `json:"emailsBounced"`
	ConnectionRequestsSent  int `json:"connectionRequestsSent"`
	NetworkMessagesSent     int `json:"networkMessagesSent"`
	NetworkMessagesReceived int `json:"networkMessagesReceived"`
	WebsiteVisits           int `json:"websiteVisits"`
	MeetingsBooked          int `json:"meetingsBooked"`
	MeetingsCompleted       int `json:"meetingsCompleted"`
	MeetingsNoShow          int `json:"meetingsNoShow"`
	FormsSubmitted          int `json:"formsSubmitted"`
	CRMActivities           int `json:"crmActivities"`
}

type FlagsResponse struct {
	Connected         bool `json:"connected"`
	Identified        bool `json:"identified"`
	RequestedContact  bool `json:"requestedContact"`
	DownloadedContent bool `json:"downloadedContent"`
	ViewedPricing     bool `json:"viewedPricing"`
	ViewedDemo        bool `json:"viewedDemo"`
}

// FromSignal maps a domain aggregate to its API shape.
func FromSignal(s domain.Signal) SignalResponse {
	return SignalResponse{
		LeadID: s.LeadID,
		Email:  s.Email,
		Counters: CountersResponse{
			EmailsSent:              s.EmailsSent,
			EmailsOpened:            s.EmailsOpened,
			EmailsClicked:           s.EmailsClicked,
			EmailsReplied:           s.EmailsReplied,
			EmailsBounced:           s.EmailsBounced,
			ConnectionRequestsSent:  s.ConnectionRequestsSent,
			NetworkMessagesSent:     s.NetworkMessagesSent,
			NetworkMessagesReceived: s.NetworkMessagesReceived,
			WebsiteVisits:           s.WebsiteVisits,
			MeetingsBooked:          s.MeetingsBooked,
			MeetingsCompleted:       s.MeetingsCompleted,
			MeetingsNoShow:          s.MeetingsNoShow,
			FormsSubmitted:          s.FormsSubmitted,
			CRMActivities:           s.CRMActivities,
		},
		Flags: FlagsResponse{
			Connected:         s.Connected,
			Identified:        s.Identified,
			RequestedContact:  s.RequestedContact,
			DownloadedContent: s.DownloadedContent,
			ViewedPricing:     s.ViewedPricing,
			ViewedDemo:        s.ViewedDemo,
		},
		RecentOpens:         s.RecentOpens,
		RecentVisits:        s.RecentVisits,
		EngagementScore:     s.EngagementScore,
		EngagementLevel:     string(s.EngagementLevel),
		CurrentPlatform:     string(s.CurrentPlatform),
		LastRoutingDecision: s.LastRoutingDecision,
		LastRoutedAt:        s.LastRoutedAt,
		TransitionCount:     s.TransitionCount,
		Version:             s.Version,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

// EventResponse is one event-log row.
type EventResponse struct {
	ID         uuid.UUID      `json:"id"`
	LeadID     uuid.UUID      `json:"leadId"`
	EventType  string         `json:"eventType"`
	Source     string         `json:"source"`
	Verified   bool           `json:"verified"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func FromEventRecord(rec repository.EventRecord) EventResponse {
	return EventResponse{
		ID:         rec.ID,
		LeadID:     rec.LeadID,
		EventType:  string(rec.EventType),
		Source:     string(rec.Source),
		Verified:   rec.Verified,
		Payload:    rec.Payload,
		OccurredAt: rec.OccurredAt,
		CreatedAt:  rec.CreatedAt,
	}
}

// TransitionResponse is one transition-log row.
type TransitionResponse struct {
	ID               uuid.UUID `json:"id"`
	LeadID           uuid.UUID `json:"leadId"`
	FromPlatform     string    `json:"fromPlatform"`
	ToPlatform       string    `json:"toPlatform"`
	Reason           string    `json:"reason"`
	TriggerEventType string    `json:"triggerEventType,omitempty"`
	Score            float64   `json:"score"`
	Level            string    `json:"level"`
	ManualOverride   bool      `json:"manualOverride"`
	CreatedAt        time.Time `json:"createdAt"`
}

func FromTransition(t repository.Transition) TransitionResponse {
	return TransitionResponse{
		ID:               t.ID,
		LeadID:           t.LeadID,
		FromPlatform:     string(t.FromPlatform),
		ToPlatform:       string(t.ToPlatform),
		Reason:           string(t.Reason),
		TriggerEventType: string(t.TriggerEventType),
		Score:            t.Score,
		Level:            string(t.Level),
		ManualOverride:   t.ManualOverride,
		CreatedAt:        t.CreatedAt,
	}
}

// SummaryCell is one platform x level count.
type SummaryCell struct {
	Platform string `json:"platform"`
	Level    string `json:"level"`
	Count    int    `json:"count"`
}
