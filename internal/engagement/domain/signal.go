package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Signal is the per-lead engagement aggregate: one row per lead, updated on
// every accepted event. Counters only increment, flags only set (except via
// an explicit manual_reset event), and the raw history lives separately in
// the append-only event log.
type Signal struct {
	LeadID uuid.UUID
	Email  *string

	EmailsSent    int
	EmailsOpened  int
	EmailsClicked int
	EmailsReplied int
	EmailsBounced int

	ConnectionRequestsSent  int
	NetworkMessagesSent     int
	NetworkMessagesReceived int

	WebsiteVisits int

	MeetingsBooked    int
	MeetingsCompleted int
	MeetingsNoShow    int

	FormsSubmitted int
	CRMActivities  int

	Connected         bool
	Identified        bool
	RequestedContact  bool
	DownloadedContent bool
	ViewedPricing     bool
	ViewedDemo        bool

	LastEmailSentAt *time.Time
	LastOpenAt      *time.Time
	LastClickAt     *time.Time
	LastReplyAt     *time.Time
	LastBounceAt    *time.Time
	LastNetworkAt   *time.Time
	LastVisitAt     *time.Time
	LastMeetingAt   *time.Time
	LastFormAt      *time.Time
	LastActivityAt  *time.Time

	// RecentOpens and RecentVisits are trailing-window counts refreshed from
	// the event log on every apply. They are derived, not decayed: the raw
	// counters above are never reduced.
	RecentOpens  int
	RecentVisits int

	EngagementScore float64
	EngagementLevel Level

	CurrentPlatform     Platform
	LastRoutingDecision json.RawMessage
	LastRoutedAt        *time.Time
	TransitionCount     int

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSignal returns the lazily-created aggregate for a lead that has no
// history yet: platform none, score zero, level cold.
func NewSignal(leadID uuid.UUID, email *string, now time.Time) Signal {
	return Signal{
		LeadID:          leadID,
		Email:           email,
		EngagementLevel: LevelCold,
		CurrentPlatform: PlatformNone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ApplyEvent folds a single accepted event into the aggregate. It is a pure
// in-memory mutation; persistence and dedup live in the signal store. The
// only path that ever lowers a flag is a manual_reset event, which names the
// flags to clear in its payload.
func (s *Signal) ApplyEvent(ev Event) {
	occurred := ev.OccurredAt

	switch ev.EventType {
	case EventEmailSent:
		s.EmailsSent++
		s.LastEmailSentAt = laterOf(s.LastEmailSentAt, occurred)
	case EventEmailOpened:
		s.EmailsOpened++
		s.LastOpenAt = laterOf(s.LastOpenAt, occurred)
	case EventEmailClicked:
		s.EmailsClicked++
		s.LastClickAt = laterOf(s.LastClickAt, occurred)
	case EventEmailReplied:
		s.EmailsReplied++
		s.LastReplyAt = laterOf(s.LastReplyAt, occurred)
	case EventEmailBounced:
		s.EmailsBounced++
		s.LastBounceAt = laterOf(s.LastBounceAt, occurred)
	case EventConnectionRequestSent:
		s.ConnectionRequestsSent++
		s.LastNetworkAt = laterOf(s.LastNetworkAt, occurred)
	case EventConnectionAccepted:
		s.Connected = true
		s.LastNetworkAt = laterOf(s.LastNetworkAt, occurred)
	case EventNetworkMessageSent:
		s.NetworkMessagesSent++
		s.LastNetworkAt = laterOf(s.LastNetworkAt, occurred)
	case EventNetworkMessageReceived:
		s.NetworkMessagesReceived++
		s.LastNetworkAt = laterOf(s.LastNetworkAt, occurred)
	case EventWebsiteVisit:
		s.WebsiteVisits++
		s.LastVisitAt = laterOf(s.LastVisitAt, occurred)
	case EventVisitorIdentified:
		s.Identified = true
		s.LastVisitAt = laterOf(s.LastVisitAt, occurred)
	case EventFormSubmitted:
		s.FormsSubmitted++
		s.LastFormAt = laterOf(s.LastFormAt, occurred)
	case EventMeetingBooked:
		s.MeetingsBooked++
		s.LastMeetingAt = laterOf(s.LastMeetingAt, occurred)
	case EventMeetingCompleted:
		s.MeetingsCompleted++
		s.LastMeetingAt = laterOf(s.LastMeetingAt, occurred)
	case EventMeetingNoShow:
		s.MeetingsNoShow++
		s.LastMeetingAt = laterOf(s.LastMeetingAt, occurred)
	case EventContentDownloaded:
		s.DownloadedContent = true
		s.LastActivityAt = laterOf(s.LastActivityAt, occurred)
	case EventPricingPageViewed:
		s.ViewedPricing = true
		s.LastVisitAt = laterOf(s.LastVisitAt, occurred)
	case EventDemoPageViewed:
		s.ViewedDemo = true
		s.LastVisitAt = laterOf(s.LastVisitAt, occurred)
	case EventContactRequested:
		s.RequestedContact = true
		s.LastActivityAt = laterOf(s.LastActivityAt, occurred)
	case EventCRMActivity:
		s.CRMActivities++
		s.LastActivityAt = laterOf(s.LastActivityAt, occurred)
	case EventManualReset:
		s.applyManualReset(ev)
	}
}

// applyManualReset lowers the flags named in the payload. The validator has
// already enforced source=manual for this event type.
func (s *Signal) applyManualReset(ev Event) {
	raw, ok := ev.Payload["flags"]
	if !ok {
		return
	}
	names, ok := raw.([]any)
	if !ok {
		return
	}
	for _, item := range names {
		name, ok := item.(string)
		if !ok {
			continue
		}
		switch name {
		case "connected":
			s.Connected = false
		case "identified":
			s.Identified = false
		case "requested_contact":
			s.RequestedContact = false
		case "downloaded_content":
			s.DownloadedContent = false
		case "viewed_pricing":
			s.ViewedPricing = false
		case "viewed_demo":
			s.ViewedDemo = false
		}
	}
}

func laterOf(current *time.Time, candidate time.Time) *time.Time {
	if current == nil || candidate.After(*current) {
		t := candidate
		return &t
	}
	return current
}
