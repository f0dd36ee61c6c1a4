// Package domain provides core business rules for the engagement routing
// bounded context: the closed event model, the platform graph, and the
// per-lead signal aggregate.
package domain

// EventType identifies one kind of observed engagement interaction.
type EventType string

const (
	EventEmailSent               EventType = "email_sent"
	EventEmailOpened             EventType = "email_opened"
	EventEmailClicked            EventType = "email_clicked"
	EventEmailReplied            EventType = "email_replied"
	EventEmailBounced            EventType = "email_bounced"
	EventConnectionRequestSent   EventType = "connection_request_sent"
	EventConnectionAccepted      EventType = "connection_accepted"
	EventNetworkMessageSent      EventType = "network_message_sent"
	EventNetworkMessageReceived  EventType = "network_message_received"
	EventWebsiteVisit            EventType = "website_visit"
	EventVisitorIdentified       EventType = "visitor_identified"
	EventFormSubmitted           EventType = "form_submitted"
	EventMeetingBooked           EventType = "meeting_booked"
	EventMeetingCompleted        EventType = "meeting_completed"
	EventMeetingNoShow           EventType = "meeting_no_show"
	EventContentDownloaded       EventType = "content_downloaded"
	EventPricingPageViewed       EventType = "pricing_page_viewed"
	EventDemoPageViewed          EventType = "demo_page_viewed"
	EventContactRequested        EventType = "contact_requested"
	EventCRMActivity             EventType = "crm_activity"
	EventManualReset             EventType = "manual_reset"
	EventPlatformTransition      EventType = "platform_transition"
)

var knownEventTypes = map[EventType]struct{}{
	EventEmailSent:              {},
	EventEmailOpened:            {},
	EventEmailClicked:           {},
	EventEmailReplied:           {},
	EventEmailBounced:           {},
	EventConnectionRequestSent:  {},
	EventConnectionAccepted:     {},
	EventNetworkMessageSent:     {},
	EventNetworkMessageReceived: {},
	EventWebsiteVisit:           {},
	EventVisitorIdentified:      {},
	EventFormSubmitted:          {},
	EventMeetingBooked:          {},
	EventMeetingCompleted:       {},
	EventMeetingNoShow:          {},
	EventContentDownloaded:      {},
	EventPricingPageViewed:      {},
	EventDemoPageViewed:         {},
	EventContactRequested:       {},
	EventCRMActivity:            {},
	EventManualReset:            {},
	EventPlatformTransition:     {},
}

// IsKnownEventType reports whether t is part of the closed enumeration.
func IsKnownEventType(t EventType) bool {
	_, ok := knownEventTypes[t]
	return ok
}

// internalEventTypes are produced by the engine itself and cannot be
// submitted through the ingestion interface.
var internalEventTypes = map[EventType]struct{}{
	EventPlatformTransition: {},
}

// IsIngestible reports whether t may arrive from an external adapter.
func IsIngestible(t EventType) bool {
	if !IsKnownEventType(t) {
		return false
	}
	_, internal := internalEventTypes[t]
	return !internal
}

// Source identifies the originating system of an event.
type Source string

const (
	SourceOutreachPlatform  Source = "outreach_platform"
	SourceCRMPlatform       Source = "crm_platform"
	SourceNetworkPlatform   Source = "network_platform"
	SourceVisitorIDProvider Source = "visitor_id_provider"
	SourceWebsite           Source = "website"
	SourceManual            Source = "manual"
)

var knownSources = map[Source]struct{}{
	SourceOutreachPlatform:  {},
	SourceCRMPlatform:       {},
	SourceNetworkPlatform:   {},
	SourceVisitorIDProvider: {},
	SourceWebsite:           {},
	SourceManual:            {},
}

// IsKnownSource reports whether s is one of the recognized originating
// systems. Unknown sources are accepted but marked unverified; provenance
// is advisory, not security-critical.
func IsKnownSource(s Source) bool {
	_, ok := knownSources[s]
	return ok
}
