// Package repository provides pgx persistence for the engagement routing
// core: the per-lead signal aggregate, the append-only event log, the
// transition log, and the transition command outbox.
package repository

import (
	"context"
	"errors"
	"time"

	"leadrouter_backend/internal/engagement/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a lead has no signal aggregate yet.
	ErrNotFound = errors.New("signal not found")
	// ErrVersionConflict is returned when the optimistic version check on
	// the aggregate update loses a race. Callers retry within a budget.
	ErrVersionConflict = errors.New("signal version conflict")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const signalColumns = `
	lead_id, email,
	emails_sent, emails_opened, emails_clicked, emails_replied, emails_bounced,
	connection_requests_sent, network_messages_sent, network_messages_received,
	website_visits, meetings_booked, meetings_completed, meetings_no_show,
	forms_submitted, crm_activities,
	connected, identified, requested_contact, downloaded_content, viewed_pricing, viewed_demo,
	last_email_sent_at, last_open_at, last_click_at, last_reply_at, last_bounce_at,
	last_network_at, last_visit_at, last_meeting_at, last_form_at, last_activity_at,
	recent_opens, recent_visits,
	engagement_score, engagement_level,
	current_platform, last_routing_decision, last_routed_at, transition_count,
	version, created_at, updated_at`

// signalRowScanner is satisfied by pgx.Rows and pgx.Row so scanSignal can be
// shared between single-row and multi-row queries.
type signalRowScanner interface {
	Scan(dest ...any) error
}

func scanSignal(row signalRowScanner) (domain.Signal, error) {
	var s domain.Signal
	var level, platform string
	err := row.Scan(
		&s.LeadID, &s.Email,
		&s.EmailsSent, &s.EmailsOpened, &s.EmailsClicked, &s.EmailsReplied, &s.EmailsBounced,
		&s.ConnectionRequestsSent, &s.NetworkMessagesSent, &s.NetworkMessagesReceived,
		&s.WebsiteVisits, &s.MeetingsBooked, &s.MeetingsCompleted, &s.MeetingsNoShow,
		&s.FormsSubmitted, &s.CRMActivities,
		&s.Connected, &s.Identified, &s.RequestedContact, &s.DownloadedContent, &s.ViewedPricing, &s.ViewedDemo,
		&s.LastEmailSentAt, &s.LastOpenAt, &s.LastClickAt, &s.LastReplyAt, &s.LastBounceAt,
		&s.LastNetworkAt, &s.LastVisitAt, &s.LastMeetingAt, &s.LastFormAt, &s.LastActivityAt,
		&s.RecentOpens, &s.RecentVisits,
		&s.EngagementScore, &level,
		&platform, &s.LastRoutingDecision, &s.LastRoutedAt, &s.TransitionCount,
		&s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return domain.Signal{}, err
	}
	s.EngagementLevel = domain.Level(level)
	s.CurrentPlatform = domain.Platform(platform)
	return s, nil
}

// GetSignal returns the aggregate for a lead.
func (r *Repository) GetSignal(ctx context.Context, leadID uuid.UUID) (domain.Signal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+signalColumns+` FROM engagement_signals WHERE lead_id = $1`, leadID)
	s, err := scanSignal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Signal{}, ErrNotFound
	}
	return s, err
}

// GetSignalByEmail returns the aggregate keyed by primary email.
func (r *Repository) GetSignalByEmail(ctx context.Context, email string) (domain.Signal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+signalColumns+` FROM engagement_signals WHERE email = $1`, email)
	s, err := scanSignal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Signal{}, ErrNotFound
	}
	return s, err
}

// getSignalTx loads the aggregate inside a transaction, creating the default
// row lazily on the first event for a lead.
func (r *Repository) getSignalTx(ctx context.Context, tx pgx.Tx, leadID uuid.UUID, email *string, now time.Time) (domain.Signal, error) {
	row := tx.QueryRow(ctx, `SELECT `+signalColumns+` FROM engagement_signals WHERE lead_id = $1`, leadID)
	s, err := scanSignal(row)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Signal{}, err
	}

	// Lazy create. ON CONFLICT covers a concurrent first event for the same
	// lead; the reselect then returns whichever row won.
	_, err = tx.Exec(ctx, `
		INSERT INTO engagement_signals (lead_id, email, engagement_level, current_platform, created_at, updated_at)
		VALUES ($1, $2, 'cold', 'none', $3, $3)
		ON CONFLICT (lead_id) DO NOTHING
	`, leadID, email, now)
	if err != nil {
		return domain.Signal{}, err
	}

	row = tx.QueryRow(ctx, `SELECT `+signalColumns+` FROM engagement_signals WHERE lead_id = $1`, leadID)
	return scanSignal(row)
}

// updateSignalTx writes the post-apply aggregate with an optimistic version
// check. Zero rows affected means another writer got there first.
func (r *Repository) updateSignalTx(ctx context.Context, tx pgx.Tx, s domain.Signal, expectedVersion int64, now time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE engagement_signals SET
			email = $2,
			emails_sent = $3, emails_opened = $4, emails_clicked = $5, emails_replied = $6, emails_bounced = $7,
			connection_requests_sent = $8, network_messages_sent = $9, network_messages_received = $10,
			website_visits = $11, meetings_booked = $12, meetings_completed = $13, meetings_no_show = $14,
			forms_submitted = $15, crm_activities = $16,
			connected = $17, identified = $18, requested_contact = $19, downloaded_content = $20,
			viewed_pricing = $21, viewed_demo = $22,
			last_email_sent_at = $23, last_open_at = $24, last_click_at = $25, last_reply_at = $26, last_bounce_at = $27,
			last_network_at = $28, last_visit_at = $29, last_meeting_at = $30, last_form_at = $31, last_activity_at = $32,
			recent_opens = $33, recent_visits = $34,
			engagement_score = $35, engagement_level = $36,
			version = version + 1, updated_at = $37
		WHERE lead_id = $1 AND version = $38
	`,
		s.LeadID, s.Email,
		s.EmailsSent, s.EmailsOpened, s.EmailsClicked, s.EmailsReplied, s.EmailsBounced,
		s.ConnectionRequestsSent, s.NetworkMessagesSent, s.NetworkMessagesReceived,
		s.WebsiteVisits, s.MeetingsBooked, s.MeetingsCompleted, s.MeetingsNoShow,
		s.FormsSubmitted, s.CRMActivities,
		s.Connected, s.Identified, s.RequestedContact, s.DownloadedContent,
		s.ViewedPricing, s.ViewedDemo,
		s.LastEmailSentAt, s.LastOpenAt, s.LastClickAt, s.LastReplyAt, s.LastBounceAt,
		s.LastNetworkAt, s.LastVisitAt, s.LastMeetingAt, s.LastFormAt, s.LastActivityAt,
		s.RecentOpens, s.RecentVisits,
		s.EngagementScore, string(s.EngagementLevel),
		now, expectedVersion,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}
