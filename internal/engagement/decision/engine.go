// Package decision evaluates whether a signal snapshot crosses a routing
// boundary. Decide is a pure function: it returns a TransitionDecision for
// the executor to commit, or nil, and never touches state itself.
package decision

import (
	"fmt"

	"leadrouter_backend/internal/engagement/domain"
	"leadrouter_backend/internal/engagement/scoring"
)

// positiveIntentEvents trigger the priority-1 rule on their own.
var positiveIntentEvents = map[domain.EventType]struct{}{
	domain.EventEmailReplied:  {},
	domain.EventMeetingBooked: {},
	domain.EventFormSubmitted: {},
}

// Engine holds the routing boundaries. It is stateless apart from config.
type Engine struct {
	cfg scoring.Config
}

// New creates a decision engine with the given scoring/boundary config.
func New(cfg scoring.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Decide evaluates the transition table in priority order against the
// current platform, the post-apply snapshot, and the triggering event type.
// Returns nil when no boundary is crossed, when the lead is already at the
// target, or when the lead is terminal for automated routing.
//
// The engine only ever proposes forward moves; when several rules qualify
// simultaneously the most forward target wins by priority order.
func (e *Engine) Decide(snapshot domain.Signal, trigger domain.EventType) *domain.TransitionDecision {
	current := snapshot.CurrentPlatform
	if current.IsTerminal() {
		return nil
	}

	if target, reason, ok := e.evaluate(snapshot, trigger); ok {
		if target == current {
			return nil
		}
		return &domain.TransitionDecision{
			LeadID:             snapshot.LeadID,
			From:               current,
			Target:             target,
			Reason:             reason,
			TriggerEventType:   trigger,
			Score:              snapshot.EngagementScore,
			ScoreVersion:       scoring.Version(),
			Level:              snapshot.EngagementLevel,
			AuthorizingVersion: snapshot.Version,
		}
	}

	return nil
}

func (e *Engine) evaluate(s domain.Signal, trigger domain.EventType) (domain.Platform, domain.TransitionReason, bool) {
	// Priority 1: explicit positive intent routes straight to crm.
	if _, ok := positiveIntentEvents[trigger]; ok || s.RequestedContact {
		return domain.PlatformCRM, domain.ReasonPositiveIntent, true
	}

	// Priority 2: open burst while on outreach moves to hybrid.
	if s.RecentOpens >= e.cfg.OpenBurstCount && s.CurrentPlatform == domain.PlatformOutreach {
		return domain.PlatformHybrid, domain.ReasonOpenBurst, true
	}

	// Priority 3: score high-water mark from outreach or hybrid.
	if s.EngagementScore >= e.cfg.HighWaterMark &&
		(s.CurrentPlatform == domain.PlatformOutreach || s.CurrentPlatform == domain.PlatformHybrid) {
		return domain.PlatformCRM, domain.ReasonScoreHighWater, true
	}

	return "", "", false
}

// ValidateTransition enforces the legal-transition graph on a decision just
// before commit. A violation here is a data-integrity alarm, not a normal
// error path: the caller logs it, drops the decision, and never "fixes" it.
func ValidateTransition(d domain.TransitionDecision) error {
	if d.Target == domain.PlatformNone {
		return fmt.Errorf("transition target cannot be none")
	}
	if d.ManualOverride {
		// Manual overrides may move a terminal lead, but never backward out
		// of crm into an automated outreach sequence.
		if d.From == domain.PlatformCRM && d.Target != domain.PlatformCRM {
			return fmt.Errorf("manual override cannot move a crm lead back to %s", d.Target)
		}
		return nil
	}
	if d.From.IsTerminal() {
		return fmt.Errorf("lead is terminal for automated routing")
	}
	if !d.Target.ForwardOf(d.From) {
		return fmt.Errorf("transition %s -> %s is not forward", d.From, d.Target)
	}
	return nil
}
