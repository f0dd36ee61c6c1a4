package decision

import (
	"testing"

	"leadrouter_backend/internal/engagement/domain"
	"leadrouter_backend/internal/engagement/scoring"

	"github.com/google/uuid"
)

func newEngine() *Engine {
	return New(scoring.Default())
}

func snapshot(platform domain.Platform) domain.Signal {
	return domain.Signal{
		LeadID:          uuid.New(),
		CurrentPlatform: platform,
		EngagementLevel: domain.LevelCold,
		Version:         3,
	}
}

func TestDecide_ReplyRoutesToCRM(t *testing.T) {
	s := snapshot(domain.PlatformOutreach)

	d := newEngine().Decide(s, domain.EventEmailReplied)

	if d == nil {
		t.Fatal("expected a decision")
	}
	if d.Target != domain.PlatformCRM || d.Reason != domain.ReasonPositiveIntent {
		t.Fatalf("got target %s reason %s", d.Target, d.Reason)
	}
	if d.AuthorizingVersion != s.Version {
		t.Fatalf("decision must pin the snapshot version, got %d", d.AuthorizingVersion)
	}
	if d.ScoreVersion != scoring.Version() {
		t.Fatalf("decision must record the scoring model version, got %q", d.ScoreVersion)
	}
}

func TestDecide_RequestedContactFlagRoutesToCRM(t *testing.T) {
	s := snapshot(domain.PlatformNone)
	s.RequestedContact = true

	d := newEngine().Decide(s, domain.EventWebsiteVisit)

	if d == nil || d.Target != domain.PlatformCRM {
		t.Fatalf("requested_contact must route to crm, got %+v", d)
	}
}

func TestDecide_OpenBurstMovesOutreachToHybrid(t *testing.T) {
	s := snapshot(domain.PlatformOutreach)
	s.RecentOpens = 3

	d := newEngine().Decide(s, domain.EventEmailOpened)

	if d == nil {
		t.Fatal("expected a decision")
	}
	if d.Target != domain.PlatformHybrid || d.Reason != domain.ReasonOpenBurst {
		t.Fatalf("got target %s reason %s", d.Target, d.Reason)
	}
}

func TestDecide_OpenBurstOffOutreachDoesNothing(t *testing.T) {
	s := snapshot(domain.PlatformNone)
	s.RecentOpens = 5

	if d := newEngine().Decide(s, domain.EventEmailOpened); d != nil {
		t.Fatalf("burst off outreach produced %+v", d)
	}
}

func TestDecide_HighWaterMarkRoutesToCRM(t *testing.T) {
	for _, from := range []domain.Platform{domain.PlatformOutreach, domain.PlatformHybrid} {
		s := snapshot(from)
		s.EngagementScore = 80

		d := newEngine().Decide(s, domain.EventEmailClicked)

		if d == nil || d.Target != domain.PlatformCRM || d.Reason != domain.ReasonScoreHighWater {
			t.Fatalf("from %s: got %+v", from, d)
		}
	}
}

func TestDecide_PositiveIntentWinsOverBurst(t *testing.T) {
	s := snapshot(domain.PlatformOutreach)
	s.RecentOpens = 5

	d := newEngine().Decide(s, domain.EventEmailReplied)

	if d == nil || d.Target != domain.PlatformCRM || d.Reason != domain.ReasonPositiveIntent {
		t.Fatalf("priority order violated: %+v", d)
	}
}

func TestDecide_TerminalLeadNeverMoves(t *testing.T) {
	s := snapshot(domain.PlatformCRM)
	s.EngagementScore = 100
	s.RecentOpens = 10
	s.RequestedContact = true

	if d := newEngine().Decide(s, domain.EventEmailReplied); d != nil {
		t.Fatalf("crm lead produced decision %+v", d)
	}
}

func TestDecide_NoRuleNoDecision(t *testing.T) {
	s := snapshot(domain.PlatformOutreach)
	s.EngagementScore = 10

	if d := newEngine().Decide(s, domain.EventEmailOpened); d != nil {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestValidateTransition_ForwardOnly(t *testing.T) {
	ok := domain.TransitionDecision{From: domain.PlatformOutreach, Target: domain.PlatformHybrid}
	if err := ValidateTransition(ok); err != nil {
		t.Fatalf("forward move rejected: %v", err)
	}

	backward := domain.TransitionDecision{From: domain.PlatformHybrid, Target: domain.PlatformOutreach}
	if err := ValidateTransition(backward); err == nil {
		t.Fatal("backward automated move must be rejected")
	}

	fromTerminal := domain.TransitionDecision{From: domain.PlatformCRM, Target: domain.PlatformHybrid}
	if err := ValidateTransition(fromTerminal); err == nil {
		t.Fatal("automated move out of crm must be rejected")
	}

	toNone := domain.TransitionDecision{From: domain.PlatformOutreach, Target: domain.PlatformNone}
	if err := ValidateTransition(toNone); err == nil {
		t.Fatal("transition to none must be rejected")
	}
}

func TestValidateTransition_ManualOverride(t *testing.T) {
	backward := domain.TransitionDecision{
		From: domain.PlatformHybrid, Target: domain.PlatformOutreach, ManualOverride: true,
	}
	if err := ValidateTransition(backward); err != nil {
		t.Fatalf("manual override may move backward pre-crm: %v", err)
	}

	outOfCRM := domain.TransitionDecision{
		From: domain.PlatformCRM, Target: domain.PlatformOutreach, ManualOverride: true,
	}
	if err := ValidateTransition(outOfCRM); err == nil {
		t.Fatal("manual override must not pull a crm lead back into outreach")
	}
}
