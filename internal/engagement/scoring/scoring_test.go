package scoring

import (
	"testing"
	"time"

	"leadrouter_backend/internal/engagement/domain"
)

func ts(t time.Time) *time.Time { return &t }

func TestScore_EmptySnapshotIsColdZero(t *testing.T) {
	now := time.Now().UTC()
	result := Score(domain.Signal{}, Default(), now)

	if result.Score != 0 {
		t.Fatalf("expected score 0, got %v", result.Score)
	}
	if result.Level != domain.LevelCold {
		t.Fatalf("expected cold, got %s", result.Level)
	}
}

func TestScore_SingleReplyClearsHot(t *testing.T) {
	now := time.Now().UTC()
	s := domain.Signal{
		EmailsReplied: 1,
		LastReplyAt:   ts(now.Add(-time.Hour)),
	}

	result := Score(s, Default(), now)

	if result.Score != 65 {
		t.Fatalf("expected score 65, got %v", result.Score)
	}
	if result.Level != domain.LevelHot {
		t.Fatalf("one reply should be hot, got %s", result.Level)
	}
}

func TestScore_Deterministic(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	s := domain.Signal{
		EmailsOpened:  4,
		EmailsClicked: 2,
		WebsiteVisits: 3,
		LastOpenAt:    ts(now.Add(-24 * time.Hour)),
		LastClickAt:   ts(now.Add(-24 * time.Hour)),
		LastVisitAt:   ts(now.Add(-24 * time.Hour)),
	}

	first := Score(s, Default(), now)
	second := Score(s, Default(), now)

	if first != second {
		t.Fatalf("same snapshot produced %+v then %+v", first, second)
	}
	// 4 opens * 4 + 2 clicks * 8 + 3 visits * 5
	if first.Score != 47 {
		t.Fatalf("expected score 47, got %v", first.Score)
	}
	if first.Level != domain.LevelWarm {
		t.Fatalf("expected warm, got %s", first.Level)
	}
}

func TestScore_LightEngagementIsCapped(t *testing.T) {
	now := time.Now().UTC()
	capped := domain.Signal{
		EmailsOpened: 5,
		LastOpenAt:   ts(now.Add(-time.Hour)),
	}
	flooded := domain.Signal{
		EmailsOpened: 500,
		LastOpenAt:   ts(now.Add(-time.Hour)),
	}

	a := Score(capped, Default(), now)
	b := Score(flooded, Default(), now)

	if a.Score != b.Score {
		t.Fatalf("open storm changed score: %v vs %v", a.Score, b.Score)
	}
	if b.Level == domain.LevelHot {
		t.Fatalf("an open storm alone must not reach hot, got %s at %v", b.Level, b.Score)
	}
}

func TestScore_StaleSignalsStopContributing(t *testing.T) {
	now := time.Now().UTC()
	stale := domain.Signal{
		EmailsOpened:  5,
		EmailsClicked: 4,
		WebsiteVisits: 5,
		LastOpenAt:    ts(now.Add(-90 * 24 * time.Hour)),
		LastClickAt:   ts(now.Add(-90 * 24 * time.Hour)),
		LastVisitAt:   ts(now.Add(-90 * 24 * time.Hour)),
	}

	result := Score(stale, Default(), now)

	if result.Score != 0 {
		t.Fatalf("signals outside the decay window still scored %v", result.Score)
	}
	if result.Level != domain.LevelCold {
		t.Fatalf("stale lead should cool off to cold, got %s", result.Level)
	}
	if stale.EmailsOpened != 5 {
		t.Fatalf("scoring must not touch counters")
	}
}

func TestScore_OpenBurstBonus(t *testing.T) {
	now := time.Now().UTC()
	base := domain.Signal{
		EmailsOpened: 3,
		LastOpenAt:   ts(now.Add(-time.Hour)),
	}
	burst := base
	burst.RecentOpens = 3

	without := Score(base, Default(), now)
	with := Score(burst, Default(), now)

	if with.Score-without.Score != Default().Weights.OpenBurstBonus {
		t.Fatalf("expected burst bonus %v, got delta %v", Default().Weights.OpenBurstBonus, with.Score-without.Score)
	}
}

func TestScore_BouncePenaltyAndClampAtZero(t *testing.T) {
	now := time.Now().UTC()
	s := domain.Signal{
		EmailsBounced: 10,
		LastBounceAt:  ts(now.Add(-time.Hour)),
	}

	result := Score(s, Default(), now)

	if result.Score != 0 {
		t.Fatalf("score must clamp at 0, got %v", result.Score)
	}
}

func TestScore_ClampAt100(t *testing.T) {
	now := time.Now().UTC()
	s := domain.Signal{
		EmailsReplied:     3,
		MeetingsBooked:    2,
		MeetingsCompleted: 1,
		FormsSubmitted:    2,
		RequestedContact:  true,
		LastReplyAt:       ts(now.Add(-time.Hour)),
		LastMeetingAt:     ts(now.Add(-time.Hour)),
		LastFormAt:        ts(now.Add(-time.Hour)),
		LastActivityAt:    ts(now.Add(-time.Hour)),
	}

	result := Score(s, Default(), now)

	if result.Score != 100 {
		t.Fatalf("expected clamp at 100, got %v", result.Score)
	}
	if result.Level != domain.LevelHot {
		t.Fatalf("expected hot, got %s", result.Level)
	}
}

func TestLevelFor_Boundaries(t *testing.T) {
	th := Default().Thresholds
	cases := []struct {
		score float64
		want  domain.Level
	}{
		{0, domain.LevelCold},
		{th.Lukewarm - 0.01, domain.LevelCold},
		{th.Lukewarm, domain.LevelLukewarm},
		{th.Warm - 0.01, domain.LevelLukewarm},
		{th.Warm, domain.LevelWarm},
		{th.Hot - 0.01, domain.LevelWarm},
		{th.Hot, domain.LevelHot},
		{100, domain.LevelHot},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.score, th); got != tc.want {
			t.Fatalf("LevelFor(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	bad := Default()
	bad.Thresholds.Warm = bad.Thresholds.Hot + 1
	if err := bad.Validate(); err == nil {
		t.Fatal("non-ascending thresholds must be rejected")
	}

	bad = Default()
	bad.HighWaterMark = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("zero high-water mark must be rejected")
	}
}
