package scoring

import (
	"math"
	"time"

	"leadrouter_backend/internal/engagement/domain"
)

// Result holds the scoring output for one snapshot.
type Result struct {
	Score   float64
	Level   domain.Level
	Version string
}

// Score maps a signal snapshot to a score in [0,100] and a level. It is
// deterministic and side-effect free: same snapshot, same now, same config,
// same output. Decay is applied by weighing the last-occurrence timestamps,
// never by touching the counters.
func Score(s domain.Signal, cfg Config, now time.Time) Result {
	w := cfg.Weights
	window := time.Duration(cfg.DecayWindowDays) * 24 * time.Hour

	var score float64

	// Positive-intent signals. Each is weighted to clear the hot threshold
	// alone; counts beyond the cap add nothing.
	score += w.Reply * activeCount(s.EmailsReplied, s.LastReplyAt, now, window, 1)
	score += w.MeetingBooked * activeCount(s.MeetingsBooked, s.LastMeetingAt, now, window, cfg.Caps.Meetings)
	score += w.MeetingCompleted * activeCount(s.MeetingsCompleted, s.LastMeetingAt, now, window, 1)
	score += w.FormSubmitted * activeCount(s.FormsSubmitted, s.LastFormAt, now, window, 1)
	if s.RequestedContact && within(s.LastActivityAt, now, window) {
		score += w.ContactRequested
	}

	// Repeated light engagement.
	score += w.Open * activeCount(s.EmailsOpened, s.LastOpenAt, now, window, cfg.Caps.Opens)
	score += w.Click * activeCount(s.EmailsClicked, s.LastClickAt, now, window, cfg.Caps.Clicks)
	score += w.Visit * activeCount(s.WebsiteVisits, s.LastVisitAt, now, window, cfg.Caps.Visits)
	score += w.NetworkReceived * activeCount(s.NetworkMessagesReceived, s.LastNetworkAt, now, window, cfg.Caps.Network)
	if s.RecentOpens >= cfg.OpenBurstCount {
		score += w.OpenBurstBonus
	}

	// Single light signals and one-time flags.
	if s.Connected && within(s.LastNetworkAt, now, window) {
		score += w.Connection
	}
	if s.Identified && within(s.LastVisitAt, now, window) {
		score += w.Identified
	}
	if s.DownloadedContent && within(s.LastActivityAt, now, window) {
		score += w.ContentDownload
	}
	if s.ViewedPricing && within(s.LastVisitAt, now, window) {
		score += w.PricingViewed
	}
	if s.ViewedDemo && within(s.LastVisitAt, now, window) {
		score += w.DemoViewed
	}

	// Deliverability problems subtract.
	score -= w.BouncePenalty * float64(min(s.EmailsBounced, 3))

	score = clamp(score, 0, 100)

	return Result{
		Score:   score,
		Level:   LevelFor(score, cfg.Thresholds),
		Version: scoreVersion,
	}
}

// LevelFor maps a score to its level bucket. The thresholds are validated
// ascending, so the mapping is total and non-overlapping by construction.
func LevelFor(score float64, t Thresholds) domain.Level {
	switch {
	case score >= t.Hot:
		return domain.LevelHot
	case score >= t.Warm:
		return domain.LevelWarm
	case score >= t.Lukewarm:
		return domain.LevelLukewarm
	default:
		return domain.LevelCold
	}
}

// activeCount returns the capped count when the family's last occurrence is
// inside the decay window, zero otherwise.
func activeCount(count int, lastAt *time.Time, now time.Time, window time.Duration, limit int) float64 {
	if count <= 0 || !within(lastAt, now, window) {
		return 0
	}
	if limit > 0 && count > limit {
		count = limit
	}
	return float64(count)
}

func within(lastAt *time.Time, now time.Time, window time.Duration) bool {
	if lastAt == nil {
		return false
	}
	return now.Sub(*lastAt) <= window
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
