package service

import (
	"time"

	"leadrouter_backend/internal/engagement/domain"
	"leadrouter_backend/internal/engagement/scoring"
)

// Scorer adapts the pure scoring function to the apply transaction's rescore
// hook. It pins one Config for the process lifetime so every apply in a
// deploy scores identically.
type Scorer struct {
	cfg scoring.Config
}

func NewScorer(cfg scoring.Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Rescore computes score and level for a post-apply snapshot.
func (s *Scorer) Rescore(snapshot domain.Signal) (float64, domain.Level) {
	result := scoring.Score(snapshot, s.cfg, time.Now().UTC())
	return result.Score, result.Level
}

// BurstWindow returns the trailing window for the derived open/visit counts.
func (s *Scorer) BurstWindow() time.Duration {
	return time.Duration(s.cfg.OpenBurstWindowDays) * 24 * time.Hour
}

// Config returns the pinned scoring configuration.
func (s *Scorer) Config() scoring.Config {
	return s.cfg
}
