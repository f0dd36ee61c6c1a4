// Package scoring computes the deterministic engagement score and level for
// a signal aggregate. Score is a pure function of the snapshot so it can be
// replayed from the event log at any time.
package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// scoreVersion tracks the scoring model for debugging and analysis.
// Bump this when changing scoring logic significantly.
const scoreVersion = "2026-v1"

// Weights defines the contribution of each signal family. Positive-intent
// weights are calibrated so any one of them alone clears the hot threshold.
type Weights struct {
	Reply            float64 `yaml:"reply"`
	MeetingBooked    float64 `yaml:"meetingBooked"`
	MeetingCompleted float64 `yaml:"meetingCompleted"`
	FormSubmitted    float64 `yaml:"formSubmitted"`
	ContactRequested float64 `yaml:"contactRequested"`

	Open             float64 `yaml:"open"`
	Click            float64 `yaml:"click"`
	Visit            float64 `yaml:"visit"`
	NetworkReceived  float64 `yaml:"networkReceived"`
	Connection       float64 `yaml:"connection"`
	Identified       float64 `yaml:"identified"`
	ContentDownload  float64 `yaml:"contentDownload"`
	PricingViewed    float64 `yaml:"pricingViewed"`
	DemoViewed       float64 `yaml:"demoViewed"`

	OpenBurstBonus float64 `yaml:"openBurstBonus"`
	BouncePenalty  float64 `yaml:"bouncePenalty"`
}

// Caps bound how many occurrences of a repeated light signal still add
// score, so a click storm cannot fake positive intent.
type Caps struct {
	Opens    int `yaml:"opens"`
	Clicks   int `yaml:"clicks"`
	Visits   int `yaml:"visits"`
	Network  int `yaml:"network"`
	Meetings int `yaml:"meetings"`
}

// Thresholds are the ascending level cutoffs. Every score maps to exactly
// one level: [0,lukewarm) cold, [lukewarm,warm) lukewarm, [warm,hot) warm,
// [hot,100] hot.
type Thresholds struct {
	Lukewarm float64 `yaml:"lukewarm"`
	Warm     float64 `yaml:"warm"`
	Hot      float64 `yaml:"hot"`
}

// Config is the full scoring and routing-boundary configuration.
type Config struct {
	Weights    Weights    `yaml:"weights"`
	Caps       Caps       `yaml:"caps"`
	Thresholds Thresholds `yaml:"thresholds"`

	// DecayWindowDays is how long a signal family keeps contributing to the
	// level. Raw counters are never decayed; families whose last occurrence
	// is older than the window simply stop contributing.
	DecayWindowDays int `yaml:"decayWindowDays"`

	// OpenBurstWindowDays / OpenBurstCount define the repeated-light-
	// engagement rule (N opens within the trailing window).
	OpenBurstWindowDays int `yaml:"openBurstWindowDays"`
	OpenBurstCount      int `yaml:"openBurstCount"`

	// HighWaterMark is the score boundary for the priority-3 routing rule.
	HighWaterMark float64 `yaml:"highWaterMark"`
}

// Default returns the compiled-in configuration used when no file is set.
func Default() Config {
	return Config{
		Weights: Weights{
			Reply:            65,
			MeetingBooked:    70,
			MeetingCompleted: 70,
			FormSubmitted:    65,
			ContactRequested: 70,
			Open:             4,
			Click:            8,
			Visit:            5,
			NetworkReceived:  12,
			Connection:       6,
			Identified:       6,
			ContentDownload:  10,
			PricingViewed:    12,
			DemoViewed:       12,
			OpenBurstBonus:   15,
			BouncePenalty:    5,
		},
		Caps: Caps{
			Opens:    5,
			Clicks:   4,
			Visits:   5,
			Network:  3,
			Meetings: 2,
		},
		Thresholds: Thresholds{
			Lukewarm: 4,
			Warm:     25,
			Hot:      60,
		},
		DecayWindowDays:     30,
		OpenBurstWindowDays: 7,
		OpenBurstCount:      3,
		HighWaterMark:       75,
	}
}

// Load reads the configuration file at path, falling back to defaults for
// an empty path. The thresholds are validated so the level mapping stays
// total and non-overlapping.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read scoring config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse scoring config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants the level mapping depends on.
func (c Config) Validate() error {
	t := c.Thresholds
	if !(0 < t.Lukewarm && t.Lukewarm < t.Warm && t.Warm < t.Hot && t.Hot <= 100) {
		return fmt.Errorf("scoring thresholds must satisfy 0 < lukewarm < warm < hot <= 100, got %+v", t)
	}
	if c.DecayWindowDays <= 0 {
		return fmt.Errorf("decayWindowDays must be positive")
	}
	if c.OpenBurstWindowDays <= 0 || c.OpenBurstCount <= 0 {
		return fmt.Errorf("open burst window and count must be positive")
	}
	if c.HighWaterMark <= 0 || c.HighWaterMark > 100 {
		return fmt.Errorf("highWaterMark must be in (0,100]")
	}
	return nil
}

// Version returns the scoring model version recorded on decisions.
func Version() string { return scoreVersion }
