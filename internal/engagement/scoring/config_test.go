package scoring

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg != Default() {
		t.Fatal("empty path must return the compiled-in defaults")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	body := []byte("thresholds:\n  lukewarm: 10\n  warm: 40\n  hot: 80\nhighWaterMark: 90\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Thresholds.Hot != 80 || cfg.HighWaterMark != 90 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// Untouched keys keep their defaults.
	if cfg.Weights.Reply != Default().Weights.Reply {
		t.Fatalf("defaults lost on partial override: %+v", cfg.Weights)
	}
}

func TestLoad_RejectsInvalidThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	body := []byte("thresholds:\n  lukewarm: 50\n  warm: 40\n  hot: 80\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("overlapping thresholds must be rejected")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file must error, not silently default")
	}
}
