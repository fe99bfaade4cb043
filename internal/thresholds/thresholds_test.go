package thresholds

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Volume.ZScoreWatch != 2.0 || cfg.Volume.ZScoreHigh != 3.0 {
		t.Fatalf("unexpected volume z-score defaults: %+v", cfg.Volume)
	}
	if cfg.RSI.Overbought != 70 || cfg.RSI.Oversold != 30 {
		t.Fatalf("unexpected RSI defaults: %+v", cfg.RSI)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Breakout.ResistanceTolerance != 0.002 {
		t.Fatalf("expected default tolerance, got %v", cfg.Breakout.ResistanceTolerance)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	data := []byte("volume:\n  z_score_watch: 1.5\nrsi:\n  overbought: 75\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Volume.ZScoreWatch != 1.5 {
		t.Errorf("override not applied: got %v", cfg.Volume.ZScoreWatch)
	}
	if cfg.RSI.Overbought != 75 {
		t.Errorf("override not applied: got %v", cfg.RSI.Overbought)
	}
	// Untouched keys keep defaults
	if cfg.Volume.ZScoreHigh != 3.0 {
		t.Errorf("default lost on partial override: got %v", cfg.Volume.ZScoreHigh)
	}
}

func TestRSIBoundaryStrict(t *testing.T) {
	cfg := Default()
	if cfg.IsOverbought(70, false) {
		t.Error("RSI exactly at threshold must not fire")
	}
	if !cfg.IsOverbought(70.1, false) {
		t.Error("RSI above threshold must fire")
	}
	if cfg.IsOversold(30, false) {
		t.Error("RSI exactly at oversold threshold must not fire")
	}
	if !cfg.IsOversold(29.9, false) {
		t.Error("RSI below oversold threshold must fire")
	}
}
