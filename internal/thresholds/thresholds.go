// Package thresholds holds the radar detection threshold table.
// Loaded once at startup; analytics read values by name so operators can
// retune sensitivity without code changes.
package thresholds

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the immutable threshold table for all radar analytics.
type Config struct {
	Volume struct {
		ZScoreWatch  float64 `yaml:"z_score_watch"`
		ZScoreHigh   float64 `yaml:"z_score_high"`
		MinChangePct float64 `yaml:"min_change_pct"`
		LookbackDays int     `yaml:"lookback_days"`
	} `yaml:"volume"`

	RSI struct {
		Overbought        float64 `yaml:"overbought"`
		OverboughtExtreme float64 `yaml:"overbought_extreme"`
		Oversold          float64 `yaml:"oversold"`
		OversoldExtreme   float64 `yaml:"oversold_extreme"`
	} `yaml:"rsi"`

	Breakout struct {
		ResistanceTolerance float64 `yaml:"resistance_tolerance"`
		SupportTolerance    float64 `yaml:"support_tolerance"`
		LookbackDays        int     `yaml:"lookback_days"`
	} `yaml:"breakout"`

	Movement struct {
		RapidChangePct float64 `yaml:"rapid_change_pct"`
	} `yaml:"movement"`

	Tempo struct {
		AcceleratePct  float64 `yaml:"accelerate_pct"`
		DeceleratePct  float64 `yaml:"decelerate_pct"`
		VeryActiveLvl  float64 `yaml:"very_active_level"`
		ActiveLvl      float64 `yaml:"active_level"`
		DirectionBand  float64 `yaml:"direction_band"`
	} `yaml:"tempo"`

	// Dedup knobs are carried for operator compatibility but not enforced
	// by the analytics (alerts are recomputed fresh every pass).
	Dedup struct {
		MinSecondsBetweenSame int `yaml:"min_seconds_between_same"`
		MaxConcurrentAlerts   int `yaml:"max_concurrent_alerts"`
	} `yaml:"dedup"`
}

// Default returns the built-in threshold table.
func Default() *Config {
	cfg := &Config{}
	cfg.Volume.ZScoreWatch = 2.0
	cfg.Volume.ZScoreHigh = 3.0
	cfg.Volume.MinChangePct = 50.0
	cfg.Volume.LookbackDays = 7
	cfg.RSI.Overbought = 70
	cfg.RSI.OverboughtExtreme = 80
	cfg.RSI.Oversold = 30
	cfg.RSI.OversoldExtreme = 20
	cfg.Breakout.ResistanceTolerance = 0.002
	cfg.Breakout.SupportTolerance = 0.002
	cfg.Breakout.LookbackDays = 7
	cfg.Movement.RapidChangePct = 3.0
	cfg.Tempo.AcceleratePct = 20.0
	cfg.Tempo.DeceleratePct = -20.0
	cfg.Tempo.VeryActiveLvl = 70
	cfg.Tempo.ActiveLvl = 40
	cfg.Tempo.DirectionBand = 1.0
	cfg.Dedup.MinSecondsBetweenSame = 300
	cfg.Dedup.MaxConcurrentAlerts = 5
	return cfg
}

// Load reads the threshold table from a YAML file. A missing file yields
// the defaults; a malformed file is an error so a typo cannot silently
// reset detection sensitivity.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read thresholds: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse thresholds: %w", err)
	}
	return cfg, nil
}

// IsOverbought reports whether rsi crosses the overbought threshold.
// Strictly greater-than: a value exactly at the threshold does not fire.
func (c *Config) IsOverbought(rsi float64, extreme bool) bool {
	if extreme {
		return rsi > c.RSI.OverboughtExtreme
	}
	return rsi > c.RSI.Overbought
}

// IsOversold reports whether rsi crosses the oversold threshold.
func (c *Config) IsOversold(rsi float64, extreme bool) bool {
	if extreme {
		return rsi < c.RSI.OversoldExtreme
	}
	return rsi < c.RSI.Oversold
}
