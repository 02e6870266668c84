// Package config handles breathloop configuration loading. Every tunable of
// the state machine — formula parameters, thresholds, scoring table,
// oscillation pattern, output paths — can be overridden from a YAML file;
// anything omitted keeps its calibrated default.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"breathloop/internal/formula"
	"breathloop/internal/pattern"
	"breathloop/internal/score"
	"breathloop/internal/tracker"
	"breathloop/internal/voidstate"
)

// #region types

// Config is the root configuration structure.
type Config struct {
	Dyad             string        `yaml:"dyad"`
	InitialCoherence *float64      `yaml:"initial_coherence"`
	BlendWeight      float64       `yaml:"blend_weight"`
	MaxLoggedInput   int           `yaml:"max_logged_input"`
	Formula          FormulaConfig `yaml:"formula"`
	Thresholds       Thresholds    `yaml:"thresholds"`
	Scoring          Scoring       `yaml:"scoring"`
	Pattern          []PatternRow  `yaml:"pattern"`
	Output           Output        `yaml:"output"`
}

// FormulaConfig holds the coherence formula parameters.
type FormulaConfig struct {
	Baseline      float64 `yaml:"baseline"`
	HistoryWeight float64 `yaml:"history_weight"`
	DecayRate     float64 `yaml:"decay_rate"`
	MaxCoherence  float64 `yaml:"max_coherence"`
}

// Thresholds holds the regime classification boundaries.
type Thresholds struct {
	DeepVoid    float64 `yaml:"deep_void"`
	ShallowVoid float64 `yaml:"shallow_void"`
	Stable      float64 `yaml:"stable"`
}

// Scoring holds the input scoring table. An empty Rules list keeps the
// built-in table.
type Scoring struct {
	Rules              []RuleRow `yaml:"rules"`
	UncertaintyPhrases []string  `yaml:"uncertainty_phrases"`
}

// RuleRow is one scoring rule.
type RuleRow struct {
	Pattern string  `yaml:"pattern"`
	Delta   float64 `yaml:"delta"`
	Reason  string  `yaml:"reason"`
}

// PatternRow is one oscillation pattern entry. An empty Pattern list keeps
// the measured default.
type PatternRow struct {
	Breath    int     `yaml:"breath"`
	Coherence float64 `yaml:"coherence"`
	Tone      string  `yaml:"tone"`
	Note      string  `yaml:"note,omitempty"`
}

// Output holds event log destinations.
type Output struct {
	LogPath string `yaml:"log_path"`
	DBPath  string `yaml:"db_path"`
}

// #endregion types

// #region defaults

// Default returns the calibrated configuration.
func Default() *Config {
	f := formula.DefaultConfig()
	t := voidstate.DefaultThresholds()
	initial := formula.DeepVoid
	return &Config{
		Dyad:             "default",
		InitialCoherence: &initial,
		BlendWeight:      0.7,
		MaxLoggedInput:   100,
		Formula: FormulaConfig{
			Baseline:      f.Baseline,
			HistoryWeight: f.HistoryWeight,
			DecayRate:     f.DecayRate,
			MaxCoherence:  f.MaxCoherence,
		},
		Thresholds: Thresholds{
			DeepVoid:    t.DeepVoid,
			ShallowVoid: t.ShallowVoid,
			Stable:      t.Stable,
		},
		Scoring: Scoring{
			UncertaintyPhrases: score.DefaultUncertaintyPhrases(),
		},
		Output: Output{
			LogPath: "coherence_log.jsonl",
		},
	}
}

// #endregion defaults

// #region load-save

// Load loads configuration from a file, layered over defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads config from path, or returns defaults if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfigPath returns the default config file path: a breathloop.yaml
// in the working directory wins over the per-user config.
func DefaultConfigPath() string {
	if _, err := os.Stat("breathloop.yaml"); err == nil {
		return "breathloop.yaml"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "breathloop.yaml"
	}
	return filepath.Join(home, ".config", "breathloop", "config.yaml")
}

// Init creates a default config file if it doesn't exist.
func Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // already exists
	}

	return Default().Save(path)
}

// #endregion load-save

// #region converters

// TrackerConfig builds the tracker parameters from the file values.
func (c *Config) TrackerConfig() tracker.Config {
	cfg := tracker.DefaultConfig()
	if c.Dyad != "" {
		cfg.DyadID = c.Dyad
	}
	if c.InitialCoherence != nil {
		cfg.InitialCoherence = *c.InitialCoherence
	}
	if c.BlendWeight != 0 {
		cfg.BlendWeight = c.BlendWeight
	}
	if c.MaxLoggedInput != 0 {
		cfg.MaxLoggedInput = c.MaxLoggedInput
	}
	cfg.Formula = formula.Config{
		Baseline:      c.Formula.Baseline,
		HistoryWeight: c.Formula.HistoryWeight,
		DecayRate:     c.Formula.DecayRate,
		MaxCoherence:  c.Formula.MaxCoherence,
	}
	cfg.Thresholds = voidstate.Thresholds{
		DeepVoid:    c.Thresholds.DeepVoid,
		ShallowVoid: c.Thresholds.ShallowVoid,
		Stable:      c.Thresholds.Stable,
	}
	return cfg
}

// Scorer builds the input scorer. An empty rule list keeps the built-in
// table; a non-empty one replaces it entirely.
func (c *Config) Scorer() (*score.Scorer, error) {
	rules := score.DefaultRules()
	if len(c.Scoring.Rules) > 0 {
		rules = make([]score.Rule, len(c.Scoring.Rules))
		for i, r := range c.Scoring.Rules {
			rules[i] = score.Rule{Pattern: r.Pattern, Delta: r.Delta, Reason: r.Reason}
		}
	}
	return score.NewScorer(rules, c.Scoring.UncertaintyPhrases)
}

// PatternTable builds the oscillation pattern. An empty list keeps the
// measured default; a non-empty one replaces it and must validate.
func (c *Config) PatternTable() (*pattern.Table, error) {
	if len(c.Pattern) == 0 {
		return pattern.Default(), nil
	}
	entries := make([]pattern.Entry, len(c.Pattern))
	for i, row := range c.Pattern {
		entries[i] = pattern.Entry{
			Breath:    row.Breath,
			Coherence: row.Coherence,
			Tone:      pattern.Tone(row.Tone),
			Note:      row.Note,
		}
	}
	return pattern.New(entries)
}

// #endregion converters
