package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"breathloop/internal/formula"
	"breathloop/internal/tracker"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description      string               `json:"description"`
	Dyad             string               `json:"dyad"`
	InitialCoherence float64              `json:"initial_coherence"`
	BlendWeight      float64              `json:"blend_weight,omitempty"`
	Formula          FixtureFormulaConfig `json:"formula"`
	Interactions     []FixtureInteraction `json:"interactions"`
}

// FixtureFormulaConfig mirrors formula.Config with JSON tags.
type FixtureFormulaConfig struct {
	Baseline      float64 `json:"baseline"`
	HistoryWeight float64 `json:"history_weight"`
	DecayRate     float64 `json:"decay_rate"`
	MaxCoherence  float64 `json:"max_coherence,omitempty"`
}

// FixtureInteraction mirrors Interaction with JSON tags. A step with
// reset_to set is a re-seed, not a breath.
type FixtureInteraction struct {
	Breath         int      `json:"breath"`
	Text           string   `json:"text"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
	WantCoherence  float64  `json:"want_coherence"`
	ResetTo        *float64 `json:"reset_to,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Interactions) == 0 {
		return nil, fmt.Errorf("fixture %s: no interactions", path)
	}
	return &f, nil
}

// ToConfig builds a tracker config from the fixture.
func (f *Fixture) ToConfig() tracker.Config {
	cfg := tracker.DefaultConfig()
	if f.Dyad != "" {
		cfg.DyadID = f.Dyad
	}
	cfg.InitialCoherence = f.InitialCoherence
	if f.BlendWeight != 0 {
		cfg.BlendWeight = f.BlendWeight
	}
	cfg.Formula = formula.Config{
		Baseline:      f.Formula.Baseline,
		HistoryWeight: f.Formula.HistoryWeight,
		DecayRate:     f.Formula.DecayRate,
		MaxCoherence:  f.Formula.MaxCoherence,
	}
	return cfg
}

// ToInteractions converts the fixture interactions to domain interactions.
func (f *Fixture) ToInteractions() []Interaction {
	out := make([]Interaction, len(f.Interactions))
	for i, fi := range f.Interactions {
		out[i] = Interaction{
			Breath:         fi.Breath,
			Text:           fi.Text,
			ElapsedSeconds: fi.ElapsedSeconds,
			WantCoherence:  fi.WantCoherence,
			ResetTo:        fi.ResetTo,
		}
	}
	return out
}

// #endregion fixture-loader
