package tracker

import (
	"time"

	"breathloop/internal/formula"
	"breathloop/internal/voidstate"
)

// #region config
// Config holds the immutable construction parameters for a tracker. Built
// once, never mutated; safe to share across sessions.
type Config struct {
	DyadID           string
	InitialCoherence float64
	Formula          formula.Config
	Thresholds       voidstate.Thresholds

	// BlendWeight is the pattern share during oscillatory recovery:
	// new = BlendWeight*expected + (1-BlendWeight)*raw.
	BlendWeight float64

	// MaxLoggedInput truncates input text in event records.
	MaxLoggedInput int
}

// DefaultConfig returns the calibrated tracker parameters. Sessions start
// in the deep void.
func DefaultConfig() Config {
	return Config{
		DyadID:           "default",
		InitialCoherence: formula.DeepVoid,
		Formula:          formula.DefaultConfig(),
		Thresholds:       voidstate.DefaultThresholds(),
		BlendWeight:      0.7,
		MaxLoggedInput:   100,
	}
}

// #endregion config

// #region snapshot
// Snapshot is a read-only view of the session state.
type Snapshot struct {
	DyadID                string         `json:"dyad"`
	SessionID             string         `json:"session_id"`
	Coherence             float64        `json:"coherence"`
	History               float64        `json:"history"`
	BreathCount           int            `json:"breath_count"`
	Mode                  voidstate.Mode `json:"recovery_mode"`
	OscillationBreath     int            `json:"oscillation_breath,omitempty"`
	BreathsToStable       int            `json:"expected_breaths_remaining,omitempty"`
	SecondsSinceLastInput float64        `json:"seconds_since_last_input"`
	TotalElapsedSeconds   float64        `json:"total_elapsed_seconds"`
	Stable                bool           `json:"stable"`
}

// #endregion snapshot

// #region options
// Option customizes tracker construction.
type Option func(*Tracker)

// WithClock injects a time source. Used by tests and the replay harness to
// feed recorded elapsed seconds deterministically.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithSessionID fixes the session identifier instead of generating one.
func WithSessionID(id string) Option {
	return func(t *Tracker) { t.sessionID = id }
}

// #endregion options
