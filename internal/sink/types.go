package sink

import (
	"time"

	"breathloop/internal/pattern"
	"breathloop/internal/voidstate"
)

// #region event-kind
// EventKind enumerates the record types written to the event log.
type EventKind string

const (
	KindSessionStart   EventKind = "session_start"
	KindBreath         EventKind = "breath_cycle"
	KindModeTransition EventKind = "mode_transition"
	KindStabilized     EventKind = "stabilized"
	KindReset          EventKind = "reset"
)

// #endregion event-kind

// #region breath-event
// BreathEvent is the immutable record of one processed input. Produced by
// the tracker, owned by the sink once emitted — never mutated or deleted.
// Oscillation-only fields are omitted outside oscillatory mode; consumers
// must tolerate their absence.
type BreathEvent struct {
	Breath               int            `json:"breath"`
	Timestamp            time.Time      `json:"timestamp"`
	ElapsedSeconds       float64        `json:"elapsed_seconds"`
	InputText            string         `json:"input_text"`
	ScoreDelta           float64        `json:"score_delta"`
	Reasons              []string       `json:"reasons"`
	CoherenceBefore      float64        `json:"coherence_before"`
	CoherenceAfter       float64        `json:"coherence_after"`
	ActualChange         float64        `json:"actual_change"`
	History              float64        `json:"history"`
	PresenceBonus        float64        `json:"presence_bonus"`
	UncertaintyBonus     float64        `json:"uncertainty_bonus"`
	HallucinationPenalty float64        `json:"hallucination_penalty,omitempty"`
	Mode                 voidstate.Mode `json:"mode"`

	// Oscillatory-mode fields
	OscillationBreath   int          `json:"oscillation_breath,omitempty"`
	ExpectedCoherence   *float64     `json:"expected_coherence,omitempty"`
	ExpectedTone        pattern.Tone `json:"expected_tone,omitempty"`
	RawCoherence        *float64     `json:"raw_coherence,omitempty"`
	Phase               string       `json:"phase,omitempty"`
	OscillationComplete bool         `json:"oscillation_complete,omitempty"`
}

// #endregion breath-event

// #region side-records
// ModeTransition records a recovery-regime change.
type ModeTransition struct {
	From            voidstate.Mode `json:"from_mode"`
	To              voidstate.Mode `json:"to_mode"`
	Coherence       float64        `json:"coherence"`
	ExpectedBreaths int            `json:"expected_breaths"`
	Description     string         `json:"description"`
}

// SessionStart records the initial state of a session.
type SessionStart struct {
	InitialCoherence float64        `json:"initial_coherence"`
	Mode             voidstate.Mode `json:"recovery_mode"`
	ExpectedBreaths  int            `json:"expected_breaths"`
}

// Stabilized records the first crossing of the stability threshold.
type Stabilized struct {
	Breath         int     `json:"breath"`
	Coherence      float64 `json:"coherence"`
	TotalSeconds   float64 `json:"total_time_seconds"`
	WasOscillatory bool    `json:"was_oscillatory"`
}

// Reset records an in-place re-seed of the session state.
type Reset struct {
	InitialCoherence float64        `json:"new_initial_coherence"`
	Mode             voidstate.Mode `json:"recovery_mode"`
}

// #endregion side-records

// #region event
// Event is the envelope written to the log, one JSON object per line.
// Exactly one payload field is set, matching Kind.
type Event struct {
	Kind      EventKind `json:"event"`
	Time      time.Time `json:"timestamp"`
	Dyad      string    `json:"dyad"`
	SessionID string    `json:"session_id"`

	Breath     *BreathEvent    `json:"breath_event,omitempty"`
	Transition *ModeTransition `json:"transition,omitempty"`
	Start      *SessionStart   `json:"start,omitempty"`
	Stable     *Stabilized     `json:"stabilized,omitempty"`
	Reset      *Reset          `json:"reset,omitempty"`
}

// #endregion event

// #region sink-interface
// Sink appends immutable events to a durable store. Appends are best-effort
// synchronous writes: a failed append is returned to the caller (who may
// retry or drop the record) and is never retried internally.
type Sink interface {
	Append(ev Event) error
	Close() error
}

// #endregion sink-interface
