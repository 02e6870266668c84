// Package tracker owns the coherence state machine: one Tracker per dyad
// session, updated synchronously by ProcessInput, emitting one immutable
// breath event per input to the configured sink.
//
// Sessions that start below the deep-void threshold recover through the
// empirical oscillation pattern: the tracked value is a fixed blend of the
// measured climb and live input scoring until the pattern completes or the
// stability threshold is reached. All other sessions recover linearly on the
// formula alone.
package tracker

import (
	"log"
	"time"

	"github.com/google/uuid"

	"breathloop/internal/formula"
	"breathloop/internal/pattern"
	"breathloop/internal/score"
	"breathloop/internal/sink"
	"breathloop/internal/voidstate"
)

// #region tracker-struct
// Tracker holds one session's mutable state. Not safe for concurrent use;
// each session must be independently owned (the scorer, pattern table, and
// config are read-only and may be shared).
type Tracker struct {
	cfg    Config
	scorer *score.Scorer
	table  *pattern.Table
	out    sink.Sink
	now    func() time.Time

	sessionID         string
	coherence         float64
	history           float64
	breathCount       int
	sessionStart      time.Time
	lastInput         time.Time
	mode              voidstate.Mode
	oscillationBreath int
	stabilizedLogged  bool
}

// #endregion tracker-struct

// #region constructor
// New builds a tracker and classifies the initial recovery mode once, from
// the initial coherence, before any input is processed. Emits a
// session_start event. Construction fails only on a sink error.
func New(cfg Config, scorer *score.Scorer, table *pattern.Table, out sink.Sink, opts ...Option) (*Tracker, error) {
	if cfg.BlendWeight == 0 {
		cfg.BlendWeight = DefaultConfig().BlendWeight
	}
	if cfg.MaxLoggedInput == 0 {
		cfg.MaxLoggedInput = DefaultConfig().MaxLoggedInput
	}
	if scorer == nil {
		scorer = score.NewDefaultScorer()
	}
	if table == nil {
		table = pattern.Default()
	}
	if out == nil {
		out = sink.Discard{}
	}

	t := &Tracker{
		cfg:       cfg,
		scorer:    scorer,
		table:     table,
		out:       out,
		now:       time.Now,
		sessionID: uuid.New().String(),
		coherence: cfg.InitialCoherence,
	}
	for _, opt := range opts {
		opt(t)
	}

	start := t.now()
	t.sessionStart = start
	t.lastInput = start

	vs := voidstate.Detect(cfg.Thresholds, cfg.InitialCoherence)
	t.mode = vs.Mode
	log.Printf("[TRACK] session %s dyad=%s initial=%.3f mode=%s expected_breaths=%d",
		t.sessionID, cfg.DyadID, cfg.InitialCoherence, vs.Mode, vs.ExpectedBreaths)

	err := t.out.Append(sink.Event{
		Kind:      sink.KindSessionStart,
		Time:      start,
		Dyad:      cfg.DyadID,
		SessionID: t.sessionID,
		Start: &sink.SessionStart{
			InitialCoherence: cfg.InitialCoherence,
			Mode:             vs.Mode,
			ExpectedBreaths:  vs.ExpectedBreaths,
		},
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// #endregion constructor

// #region process-input
// ProcessInput runs one breath cycle: score the input, accumulate history,
// recompute coherence (blended with the pattern while oscillating), apply
// mode transitions for the next call, and emit the breath event.
//
// It never fails on input — any string, including empty, is scored. The
// returned error is a sink append failure only; session state is already
// updated and consistent when it is returned, and the record is the
// caller's to retry or drop.
func (t *Tracker) ProcessInput(text string) (sink.BreathEvent, error) {
	now := t.now()
	elapsed := now.Sub(t.lastInput).Seconds()
	t.lastInput = now

	res := t.scorer.Score(text)

	// Only non-negative, non-hallucination contributions feed history.
	if gain := res.PresenceBonus + res.UncertaintyBonus; gain > 0 {
		t.history += gain
	}

	raw := formula.Compute(t.cfg.Formula, res.PresenceBonus, res.UncertaintyBonus, t.history, elapsed) +
		res.HallucinationPenalty

	old := t.coherence
	modeAtBreath := t.mode

	ev := sink.BreathEvent{
		Breath:               t.breathCount + 1,
		Timestamp:            now,
		ElapsedSeconds:       elapsed,
		InputText:            truncate(text, t.cfg.MaxLoggedInput),
		ScoreDelta:           res.Delta,
		Reasons:              res.Reasons,
		CoherenceBefore:      old,
		History:              t.history,
		PresenceBonus:        res.PresenceBonus,
		UncertaintyBonus:     res.UncertaintyBonus,
		HallucinationPenalty: res.HallucinationPenalty,
		Mode:                 modeAtBreath,
	}

	if modeAtBreath == voidstate.ModeOscillatory {
		t.oscillationBreath++

		// Table entry 1 is the pre-input void; breath b post-input reads
		// entry b+1 (breath 1 lands on the recognition leap).
		entry := t.table.Expected(t.oscillationBreath + 1)
		blended := t.cfg.BlendWeight*entry.Coherence + (1-t.cfg.BlendWeight)*raw

		t.coherence = blended

		expected := entry.Coherence
		rawCopy := raw
		ev.OscillationBreath = t.oscillationBreath
		ev.ExpectedCoherence = &expected
		ev.ExpectedTone = entry.Tone
		ev.RawCoherence = &rawCopy
		ev.Phase = t.table.PhaseDescription(t.oscillationBreath + 1)
	} else {
		t.coherence = raw
	}

	ev.CoherenceAfter = t.coherence
	ev.ActualChange = t.coherence - old

	transition := t.applyTransitions()
	if transition != nil && modeAtBreath == voidstate.ModeOscillatory {
		ev.OscillationComplete = true
	}

	t.breathCount++

	appendErr := t.out.Append(sink.Event{
		Kind:      sink.KindBreath,
		Time:      now,
		Dyad:      t.cfg.DyadID,
		SessionID: t.sessionID,
		Breath:    &ev,
	})

	if transition != nil {
		if err := t.out.Append(sink.Event{
			Kind:       sink.KindModeTransition,
			Time:       now,
			Dyad:       t.cfg.DyadID,
			SessionID:  t.sessionID,
			Transition: transition,
		}); err != nil && appendErr == nil {
			appendErr = err
		}
	}

	if t.coherence >= t.cfg.Thresholds.Stable && !t.stabilizedLogged {
		t.stabilizedLogged = true
		log.Printf("[TRACK] session %s stabilized at breath %d (coherence=%.3f)",
			t.sessionID, t.breathCount, t.coherence)
		if err := t.out.Append(sink.Event{
			Kind:      sink.KindStabilized,
			Time:      now,
			Dyad:      t.cfg.DyadID,
			SessionID: t.sessionID,
			Stable: &sink.Stabilized{
				Breath:         t.breathCount,
				Coherence:      t.coherence,
				TotalSeconds:   now.Sub(t.sessionStart).Seconds(),
				WasOscillatory: t.oscillationBreath > 0,
			},
		}); err != nil && appendErr == nil {
			appendErr = err
		}
	}

	return ev, appendErr
}

// #endregion process-input

// #region transitions
// applyTransitions re-runs the classifier's transition rules against the
// just-computed state and changes the mode for the next call. Transitions
// are one-directional: OSCILLATORY is never re-entered and STABLE is sticky
// as a regime label even if coherence later drifts below the threshold.
func (t *Tracker) applyTransitions() *sink.ModeTransition {
	switch t.mode {
	case voidstate.ModeOscillatory:
		terminal := t.oscillationBreath+1 >= t.table.Terminal()
		if terminal || t.coherence >= t.cfg.Thresholds.Stable {
			t.mode = voidstate.ModeStable
			desc := "oscillation pattern complete"
			if !terminal {
				desc = "stability threshold reached mid-pattern"
			}
			return &sink.ModeTransition{
				From:        voidstate.ModeOscillatory,
				To:          voidstate.ModeStable,
				Coherence:   t.coherence,
				Description: desc,
			}
		}
	case voidstate.ModeLinear:
		if t.coherence >= t.cfg.Thresholds.Stable {
			t.mode = voidstate.ModeStable
			return &sink.ModeTransition{
				From:        voidstate.ModeLinear,
				To:          voidstate.ModeStable,
				Coherence:   t.coherence,
				Description: "stability threshold reached",
			}
		}
	}
	return nil
}

// #endregion transitions

// #region snapshot
// Snapshot returns a read-only view of the current session state.
func (t *Tracker) Snapshot() Snapshot {
	now := t.now()
	s := Snapshot{
		DyadID:                t.cfg.DyadID,
		SessionID:             t.sessionID,
		Coherence:             t.coherence,
		History:               t.history,
		BreathCount:           t.breathCount,
		Mode:                  t.mode,
		SecondsSinceLastInput: now.Sub(t.lastInput).Seconds(),
		TotalElapsedSeconds:   now.Sub(t.sessionStart).Seconds(),
		Stable:                t.coherence >= t.cfg.Thresholds.Stable,
	}
	if t.mode == voidstate.ModeOscillatory {
		s.OscillationBreath = t.oscillationBreath
		remaining := (t.table.Terminal() - 1) - t.oscillationBreath
		if remaining < 0 {
			remaining = 0
		}
		s.BreathsToStable = remaining
	}
	return s
}

// Mode returns the current recovery regime.
func (t *Tracker) Mode() voidstate.Mode {
	return t.mode
}

// SessionID returns the session identifier.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// #endregion snapshot

// #region reset
// Reset re-seeds the session in place: coherence and history return to the
// given starting point, the recovery mode is re-classified, and a reset
// event is emitted. Breath numbering continues (the log is append-only).
func (t *Tracker) Reset(initialCoherence float64) error {
	now := t.now()
	t.coherence = initialCoherence
	t.history = 0
	t.oscillationBreath = 0
	t.stabilizedLogged = false
	t.lastInput = now

	vs := voidstate.Detect(t.cfg.Thresholds, initialCoherence)
	t.mode = vs.Mode
	log.Printf("[TRACK] session %s reset to %.3f mode=%s", t.sessionID, initialCoherence, vs.Mode)

	return t.out.Append(sink.Event{
		Kind:      sink.KindReset,
		Time:      now,
		Dyad:      t.cfg.DyadID,
		SessionID: t.sessionID,
		Reset: &sink.Reset{
			InitialCoherence: initialCoherence,
			Mode:             vs.Mode,
		},
	})
}

// #endregion reset

// #region helpers
// truncate limits logged input text without splitting runes.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// #endregion helpers
