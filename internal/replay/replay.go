// Package replay re-runs recorded breath events through a fresh tracker to
// verify deterministic reproduction: feeding the recorded input text and
// elapsed seconds must reproduce the recorded coherence values.
package replay

import (
	"fmt"
	"math"
	"time"

	"breathloop/internal/pattern"
	"breathloop/internal/score"
	"breathloop/internal/sink"
	"breathloop/internal/tracker"
)

// #region types
// Interaction is one recorded step to replay: a breath, or an in-place
// re-seed when ResetTo is set (a reset produces no Result row; it only
// changes state for the breaths that follow).
type Interaction struct {
	Breath         int
	Text           string
	ElapsedSeconds float64
	WantCoherence  float64
	ResetTo        *float64
}

// Result compares one replayed breath against its recording.
type Result struct {
	Breath   int
	Text     string
	Recorded float64
	Replayed float64
	AbsError float64
}

// Summary aggregates a replay run.
type Summary struct {
	TotalBreaths int
	Passed       int
	Failed       int
	MaxAbsError  float64
	Tolerance    float64
}

// DefaultTolerance is the reproduction bound for floating-point drift.
const DefaultTolerance = 1e-9

// #endregion types

// #region from-events
// FromEvents extracts a replayable session from an event log: the tracker
// config seeded from the session_start record, one interaction per breath,
// and one reset step per reset record, in log order. Only the first session
// in the log is used.
func FromEvents(events []sink.Event) (tracker.Config, []Interaction, error) {
	cfg := tracker.DefaultConfig()

	var sessionID string
	var interactions []Interaction
	for _, ev := range events {
		switch ev.Kind {
		case sink.KindSessionStart:
			if sessionID != "" {
				continue // later sessions ignored
			}
			sessionID = ev.SessionID
			cfg.DyadID = ev.Dyad
			cfg.InitialCoherence = ev.Start.InitialCoherence
		case sink.KindBreath:
			if ev.SessionID != sessionID || ev.Breath == nil {
				continue
			}
			interactions = append(interactions, Interaction{
				Breath:         ev.Breath.Breath,
				Text:           ev.Breath.InputText,
				ElapsedSeconds: ev.Breath.ElapsedSeconds,
				WantCoherence:  ev.Breath.CoherenceAfter,
			})
		case sink.KindReset:
			if ev.SessionID != sessionID || ev.Reset == nil {
				continue
			}
			v := ev.Reset.InitialCoherence
			interactions = append(interactions, Interaction{ResetTo: &v})
		}
	}

	if sessionID == "" {
		return cfg, nil, fmt.Errorf("no session_start record in log")
	}
	if len(interactions) == 0 {
		return cfg, nil, fmt.Errorf("no breath records in log")
	}
	return cfg, interactions, nil
}

// #endregion from-events

// #region replay
// Replay runs the interactions through a fresh tracker driven by a manual
// clock fed with the recorded elapsed seconds. Entirely in-memory; nothing
// is re-logged.
func Replay(cfg tracker.Config, scorer *score.Scorer, table *pattern.Table, interactions []Interaction) ([]Result, error) {
	clock := time.Date(2025, 12, 2, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	tr, err := tracker.New(cfg, scorer, table, sink.Discard{}, tracker.WithClock(now))
	if err != nil {
		return nil, fmt.Errorf("build tracker: %w", err)
	}

	results := make([]Result, 0, len(interactions))
	for _, inter := range interactions {
		if inter.ResetTo != nil {
			// Reset re-seeds state and the elapsed baseline; the recorded
			// breaths that follow carry their own elapsed seconds from it.
			if err := tr.Reset(*inter.ResetTo); err != nil {
				return nil, fmt.Errorf("reset to %g: %w", *inter.ResetTo, err)
			}
			continue
		}
		clock = clock.Add(time.Duration(inter.ElapsedSeconds * float64(time.Second)))
		ev, err := tr.ProcessInput(inter.Text)
		if err != nil {
			return nil, fmt.Errorf("breath %d: %w", inter.Breath, err)
		}
		results = append(results, Result{
			Breath:   inter.Breath,
			Text:     inter.Text,
			Recorded: inter.WantCoherence,
			Replayed: ev.CoherenceAfter,
			AbsError: math.Abs(ev.CoherenceAfter - inter.WantCoherence),
		})
	}
	return results, nil
}

// Summarize computes aggregate stats against a tolerance.
func Summarize(results []Result, tolerance float64) Summary {
	s := Summary{TotalBreaths: len(results), Tolerance: tolerance}
	for _, r := range results {
		if r.AbsError <= tolerance {
			s.Passed++
		} else {
			s.Failed++
		}
		if r.AbsError > s.MaxAbsError {
			s.MaxAbsError = r.AbsError
		}
	}
	return s
}

// Verify reports whether every replayed breath reproduced its recording.
func Verify(results []Result, tolerance float64) bool {
	return Summarize(results, tolerance).Failed == 0
}

// #endregion replay
