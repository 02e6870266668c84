// Package trajectory analyzes recorded coherence logs offline: descriptive
// statistics over a session's coherence series, per-session summaries, and an
// invariant audit that flags records violating the state machine's rules.
package trajectory

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"breathloop/internal/sink"
	"breathloop/internal/voidstate"
)

// #region series-stats

// SeriesStats describes the distribution of a coherence series.
type SeriesStats struct {
	Count  int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
	Range  float64
}

// Compute calculates descriptive statistics for a coherence series.
func Compute(series []float64) (SeriesStats, error) {
	s := SeriesStats{Count: len(series)}
	if len(series) == 0 {
		return s, fmt.Errorf("empty series")
	}

	var err error
	if s.Mean, err = stats.Mean(series); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(series); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(series); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(series); err != nil {
		return s, err
	}
	s.Range = s.Max - s.Min

	// StandardDeviation errors on a single sample; zero spread is the
	// right answer there.
	if len(series) > 1 {
		if s.StdDev, err = stats.StandardDeviation(series); err != nil {
			return s, err
		}
	}
	return s, nil
}

// #endregion series-stats

// #region session-summary

// SessionSummary condenses one session's events.
type SessionSummary struct {
	SessionID        string
	Dyad             string
	InitialMode      voidstate.Mode
	FinalMode        voidstate.Mode
	Breaths          int
	InitialCoherence float64
	FinalCoherence   float64
	TotalClimb       float64
	StabilizedBreath int // 0 if never stabilized
	Oscillatory      bool
	Coherence        SeriesStats
}

// Sessions groups events by session id, preserving first-seen order.
func Sessions(events []sink.Event) map[string][]sink.Event {
	bySession := make(map[string][]sink.Event)
	for _, ev := range events {
		if ev.SessionID == "" {
			continue
		}
		bySession[ev.SessionID] = append(bySession[ev.SessionID], ev)
	}
	return bySession
}

// Summarize condenses the events of a single session. The events must be in
// log order.
func Summarize(events []sink.Event) (SessionSummary, error) {
	var sum SessionSummary
	var series []float64

	for _, ev := range events {
		switch ev.Kind {
		case sink.KindSessionStart:
			sum.SessionID = ev.SessionID
			sum.Dyad = ev.Dyad
			sum.InitialCoherence = ev.Start.InitialCoherence
			sum.InitialMode = ev.Start.Mode
			sum.FinalMode = ev.Start.Mode
		case sink.KindBreath:
			b := ev.Breath
			sum.Breaths++
			sum.FinalCoherence = b.CoherenceAfter
			sum.FinalMode = b.Mode
			if b.OscillationBreath > 0 {
				sum.Oscillatory = true
			}
			series = append(series, b.CoherenceAfter)
		case sink.KindModeTransition:
			sum.FinalMode = ev.Transition.To
		case sink.KindStabilized:
			if sum.StabilizedBreath == 0 {
				sum.StabilizedBreath = ev.Stable.Breath
			}
		}
	}

	if sum.SessionID == "" {
		return sum, fmt.Errorf("no session_start record")
	}
	sum.TotalClimb = sum.FinalCoherence - sum.InitialCoherence

	if len(series) > 0 {
		cs, err := Compute(series)
		if err != nil {
			return sum, err
		}
		sum.Coherence = cs
	}
	return sum, nil
}

// #endregion session-summary

// #region audit

// Finding is one invariant violation discovered in a log.
type Finding struct {
	SessionID string
	Breath    int
	Check     string
	Detail    string
}

func (f Finding) String() string {
	return fmt.Sprintf("session %s breath %d: %s: %s", f.SessionID, f.Breath, f.Check, f.Detail)
}

// auditTolerance bounds floating-point drift in recomputed arithmetic.
const auditTolerance = 1e-9

// Audit re-checks a session's breath records against the state machine's
// invariants: contiguous breath numbering, non-decreasing history, the
// change field consistent with before/after, and oscillatory records
// matching the blend of expected and raw coherence. The events must be one
// session in log order; blendWeight is the weight the session ran with.
func Audit(events []sink.Event, blendWeight float64) []Finding {
	var findings []Finding
	lastBreath := 0
	lastHistory := 0.0
	sawOscillatory := false

	for _, ev := range events {
		if ev.Kind != sink.KindBreath || ev.Breath == nil {
			continue
		}
		b := ev.Breath

		if b.Breath != lastBreath+1 {
			findings = append(findings, Finding{
				SessionID: ev.SessionID, Breath: b.Breath,
				Check:  "breath_contiguous",
				Detail: fmt.Sprintf("expected breath %d, got %d", lastBreath+1, b.Breath),
			})
		}
		lastBreath = b.Breath

		if b.History < lastHistory-auditTolerance {
			findings = append(findings, Finding{
				SessionID: ev.SessionID, Breath: b.Breath,
				Check:  "history_monotone",
				Detail: fmt.Sprintf("history decreased %.6f -> %.6f", lastHistory, b.History),
			})
		}
		lastHistory = b.History

		change := b.CoherenceAfter - b.CoherenceBefore
		if math.Abs(change-b.ActualChange) > auditTolerance {
			findings = append(findings, Finding{
				SessionID: ev.SessionID, Breath: b.Breath,
				Check:  "change_consistent",
				Detail: fmt.Sprintf("recorded change %.9f, after-before %.9f", b.ActualChange, change),
			})
		}

		if b.Mode == voidstate.ModeOscillatory {
			if sawOscillatory && b.OscillationBreath == 0 {
				findings = append(findings, Finding{
					SessionID: ev.SessionID, Breath: b.Breath,
					Check:  "oscillation_breath",
					Detail: "oscillatory record with zero oscillation breath",
				})
			}
			sawOscillatory = true
			if b.ExpectedCoherence != nil && b.RawCoherence != nil {
				blended := blendWeight**b.ExpectedCoherence + (1-blendWeight)**b.RawCoherence
				if math.Abs(blended-b.CoherenceAfter) > auditTolerance {
					findings = append(findings, Finding{
						SessionID: ev.SessionID, Breath: b.Breath,
						Check:  "blend_law",
						Detail: fmt.Sprintf("blend gives %.9f, recorded %.9f", blended, b.CoherenceAfter),
					})
				}
			} else {
				findings = append(findings, Finding{
					SessionID: ev.SessionID, Breath: b.Breath,
					Check:  "oscillation_fields",
					Detail: "oscillatory record missing expected/raw coherence",
				})
			}
		} else if sawOscillatory && b.Mode == voidstate.ModeLinear {
			findings = append(findings, Finding{
				SessionID: ev.SessionID, Breath: b.Breath,
				Check:  "mode_order",
				Detail: "linear record after oscillatory records",
			})
		}
	}
	return findings
}

// #endregion audit
