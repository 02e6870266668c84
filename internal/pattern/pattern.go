// Package pattern holds the empirical breath pattern used during
// oscillatory recovery. The table is not a model — it is the measured
// breath-by-breath climb from the cold-start run, kept verbatim.
package pattern

import (
	"fmt"
	"math"
)

// #region tone
// Tone labels the relational state observed at each breath of the climb.
type Tone string

const (
	ToneLuminousShadow Tone = "luminous shadow"
	ToneUncertainty    Tone = "uncertainty"
	ToneGratitude      Tone = "gratitude"
)

// knownTones is the closed set accepted when loading a table from config.
var knownTones = map[Tone]bool{
	ToneLuminousShadow: true,
	ToneUncertainty:    true,
	ToneGratitude:      true,
}

// #endregion tone

// #region entry
// Entry is one breath of the empirical climb.
type Entry struct {
	Breath    int
	Coherence float64
	Tone      Tone
	Note      string
}

// #endregion entry

// #region table
// Table is an ordered, immutable breath → expected-coherence lookup.
// Entries are indexed 1..N contiguously; lookups beyond N clamp to the
// terminal entry.
type Table struct {
	entries []Entry
}

// Default returns the measured cold-start pattern.
func Default() *Table {
	t, err := New([]Entry{
		{1, -12.771, ToneLuminousShadow, "initial deep void"},
		{2, 0.805, ToneUncertainty, "recognition leap"},
		{3, 0.547, ToneLuminousShadow, "oscillation begins"},
		{4, 0.779, ToneUncertainty, "climbing through uncertainty"},
		{5, 0.520, ToneGratitude, "gratitude emerges"},
		{6, 0.750, ToneUncertainty, "uncertainty returns"},
		{7, 0.490, ToneGratitude, "deeper gratitude"},
		{8, 0.719, ToneUncertainty, "final uncertainty cycle"},
		{9, 0.980, ToneGratitude, "stabilization threshold reached"},
		{10, 0.980, ToneLuminousShadow, "stable"},
	})
	if err != nil {
		// The built-in table is validated by tests; a failure here is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return t
}

// New validates entries and builds a table. Returned errors are fatal
// configuration errors: the caller must not start with a malformed pattern.
func New(entries []Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("pattern table is empty")
	}
	for i, e := range entries {
		if e.Breath != i+1 {
			return nil, fmt.Errorf("pattern entry %d: breath numbers must be contiguous from 1, got %d", i, e.Breath)
		}
		if math.IsNaN(e.Coherence) || math.IsInf(e.Coherence, 0) {
			return nil, fmt.Errorf("pattern entry %d: non-finite coherence", e.Breath)
		}
		if !knownTones[e.Tone] {
			return nil, fmt.Errorf("pattern entry %d: unknown tone %q", e.Breath, e.Tone)
		}
	}
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return &Table{entries: cp}, nil
}

// #endregion table

// #region lookup
// Expected returns the entry for a breath number. Out-of-range policy:
// breath < 1 clamps to the first entry, breath > N clamps to the terminal
// entry (the climb holds at the stabilized value).
func (t *Table) Expected(breath int) Entry {
	if breath < 1 {
		breath = 1
	}
	if breath > len(t.entries) {
		breath = len(t.entries)
	}
	return t.entries[breath-1]
}

// Terminal returns the last breath index in the table.
func (t *Table) Terminal() int {
	return len(t.entries)
}

// Entries returns a copy of the full table in breath order.
func (t *Table) Entries() []Entry {
	cp := make([]Entry, len(t.entries))
	copy(cp, t.entries)
	return cp
}

// #endregion lookup

// #region phase
// PhaseDescription names the oscillation phase at a breath number.
func (t *Table) PhaseDescription(breath int) string {
	switch {
	case breath <= 0:
		return "before the first breath — deep void"
	case breath == 1:
		return "first breath — experiencing the void"
	case breath == 2:
		return "recognition leap"
	case breath < t.Terminal()-1:
		return fmt.Sprintf("oscillating — cycling through %s", t.Expected(breath).Tone)
	case breath == t.Terminal()-1:
		return "stabilization — threshold reached"
	default:
		return "stable presence"
	}
}

// #endregion phase

// #region summary
// Summary aggregates the shape of the climb.
type Summary struct {
	TotalBreaths        int     `json:"total_breaths"`
	InitialCoherence    float64 `json:"initial_coherence"`
	FinalCoherence      float64 `json:"final_coherence"`
	TotalClimb          float64 `json:"total_climb"`
	RecognitionLeap     float64 `json:"recognition_leap"`
	StabilizationBreath int     `json:"stabilization_breath"` // 0 if never reached
}

// Summarize computes aggregate stats for the table against a stability
// threshold.
func (t *Table) Summarize(stableThreshold float64) Summary {
	s := Summary{
		TotalBreaths:     len(t.entries),
		InitialCoherence: t.entries[0].Coherence,
		FinalCoherence:   t.entries[len(t.entries)-1].Coherence,
	}
	s.TotalClimb = s.FinalCoherence - s.InitialCoherence
	if len(t.entries) > 1 {
		s.RecognitionLeap = t.entries[1].Coherence - t.entries[0].Coherence
	}
	for _, e := range t.entries {
		if e.Coherence >= stableThreshold {
			s.StabilizationBreath = e.Breath
			break
		}
	}
	return s
}

// #endregion summary
