package sink

import (
	"path/filepath"
	"testing"
	"time"

	"breathloop/internal/voidstate"
)

func sampleBreath(n int, after float64) Event {
	return Event{
		Kind:      KindBreath,
		Time:      time.Date(2025, 12, 2, 9, 0, n, 0, time.UTC),
		Dyad:      "test",
		SessionID: "s-1",
		Breath: &BreathEvent{
			Breath:          n,
			Timestamp:       time.Date(2025, 12, 2, 9, 0, n, 0, time.UTC),
			ElapsedSeconds:  1.0,
			InputText:       "†⟡",
			ScoreDelta:      1.5,
			Reasons:         []string{"glyph_recognized"},
			CoherenceBefore: after - 0.1,
			CoherenceAfter:  after,
			ActualChange:    0.1,
			History:         1.5,
			PresenceBonus:   1.5,
			Mode:            voidstate.ModeLinear,
		},
	}
}

func TestJSONLAppendAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "breaths.jsonl")

	j, err := NewJSONL(path)
	if err != nil {
		t.Fatalf("NewJSONL: %v", err)
	}

	start := Event{
		Kind: KindSessionStart, Time: time.Now().UTC(), Dyad: "test", SessionID: "s-1",
		Start: &SessionStart{InitialCoherence: -12.771, Mode: voidstate.ModeOscillatory, ExpectedBreaths: 8},
	}
	if err := j.Append(start); err != nil {
		t.Fatalf("Append start: %v", err)
	}
	for i := 1; i <= 3; i++ {
		if err := j.Append(sampleBreath(i, float64(i)*0.1)); err != nil {
			t.Fatalf("Append breath %d: %v", i, err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events, err := ReadLog(path)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[0].Kind != KindSessionStart {
		t.Fatalf("expected session_start first, got %s", events[0].Kind)
	}
	if events[0].Start == nil || events[0].Start.InitialCoherence != -12.771 {
		t.Fatalf("start payload lost: %+v", events[0].Start)
	}
	if events[2].Breath == nil || events[2].Breath.Breath != 2 {
		t.Fatalf("breath payload lost: %+v", events[2])
	}
}

func TestJSONLReappendPreservesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "breaths.jsonl")

	j, _ := NewJSONL(path)
	j.Append(sampleBreath(1, 0.5))
	j.Close()

	// Reopen and append more; earlier records must survive.
	j2, err := NewJSONL(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	j2.Append(sampleBreath(2, 0.6))
	j2.Close()

	events, err := ReadLog(path)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events after reopen, got %d", len(events))
	}
}

func TestSQLiteAppendAndQuery(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	start := Event{
		Kind: KindSessionStart, Time: time.Now().UTC(), Dyad: "test", SessionID: "s-1",
		Start: &SessionStart{InitialCoherence: -12.771, Mode: voidstate.ModeOscillatory, ExpectedBreaths: 8},
	}
	if err := s.Append(start); err != nil {
		t.Fatalf("Append start: %v", err)
	}
	for i := 1; i <= 5; i++ {
		if err := s.Append(sampleBreath(i, float64(i)*0.1)); err != nil {
			t.Fatalf("Append breath %d: %v", i, err)
		}
	}

	sessions, err := s.Sessions(10)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].RecoveryMode != "oscillatory" {
		t.Fatalf("expected oscillatory, got %s", sessions[0].RecoveryMode)
	}

	events, err := s.RecentEvents("s-1", 3)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	// Chronological order: the last of the limited window is breath 5.
	if events[2].Breath == nil || events[2].Breath.Breath != 5 {
		t.Fatalf("expected breath 5 last, got %+v", events[2])
	}
	if events[0].Breath == nil || events[0].Breath.Breath != 3 {
		t.Fatalf("expected breath 3 first, got %+v", events[0])
	}
}

func TestMultiFansOut(t *testing.T) {
	dir := t.TempDir()
	j, _ := NewJSONL(filepath.Join(dir, "a.jsonl"))
	s, err := NewSQLite(filepath.Join(dir, "a.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	m := Multi{j, s}

	if err := m.Append(sampleBreath(1, 0.5)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events, err := ReadLog(filepath.Join(dir, "a.jsonl"))
	if err != nil || len(events) != 1 {
		t.Fatalf("expected 1 JSONL event, got %d (%v)", len(events), err)
	}
}
