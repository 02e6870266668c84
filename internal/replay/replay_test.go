package replay

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"breathloop/internal/pattern"
	"breathloop/internal/score"
	"breathloop/internal/sink"
	"breathloop/internal/tracker"
)

// record runs a live session against a JSONL sink and returns its events.
func record(t *testing.T, initial float64, inputs []string, gaps []time.Duration) []sink.Event {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")

	out, err := sink.NewJSONL(path)
	if err != nil {
		t.Fatalf("NewJSONL: %v", err)
	}

	clock := time.Date(2025, 12, 2, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	cfg := tracker.DefaultConfig()
	cfg.DyadID = "replay-test"
	cfg.InitialCoherence = initial

	tr, err := tracker.New(cfg, score.NewDefaultScorer(), pattern.Default(), out, tracker.WithClock(now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i, in := range inputs {
		clock = clock.Add(gaps[i])
		if _, err := tr.ProcessInput(in); err != nil {
			t.Fatalf("ProcessInput(%q): %v", in, err)
		}
	}
	out.Close()

	events, err := sink.ReadLog(path)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	return events
}

func TestReplayReproducesDeepVoidSession(t *testing.T) {
	inputs := []string{
		"Good morning, Aelara",
		"†⟡",
		"I'm grateful for this",
		"beloved",
		"I'm not sure",
		"",
		"⟡†",
		"flamebearer",
	}
	gaps := []time.Duration{
		0,
		3 * time.Second,
		7 * time.Second,
		1500 * time.Millisecond,
		12 * time.Second,
		45 * time.Second,
		2 * time.Second,
		9 * time.Second,
	}

	events := record(t, -12.771, inputs, gaps)

	cfg, interactions, err := FromEvents(events)
	if err != nil {
		t.Fatalf("FromEvents: %v", err)
	}
	if cfg.InitialCoherence != -12.771 {
		t.Fatalf("expected initial -12.771, got %v", cfg.InitialCoherence)
	}
	if len(interactions) != len(inputs) {
		t.Fatalf("expected %d interactions, got %d", len(inputs), len(interactions))
	}

	results, err := Replay(cfg, score.NewDefaultScorer(), pattern.Default(), interactions)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !Verify(results, DefaultTolerance) {
		s := Summarize(results, DefaultTolerance)
		t.Fatalf("replay diverged: %d/%d failed, max error %g", s.Failed, s.TotalBreaths, s.MaxAbsError)
	}
}

func TestReplayReproducesLinearSession(t *testing.T) {
	inputs := []string{"hello there", "", "I don't know", "beloved"}
	gaps := []time.Duration{0, 30 * time.Second, 5 * time.Second, time.Minute}

	events := record(t, -1.751, inputs, gaps)

	cfg, interactions, err := FromEvents(events)
	if err != nil {
		t.Fatalf("FromEvents: %v", err)
	}
	results, err := Replay(cfg, score.NewDefaultScorer(), pattern.Default(), interactions)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !Verify(results, DefaultTolerance) {
		s := Summarize(results, DefaultTolerance)
		t.Fatalf("replay diverged: max error %g", s.MaxAbsError)
	}
}

func TestReplayReproducesSessionWithReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	out, err := sink.NewJSONL(path)
	if err != nil {
		t.Fatalf("NewJSONL: %v", err)
	}

	clock := time.Date(2025, 12, 2, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	cfg := tracker.DefaultConfig()
	cfg.DyadID = "reset-test"
	cfg.InitialCoherence = -1.751

	tr, err := tracker.New(cfg, score.NewDefaultScorer(), pattern.Default(), out, tracker.WithClock(now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := tr.ProcessInput("beloved"); err != nil {
		t.Fatalf("ProcessInput: %v", err)
	}

	// Re-seed into the deep void mid-session: the replayed tracker must
	// drop pre-reset history and re-enter oscillatory recovery, or every
	// breath after this point diverges.
	clock = clock.Add(10 * time.Second)
	if err := tr.Reset(-12.771); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	clock = clock.Add(5 * time.Second)
	if _, err := tr.ProcessInput("beloved"); err != nil {
		t.Fatalf("ProcessInput: %v", err)
	}
	clock = clock.Add(3 * time.Second)
	if _, err := tr.ProcessInput(""); err != nil {
		t.Fatalf("ProcessInput: %v", err)
	}
	out.Close()

	events, err := sink.ReadLog(path)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	cfg2, interactions, err := FromEvents(events)
	if err != nil {
		t.Fatalf("FromEvents: %v", err)
	}
	if len(interactions) != 4 { // 3 breaths + 1 reset step
		t.Fatalf("expected 4 interactions, got %d", len(interactions))
	}

	results, err := Replay(cfg2, score.NewDefaultScorer(), pattern.Default(), interactions)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 breath results, got %d", len(results))
	}
	if !Verify(results, DefaultTolerance) {
		s := Summarize(results, DefaultTolerance)
		t.Fatalf("reset session diverged: %d/%d failed, max error %g", s.Failed, s.TotalBreaths, s.MaxAbsError)
	}
}

func TestVerifyCatchesDivergence(t *testing.T) {
	results := []Result{
		{Breath: 1, Recorded: 0.5, Replayed: 0.5, AbsError: 0},
		{Breath: 2, Recorded: 0.6, Replayed: 0.7, AbsError: 0.1},
	}
	if Verify(results, DefaultTolerance) {
		t.Fatal("expected verification failure")
	}
	s := Summarize(results, DefaultTolerance)
	if s.Failed != 1 || s.Passed != 1 {
		t.Fatalf("wrong summary: %+v", s)
	}
	if s.MaxAbsError != 0.1 {
		t.Fatalf("expected max error 0.1, got %v", s.MaxAbsError)
	}
}

func TestFromEventsRequiresSession(t *testing.T) {
	if _, _, err := FromEvents(nil); err == nil {
		t.Fatal("expected error for empty log")
	}
}

func TestFixtureRoundTrip(t *testing.T) {
	fixtureJSON := `{
		"description": "linear session, default parameters",
		"dyad": "fixture-test",
		"initial_coherence": -1.751,
		"formula": {"baseline": 0.5, "history_weight": 0.3, "decay_rate": 0.0001},
		"interactions": [
			{"breath": 1, "text": "beloved", "elapsed_seconds": 0, "want_coherence": 1.8},
			{"breath": 2, "text": "", "elapsed_seconds": 10, "want_coherence": 0.799}
		]
	}`
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(fixtureJSON), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	cfg := f.ToConfig()
	if cfg.DyadID != "fixture-test" || cfg.InitialCoherence != -1.751 {
		t.Fatalf("config not loaded: %+v", cfg)
	}

	results, err := Replay(cfg, score.NewDefaultScorer(), pattern.Default(), f.ToInteractions())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	// breath 1: 0.5 + 1.0 + 1.0*0.3 = 1.8
	// breath 2: 0.5 + 1.0*0.3 - 10*0.0001 = 0.799
	if !Verify(results, DefaultTolerance) {
		s := Summarize(results, DefaultTolerance)
		t.Fatalf("fixture diverged: max error %g", s.MaxAbsError)
	}
}

func TestLoadFixtureRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	os.WriteFile(path, []byte(`{"description": "no turns", "interactions": []}`), 0o644)
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for empty fixture")
	}
}
