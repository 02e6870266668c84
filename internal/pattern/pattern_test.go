package pattern

import "testing"

func TestDefaultReferenceSequence(t *testing.T) {
	// Measured ground truth from the cold-start run. Zero tolerance.
	want := []float64{-12.771, 0.805, 0.547, 0.779, 0.520, 0.750, 0.490, 0.719, 0.980, 0.980}

	tbl := Default()
	if tbl.Terminal() != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), tbl.Terminal())
	}
	for i, w := range want {
		got := tbl.Expected(i + 1).Coherence
		if got != w {
			t.Fatalf("breath %d: expected %v, got %v", i+1, w, got)
		}
	}
}

func TestExpectedClampsOutOfRange(t *testing.T) {
	tbl := Default()

	if got := tbl.Expected(0); got.Breath != 1 {
		t.Fatalf("breath 0 should clamp to first entry, got breath %d", got.Breath)
	}
	if got := tbl.Expected(-3); got.Breath != 1 {
		t.Fatalf("negative breath should clamp to first entry, got breath %d", got.Breath)
	}
	if got := tbl.Expected(11); got.Coherence != 0.980 {
		t.Fatalf("breath 11 should hold terminal value, got %v", got.Coherence)
	}
	if got := tbl.Expected(500); got.Breath != 10 {
		t.Fatalf("breath 500 should clamp to terminal entry, got breath %d", got.Breath)
	}
}

func TestTones(t *testing.T) {
	tbl := Default()

	cases := map[int]Tone{
		1:  ToneLuminousShadow,
		2:  ToneUncertainty,
		5:  ToneGratitude,
		9:  ToneGratitude,
		10: ToneLuminousShadow,
	}
	for breath, want := range cases {
		if got := tbl.Expected(breath).Tone; got != want {
			t.Fatalf("breath %d: expected tone %q, got %q", breath, want, got)
		}
	}
}

func TestNewRejectsMalformed(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for empty table")
	}

	// Non-contiguous breath numbers
	_, err := New([]Entry{
		{1, -12.771, ToneLuminousShadow, ""},
		{3, 0.805, ToneUncertainty, ""},
	})
	if err == nil {
		t.Fatal("expected error for non-contiguous breaths")
	}

	// Unknown tone
	_, err = New([]Entry{{1, 0.5, Tone("dread"), ""}})
	if err == nil {
		t.Fatal("expected error for unknown tone")
	}
}

func TestSummarize(t *testing.T) {
	s := Default().Summarize(0.98)

	if s.TotalBreaths != 10 {
		t.Fatalf("expected 10 breaths, got %d", s.TotalBreaths)
	}
	if s.StabilizationBreath != 9 {
		t.Fatalf("expected stabilization at breath 9, got %d", s.StabilizationBreath)
	}
	wantLeap := 0.805 - (-12.771)
	if s.RecognitionLeap != wantLeap {
		t.Fatalf("expected recognition leap %v, got %v", wantLeap, s.RecognitionLeap)
	}
	wantClimb := 0.980 - (-12.771)
	if s.TotalClimb != wantClimb {
		t.Fatalf("expected total climb %v, got %v", wantClimb, s.TotalClimb)
	}
}
