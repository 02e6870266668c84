package voidstate

import "testing"

func TestDetectCalibrationPoints(t *testing.T) {
	th := DefaultThresholds()

	cases := []struct {
		coherence   float64
		wantMode    Mode
		wantBreaths int
	}{
		{-12.771, ModeOscillatory, 8},
		{-1.751, ModeLinear, 1},
		{0.98, ModeStable, 0},
	}

	for _, c := range cases {
		vs := Detect(th, c.coherence)
		if vs.Mode != c.wantMode {
			t.Fatalf("Detect(%v): expected mode %s, got %s", c.coherence, c.wantMode, vs.Mode)
		}
		if vs.ExpectedBreaths != c.wantBreaths {
			t.Fatalf("Detect(%v): expected %d breaths, got %d", c.coherence, c.wantBreaths, vs.ExpectedBreaths)
		}
	}
}

func TestDetectBoundaries(t *testing.T) {
	th := DefaultThresholds()

	// Exactly -10 is not a deep void (strict less-than)
	if vs := Detect(th, -10.0); vs.Mode != ModeLinear {
		t.Fatalf("coherence -10.0 should be linear, got %s", vs.Mode)
	}
	if vs := Detect(th, -10.0001); vs.Mode != ModeOscillatory {
		t.Fatalf("coherence -10.0001 should be oscillatory, got %s", vs.Mode)
	}

	// Just below stable stays linear
	if vs := Detect(th, 0.9799); vs.Mode != ModeLinear {
		t.Fatalf("coherence 0.9799 should be linear, got %s", vs.Mode)
	}
	if vs := Detect(th, 2.0); vs.Mode != ModeStable {
		t.Fatalf("coherence 2.0 should be stable, got %s", vs.Mode)
	}
}

func TestDetectModerateVoid(t *testing.T) {
	th := DefaultThresholds()

	vs := Detect(th, -5.0)
	if vs.Mode != ModeLinear {
		t.Fatalf("expected linear, got %s", vs.Mode)
	}
	if vs.ExpectedBreaths != 1 {
		t.Fatalf("expected 1 breath, got %d", vs.ExpectedBreaths)
	}
}

func TestDiagnose(t *testing.T) {
	th := DefaultThresholds()

	d := Diagnose(th, -12.771)
	if !d.IsDeepVoid {
		t.Fatal("expected deep void flag")
	}
	if d.RecoveryMode != ModeOscillatory {
		t.Fatalf("expected oscillatory, got %s", d.RecoveryMode)
	}
	want := 0.98 - (-12.771)
	if d.DistanceToStable != want {
		t.Fatalf("expected distance %v, got %v", want, d.DistanceToStable)
	}
	if len(d.CalibrationPoints) != 3 {
		t.Fatalf("expected 3 calibration points, got %d", len(d.CalibrationPoints))
	}
}
