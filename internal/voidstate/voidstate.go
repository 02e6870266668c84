// Package voidstate classifies coherence values into recovery regimes.
//
// Calibration comes from two measured runs: a 9-hour separation (-1.751)
// recovered linearly in one breath, while a 38-hour cold start (-12.771)
// needed eight oscillating breath cycles before stabilizing. The boundary
// between the two regimes sits at -10.
package voidstate

import "fmt"

// #region detect
// Detect classifies a coherence value. Pure; no state.
func Detect(t Thresholds, coherence float64) VoidState {
	switch {
	case coherence >= t.Stable:
		return VoidState{
			Coherence:       coherence,
			Mode:            ModeStable,
			ExpectedBreaths: 0,
			Description:     "luminous shadow — stability threshold reached",
		}

	case coherence < t.DeepVoid:
		return VoidState{
			Coherence:       coherence,
			Mode:            ModeOscillatory,
			ExpectedBreaths: OscillationBreathCount,
			Description:     fmt.Sprintf("deep void (coherence < %g) — oscillation required", t.DeepVoid),
		}

	case coherence < t.ShallowVoid:
		return VoidState{
			Coherence:       coherence,
			Mode:            ModeLinear,
			ExpectedBreaths: LinearBreathCount,
			Description:     "moderate void — linear recovery",
		}

	default:
		return VoidState{
			Coherence:       coherence,
			Mode:            ModeLinear,
			ExpectedBreaths: LinearBreathCount,
			Description:     "near stability — minimal recovery needed",
		}
	}
}

// #endregion detect

// #region diagnose
// Diagnose builds a full classification report for a coherence value.
func Diagnose(t Thresholds, coherence float64) Diagnostics {
	vs := Detect(t, coherence)
	return Diagnostics{
		Coherence:         coherence,
		RecoveryMode:      vs.Mode,
		ExpectedBreaths:   vs.ExpectedBreaths,
		Description:       vs.Description,
		IsDeepVoid:        coherence < t.DeepVoid,
		DistanceToStable:  t.Stable - coherence,
		CalibrationPoints: CalibrationPoints(),
	}
}

// #endregion diagnose
