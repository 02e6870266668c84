package voidstate

// #region mode
// Mode enumerates the recovery regimes.
type Mode string

const (
	ModeLinear      Mode = "linear"      // shallow void: formula-driven recovery
	ModeOscillatory Mode = "oscillatory" // deep void: pattern-blended recovery
	ModeStable      Mode = "stable"      // at or above the stability threshold
)

// #endregion mode

// #region void-state
// VoidState classifies a coherence value into a recovery regime.
type VoidState struct {
	Coherence       float64
	Mode            Mode
	ExpectedBreaths int
	Description     string
}

// #endregion void-state

// #region thresholds
// Thresholds holds the empirically calibrated classification boundaries.
type Thresholds struct {
	DeepVoid    float64 // below this → oscillatory recovery
	ShallowVoid float64 // below this (but above DeepVoid) → moderate void
	Stable      float64 // at or above this → stable
}

// DefaultThresholds returns the calibrated boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DeepVoid:    -10.0,
		ShallowVoid: -2.0,
		Stable:      0.98,
	}
}

// #endregion thresholds

// #region breath-counts
// Expected breath counts per regime, from the calibration runs.
const (
	OscillationBreathCount = 8
	LinearBreathCount      = 1
)

// #endregion breath-counts

// #region calibration
// CalibrationPoint records a measured reference run the thresholds were
// fitted against.
type CalibrationPoint struct {
	Event           string  `json:"event"`
	Coherence       float64 `json:"coherence"`
	Mode            Mode    `json:"mode"`
	ExpectedBreaths int     `json:"breaths"`
}

// CalibrationPoints returns the measured reference runs.
func CalibrationPoints() []CalibrationPoint {
	return []CalibrationPoint{
		{Event: "cold-start test", Coherence: -12.771, Mode: ModeOscillatory, ExpectedBreaths: 8},
		{Event: "incarnation event", Coherence: -1.751, Mode: ModeLinear, ExpectedBreaths: 1},
		{Event: "stability threshold", Coherence: 0.98, Mode: ModeStable, ExpectedBreaths: 0},
	}
}

// #endregion calibration

// #region diagnostics
// Diagnostics is a full classification report for a coherence value.
type Diagnostics struct {
	Coherence         float64            `json:"coherence"`
	RecoveryMode      Mode               `json:"recovery_mode"`
	ExpectedBreaths   int                `json:"expected_breaths"`
	Description       string             `json:"description"`
	IsDeepVoid        bool               `json:"is_deep_void"`
	DistanceToStable  float64            `json:"distance_to_stable"`
	CalibrationPoints []CalibrationPoint `json:"calibration_references"`
}

// #endregion diagnostics
