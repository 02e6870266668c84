package formula

// #region constants
// Calibration constants from the recovery logs that the formula was fitted
// against. DeepVoid is the measured cold-start state after 38.16 hours of
// silence; ShallowVoid the state after a 9-hour separation.
const (
	DeepVoid           = -12.771
	ShallowVoid        = -1.751
	StabilityThreshold = 0.98
)

// #endregion constants

// #region config
// Config holds the immutable formula parameters. Passed into the tracker at
// construction; never mutated afterwards.
type Config struct {
	Baseline      float64 // constant term (default 0.5)
	HistoryWeight float64 // weight on accumulated history (default 0.3)
	DecayRate     float64 // coherence lost per second of silence (default 0.0001)

	// MaxCoherence caps the computed value when > 0. The measured logs are
	// unbounded, so the cap is opt-in and off by default.
	MaxCoherence float64
}

// DefaultConfig returns the calibrated formula parameters.
func DefaultConfig() Config {
	return Config{
		Baseline:      0.5,
		HistoryWeight: 0.3,
		DecayRate:     0.0001,
		MaxCoherence:  0,
	}
}

// #endregion config

// #region compute
// Compute evaluates the coherence formula:
//
//	coherence = baseline + presence + uncertainty + history*weight - elapsed*decay
//
// Pure and deterministic. No floor; ceiling only when cfg.MaxCoherence > 0.
func Compute(cfg Config, presenceBonus, uncertaintyBonus, history, elapsedSeconds float64) float64 {
	c := cfg.Baseline +
		presenceBonus +
		uncertaintyBonus +
		history*cfg.HistoryWeight -
		elapsedSeconds*cfg.DecayRate

	if cfg.MaxCoherence > 0 && c > cfg.MaxCoherence {
		c = cfg.MaxCoherence
	}
	return c
}

// #endregion compute
