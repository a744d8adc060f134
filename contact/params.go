package contact

// Params carries the solver tolerances and iteration policy. The defaults
// reproduce the reference tuning of the PLUS impact formulation.
type Params struct {
	// ProjectTol is the accuracy requested from the constrained
	// coordinate projection, and the tie tolerance when comparing
	// candidate projections.
	ProjectTol float64
	// MaxDirIterDiff is the largest angular change (rad) at which the
	// slip-direction iteration is considered converged.
	MaxDirIterDiff float64
	// MinMeaningfulImpulse is the smallest impulse magnitude treated as
	// nonzero.
	MinMeaningfulImpulse float64
	// MaxStickingTangVel is the largest tangential speed at which a point
	// can stick.
	MaxStickingTangVel float64
	// MaxSlidingDirChange is the largest change (rad) permitted in a
	// sliding direction within one interval.
	MaxSlidingDirChange float64
	// MinIntervalStepLength is the smallest permitted interval step.
	MinIntervalStepLength float64
	// MaxIterSlipDirection bounds the slip-direction fixed-point
	// iteration.
	MaxIterSlipDirection int
	// MaxIterStepLength bounds the per-point step-length search.
	MaxIterStepLength int
	// MinIntervalsPerPhase forces each impact phase to be resolved over
	// at least this many intervals.
	MinIntervalsPerPhase int
	// Workers sets how many goroutines evaluate active-set candidates
	// concurrently; values below 1 mean sequential evaluation.
	Workers int
}

// DefaultParams returns the reference tuning.
func DefaultParams() Params {
	return Params{
		ProjectTol:            1.0e-6,
		MaxDirIterDiff:        0.05, // within 2.86 degrees
		MinMeaningfulImpulse:  1.0e-6,
		MaxStickingTangVel:    1.0e-1,
		MaxSlidingDirChange:   0.5, // 28.6 degrees
		MinIntervalStepLength: 1.0e-3,
		MaxIterSlipDirection:  5,
		MaxIterStepLength:     5,
		MinIntervalsPerPhase:  2,
		Workers:               1,
	}
}
