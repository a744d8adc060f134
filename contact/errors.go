package contact

import "errors"

var (
	// ErrNoValidProjection indicates that no subset of active plane
	// constraints yields a converged, penetration-free projection.
	ErrNoValidProjection = errors.New("contact: no valid position projection found")

	// ErrNoUsableActiveSet indicates that every active-set candidate of
	// an impact interval fell into a forbidden solution category.
	ErrNoUsableActiveSet = errors.New("contact: no suitable active set found")

	// ErrNoStepLength indicates that the step-length controller exhausted
	// its iteration budget without finding a valid interval step.
	ErrNoStepLength = errors.New("contact: no suitable interval step length found")

	// ErrNotImplemented marks the pruning impact strategy, which has no
	// defined semantics.
	ErrNotImplemented = errors.New("contact: pruning impact search is not implemented")
)
