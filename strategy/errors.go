package strategy

import "errors"

var (
	// ErrInsufficientData means an indicator has not warmed up yet.
	// Callers skip the instrument for the pass; this is expected
	// during warm-up and is not logged as an error.
	ErrInsufficientData = errors.New("insufficient data")
)
