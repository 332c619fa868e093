package vector

import "errors"

var (
	// ErrStateMismatch is returned when the persisted vector artifact and
	// its metadata artifact disagree: one of the pair is missing, or their
	// record counts differ. The store refuses to open rather than guess.
	ErrStateMismatch = errors.New("vector store artifacts out of sync")

	// ErrLengthMismatch is returned when Add receives vectors and metadata
	// of different lengths.
	ErrLengthMismatch = errors.New("vectors and metadata length mismatch")

	// ErrDimensionMismatch is returned when a vector's width differs from
	// the store's configured dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
