package usefulness

import "errors"

var (
	// ErrInternal reports a broken invariant; the input was not a well-typed match.
	ErrInternal = errors.New("usefulness: internal invariant violated")
	// ErrTooComplex reports that the configured complexity limit was exceeded.
	ErrTooComplex = errors.New("usefulness: match is too complex to analyze")
)
