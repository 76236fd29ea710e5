package motion

import "errors"

var (
	// ErrInsufficientData marks a series too short for the requested
	// transform (filtering or integration).
	ErrInsufficientData = errors.New("insufficient data")

	// ErrConfiguration marks caller-supplied parameters the pipeline
	// cannot work with, such as a zero reference distance.
	ErrConfiguration = errors.New("invalid configuration")
)
