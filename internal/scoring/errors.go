package scoring

import (
	"errors"
	"fmt"
)

// ErrPrecondition marks a fatal input problem that aborts a run.
var ErrPrecondition = errors.New("precondition failed")

var (
	// ErrEmptyGraph is returned when the interaction graph is missing or
	// has no proteins.
	ErrEmptyGraph = fmt.Errorf("%w: empty interaction graph", ErrPrecondition)

	// ErrNoOrthology is returned when a propagating method runs without an
	// orthology store.
	ErrNoOrthology = fmt.Errorf("%w: orthology prior unavailable", ErrPrecondition)
)

// ErrUnknownMethod is returned by Lookup for an unregistered name.
var ErrUnknownMethod = errors.New("unknown scoring method")

// ErrInvalidOptions is returned when numeric options are out of range.
var ErrInvalidOptions = errors.New("invalid scoring options")
