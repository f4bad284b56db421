package smoketest

import (
	"context"
	"errors"

	"modelcheck/ml"
)

// Kind classifies why a smoke test run failed.
type Kind string

const (
	KindLoad             Kind = "load"
	KindSchema           Kind = "schema"
	KindShape            Kind = "shape"
	KindPredict          Kind = "predict"
	KindNondeterministic Kind = "nondeterministic"
	KindCanceled         Kind = "canceled"
)

// Process exit codes. Each failure kind gets its own code so CI can tell them apart.
const (
	ExitOK               = 0
	ExitUsage            = 1
	ExitLoad             = 2
	ExitSchema           = 3
	ExitShape            = 4
	ExitPredict          = 5
	ExitNondeterministic = 6
	ExitCanceled         = 130
)

// Error is returned by Runner for every failed run.
type Error struct {
	Kind  Kind
	RunID string
	Err   error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify wraps err with the Kind matching its origin.
// fallback is used when err carries no more specific information.
func classify(err error, fallback Kind) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return err
	}
	kind := fallback
	var bundleErr *ml.BundleError
	var shapeErr *ml.ShapeError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindCanceled
	case errors.As(err, &bundleErr):
		if bundleErr.Kind == ml.ErrKindSchema {
			kind = KindSchema
		} else {
			kind = KindLoad
		}
	case errors.As(err, &shapeErr):
		kind = KindShape
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf reports the failure kind of err, or "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPredict
}

func runIDOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.RunID
	}
	return ""
}

// ExitCode maps a Run error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch KindOf(err) {
	case KindLoad:
		return ExitLoad
	case KindSchema:
		return ExitSchema
	case KindShape:
		return ExitShape
	case KindNondeterministic:
		return ExitNondeterministic
	case KindCanceled:
		return ExitCanceled
	default:
		return ExitPredict
	}
}
