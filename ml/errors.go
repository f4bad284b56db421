package ml

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
)

// ErrBundleNotFound is returned when the bundle file does not exist.
var ErrBundleNotFound = errors.New("model bundle not found")

type ErrKind string

const (
	ErrKindLoad   ErrKind = "load"
	ErrKindSchema ErrKind = "schema"
)

// BundleError describes why a bundle could not be loaded or validated.
type BundleError struct {
	Kind ErrKind
	Path string
	Err  error
}

func (e *BundleError) Error() string {
	var pathErr *fs.PathError
	if e.Path == "" || errors.As(e.Err, &pathErr) {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *BundleError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrBundleNotFound) match a missing file.
func (e *BundleError) Is(target error) bool {
	return target == ErrBundleNotFound && errors.Is(e.Err, fs.ErrNotExist)
}

func loadError(path string, err error) error {
	return &BundleError{Kind: ErrKindLoad, Path: path, Err: err}
}

func schemaError(format string, args ...any) error {
	return &BundleError{Kind: ErrKindSchema, Err: fmt.Errorf(format, args...)}
}

// ShapeError reports a row whose width differs from what an estimator was fitted on.
type ShapeError struct {
	Estimator string
	Row       int
	Got       int
	Want      int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: row %d has %d features, expected %d", e.Estimator, e.Row, e.Got, e.Want)
}

// CheckFinite reports the first NaN or infinite value in values.
func CheckFinite(name string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s[%d] is %v", name, i, v)
		}
	}
	return nil
}

func checkShape(estimator string, rows [][]float64, want int) error {
	if len(rows) == 0 {
		return errors.New(estimator + ": no rows")
	}
	for i, row := range rows {
		if len(row) != want {
			return &ShapeError{Estimator: estimator, Row: i, Got: len(row), Want: want}
		}
	}
	return nil
}
