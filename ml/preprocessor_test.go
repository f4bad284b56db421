package ml

import (
	"errors"
	"math"
	"testing"
)

func assertClose(t *testing.T, want, got []float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > 1e-9 {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestStandardScalerTransform(t *testing.T) {
	scaler, err := NewStandardScaler([]float64{10, 5}, []float64{2, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := [][]float64{{12, 7}, {8, 5}}
	out, err := scaler.Transform(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	assertClose(t, []float64{1, 2}, out[0])
	assertClose(t, []float64{-1, 0}, out[1])

	// input is left untouched
	if rows[0][0] != 12 || rows[0][1] != 7 {
		t.Fatalf("input row was modified: %v", rows[0])
	}
}

func TestStandardScalerShapeMismatch(t *testing.T) {
	scaler, err := NewStandardScaler([]float64{0, 0}, []float64{1, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = scaler.Transform([][]float64{{1, 2, 3}})
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
	if shapeErr.Row != 0 {
		t.Fatalf("expected row 0, got %d", shapeErr.Row)
	}

	if _, err := scaler.Transform(nil); err == nil {
		t.Fatalf("expected error for no rows")
	}
}

func TestNewScalersRejectBadParameters(t *testing.T) {
	if _, err := NewStandardScaler([]float64{0, 0}, []float64{1}); err == nil {
		t.Fatalf("expected error for mean/scale length mismatch")
	}
	if _, err := NewStandardScaler([]float64{math.NaN()}, []float64{1}); err == nil {
		t.Fatalf("expected error for NaN mean")
	}
	if _, err := NewStandardScaler([]float64{0}, []float64{math.Inf(1)}); err == nil {
		t.Fatalf("expected error for infinite scale")
	}
	if _, err := NewMinMaxScaler([]float64{math.Inf(-1)}, []float64{1}); err == nil {
		t.Fatalf("expected error for infinite min")
	}
}

func TestMinMaxScalerTransform(t *testing.T) {
	scaler, err := NewMinMaxScaler([]float64{0, 10}, []float64{10, 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := scaler.Transform([][]float64{{5, 10}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, value := range out[0] {
		if value < 0 || value > 1 {
			t.Fatalf("expected normalized value between 0 and 1, got %f", value)
		}
	}
	assertClose(t, []float64{0.5, 0}, out[0])
}

func TestNormalizeVectorLengthMismatch(t *testing.T) {
	if _, err := NormalizeVector([]float64{1, 2}, []float64{0}, []float64{1, 2}); err == nil {
		t.Fatalf("expected error")
	}
}
