package ml

import (
	"errors"
	"fmt"
)

// StandardScaler centers each feature on its fitted mean and divides by its fitted scale.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, errors.New("standard scaler: mean is empty")
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("standard scaler: mean/scale length mismatch (%d != %d)", len(mean), len(scale))
	}
	if err := CheckFinite("standard scaler: mean", mean); err != nil {
		return nil, err
	}
	if err := CheckFinite("standard scaler: scale", scale); err != nil {
		return nil, err
	}
	return &StandardScaler{Mean: mean, Scale: scale}, nil
}

func (s *StandardScaler) NumFeatures() int {
	return len(s.Mean)
}

func (s *StandardScaler) Transform(rows [][]float64) ([][]float64, error) {
	if err := checkShape("standard scaler", rows, len(s.Mean)); err != nil {
		return nil, err
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scale := s.Scale[j]
			// constant features were fitted with scale 0
			if scale == 0 {
				scale = 1
			}
			scaled[j] = (v - s.Mean[j]) / scale
		}
		out[i] = scaled
	}
	return out, nil
}

// MinMaxScaler maps each feature onto [0, 1] using fitted bounds.
type MinMaxScaler struct {
	Min []float64
	Max []float64
}

func NewMinMaxScaler(mins, maxs []float64) (*MinMaxScaler, error) {
	if len(mins) == 0 {
		return nil, errors.New("min-max scaler: min is empty")
	}
	if len(mins) != len(maxs) {
		return nil, fmt.Errorf("min-max scaler: min/max length mismatch (%d != %d)", len(mins), len(maxs))
	}
	if err := CheckFinite("min-max scaler: min", mins); err != nil {
		return nil, err
	}
	if err := CheckFinite("min-max scaler: max", maxs); err != nil {
		return nil, err
	}
	return &MinMaxScaler{Min: mins, Max: maxs}, nil
}

func (s *MinMaxScaler) NumFeatures() int {
	return len(s.Min)
}

func (s *MinMaxScaler) Transform(rows [][]float64) ([][]float64, error) {
	if err := checkShape("min-max scaler", rows, len(s.Min)); err != nil {
		return nil, err
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		normalized, err := NormalizeVector(row, s.Min, s.Max)
		if err != nil {
			return nil, err
		}
		out[i] = normalized
	}
	return out, nil
}

func NormalizeFeature(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (value - min) / (max - min)
}

func NormalizeVector(values []float64, mins []float64, maxs []float64) ([]float64, error) {
	if len(values) != len(mins) || len(values) != len(maxs) {
		return nil, errors.New("values/mins/maxs length mismatch")
	}
	result := make([]float64, len(values))
	for i := range values {
		result[i] = NormalizeFeature(values[i], mins[i], maxs[i])
	}
	return result, nil
}
