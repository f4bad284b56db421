package ml

import (
	"errors"
	"fmt"
	"math"
)

// LogisticRegression is a fitted binary logistic classifier.
// Classes[1] is the positive class.
type LogisticRegression struct {
	Coef      []float64
	Intercept float64
	classes   []int
}

func NewLogisticRegression(coef []float64, intercept float64, classes []int) (*LogisticRegression, error) {
	if len(coef) == 0 {
		return nil, errors.New("logistic regression: coef is empty")
	}
	if err := CheckFinite("logistic regression: coef", coef); err != nil {
		return nil, err
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, errors.New("logistic regression: intercept is not finite")
	}
	if len(classes) == 0 {
		classes = []int{0, 1}
	}
	if len(classes) != 2 {
		return nil, fmt.Errorf("logistic regression: expected 2 classes, got %d", len(classes))
	}
	return &LogisticRegression{Coef: coef, Intercept: intercept, classes: classes}, nil
}

func (lr *LogisticRegression) NumFeatures() int {
	return len(lr.Coef)
}

func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes...)
}

func (lr *LogisticRegression) PredictProba(rows [][]float64) ([][]float64, error) {
	if err := checkShape("logistic regression", rows, len(lr.Coef)); err != nil {
		return nil, err
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		z := lr.Intercept
		for j, v := range row {
			z += lr.Coef[j] * v
		}
		p := sigmoid(z)
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

func (lr *LogisticRegression) Predict(rows [][]float64) ([]int, error) {
	proba, err := lr.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(proba))
	for i, p := range proba {
		if p[1] > 0.5 {
			labels[i] = lr.classes[1]
		} else {
			labels[i] = lr.classes[0]
		}
	}
	return labels, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	// avoids overflow of exp(-z) for large negative z
	e := math.Exp(z)
	return e / (1 + e)
}
