package ml

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DiabetesFeatures is one observation in the column order of the Pima Indians
// diabetes dataset the bundled models are fitted on.
type DiabetesFeatures struct {
	Pregnancies              float64 `json:"pregnancies"`
	Glucose                  float64 `json:"glucose"`
	BloodPressure            float64 `json:"bloodPressure"`
	SkinThickness            float64 `json:"skinThickness"`
	Insulin                  float64 `json:"insulin"`
	BMI                      float64 `json:"bmi"`
	DiabetesPedigreeFunction float64 `json:"diabetesPedigreeFunction"`
	Age                      float64 `json:"age"`
}

func (f DiabetesFeatures) Vector() []float64 {
	return []float64{
		f.Pregnancies,
		f.Glucose,
		f.BloodPressure,
		f.SkinThickness,
		f.Insulin,
		f.BMI,
		f.DiabetesPedigreeFunction,
		f.Age,
	}
}

func FeatureNames() []string {
	return []string{
		"pregnancies",
		"glucose",
		"bloodPressure",
		"skinThickness",
		"insulin",
		"bmi",
		"diabetesPedigreeFunction",
		"age",
	}
}

// ParseVector reads a comma-separated list of numbers such as "1,85,66".
func ParseVector(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty feature vector")
	}
	parts := strings.Split(s, ",")
	values := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("feature %d: %v is not a finite number", i, v)
		}
		values[i] = v
	}
	return values, nil
}

// RiskLevel buckets the positive-class probability.
func RiskLevel(probability float64) string {
	switch {
	case probability < 0.3:
		return "low"
	case probability < 0.7:
		return "medium"
	default:
		return "high"
	}
}
