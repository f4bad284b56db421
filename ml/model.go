package ml

// Scaler maps raw feature rows to the representation a Classifier was fitted on.
// Output always has the same shape as the input.
type Scaler interface {
	Transform(rows [][]float64) ([][]float64, error)
	NumFeatures() int
}

// Classifier predicts one label per row.
type Classifier interface {
	Predict(rows [][]float64) ([]int, error)
	PredictProba(rows [][]float64) ([][]float64, error)
	Classes() []int
	NumFeatures() int
}
