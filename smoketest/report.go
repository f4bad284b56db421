package smoketest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"modelcheck/ml"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Reporter receives the outcome of a run as it progresses.
// Exactly one of Succeeded or Failed is called per run.
type Reporter interface {
	Start()
	Loaded(bundle *ml.Bundle)
	Succeeded(result *Result)
	Failed(err error)
}

// NewReporter returns the reporter for format, defaulting to text.
func NewReporter(format string, w io.Writer) Reporter {
	switch strings.ToLower(format) {
	case FormatJSON:
		return &jsonReporter{w: w}
	default:
		return &textReporter{w: w}
	}
}

type textReporter struct {
	w io.Writer
}

func (t *textReporter) Start() {
	fmt.Fprintln(t.w, "Testing Go...")
}

func (t *textReporter) Loaded(*ml.Bundle) {
	fmt.Fprintln(t.w, "✅ Model loaded successfully!")
}

func (t *textReporter) Succeeded(result *Result) {
	fmt.Fprintf(t.w, "✅ Test prediction: %d\n", result.Prediction)
}

func (t *textReporter) Failed(err error) {
	fmt.Fprintf(t.w, "❌ Error: %v\n", err)
}

// jsonReporter writes a single object per run, shaped like the
// prediction API payload: success, prediction, probability and class.
type jsonReporter struct {
	w io.Writer
}

type jsonReport struct {
	Success     bool     `json:"success"`
	RunID       string   `json:"run_id,omitempty"`
	Model       string   `json:"model,omitempty"`
	Prediction  *int     `json:"prediction,omitempty"`
	Probability *float64 `json:"probability,omitempty"`
	Class       string   `json:"class,omitempty"`
	RiskLevel   string   `json:"risk_level,omitempty"`
	Runs        int      `json:"runs,omitempty"`
	DurationMs  int64    `json:"duration_ms,omitempty"`
	Error       string   `json:"error,omitempty"`
	Kind        Kind     `json:"kind,omitempty"`
}

func (j *jsonReporter) Start() {}

func (j *jsonReporter) Loaded(*ml.Bundle) {}

func (j *jsonReporter) Succeeded(result *Result) {
	prediction := result.Prediction
	probability := result.Probability
	j.write(jsonReport{
		Success:     true,
		RunID:       result.RunID,
		Model:       result.ModelName,
		Prediction:  &prediction,
		Probability: &probability,
		Class:       result.Class,
		RiskLevel:   result.RiskLevel,
		Runs:        result.Runs,
		DurationMs:  result.Duration.Milliseconds(),
	})
}

func (j *jsonReporter) Failed(err error) {
	j.write(jsonReport{
		Success: false,
		RunID:   runIDOf(err),
		Error:   err.Error(),
		Kind:    KindOf(err),
	})
}

// write prints a text error line when the report cannot be encoded.
func (j *jsonReporter) write(report jsonReport) {
	enc := json.NewEncoder(j.w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(j.w, "❌ Error: encode report: %v\n", err)
	}
}
