// Package smoketest checks that a persisted model bundle loads and can
// predict a fixed sample end to end.
package smoketest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"modelcheck/ml"
)

const DefaultModelPath = "models/diabetes_model.json"

// DefaultSample returns the reference observation
// (pregnancies, glucose, blood pressure, skin thickness, insulin, BMI,
// diabetes pedigree function, age). Each call returns a fresh slice.
func DefaultSample() []float64 {
	return ml.DiabetesFeatures{
		Pregnancies:              1,
		Glucose:                  85,
		BloodPressure:            66,
		SkinThickness:            29,
		Insulin:                  0,
		BMI:                      26.6,
		DiabetesPedigreeFunction: 0.351,
		Age:                      31,
	}.Vector()
}

type Config struct {
	ModelPath string
	Sample    []float64
}

type Result struct {
	RunID       string
	ModelPath   string
	ModelName   string
	Prediction  int
	Class       string
	Probability float64
	RiskLevel   string
	Runs        int
	Duration    time.Duration
}

type Runner struct {
	cfg      Config
	reporter Reporter
	logger   *zap.Logger
	load     func(path string) (*ml.Bundle, error)
}

func NewRunner(cfg Config, reporter Reporter, logger *zap.Logger) *Runner {
	if cfg.ModelPath == "" {
		cfg.ModelPath = DefaultModelPath
	}
	if len(cfg.Sample) == 0 {
		cfg.Sample = DefaultSample()
	} else {
		cfg.Sample = append([]float64(nil), cfg.Sample...)
	}
	if reporter == nil {
		reporter = NewReporter(FormatText, io.Discard)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		reporter: reporter,
		logger:   logger,
		load:     ml.LoadBundle,
	}
}

// Run loads the bundle, predicts the sample once and reports the outcome.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.RunRepeat(ctx, 1)
}

// RunRepeat performs n independent load-and-predict passes and fails if any
// pass disagrees with the first one.
func (r *Runner) RunRepeat(ctx context.Context, n int) (*Result, error) {
	if n < 1 {
		n = 1
	}
	runID := uuid.NewString()
	logger := r.logger.With(
		zap.String("run_id", runID),
		zap.String("model_path", r.cfg.ModelPath),
	)
	start := time.Now()
	r.reporter.Start()

	var first *Result
	for i := 0; i < n; i++ {
		result, err := r.runOnce(ctx, logger, i == 0)
		if err == nil && first != nil && !samePrediction(first, result) {
			err = &Error{
				Kind: KindNondeterministic,
				Err: fmt.Errorf("pass %d predicted %d (p=%v), first pass predicted %d (p=%v)",
					i+1, result.Prediction, result.Probability, first.Prediction, first.Probability),
			}
		}
		if err != nil {
			err = classify(err, KindPredict)
			var runErr *Error
			if errors.As(err, &runErr) {
				runErr.RunID = runID
			}
			logger.Error("smoke test failed",
				zap.Int("pass", i+1),
				zap.String("kind", string(KindOf(err))),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			r.reporter.Failed(err)
			return nil, err
		}
		if first == nil {
			first = result
		}
	}

	first.RunID = runID
	first.Runs = n
	first.Duration = time.Since(start)
	logger.Info("smoke test passed",
		zap.Int("prediction", first.Prediction),
		zap.String("class", first.Class),
		zap.Float64("probability", first.Probability),
		zap.Int("runs", n),
		zap.Duration("duration", first.Duration),
	)
	r.reporter.Succeeded(first)
	return first, nil
}

func (r *Runner) runOnce(ctx context.Context, logger *zap.Logger, announce bool) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bundle, err := r.load(r.cfg.ModelPath)
	if err != nil {
		return nil, classify(err, KindLoad)
	}
	// LoadBundle validates, but a custom loader may not
	if err := bundle.Validate(); err != nil {
		return nil, classify(err, KindSchema)
	}
	logger.Debug("bundle loaded",
		zap.String("model", bundle.Name),
		zap.Int("features", bundle.Scaler.NumFeatures()),
	)
	if announce {
		r.reporter.Loaded(bundle)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ml.CheckFinite("sample", r.cfg.Sample); err != nil {
		return nil, &Error{Kind: KindPredict, Err: err}
	}
	input := [][]float64{append([]float64(nil), r.cfg.Sample...)}
	scaled, err := bundle.Scaler.Transform(input)
	if err != nil {
		return nil, classify(fmt.Errorf("transform: %w", err), KindShape)
	}
	if len(scaled) != 1 || len(scaled[0]) != len(input[0]) {
		return nil, &Error{Kind: KindShape, Err: fmt.Errorf("transform: scaler changed shape from 1x%d", len(input[0]))}
	}

	labels, err := bundle.Model.Predict(scaled)
	if err != nil {
		return nil, classify(fmt.Errorf("predict: %w", err), KindPredict)
	}
	if len(labels) == 0 {
		return nil, &Error{Kind: KindPredict, Err: errors.New("predict: model returned no labels")}
	}
	proba, err := bundle.Model.PredictProba(scaled)
	if err != nil {
		return nil, classify(fmt.Errorf("predict proba: %w", err), KindPredict)
	}

	label := labels[0]
	probability := positiveProbability(bundle.Model.Classes(), proba)
	if math.IsNaN(probability) || math.IsInf(probability, 0) {
		return nil, &Error{Kind: KindPredict, Err: fmt.Errorf("predict proba: probability of label %d is %v", label, probability)}
	}
	return &Result{
		ModelPath:   r.cfg.ModelPath,
		ModelName:   bundle.Name,
		Prediction:  label,
		Class:       bundle.ClassName(label),
		Probability: probability,
		RiskLevel:   ml.RiskLevel(probability),
	}, nil
}

// positiveProbability returns the probability of the last class, which is the
// positive class for binary models.
func positiveProbability(classes []int, proba [][]float64) float64 {
	if len(proba) == 0 || len(proba[0]) == 0 || len(proba[0]) != len(classes) {
		return 0
	}
	return proba[0][len(proba[0])-1]
}

func samePrediction(a, b *Result) bool {
	return a.Prediction == b.Prediction && a.Probability == b.Probability
}
