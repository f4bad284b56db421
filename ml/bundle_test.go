package ml

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pimaSample = []float64{1, 85, 66, 29, 0, 26.6, 0.351, 31}

func predictOne(t *testing.T, bundle *Bundle, row []float64) (int, []float64) {
	t.Helper()
	scaled, err := bundle.Scaler.Transform([][]float64{row})
	require.NoError(t, err)
	labels, err := bundle.Model.Predict(scaled)
	require.NoError(t, err)
	proba, err := bundle.Model.PredictProba(scaled)
	require.NoError(t, err)
	return labels[0], proba[0]
}

func TestLoadBundleJSON(t *testing.T) {
	bundle, err := LoadBundle(filepath.Join("testdata", "logreg.json"))
	require.NoError(t, err)

	assert.Equal(t, "pima-logreg", bundle.Name)
	assert.Equal(t, FeatureNames(), bundle.FeatureNames)
	assert.Equal(t, 8, bundle.Scaler.NumFeatures())

	label, proba := predictOne(t, bundle, pimaSample)
	assert.Equal(t, 0, label)
	assert.Less(t, proba[1], 0.1)
	assert.Equal(t, "Non-Diabetic", bundle.ClassName(label))
}

func TestLoadBundleYAMLMatchesJSON(t *testing.T) {
	fromJSON, err := LoadBundle(filepath.Join("testdata", "logreg.json"))
	require.NoError(t, err)
	fromYAML, err := LoadBundle(filepath.Join("testdata", "logreg.yaml"))
	require.NoError(t, err)

	jsonLabel, jsonProba := predictOne(t, fromJSON, pimaSample)
	yamlLabel, yamlProba := predictOne(t, fromYAML, pimaSample)
	assert.Equal(t, jsonLabel, yamlLabel)
	assert.Equal(t, jsonProba, yamlProba)
	assert.Equal(t, fromJSON.ClassNames, fromYAML.ClassNames)
}

func TestLoadBundleDecisionTree(t *testing.T) {
	bundle, err := LoadBundle(filepath.Join("testdata", "tree.json"))
	require.NoError(t, err)

	label, proba := predictOne(t, bundle, pimaSample)
	assert.Equal(t, 0, label)
	assert.InDelta(t, 9.0/189.0, proba[1], 1e-9)

	label, _ = predictOne(t, bundle, []float64{6, 190, 72, 35, 0, 33.6, 0.627, 50})
	assert.Equal(t, 1, label)
}

func TestLoadBundleMissingFile(t *testing.T) {
	_, err := LoadBundle(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBundleNotFound))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	var be *BundleError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrKindLoad, be.Kind)
	assert.Contains(t, err.Error(), "no such file or directory")
}

func TestLoadBundleFailures(t *testing.T) {
	tests := []struct {
		file     string
		kind     ErrKind
		contains string
	}{
		{"missing_scaler.json", ErrKindSchema, `"scaler"`},
		{"corrupt.json", ErrKindLoad, "decode json bundle"},
		{"width_mismatch.json", ErrKindSchema, "scaler expects 3 features but model expects 2"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := LoadBundle(filepath.Join("testdata", tt.file))
			require.Error(t, err)

			var be *BundleError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tt.kind, be.Kind)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Contains(t, err.Error(), tt.file)
		})
	}
}

func TestDecodeBundleRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		kind    ErrKind
	}{
		{"empty", "", ErrKindLoad},
		{"wrong version", `{"format_version": 2}`, ErrKindLoad},
		{"missing model", `{"format_version": 1, "scaler": {"type": "standard", "mean": [0], "scale": [1]}}`, ErrKindSchema},
		{"unknown scaler", `{"format_version": 1, "scaler": {"type": "robust"}, "model": {"type": "logistic_regression", "coef": [1]}}`, ErrKindSchema},
		{"unknown model", `{"format_version": 1, "scaler": {"type": "standard", "mean": [0], "scale": [1]}, "model": {"type": "svm"}}`, ErrKindSchema},
		{"unknown class name", `{"format_version": 1, "class_names": {"7": "x"}, "scaler": {"type": "standard", "mean": [0], "scale": [1]}, "model": {"type": "logistic_regression", "coef": [1]}}`, ErrKindSchema},
		{"feature name count", `{"format_version": 1, "feature_names": ["a", "b"], "scaler": {"type": "standard", "mean": [0], "scale": [1]}, "model": {"type": "logistic_regression", "coef": [1]}}`, ErrKindSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBundle(strings.NewReader(tt.payload), FormatJSON)
			var be *BundleError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tt.kind, be.Kind)
		})
	}
}

func TestDecodeBundleRejectsNonFiniteParameters(t *testing.T) {
	tests := []struct {
		name    string
		scaler  string
		model   string
		wantErr string
	}{
		{"NaN mean", "{type: standard, mean: [.nan], scale: [1]}", "{type: logistic_regression, coef: [1]}", "mean[0]"},
		{"infinite scale", "{type: standard, mean: [0], scale: [.inf]}", "{type: logistic_regression, coef: [1]}", "scale[0]"},
		{"infinite max", "{type: minmax, min: [0], max: [-.inf]}", "{type: logistic_regression, coef: [1]}", "max[0]"},
		{"NaN coef", "{type: standard, mean: [0], scale: [1]}", "{type: logistic_regression, coef: [.nan]}", "coef[0]"},
		{"negative leaf count", "{type: standard, mean: [0], scale: [1]}",
			"{type: decision_tree, classes: [0, 1], nodes: [{is_leaf: true, class_label: 0, counts: [-3, 1]}]}", "invalid count"},
		{"NaN threshold", "{type: standard, mean: [0], scale: [1]}",
			"{type: decision_tree, classes: [0, 1], nodes: [{feature_idx: 0, threshold: .nan, left_child: 1, right_child: 2}, {is_leaf: true}, {is_leaf: true}]}", "threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := "format_version: 1\nscaler: " + tt.scaler + "\nmodel: " + tt.model + "\n"
			_, err := DecodeBundle(strings.NewReader(payload), FormatYAML)
			var be *BundleError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, ErrKindSchema, be.Kind)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadBundleUnsupportedExtension(t *testing.T) {
	_, err := LoadBundle("models/diabetes_model.joblib")
	var be *BundleError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrKindLoad, be.Kind)
	assert.Contains(t, err.Error(), ".joblib")
}

func TestBundleSaveRoundTrip(t *testing.T) {
	for _, source := range []string{"logreg.json", "tree.json"} {
		t.Run(source, func(t *testing.T) {
			original, err := LoadBundle(filepath.Join("testdata", source))
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "converted.yaml")
			require.NoError(t, original.Save(path))

			reloaded, err := LoadBundle(path)
			require.NoError(t, err)

			wantLabel, wantProba := predictOne(t, original, pimaSample)
			gotLabel, gotProba := predictOne(t, reloaded, pimaSample)
			assert.Equal(t, wantLabel, gotLabel)
			assert.InDeltaSlice(t, wantProba, gotProba, 1e-12)
		})
	}
}
