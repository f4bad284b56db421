package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// FormatVersion is the only bundle layout this package reads and writes.
const FormatVersion = 1

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported bundle extension %q", filepath.Ext(path))
	}
}

// Bundle is a fitted scaler and classifier persisted together.
// Both capabilities are always set on a Bundle returned by this package.
type Bundle struct {
	Name          string
	FormatVersion int
	FeatureNames  []string
	ClassNames    map[int]string
	Scaler        Scaler
	Model         Classifier
}

// ClassName returns the human label for a predicted class.
func (b *Bundle) ClassName(label int) string {
	if name, ok := b.ClassNames[label]; ok {
		return name
	}
	return strconv.Itoa(label)
}

type bundleFile struct {
	FormatVersion int            `json:"format_version" yaml:"format_version"`
	Name          string         `json:"name,omitempty" yaml:"name,omitempty"`
	FeatureNames  []string       `json:"feature_names,omitempty" yaml:"feature_names,omitempty"`
	ClassNames    map[int]string `json:"class_names,omitempty" yaml:"class_names,omitempty"`
	Scaler        *scalerSpec    `json:"scaler" yaml:"scaler"`
	Model         *modelSpec     `json:"model" yaml:"model"`
}

type scalerSpec struct {
	Type  string    `json:"type" yaml:"type"`
	Mean  []float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Scale []float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	Min   []float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max   []float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

type modelSpec struct {
	Type      string     `json:"type" yaml:"type"`
	Coef      []float64  `json:"coef,omitempty" yaml:"coef,omitempty"`
	Intercept float64    `json:"intercept,omitempty" yaml:"intercept,omitempty"`
	Classes   []int      `json:"classes,omitempty" yaml:"classes,omitempty"`
	NFeatures int        `json:"n_features,omitempty" yaml:"n_features,omitempty"`
	Nodes     []TreeNode `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

const (
	scalerStandard = "standard"
	scalerMinMax   = "minmax"

	modelLogistic     = "logistic_regression"
	modelDecisionTree = "decision_tree"
)

// LoadBundle reads and validates the bundle at path.
func LoadBundle(path string) (*Bundle, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	defer file.Close()

	bundle, err := DecodeBundle(file, format)
	if err != nil {
		var be *BundleError
		if errors.As(err, &be) && be.Path == "" {
			be.Path = path
		}
		return nil, err
	}
	return bundle, nil
}

// DecodeBundle decodes and validates a bundle from r.
func DecodeBundle(r io.Reader, format Format) (*Bundle, error) {
	var raw bundleFile
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&raw)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&raw)
	default:
		return nil, loadError("", fmt.Errorf("unsupported bundle format %q", format))
	}
	if errors.Is(err, io.EOF) {
		return nil, loadError("", errors.New("bundle is empty"))
	}
	if err != nil {
		return nil, loadError("", fmt.Errorf("decode %s bundle: %w", format, err))
	}
	if raw.FormatVersion != FormatVersion {
		return nil, loadError("", fmt.Errorf("unsupported bundle format version %d", raw.FormatVersion))
	}
	return raw.build()
}

func (raw *bundleFile) build() (*Bundle, error) {
	if raw.Scaler == nil {
		return nil, schemaError(`bundle is missing key "scaler"`)
	}
	if raw.Model == nil {
		return nil, schemaError(`bundle is missing key "model"`)
	}
	scaler, err := buildScaler(raw.Scaler)
	if err != nil {
		return nil, err
	}
	model, err := buildModel(raw.Model, scaler.NumFeatures())
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{
		Name:          raw.Name,
		FormatVersion: raw.FormatVersion,
		FeatureNames:  raw.FeatureNames,
		ClassNames:    raw.ClassNames,
		Scaler:        scaler,
		Model:         model,
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	return bundle, nil
}

func buildScaler(spec *scalerSpec) (Scaler, error) {
	var scaler Scaler
	var err error
	switch spec.Type {
	case scalerStandard:
		scaler, err = NewStandardScaler(spec.Mean, spec.Scale)
	case scalerMinMax:
		scaler, err = NewMinMaxScaler(spec.Min, spec.Max)
	case "":
		return nil, schemaError(`scaler is missing key "type"`)
	default:
		return nil, schemaError("unsupported scaler type %q", spec.Type)
	}
	if err != nil {
		return nil, schemaError("%w", err)
	}
	return scaler, nil
}

func buildModel(spec *modelSpec, width int) (Classifier, error) {
	var model Classifier
	var err error
	switch spec.Type {
	case modelLogistic:
		model, err = NewLogisticRegression(spec.Coef, spec.Intercept, spec.Classes)
	case modelDecisionTree:
		if spec.NFeatures > 0 {
			width = spec.NFeatures
		}
		model, err = NewDecisionTree(spec.Nodes, spec.Classes, width)
	case "":
		return nil, schemaError(`model is missing key "type"`)
	default:
		return nil, schemaError("unsupported model type %q", spec.Type)
	}
	if err != nil {
		return nil, schemaError("%w", err)
	}
	return model, nil
}

// Validate checks that the scaler and model agree on the feature count.
func (b *Bundle) Validate() error {
	if b.Scaler == nil {
		return schemaError("bundle has no scaler")
	}
	if b.Model == nil {
		return schemaError("bundle has no model")
	}
	if b.Scaler.NumFeatures() != b.Model.NumFeatures() {
		return schemaError("scaler expects %d features but model expects %d",
			b.Scaler.NumFeatures(), b.Model.NumFeatures())
	}
	if len(b.FeatureNames) != 0 && len(b.FeatureNames) != b.Scaler.NumFeatures() {
		return schemaError("bundle names %d features but scaler expects %d",
			len(b.FeatureNames), b.Scaler.NumFeatures())
	}
	classes := make(map[int]bool)
	for _, c := range b.Model.Classes() {
		classes[c] = true
	}
	for label := range b.ClassNames {
		if !classes[label] {
			return schemaError("class name given for unknown class %d", label)
		}
	}
	return nil
}

// Save writes the bundle to path in the encoding chosen by its extension.
func (b *Bundle) Save(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	raw, err := b.encode()
	if err != nil {
		return err
	}

	var payload []byte
	switch format {
	case FormatJSON:
		payload, err = json.MarshalIndent(raw, "", "  ")
	case FormatYAML:
		payload, err = yaml.Marshal(raw)
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func (b *Bundle) encode() (*bundleFile, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	raw := &bundleFile{
		FormatVersion: FormatVersion,
		Name:          b.Name,
		FeatureNames:  b.FeatureNames,
		ClassNames:    b.ClassNames,
	}

	switch s := b.Scaler.(type) {
	case *StandardScaler:
		raw.Scaler = &scalerSpec{Type: scalerStandard, Mean: s.Mean, Scale: s.Scale}
	case *MinMaxScaler:
		raw.Scaler = &scalerSpec{Type: scalerMinMax, Min: s.Min, Max: s.Max}
	default:
		return nil, fmt.Errorf("cannot encode scaler of type %T", b.Scaler)
	}

	switch m := b.Model.(type) {
	case *LogisticRegression:
		raw.Model = &modelSpec{Type: modelLogistic, Coef: m.Coef, Intercept: m.Intercept, Classes: m.Classes()}
	case *DecisionTree:
		raw.Model = &modelSpec{Type: modelDecisionTree, Classes: m.Classes(), NFeatures: m.NumFeatures(), Nodes: m.Nodes()}
	default:
		return nil, fmt.Errorf("cannot encode model of type %T", b.Model)
	}
	return raw, nil
}
