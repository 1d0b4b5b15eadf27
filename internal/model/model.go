// Package model implements model-based quality filtering: a pluggable
// QualityModel capability with a perplexity language model and a keyword
// classifier, composed by a filter in ensemble or multi-stage mode.
package model

import "fmt"

// Type identifies a quality-model family.
type Type int

const (
	TypePerplexity Type = iota
	TypeClassifier
)

// String returns the string representation of the model type.
func (t Type) String() string {
	switch t {
	case TypePerplexity:
		return "perplexity"
	case TypeClassifier:
		return "classifier"
	default:
		return "unknown"
	}
}

// ParseType maps a stage name to a model Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "perplexity":
		return TypePerplexity, nil
	case "classifier", "fasttext", "bert":
		return TypeClassifier, nil
	default:
		return TypePerplexity, fmt.Errorf("unknown model type %q (want perplexity or classifier)", s)
	}
}

// Prediction is one model's quality estimate for a text.
type Prediction struct {
	QualityScore  float64 // [0, 1], higher is better
	Confidence    float64 // model confidence in the prediction
	Perplexity    float64 // set by language models, 0 otherwise
	ModelName     string
	FeatureScores map[string]float64
}

// QualityModel is the capability a quality backend implements. Models
// refuse to predict when not loaded; the filter maps that to a neutral
// decision.
type QualityModel interface {
	Predict(text string) (Prediction, error)
	PredictBatch(texts []string) ([]Prediction, error)
	ModelName() string
	Type() Type
	Loaded() bool
	Load(path string) error
	Unload()
}
