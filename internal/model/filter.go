package model

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/counter"
	"github.com/ModeEric/RapidSift/internal/filter"
)

// cacheKey identifies a (text, model) prediction.
type cacheKey struct {
	textHash uint64
	model    string
}

// Filter composes quality models in single-stage (ensemble) or
// multi-stage mode. Predictions are cached per (text hash, model) for the
// duration of a run; the cache is rebuilt on Configure.
type Filter struct {
	cfg    config.Model
	models []QualityModel

	tokens *counter.TokenCounter
	cache  *lru.Cache[cacheKey, Prediction]
}

// NewFilter builds the model filter with the default model set: the
// perplexity LM and the keyword classifier.
func NewFilter(cfg config.Model) (*Filter, error) {
	f := &Filter{cfg: cfg}
	f.models = []QualityModel{
		NewPerplexityModel(cfg.MaxPerplexity),
		NewKeywordClassifierModel(),
	}
	if err := f.rebuild(); err != nil {
		return nil, err
	}
	return f, nil
}

// Name implements filter.Filter.
func (f *Filter) Name() string { return "model" }

// Configure implements filter.Filter.
func (f *Filter) Configure(cfg *config.Config) error {
	f.cfg = cfg.Model
	for _, m := range f.models {
		if pm, ok := m.(*PerplexityModel); ok {
			pm.MaxPerplexity = f.cfg.MaxPerplexity
		}
	}
	return f.rebuild()
}

func (f *Filter) rebuild() error {
	f.cache = nil
	if f.cfg.CachePredictions {
		size := f.cfg.CacheSize
		if size <= 0 {
			size = 4096
		}
		cache, err := lru.New[cacheKey, Prediction](size)
		if err != nil {
			return fmt.Errorf("failed to create prediction cache: %w", err)
		}
		f.cache = cache
	}

	if f.cfg.MaxSequenceLength > 0 && f.tokens == nil {
		tc, err := counter.NewTokenCounter()
		if err != nil {
			// Token truncation is an optimization; fall back to running
			// models over byte-bounded input.
			f.tokens = nil
		} else {
			f.tokens = tc
		}
	}

	return nil
}

// AddModel registers an additional quality model.
func (f *Filter) AddModel(m QualityModel) {
	f.models = append(f.models, m)
}

// Models returns the registered models.
func (f *Filter) Models() []QualityModel { return f.models }

// UnloadAll unloads every model; subsequent evaluations return Unknown.
func (f *Filter) UnloadAll() {
	for _, m := range f.models {
		m.Unload()
	}
}

// Evaluate runs the configured pipeline. Documents are truncated to the
// configured max sequence length before prediction. With no loaded model
// the filter refuses to decide and returns Unknown.
func (f *Filter) Evaluate(doc *filter.Document) filter.Decision {
	text := f.truncate(doc.Text)

	anyLoaded := false
	for _, m := range f.models {
		if m.Loaded() {
			anyLoaded = true
			break
		}
	}
	if !anyLoaded {
		return filter.Unknown("no quality model loaded")
	}

	if f.cfg.MultiStage && len(f.cfg.Stages) > 0 {
		return f.multiStage(text)
	}

	return f.ensemble(text)
}

// ensemble fuses every loaded model's prediction by weight x confidence.
func (f *Filter) ensemble(text string) filter.Decision {
	var preds []Prediction
	for _, m := range f.models {
		if !m.Loaded() {
			continue
		}
		pred, err := f.predict(m, text)
		if err != nil {
			return filter.Unknown(fmt.Sprintf("model %s failed: %v", m.ModelName(), err))
		}
		preds = append(preds, pred)
	}

	if len(preds) == 0 {
		return filter.Unknown("no quality model produced a prediction")
	}

	score := f.combine(preds)

	confidence := 0.0
	perplexity := 0.0
	for _, p := range preds {
		confidence += p.Confidence
		if p.Perplexity > 0 && perplexity == 0 {
			perplexity = p.Perplexity
		}
	}
	confidence /= float64(len(preds))

	metrics := map[string]float64{
		"quality_score": score,
		"perplexity":    perplexity,
	}

	if score < f.cfg.QualityThreshold {
		d := filter.Reject(filter.ReasonMachineGenerated, confidence,
			fmt.Sprintf("model-based quality score %.2f below threshold %.2f", score, f.cfg.QualityThreshold))
		d.Metrics = metrics
		return d
	}

	d := filter.Keep(confidence, fmt.Sprintf("model-based quality score: %.2f", score))
	d.Metrics = metrics
	return d
}

// multiStage runs the configured stages in order. With short_circuit on, a
// stage score below its threshold rejects immediately with that stage's
// details; otherwise the final verdict falls to the ensemble.
func (f *Filter) multiStage(text string) filter.Decision {
	for i, stage := range f.cfg.Stages {
		typ, err := ParseType(stage.Model)
		if err != nil {
			return filter.Unknown(err.Error())
		}

		m := f.modelOfType(typ)
		if m == nil || !m.Loaded() {
			continue
		}

		pred, err := f.predict(m, text)
		if err != nil {
			return filter.Unknown(fmt.Sprintf("model %s failed: %v", m.ModelName(), err))
		}

		if f.cfg.ShortCircuit && pred.QualityScore < stage.Threshold {
			d := filter.Reject(filter.ReasonMachineGenerated, pred.Confidence,
				fmt.Sprintf("rejected at stage %d (%s, score: %.2f)", i, m.ModelName(), pred.QualityScore))
			d.Metrics = map[string]float64{
				"quality_score": pred.QualityScore,
				"stage":         float64(i),
			}
			return d
		}
	}

	return f.ensemble(text)
}

// combine is the weighted average of quality scores, weighted by
// (configured model weight x prediction confidence).
func (f *Filter) combine(preds []Prediction) float64 {
	weightedSum, totalWeight := 0.0, 0.0

	for _, p := range preds {
		weight := 1.0
		switch p.ModelName {
		case "perplexity":
			weight = f.cfg.PerplexityWeight
		default:
			weight = f.cfg.ClassifierWeight
		}
		if weight <= 0 {
			weight = 1.0
		}

		weight *= p.Confidence
		weightedSum += p.QualityScore * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// predict consults the LRU cache before running the model.
func (f *Filter) predict(m QualityModel, text string) (Prediction, error) {
	if f.cache == nil {
		return m.Predict(text)
	}

	key := cacheKey{textHash: xxhash.Sum64String(text), model: m.ModelName()}
	if pred, ok := f.cache.Get(key); ok {
		return pred, nil
	}

	pred, err := m.Predict(text)
	if err != nil {
		return Prediction{}, err
	}

	f.cache.Add(key, pred)
	return pred, nil
}

func (f *Filter) modelOfType(t Type) QualityModel {
	for _, m := range f.models {
		if m.Type() == t {
			return m
		}
	}
	return nil
}

func (f *Filter) truncate(text string) string {
	if f.cfg.MaxSequenceLength <= 0 {
		return text
	}
	if f.tokens != nil {
		return f.tokens.Truncate(text, f.cfg.MaxSequenceLength)
	}
	// Rough byte bound when the tokenizer is unavailable: four bytes per
	// token on average.
	limit := f.cfg.MaxSequenceLength * 4
	if len(text) > limit {
		return text[:limit]
	}
	return text
}
