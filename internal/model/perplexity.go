package model

import (
	"errors"
	"math"
	"strings"

	"github.com/ModeEric/RapidSift/internal/textutil"
)

// PerplexityModel estimates fluency. With no external model file it uses a
// heuristic estimate (a fixed base plus a penalty for repeated word
// trigrams), which penalizes texts whose word distribution is degenerate;
// a loaded model file supplies corpus-level unigram counts instead.
type PerplexityModel struct {
	MaxPerplexity float64

	unigrams map[string]float64
	total    float64
	loaded   bool
}

// NewPerplexityModel returns a self-contained perplexity model. The model
// is immediately usable; Load augments it with corpus statistics.
func NewPerplexityModel(maxPerplexity float64) *PerplexityModel {
	if maxPerplexity <= 0 {
		maxPerplexity = 50.0
	}
	return &PerplexityModel{MaxPerplexity: maxPerplexity, loaded: true}
}

// ModelName implements QualityModel.
func (m *PerplexityModel) ModelName() string { return "perplexity" }

// Type implements QualityModel.
func (m *PerplexityModel) Type() Type { return TypePerplexity }

// Loaded implements QualityModel.
func (m *PerplexityModel) Loaded() bool { return m.loaded }

// Load reads corpus unigram counts in "token count" line format. An empty
// path keeps the self-estimating behavior.
func (m *PerplexityModel) Load(path string) error {
	if path == "" {
		m.loaded = true
		return nil
	}

	counts, total, err := readUnigramCounts(path)
	if err != nil {
		return err
	}

	m.unigrams = counts
	m.total = total
	m.loaded = true
	return nil
}

// Unload drops corpus statistics and marks the model unusable.
func (m *PerplexityModel) Unload() {
	m.unigrams = nil
	m.total = 0
	m.loaded = false
}

// Predict maps perplexity to quality = clamp(1 - p/maxP, 0, 1).
func (m *PerplexityModel) Predict(text string) (Prediction, error) {
	if !m.loaded {
		return Prediction{}, errors.New("perplexity model not loaded")
	}

	p := m.Perplexity(text)
	quality := 1.0 - p/m.MaxPerplexity
	if quality < 0 {
		quality = 0
	}
	if quality > 1 {
		quality = 1
	}

	return Prediction{
		QualityScore: quality,
		Confidence:   0.8,
		Perplexity:   p,
		ModelName:    m.ModelName(),
		FeatureScores: map[string]float64{
			"perplexity": p,
		},
	}, nil
}

// PredictBatch implements QualityModel.
func (m *PerplexityModel) PredictBatch(texts []string) ([]Prediction, error) {
	preds := make([]Prediction, len(texts))
	for i, t := range texts {
		p, err := m.Predict(t)
		if err != nil {
			return nil, err
		}
		preds[i] = p
	}
	return preds, nil
}

// Perplexity is exp of the negative mean log-probability per token under
// the loaded unigram counts, or the heuristic estimate when none are
// loaded. Either way character-statistics penalties are added so byte
// soup scores poorly.
func (m *PerplexityModel) Perplexity(text string) float64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return m.MaxPerplexity * 2
	}

	var perplexity float64
	if m.unigrams != nil && m.total > 0 {
		// Smoothed unigram cross-entropy against the loaded corpus
		// counts.
		var logProbSum float64
		for _, w := range words {
			count := m.unigrams[w]
			prob := (count + 1) / (m.total + float64(len(m.unigrams)+1))
			logProbSum += math.Log(prob)
		}
		perplexity = math.Exp(-logProbSum / float64(len(words)))
	} else {
		// Heuristic estimate: start low and add penalties for patterns
		// no fluent text exhibits.
		perplexity = 10.0

		ngrams := textutil.WordNgrams(strings.Join(words, " "), 3)
		if len(ngrams) > 0 {
			counts := make(map[string]int, len(ngrams))
			repeated := 0
			for _, g := range ngrams {
				counts[g]++
				if counts[g] == 2 {
					repeated += 2
				} else if counts[g] > 2 {
					repeated++
				}
			}
			perplexity += float64(repeated) / float64(len(ngrams)) * 20.0
		}
	}

	// Digit- and symbol-heavy text is implausible under any language
	// model worth the name.
	perplexity += textutil.DigitRatio(text) * 50.0
	perplexity += textutil.SymbolRatio(text) * 30.0

	return perplexity
}
