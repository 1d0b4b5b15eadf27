package lang

import (
	"bufio"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Classifier is a learned language detector backed by an external model
// file of per-language token weights. The model format is one entry per
// line: "lang<TAB>token<TAB>weight". When the model cannot be loaded the
// classifier reports not ready; callers fall back to the rule-based
// detector.
type Classifier struct {
	weights map[string]map[string]float64
	ready   bool
}

// LoadClassifier reads a model file. A missing or malformed file returns a
// not-ready classifier rather than an error so startup can fall back
// silently.
func LoadClassifier(path string) *Classifier {
	c := &Classifier{weights: make(map[string]map[string]float64)}
	if path == "" {
		return c
	}

	f, err := os.Open(path)
	if err != nil {
		slog.Warn("language model unavailable, falling back to rule-based detector", "path", path, "error", err)
		return c
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) != 3 {
			continue
		}
		w, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			continue
		}
		lang, token := parts[0], strings.ToLower(parts[1])
		if c.weights[lang] == nil {
			c.weights[lang] = make(map[string]float64)
		}
		c.weights[lang][token] = w
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("error reading language model", "path", path, "error", err)
		return c
	}

	c.ready = len(c.weights) > 0
	return c
}

// Detect scores each language by summed token weights normalized by token
// count.
func (c *Classifier) Detect(text string) Detection {
	if !c.ready || len(text) < 10 {
		return Detection{Language: "unknown", Confidence: 0}
	}

	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return Detection{Language: "unknown", Confidence: 0}
	}

	bestLang := "unknown"
	bestScore := 0.0
	for lang, weights := range c.weights {
		sum := 0.0
		for _, t := range tokens {
			sum += weights[t]
		}
		score := sum / float64(len(tokens))
		if score > bestScore || (score == bestScore && score > 0 && lang < bestLang) {
			bestScore = score
			bestLang = lang
		}
	}

	confidence := bestScore
	if confidence > 1 {
		confidence = 1
	}

	return Detection{Language: bestLang, Confidence: confidence}
}

// DetectBatch detects each text independently.
func (c *Classifier) DetectBatch(texts []string) []Detection {
	results := make([]Detection, len(texts))
	for i, t := range texts {
		results[i] = c.Detect(t)
	}
	return results
}

// SupportedLanguages lists the languages present in the model.
func (c *Classifier) SupportedLanguages() []string {
	langs := make([]string, 0, len(c.weights))
	for lang := range c.weights {
		langs = append(langs, lang)
	}
	return langs
}

// Ready reports whether a model was loaded.
func (c *Classifier) Ready() bool { return c.ready }

// NewDetector returns the best available detector: the classifier when its
// model loads, otherwise the rule-based fallback.
func NewDetector(modelPath string) Detector {
	if modelPath != "" {
		if c := LoadClassifier(modelPath); c.Ready() {
			return c
		}
	}
	return NewRuleBased()
}
