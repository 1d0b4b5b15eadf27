package quality

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
	"github.com/ModeEric/RapidSift/internal/textutil"
)

// DefaultGibberishPatterns match text that is very unlikely to be natural
// language. Languages with long compound words should override the first
// pattern via configuration.
var DefaultGibberishPatterns = []string{
	`[a-zA-Z]{50,}`, // very long letter runs
	`\d{50,}`,       // very long digit runs
	`[!@#$%^&*()_+={}\[\]|\\:";'<>?,./]{10,}`,           // long symbol runs
	`[bcdfghjklmnpqrstvwxyzBCDFGHJKLMNPQRSTVWXYZ]{10,}`, // vowel-free stretches
	`\b[a-zA-Z]{2,}[0-9]+[a-zA-Z]{2,}\b`,                // mixed alphanumeric tokens
}

// GibberishFilter rejects text with implausible character statistics or
// structure.
type GibberishFilter struct {
	cfg      config.Gibberish
	patterns []*regexp.Regexp
}

// NewGibberishFilter returns a gibberish filter with compiled patterns.
func NewGibberishFilter(cfg config.Gibberish) *GibberishFilter {
	f := &GibberishFilter{cfg: cfg}
	f.compile()
	return f
}

// Name implements filter.Filter.
func (f *GibberishFilter) Name() string { return "gibberish" }

// Configure implements filter.Filter.
func (f *GibberishFilter) Configure(cfg *config.Config) error {
	f.cfg = cfg.Gibberish
	f.compile()
	return nil
}

func (f *GibberishFilter) compile() {
	patterns := f.cfg.Patterns
	if len(patterns) == 0 {
		patterns = DefaultGibberishPatterns
	}

	f.patterns = f.patterns[:0]
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			slog.Warn("skipping invalid gibberish pattern", "pattern", p, "error", err)
			continue
		}
		f.patterns = append(f.patterns, re)
	}
}

// Evaluate collects every gibberish indicator; confidence grows with the
// number of violations, capped at 0.95.
func (f *GibberishFilter) Evaluate(doc *filter.Document) filter.Decision {
	text := doc.Text
	if text == "" {
		return filter.Keep(1.0, "empty document")
	}

	alphaRatio := textutil.AlphaRatio(text)
	digitRatio := textutil.DigitRatio(text)
	symbolRatio := textutil.SymbolRatio(text)
	entropy := textutil.CharacterEntropy(text)
	repetitionRatio := textutil.MaxCharFrequencyRatio(text)
	maxRun := textutil.LongestRun(text)

	metrics := map[string]float64{
		"alpha_ratio":           alphaRatio,
		"digit_ratio":           digitRatio,
		"symbol_ratio":          symbolRatio,
		"entropy":               entropy,
		"repetition_ratio":      repetitionRatio,
		"max_consecutive_chars": float64(maxRun),
	}

	var violations []string

	if alphaRatio < 1.0-f.cfg.MaxNonAlphaRatio {
		violations = append(violations, fmt.Sprintf("excessive non-alphabetic characters (%d%% alpha)", int(alphaRatio*100)))
	}
	if digitRatio > f.cfg.MaxDigitRatio {
		violations = append(violations, fmt.Sprintf("excessive digits (%d%% digits)", int(digitRatio*100)))
	}
	if symbolRatio > f.cfg.MaxSymbolRatio {
		violations = append(violations, fmt.Sprintf("excessive symbols (%d%% symbols)", int(symbolRatio*100)))
	}
	if repetitionRatio > f.cfg.MaxRepetitionRatio {
		violations = append(violations, fmt.Sprintf("excessive character repetition (%d%%)", int(repetitionRatio*100)))
	}
	if maxRun > f.cfg.MaxConsecutive {
		violations = append(violations, fmt.Sprintf("long consecutive character runs (max %d chars)", maxRun))
	}
	if entropy < f.cfg.MinEntropy {
		violations = append(violations, fmt.Sprintf("low entropy (%.2f)", entropy))
	}
	if f.matchesPatterns(text) {
		violations = append(violations, "matches gibberish patterns")
	}
	if !appearsLinguistic(text) {
		violations = append(violations, "does not appear linguistic")
	}

	if len(violations) > 0 {
		conf := 0.5 + 0.1*float64(len(violations))
		if conf > 0.95 {
			conf = 0.95
		}
		d := filter.Reject(filter.ReasonGibberish, conf, "gibberish detected: "+strings.Join(violations, ", "))
		d.Metrics = metrics
		return d
	}

	score := 1.0
	if alphaRatio < 0.7 {
		score *= 0.95
	}
	if entropy < 3.0 {
		score *= 0.9
	}
	if repetitionRatio > 0.2 {
		score *= 0.9
	}

	d := filter.Keep(score, "text appears linguistic and well-formed")
	d.Metrics = metrics
	return d
}

func (f *GibberishFilter) matchesPatterns(text string) bool {
	for _, re := range f.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// appearsLinguistic applies basic plausibility checks: vowel/consonant
// balance and word-length distribution.
func appearsLinguistic(text string) bool {
	ratio := textutil.VowelConsonantRatio(text)
	if ratio < 0.1 || ratio > 2.0 {
		return false
	}

	words := textutil.SplitWords(text)
	if len(words) == 0 {
		return false
	}

	totalLen, veryLong := 0, 0
	for _, w := range words {
		totalLen += len(w)
		if len(w) > 20 {
			veryLong++
		}
	}

	avgLen := float64(totalLen) / float64(len(words))
	longRatio := float64(veryLong) / float64(len(words))

	return avgLen >= 2.0 && avgLen <= 15.0 && longRatio < 0.1
}
