// Package quality implements the rule-based quality filters: length,
// gibberish, repetition, and format. Each filter is stateless after
// Configure and safe for concurrent use.
package quality

import (
	"fmt"
	"unicode"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
	"github.com/ModeEric/RapidSift/internal/textutil"
)

// LengthFilter rejects documents whose word or character counts fall
// outside the configured bounds.
type LengthFilter struct {
	cfg config.Length
}

// NewLengthFilter returns a length filter with the given bounds.
func NewLengthFilter(cfg config.Length) *LengthFilter {
	return &LengthFilter{cfg: cfg}
}

// Name implements filter.Filter.
func (f *LengthFilter) Name() string { return "length" }

// Configure implements filter.Filter.
func (f *LengthFilter) Configure(cfg *config.Config) error {
	f.cfg = cfg.Length
	return nil
}

// Evaluate counts words (punctuation-stripped tokens) and non-whitespace
// characters and rejects TooShort/TooLong per the configured bounds.
func (f *LengthFilter) Evaluate(doc *filter.Document) filter.Decision {
	words := len(textutil.SplitWords(doc.Text))
	chars := countNonSpace(doc.Text)

	metrics := map[string]float64{
		"word_count": float64(words),
		"char_count": float64(chars),
	}

	// StrictBounds treats the word and character limits as OR; the
	// default requires both to be violated.
	tooShortWords := words < f.cfg.MinWords
	tooShortChars := chars < f.cfg.MinChars
	tooShort := tooShortWords && tooShortChars
	if f.cfg.StrictBounds {
		tooShort = tooShortWords || tooShortChars
	}
	if tooShort {
		details := fmt.Sprintf("document has %d words, minimum required: %d", words, f.cfg.MinWords)
		if !tooShortWords {
			details = fmt.Sprintf("document has %d characters, minimum required: %d", chars, f.cfg.MinChars)
		}
		d := filter.Reject(filter.ReasonTooShort, 0.95, details)
		d.Metrics = metrics
		return d
	}

	tooLongWords := f.cfg.MaxWords > 0 && words > f.cfg.MaxWords
	tooLongChars := f.cfg.MaxChars > 0 && chars > f.cfg.MaxChars
	tooLong := tooLongWords && tooLongChars
	if f.cfg.StrictBounds {
		tooLong = tooLongWords || tooLongChars
	}
	if tooLong {
		details := fmt.Sprintf("document has %d words, maximum allowed: %d", words, f.cfg.MaxWords)
		if !tooLongWords {
			details = fmt.Sprintf("document has %d characters, maximum allowed: %d", chars, f.cfg.MaxChars)
		}
		d := filter.Reject(filter.ReasonTooLong, 0.95, details)
		d.Metrics = metrics
		return d
	}

	// Mild quality penalty at the extremes of the acceptable range.
	score := 1.0
	if words < 20 {
		score *= 0.8
	} else if words > 10000 {
		score *= 0.9
	}

	d := filter.Keep(score, fmt.Sprintf("document length acceptable: %d words, %d characters", words, chars))
	d.Metrics = metrics
	return d
}

func countNonSpace(s string) int {
	count := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}
