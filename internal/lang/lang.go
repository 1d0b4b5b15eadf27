// Package lang identifies document languages and filters corpora by
// language.
//
// Two detector implementations are provided: a learned classifier loaded
// from an external model file and a rule-based detector scoring stopword
// hit ratios. When the model file is unavailable at startup the classifier
// silently falls back to the rule-based detector.
package lang

import (
	"strings"
	"unicode"

	"github.com/ModeEric/RapidSift/internal/textutil"
)

// Detection is the result of language identification.
type Detection struct {
	Language   string  // ISO 639-1 code, or "unknown"
	Confidence float64 // [0, 1]
}

// Detector is the pluggable language-identification capability.
type Detector interface {
	Detect(text string) Detection
	DetectBatch(texts []string) []Detection
	SupportedLanguages() []string
	Ready() bool
}

// stopwords per language; rule-based detection scores the hit ratio of
// these lists.
var languageStopwords = map[string][]string{
	"en": {"the", "and", "is", "in", "to", "of", "a", "that", "it", "with",
		"for", "as", "was", "on", "are", "you", "this", "be", "at", "or"},
	"es": {"el", "la", "de", "que", "y", "en", "un", "es", "se", "no",
		"te", "lo", "le", "da", "su", "por", "son", "con", "para", "al"},
	"fr": {"le", "de", "et", "un", "il", "être", "en", "à", "avoir",
		"que", "pour", "dans", "ce", "son", "une", "sur", "avec", "ne", "se"},
	"de": {"der", "die", "und", "in", "den", "von", "zu", "das", "mit", "sich",
		"des", "auf", "für", "ist", "im", "dem", "nicht", "ein", "eine", "als"},
	"it": {"di", "il", "la", "è", "che", "un", "una", "le", "in", "da",
		"per", "con", "non", "del", "si", "al", "lo", "degli", "della", "sulla"},
	"pt": {"de", "a", "o", "que", "e", "do", "da", "em", "um", "para",
		"é", "com", "não", "uma", "os", "no", "se", "na", "por", "mais"},
	"ru": {"и", "в", "не", "на", "я", "быть", "он", "с", "это", "а",
		"по", "все", "она", "так", "его", "но", "да", "ты", "к", "у"},
}

// RuleBased scores per-language stopword hit ratios and returns the
// argmax with confidence = min(1, 2*ratio).
type RuleBased struct {
	stopwords map[string]map[string]struct{}
}

// NewRuleBased builds the rule-based detector.
func NewRuleBased() *RuleBased {
	d := &RuleBased{stopwords: make(map[string]map[string]struct{}, len(languageStopwords))}
	for lang, words := range languageStopwords {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		d.stopwords[lang] = set
	}
	return d
}

// Detect returns the best-scoring language. Texts under 10 characters are
// unknown: there is not enough signal.
func (d *RuleBased) Detect(text string) Detection {
	if len(text) < 10 {
		return Detection{Language: "unknown", Confidence: 0}
	}

	bestLang := "unknown"
	bestScore := 0.0

	for lang := range d.stopwords {
		score := d.score(text, lang)
		if score > bestScore || (score == bestScore && score > 0 && lang < bestLang) {
			bestScore = score
			bestLang = lang
		}
	}

	confidence := bestScore * 2.0
	if confidence > 1 {
		confidence = 1
	}

	return Detection{Language: bestLang, Confidence: confidence}
}

// DetectBatch detects each text independently.
func (d *RuleBased) DetectBatch(texts []string) []Detection {
	results := make([]Detection, len(texts))
	for i, t := range texts {
		results[i] = d.Detect(t)
	}
	return results
}

// SupportedLanguages lists the stopword-backed languages.
func (d *RuleBased) SupportedLanguages() []string {
	langs := make([]string, 0, len(d.stopwords))
	for lang := range d.stopwords {
		langs = append(langs, lang)
	}
	return langs
}

// Ready is always true for the rule-based detector.
func (d *RuleBased) Ready() bool { return true }

// score is the fraction of words that are stopwords of lang.
func (d *RuleBased) score(text, lang string) float64 {
	set := d.stopwords[lang]

	matches, total := 0, 0
	for _, word := range strings.Fields(strings.ToLower(text)) {
		total++
		word = textutil.StripPunct(word)
		if _, ok := set[word]; ok {
			matches++
		}
	}

	if total == 0 {
		return 0
	}
	return float64(matches) / float64(total)
}

// HasMixedScripts reports whether text mixes multiple unicode scripts
// (latin plus cyrillic/han/arabic and so on) in meaningful quantity.
func HasMixedScripts(text string) bool {
	counts := make(map[string]int)
	letters := 0

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case unicode.Is(unicode.Latin, r):
			counts["latin"]++
		case unicode.Is(unicode.Cyrillic, r):
			counts["cyrillic"]++
		case unicode.Is(unicode.Han, r):
			counts["han"]++
		case unicode.Is(unicode.Arabic, r):
			counts["arabic"]++
		case unicode.Is(unicode.Greek, r):
			counts["greek"]++
		default:
			counts["other"]++
		}
	}

	if letters < 20 {
		return false
	}

	significant := 0
	for _, n := range counts {
		if float64(n)/float64(letters) > 0.15 {
			significant++
		}
	}

	return significant > 1
}

// AdjustConfidenceForLength shrinks confidence on short texts, where any
// detector is unreliable.
func AdjustConfidenceForLength(confidence float64, textLength int) float64 {
	switch {
	case textLength < 20:
		return confidence * 0.5
	case textLength < 50:
		return confidence * 0.7
	case textLength < 100:
		return confidence * 0.9
	default:
		return confidence
	}
}
