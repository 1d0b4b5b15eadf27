package quality

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
	"github.com/ModeEric/RapidSift/internal/textutil"
)

var boilerplatePhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bcopyright\b.*\ball rights reserved\b`),
	regexp.MustCompile(`(?i)\bterms of service\b|\bprivacy policy\b|\bcookie policy\b`),
	regexp.MustCompile(`(?i)\bclick here\b.*\bmore information\b`),
	regexp.MustCompile(`(?i)\bsubscribe\b.*\bnewsletter\b`),
	regexp.MustCompile(`(?i)\bfollow us\b.*\bsocial media\b`),
	regexp.MustCompile(`(?i)\bpowered by\b|\bcreated by\b|\bdesigned by\b`),
}

// RepetitionFilter rejects documents dominated by repeated lines, n-grams,
// or template-like structure.
type RepetitionFilter struct {
	cfg config.Repetition
}

// NewRepetitionFilter returns a repetition filter.
func NewRepetitionFilter(cfg config.Repetition) *RepetitionFilter {
	return &RepetitionFilter{cfg: cfg}
}

// Name implements filter.Filter.
func (f *RepetitionFilter) Name() string { return "repetition" }

// Configure implements filter.Filter.
func (f *RepetitionFilter) Configure(cfg *config.Config) error {
	f.cfg = cfg.Repetition
	return nil
}

// Evaluate measures line repetition, word-n-gram repetition, vocabulary
// diversity, and boilerplate likeness.
func (f *RepetitionFilter) Evaluate(doc *filter.Document) filter.Decision {
	text := doc.Text
	if text == "" {
		return filter.Keep(1.0, "empty document")
	}

	lineRepetition := lineRepetitionRatio(text)
	ngramRepetition := ngramRepetitionRatio(text, f.cfg.NgramSize)
	uniqueWords, uniqueRatio := uniqueWordStats(text)
	diversity := lexicalDiversity(text)
	templateLike := isTemplateLike(text)
	boilerplate := boilerplateScore(text, lineRepetition, diversity, templateLike)

	metrics := map[string]float64{
		"line_repetition_ratio":  lineRepetition,
		"ngram_repetition_ratio": ngramRepetition,
		"unique_words":           float64(uniqueWords),
		"unique_word_ratio":      uniqueRatio,
		"lexical_diversity":      diversity,
		"boilerplate_score":      boilerplate,
	}

	var violations []string

	if lineRepetition > f.cfg.MaxLineRepetitionRatio {
		violations = append(violations, fmt.Sprintf("excessive line repetition (%d%%)", int(lineRepetition*100)))
	}
	if ngramRepetition > f.cfg.MaxNgramRepetitionRatio {
		violations = append(violations, fmt.Sprintf("excessive %d-gram repetition (%d%%)", f.cfg.NgramSize, int(ngramRepetition*100)))
	}
	if uniqueWords < f.cfg.MinUniqueWords || uniqueRatio < f.cfg.MinUniqueWordRatio {
		violations = append(violations, fmt.Sprintf("insufficient unique words (%d words, %d%% unique)", uniqueWords, int(uniqueRatio*100)))
	}
	if boilerplate > f.cfg.MaxBoilerplateRatio {
		violations = append(violations, fmt.Sprintf("appears to be boilerplate (score: %.2f)", boilerplate))
	}
	if templateLike {
		violations = append(violations, "appears template-like")
	}

	if len(violations) > 0 {
		conf := 0.6 + 0.1*float64(len(violations))
		if conf > 0.95 {
			conf = 0.95
		}
		d := filter.Reject(filter.ReasonHighRepetition, conf, "high repetition detected: "+strings.Join(violations, ", "))
		d.Metrics = metrics
		return d
	}

	score := 1.0
	if lineRepetition > 0.2 {
		score *= 0.9
	}
	if uniqueRatio < 0.5 {
		score *= 0.9
	}
	if diversity < 0.3 {
		score *= 0.85
	}

	d := filter.Keep(score, "text shows acceptable diversity and low repetition")
	d.Metrics = metrics
	return d
}

// lineRepetitionRatio is the fraction of non-empty lines belonging to a
// line value that occurs more than once.
func lineRepetitionRatio(text string) float64 {
	counts := make(map[string]int)
	total := 0
	for _, line := range textutil.SplitLines(text, false) {
		normalized := textutil.NormalizeWhitespace(line)
		if normalized == "" {
			continue
		}
		counts[normalized]++
		total++
	}

	if total == 0 {
		return 0
	}

	repeated := 0
	for _, c := range counts {
		if c > 1 {
			repeated += c
		}
	}

	return float64(repeated) / float64(total)
}

func ngramRepetitionRatio(text string, n int) float64 {
	if n <= 0 {
		n = 3
	}

	words := textutil.SplitWords(text)
	ngrams := textutil.WordNgrams(strings.Join(words, " "), n)
	if len(ngrams) == 0 {
		return 0
	}

	counts := make(map[string]int, len(ngrams))
	for _, g := range ngrams {
		counts[g]++
	}

	repeated := 0
	for _, c := range counts {
		if c > 1 {
			repeated += c
		}
	}

	return float64(repeated) / float64(len(ngrams))
}

func uniqueWordStats(text string) (int, float64) {
	words := textutil.SplitWords(text)
	if len(words) == 0 {
		return 0, 0
	}

	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}

	return len(seen), float64(len(seen)) / float64(len(words))
}

// lexicalDiversity is the case-folded type/token ratio.
func lexicalDiversity(text string) float64 {
	words := textutil.SplitWords(text)
	if len(words) == 0 {
		return 0
	}

	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = struct{}{}
	}

	return float64(len(seen)) / float64(len(words))
}

// isTemplateLike maps each line to a structural shape ("A" letters, "9"
// digits, " " whitespace, "X" other) and reports whether one shape covers
// more than 30% of lines. Documents under 5 lines are never template-like.
func isTemplateLike(text string) bool {
	lines := textutil.SplitLines(text, false)
	if len(lines) < 5 {
		return false
	}

	shapes := make(map[string]int)
	for _, line := range lines {
		var b strings.Builder
		for i := 0; i < len(line); i++ {
			c := line[i]
			switch {
			case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
				b.WriteByte('A')
			case c >= '0' && c <= '9':
				b.WriteByte('9')
			case c == ' ' || c == '\t':
				b.WriteByte(' ')
			default:
				b.WriteByte('X')
			}
		}
		shape := textutil.NormalizeWhitespace(b.String())
		if shape != "" {
			shapes[shape]++
		}
	}

	maxCount := 0
	for _, c := range shapes {
		if c > maxCount {
			maxCount = c
		}
	}

	return float64(maxCount)/float64(len(lines)) > 0.3
}

// boilerplateScore fuses the phrase-pattern, line-repetition, diversity,
// and template signals into [0, 1].
func boilerplateScore(text string, lineRepetition, diversity float64, templateLike bool) float64 {
	score := 0.0

	for _, re := range boilerplatePhrasePatterns {
		if re.MatchString(text) {
			score += 0.3
			break
		}
	}

	score += lineRepetition * 0.4

	if diversity < 0.3 {
		score += (0.3 - diversity) * 2.0
	}

	if templateLike {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
