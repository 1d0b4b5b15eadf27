package model

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/chriscorrea/bm25md"
	"github.com/kljensen/snowball"

	"github.com/ModeEric/RapidSift/internal/chunk"
)

// defaultQualityTerms indicate substantive, informative prose.
var defaultQualityTerms = []string{
	"analysis", "research", "study", "evidence", "method", "result",
	"history", "describe", "explain", "develop", "understand", "detail",
	"example", "chapter", "process", "science", "theory", "discussion",
}

// defaultSpamTerms indicate promotional or navigational filler. Stored
// unstemmed; stemming happens at load time so custom lists behave the
// same way.
var defaultSpamTerms = []string{
	"click", "subscribe", "newsletter", "offer", "discount", "winner",
	"casino", "viagra", "lottery", "download", "advertisement", "sponsor",
	"login", "signup", "cookie", "privacy", "terms", "unsubscribe",
}

var classifierTokenRegex = regexp.MustCompile(`\b[a-zA-Z]+\b`)

// KeywordClassifierModel is a lightweight quality classifier in the
// fastText mold: it ranks a document's chunks against stemmed quality and
// spam keyword queries with BM25 and maps the margin to [0, 1].
type KeywordClassifierModel struct {
	MaxChunkChars int

	qualityTerms map[string]struct{}
	spamTerms    map[string]struct{}
	qualityQuery string
	spamQuery    string
	loaded       bool
}

// NewKeywordClassifierModel builds the classifier with the default term
// lists.
func NewKeywordClassifierModel() *KeywordClassifierModel {
	m := &KeywordClassifierModel{MaxChunkChars: 800}
	m.setTerms(defaultQualityTerms, defaultSpamTerms)
	m.loaded = true
	return m
}

// ModelName implements QualityModel.
func (m *KeywordClassifierModel) ModelName() string { return "keyword-classifier" }

// Type implements QualityModel.
func (m *KeywordClassifierModel) Type() Type { return TypeClassifier }

// Loaded implements QualityModel.
func (m *KeywordClassifierModel) Loaded() bool { return m.loaded }

// Load replaces the term lists from a model file with "quality<TAB>term"
// and "spam<TAB>term" lines. An empty path keeps the defaults.
func (m *KeywordClassifierModel) Load(path string) error {
	if path == "" {
		m.loaded = true
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open classifier model %s: %w", path, err)
	}
	defer f.Close()

	var quality, spam []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		label, term, found := strings.Cut(scanner.Text(), "\t")
		if !found {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(label)) {
		case "quality":
			quality = append(quality, strings.TrimSpace(term))
		case "spam":
			spam = append(spam, strings.TrimSpace(term))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read classifier model %s: %w", path, err)
	}

	if len(quality) == 0 && len(spam) == 0 {
		return fmt.Errorf("classifier model %s contains no usable entries", path)
	}

	m.setTerms(quality, spam)
	m.loaded = true
	return nil
}

// Unload drops the term lists.
func (m *KeywordClassifierModel) Unload() {
	m.qualityTerms = nil
	m.spamTerms = nil
	m.loaded = false
}

func (m *KeywordClassifierModel) setTerms(quality, spam []string) {
	m.qualityTerms = stemSet(quality)
	m.spamTerms = stemSet(spam)
	m.qualityQuery = strings.Join(quality, " ")
	m.spamQuery = strings.Join(spam, " ")
}

func stemSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[stem(t)] = struct{}{}
	}
	return set
}

func stem(word string) string {
	stemmed, err := snowball.Stem(strings.ToLower(word), "english", true)
	if err != nil {
		return strings.ToLower(word)
	}
	return stemmed
}

// Predict scores text in [0, 1]. The BM25 margin between the quality and
// spam queries over the document's chunks is blended with a stemmed
// term-ratio signal; confidence grows with the amount of evidence.
func (m *KeywordClassifierModel) Predict(text string) (Prediction, error) {
	if !m.loaded {
		return Prediction{}, errors.New("keyword classifier not loaded")
	}

	chunks := chunk.Split(text, m.MaxChunkChars)
	if len(chunks) == 0 {
		return Prediction{
			QualityScore: 0,
			Confidence:   0.3,
			ModelName:    m.ModelName(),
		}, nil
	}

	corpus := bm25md.NewCorpus()
	parser := bm25md.NewMarkdownFieldParser()
	for i, c := range chunks {
		corpus.AddDocument(bm25md.Document{
			ID:       i,
			Fields:   parser.ParseDocument(c),
			Original: c,
		})
	}

	var qualitySum, spamSum float64
	for i := range chunks {
		qualitySum += corpus.Score(m.qualityQuery, i)
		spamSum += corpus.Score(m.spamQuery, i)
	}
	qualityBM25 := qualitySum / float64(len(chunks))
	spamBM25 := spamSum / float64(len(chunks))

	qualityHits, spamHits, tokens := m.termHits(text)

	// Margin in [-1, 1] from BM25, then shifted into [0, 1].
	margin := 0.0
	if qualityBM25+spamBM25 > 0 {
		margin = (qualityBM25 - spamBM25) / (qualityBM25 + spamBM25)
	}
	score := 0.5 + margin*0.3

	if tokens > 0 {
		score += (float64(qualityHits) - float64(spamHits)) / float64(tokens)
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	confidence := 0.5
	if qualityHits+spamHits > 0 {
		confidence = 0.6 + 0.05*float64(qualityHits+spamHits)
		if confidence > 0.9 {
			confidence = 0.9
		}
	}

	return Prediction{
		QualityScore: score,
		Confidence:   confidence,
		ModelName:    m.ModelName(),
		FeatureScores: map[string]float64{
			"quality_bm25": qualityBM25,
			"spam_bm25":    spamBM25,
			"quality_hits": float64(qualityHits),
			"spam_hits":    float64(spamHits),
		},
	}, nil
}

// PredictBatch implements QualityModel.
func (m *KeywordClassifierModel) PredictBatch(texts []string) ([]Prediction, error) {
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

// termHits counts stemmed token membership in the quality and spam sets.
func (m *KeywordClassifierModel) termHits(text string) (quality, spam, total int) {
	for _, token := range classifierTokenRegex.FindAllString(strings.ToLower(text), -1) {
		total++
		s := stem(token)
		if _, ok := m.qualityTerms[s]; ok {
			quality++
		}
		if _, ok := m.spamTerms[s]; ok {
			spam++
		}
	}
	return quality, spam, total
}
