package decontam

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/corpusio"
	"github.com/ModeEric/RapidSift/internal/filter"
	"github.com/ModeEric/RapidSift/internal/textutil"
)

// commonPhraseWords are function words whose n-grams are too common to be
// meaningful contamination evidence.
var commonPhraseWords = []string{
	"the", "of", "and", "to", "a", "in", "is", "it", "you", "that",
	"he", "was", "for", "on", "are", "as", "with", "his", "they", "i",
	"at", "be", "this", "have", "from", "or", "one", "had", "by", "word",
	"what", "all", "were", "we", "when", "your", "can", "said", "there",
	"each", "which", "she", "do", "how", "their", "if", "will", "up",
	"other", "about", "out", "many", "then", "them", "these", "so", "some",
}

// ContaminationMatch records one benchmark n-gram found in a document.
type ContaminationMatch struct {
	Ngram         string
	Position      int
	SourceDataset string
}

// Assessment summarizes the contamination analysis of one document.
type Assessment struct {
	Matches            []ContaminationMatch
	TotalNgramsChecked int
	ContaminationScore float64
	IsContaminated     bool
	MostLikelySource   string
}

// Stats aggregates contamination results over a run.
type Stats struct {
	TotalDocuments         int64
	ContaminatedDocuments  int64
	CleanDocuments         int64
	TotalNgramsChecked     int64
	ContaminatedNgrams     int64
	ContaminationByDataset map[string]int64
	MatchesHistogram       map[int]int64
}

// Filter flags documents that overlap configured benchmark sets. The
// benchmark n-gram set and Bloom filter live for the lifetime of the
// filter instance and are read-only once loaded, so workers share the
// filter without synchronization on the hot path.
type Filter struct {
	cfg config.Decontam

	ngrams        map[string]string // ngram -> dataset name
	bloom         *BloomFilter
	commonPhrases map[string]struct{}
	degraded      bool

	mu    sync.Mutex
	cache map[string]Assessment
	stats Stats
}

// New builds a decontamination filter and ingests the configured
// benchmark files and directories. A missing benchmark file logs a
// warning, marks the filter degraded, and is skipped.
func New(cfg config.Decontam) *Filter {
	f := &Filter{cfg: cfg}
	f.rebuild()
	return f
}

// Name implements filter.Filter.
func (f *Filter) Name() string { return "decontamination" }

// Configure implements filter.Filter.
func (f *Filter) Configure(cfg *config.Config) error {
	f.cfg = cfg.Decontam
	f.rebuild()
	return nil
}

func (f *Filter) rebuild() {
	f.ngrams = make(map[string]string)
	f.cache = make(map[string]Assessment)
	f.stats = Stats{
		ContaminationByDataset: make(map[string]int64),
		MatchesHistogram:       make(map[int]int64),
	}
	f.degraded = false

	if f.cfg.UseBloomFilter {
		expected := f.cfg.ExpectedNgrams
		if expected <= 0 {
			expected = 1000000
		}
		f.bloom = NewBloomFilter(expected, f.cfg.FalsePositiveRate)
	} else {
		f.bloom = nil
	}

	f.commonPhrases = make(map[string]struct{}, len(commonPhraseWords))
	if f.cfg.ExcludeCommonPhrases {
		for _, w := range commonPhraseWords {
			f.commonPhrases[w] = struct{}{}
		}
	}

	for _, file := range f.cfg.BenchmarkFiles {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		f.loadBenchmarkFile(file, name)
	}
	for _, dir := range f.cfg.BenchmarkDirs {
		files, err := corpusio.ListBenchmarkFiles(dir)
		if err != nil {
			slog.Warn("skipping benchmark directory", "dir", dir, "error", err)
			f.degraded = true
			continue
		}
		for name, path := range files {
			f.loadBenchmarkFile(path, name)
		}
	}

	slog.Debug("benchmark ingestion complete",
		"ngrams", len(f.ngrams), "datasets", len(f.Datasets()), "degraded", f.degraded)
}

// loadBenchmarkFile ingests one reference file, one line per reference
// string.
func (f *Filter) loadBenchmarkFile(path, dataset string) {
	file, err := os.Open(path)
	if err != nil {
		slog.Warn("cannot open benchmark file", "path", path, "error", err)
		f.degraded = true
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	lines := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		for _, gram := range f.extractNgrams(line) {
			f.ngrams[gram] = dataset
			if f.bloom != nil {
				f.bloom.Add(gram)
			}
		}
		lines++
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("error reading benchmark file", "path", path, "error", err)
		f.degraded = true
	}

	slog.Debug("loaded benchmark file", "path", path, "dataset", dataset, "lines", lines)
}

// Degraded reports whether any configured benchmark resource failed to
// load.
func (f *Filter) Degraded() bool { return f.degraded }

// Datasets lists the loaded dataset names.
func (f *Filter) Datasets() []string {
	seen := make(map[string]struct{})
	for _, ds := range f.ngrams {
		seen[ds] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for ds := range seen {
		names = append(names, ds)
	}
	sort.Strings(names)
	return names
}

// NgramCount returns the size of the loaded benchmark set.
func (f *Filter) NgramCount() int { return len(f.ngrams) }

// extractNgrams normalizes text and emits word n-grams of the configured
// size. Decontamination always tokenizes: contamination is a word-level
// phenomenon.
func (f *Filter) extractNgrams(text string) []string {
	processed := text
	if f.cfg.CaseInsensitive {
		processed = strings.ToLower(processed)
	}
	if f.cfg.RemovePunctuation {
		processed = textutil.StripPunct(processed)
	}
	processed = textutil.NormalizeWhitespace(processed)

	n := f.cfg.NgramSize
	if n <= 0 {
		n = 13
	}

	return textutil.WordNgrams(processed, n)
}

// Assess computes the contamination assessment of one document. Results
// are memoized by document id.
func (f *Filter) Assess(doc *filter.Document) Assessment {
	if doc.ID != "" {
		f.mu.Lock()
		if cached, ok := f.cache[doc.ID]; ok {
			f.mu.Unlock()
			return cached
		}
		f.mu.Unlock()
	}

	grams := f.extractNgrams(doc.Text)

	a := Assessment{TotalNgramsChecked: len(grams)}

	maxMatches := f.cfg.MaxMatchesPerDocument
	if maxMatches <= 0 {
		maxMatches = 100
	}

	for i, gram := range grams {
		if f.cfg.ExcludeCommonPhrases && f.isCommonPhrase(gram) {
			continue
		}
		if f.bloom != nil && !f.bloom.MightContain(gram) {
			continue
		}
		if dataset, ok := f.ngrams[gram]; ok {
			a.Matches = append(a.Matches, ContaminationMatch{
				Ngram:         gram,
				Position:      i,
				SourceDataset: dataset,
			})
			if len(a.Matches) >= maxMatches {
				break
			}
		}
	}

	if a.TotalNgramsChecked > 0 {
		a.ContaminationScore = float64(len(a.Matches)) / float64(a.TotalNgramsChecked)
	}

	a.IsContaminated = a.ContaminationScore >= f.cfg.ContaminationThreshold && len(a.Matches) > 0
	if f.cfg.MinMatchesToReject > 0 && len(a.Matches) < f.cfg.MinMatchesToReject {
		a.IsContaminated = false
	}

	a.MostLikelySource = mostLikelySource(a.Matches)

	f.mu.Lock()
	if doc.ID != "" {
		f.cache[doc.ID] = a
	}
	f.recordStats(a)
	f.mu.Unlock()

	return a
}

// mostLikelySource is the dataset with the most matches; ties break to the
// lexicographically smallest name so the result is deterministic.
func mostLikelySource(matches []ContaminationMatch) string {
	if len(matches) == 0 {
		return ""
	}

	counts := make(map[string]int)
	for _, m := range matches {
		counts[m.SourceDataset]++
	}

	best := ""
	bestCount := -1
	for ds, n := range counts {
		if n > bestCount || (n == bestCount && ds < best) {
			best = ds
			bestCount = n
		}
	}

	return best
}

func (f *Filter) isCommonPhrase(gram string) bool {
	// An n-gram made entirely of stopwords carries no signal.
	for _, w := range strings.Fields(gram) {
		if _, ok := f.commonPhrases[w]; !ok {
			return false
		}
	}
	return true
}

func (f *Filter) recordStats(a Assessment) {
	f.stats.TotalDocuments++
	f.stats.TotalNgramsChecked += int64(a.TotalNgramsChecked)
	f.stats.ContaminatedNgrams += int64(len(a.Matches))
	f.stats.MatchesHistogram[len(a.Matches)]++

	if a.IsContaminated {
		f.stats.ContaminatedDocuments++
		if a.MostLikelySource != "" {
			f.stats.ContaminationByDataset[a.MostLikelySource]++
		}
	} else {
		f.stats.CleanDocuments++
	}
}

// Stats returns a copy of the accumulated contamination statistics.
func (f *Filter) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.stats
	out.ContaminationByDataset = make(map[string]int64, len(f.stats.ContaminationByDataset))
	for ds, n := range f.stats.ContaminationByDataset {
		out.ContaminationByDataset[ds] = n
	}
	out.MatchesHistogram = make(map[int]int64, len(f.stats.MatchesHistogram))
	for k, v := range f.stats.MatchesHistogram {
		out.MatchesHistogram[k] = v
	}

	return out
}

// Evaluate implements filter.Filter, rejecting contaminated documents.
func (f *Filter) Evaluate(doc *filter.Document) filter.Decision {
	a := f.Assess(doc)

	metrics := map[string]float64{
		"contamination_score":  a.ContaminationScore,
		"contaminated_ngrams":  float64(len(a.Matches)),
		"total_ngrams_checked": float64(a.TotalNgramsChecked),
	}

	if a.IsContaminated {
		d := filter.Reject(filter.ReasonContamination, clamp01(0.5+a.ContaminationScore),
			fmt.Sprintf("document contaminated with %d n-grams from %s", len(a.Matches), a.MostLikelySource))
		d.Metrics = metrics
		return d
	}

	d := filter.Keep(1.0-a.ContaminationScore, "no contamination detected")
	d.Metrics = metrics
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
