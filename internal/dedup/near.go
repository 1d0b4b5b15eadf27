package dedup

import (
	"fmt"
	"strings"

	"github.com/ModeEric/RapidSift/internal/filter"
	"github.com/ModeEric/RapidSift/internal/textutil"
)

// Method selects the near-duplicate detection strategy.
type Method int

const (
	MinHashLSH Method = iota
	SimHash
	TFIDFCosine
)

// ParseMethod maps a flag value to a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "", "minhash":
		return MinHashLSH, nil
	case "simhash":
		return SimHash, nil
	case "tfidf":
		return TFIDFCosine, nil
	default:
		return MinHashLSH, fmt.Errorf("unknown near-dedup method %q (want minhash, simhash, or tfidf)", s)
	}
}

// NearConfig configures near-duplicate detection.
type NearConfig struct {
	Method          Method
	Threshold       float64
	NumPermutations int
	NgramSize       int
	SimHashBits     int
	Bands           int
	RowsPerBand     int
	// Seed fixes MinHash permutation constants for reproducible runs;
	// zero draws them from the system RNG.
	Seed int64
}

// DefaultNearConfig returns the documented near-dedup defaults.
func DefaultNearConfig() NearConfig {
	return NearConfig{
		Method:          MinHashLSH,
		Threshold:       0.8,
		NumPermutations: 128,
		NgramSize:       5,
		SimHashBits:     64,
		Bands:           16,
		RowsPerBand:     8,
	}
}

// NearDeduplicator finds near-duplicate groups and keeps one
// representative per group.
type NearDeduplicator struct {
	cfg NearConfig
}

// NewNearDeduplicator validates the banding arithmetic and returns a
// deduplicator.
func NewNearDeduplicator(cfg NearConfig) (*NearDeduplicator, error) {
	if cfg.Method == MinHashLSH && cfg.Bands*cfg.RowsPerBand != cfg.NumPermutations {
		return nil, fmt.Errorf("bands (%d) x rows per band (%d) must equal signature length (%d)",
			cfg.Bands, cfg.RowsPerBand, cfg.NumPermutations)
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("threshold must be in [0, 1], got %v", cfg.Threshold)
	}
	return &NearDeduplicator{cfg: cfg}, nil
}

// Deduplicate returns the unique documents in input order. For each
// similarity group the first document survives; documents in no group are
// kept verbatim.
func (d *NearDeduplicator) Deduplicate(docs []filter.Document, progress filter.ProgressFunc) *Result {
	result := &Result{OriginalCount: len(docs)}
	if len(docs) == 0 {
		return result
	}

	var groups [][]int
	switch d.cfg.Method {
	case SimHash:
		groups = d.simhashGroups(docs, progress)
	case TFIDFCosine:
		groups = d.tfidfGroups(docs, progress)
	default:
		groups = d.minhashGroups(docs, progress)
	}

	processed := make([]bool, len(docs))
	keep := make([]bool, len(docs))

	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		for _, id := range group {
			processed[id] = true
		}
		keep[group[0]] = true
		result.DuplicateGroups = append(result.DuplicateGroups, Group{Indices: group})
	}

	for i := range docs {
		if !processed[i] {
			keep[i] = true
		}
	}

	for i := range docs {
		if keep[i] {
			result.UniqueDocuments = append(result.UniqueDocuments, docs[i])
			result.OriginalIndices = append(result.OriginalIndices, i)
		}
	}

	return result
}

// Signature computes the MinHash signature of one text with fresh
// permutation constants. Exposed for similarity inspection and tests;
// batch runs share constants internally.
func (d *NearDeduplicator) Signature(text string) *MinHashSignature {
	params := newMinhashParams(d.cfg.NumPermutations, d.cfg.Seed)
	sig := params.newSignature()
	d.updateSignature(sig, text)
	return sig
}

func (d *NearDeduplicator) updateSignature(sig *MinHashSignature, text string) {
	normalized := textutil.NormalizeText(text)
	for _, gram := range textutil.CharNgrams(normalized, d.cfg.NgramSize) {
		sig.Update(gram)
	}
}

// minhashGroups builds an LSH index over shared-constant signatures, then
// collapses candidate pairs whose Jaccard estimate clears the threshold.
// Documents are visited in input order and the processed bitmap prevents
// double assignment.
func (d *NearDeduplicator) minhashGroups(docs []filter.Document, progress filter.ProgressFunc) [][]int {
	params := newMinhashParams(d.cfg.NumPermutations, d.cfg.Seed)

	signatures := make([]*MinHashSignature, len(docs))
	for i, doc := range docs {
		sig := params.newSignature()
		d.updateSignature(sig, doc.Text)
		signatures[i] = sig
		if progress != nil {
			progress(i+1, len(docs), nil)
		}
	}

	index := NewLSHIndex(d.cfg.Bands, d.cfg.RowsPerBand)
	for i, sig := range signatures {
		index.Insert(i, sig)
	}

	var groups [][]int
	processed := make([]bool, len(docs))

	for i := range docs {
		if processed[i] {
			continue
		}

		var group []int
		for _, candidate := range index.Query(signatures[i]) {
			if processed[candidate] {
				continue
			}
			if signatures[i].Jaccard(signatures[candidate]) >= d.cfg.Threshold {
				group = append(group, candidate)
				processed[candidate] = true
			}
		}

		if len(group) > 1 {
			groups = append(groups, group)
		}
	}

	return groups
}

func (d *NearDeduplicator) simhashGroups(docs []filter.Document, progress filter.ProgressFunc) [][]int {
	width := d.cfg.SimHashBits
	if width <= 0 {
		width = 64
	}

	signatures := make([]SimHashSignature, len(docs))
	for i, doc := range docs {
		signatures[i] = NewSimHash(doc.Text, width)
		if progress != nil {
			progress(i+1, len(docs), nil)
		}
	}

	hammingThreshold := int((1.0 - d.cfg.Threshold) * float64(width))

	var groups [][]int
	processed := make([]bool, len(docs))

	for i := range docs {
		if processed[i] {
			continue
		}

		group := []int{i}
		processed[i] = true

		for j := i + 1; j < len(docs); j++ {
			if processed[j] {
				continue
			}
			if signatures[i].HammingDistance(signatures[j]) <= hammingThreshold {
				group = append(group, j)
				processed[j] = true
			}
		}

		if len(group) > 1 {
			groups = append(groups, group)
		}
	}

	return groups
}

func (d *NearDeduplicator) tfidfGroups(docs []filter.Document, progress filter.ProgressFunc) [][]int {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	corpus := newTFIDFCorpus(texts)

	var groups [][]int
	processed := make([]bool, len(docs))

	for i := range docs {
		if processed[i] {
			continue
		}

		group := []int{i}
		processed[i] = true

		for j := i + 1; j < len(docs); j++ {
			if processed[j] {
				continue
			}
			if corpus.cosine(i, j) >= d.cfg.Threshold {
				group = append(group, j)
				processed[j] = true
			}
		}

		if progress != nil {
			progress(i+1, len(docs), nil)
		}

		if len(group) > 1 {
			groups = append(groups, group)
		}
	}

	return groups
}
