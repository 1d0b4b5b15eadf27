package dedup

import (
	"math"

	"github.com/ModeEric/RapidSift/internal/textutil"
)

// tfidfCorpus pre-computes term and document frequencies over a document
// set so pairwise cosine similarity is cheap.
type tfidfCorpus struct {
	vectors  []map[string]float64
	norms    []float64
	docFreqs map[string]int
	total    int
}

// newTFIDFCorpus builds tf-idf vectors for every document text.
func newTFIDFCorpus(texts []string) *tfidfCorpus {
	c := &tfidfCorpus{
		vectors:  make([]map[string]float64, len(texts)),
		norms:    make([]float64, len(texts)),
		docFreqs: make(map[string]int),
		total:    len(texts),
	}

	termCounts := make([]map[string]int, len(texts))
	for i, text := range texts {
		counts := make(map[string]int)
		for _, token := range textutil.Tokenize(text) {
			counts[token]++
		}
		termCounts[i] = counts

		for term := range counts {
			c.docFreqs[term]++
		}
	}

	for i, counts := range termCounts {
		vec := make(map[string]float64, len(counts))
		tokens := 0
		for _, n := range counts {
			tokens += n
		}
		if tokens == 0 {
			c.vectors[i] = vec
			continue
		}

		normSq := 0.0
		for term, n := range counts {
			tf := float64(n) / float64(tokens)
			idf := math.Log(float64(c.total+1)/float64(c.docFreqs[term]+1)) + 1
			w := tf * idf
			vec[term] = w
			normSq += w * w
		}

		c.vectors[i] = vec
		c.norms[i] = math.Sqrt(normSq)
	}

	return c
}

// cosine returns the cosine similarity between documents i and j.
func (c *tfidfCorpus) cosine(i, j int) float64 {
	if c.norms[i] == 0 || c.norms[j] == 0 {
		return 0
	}

	// Iterate over the smaller vector.
	a, b := c.vectors[i], c.vectors[j]
	if len(b) < len(a) {
		a, b = b, a
	}

	dot := 0.0
	for term, w := range a {
		if v, ok := b[term]; ok {
			dot += w * v
		}
	}

	return dot / (c.norms[i] * c.norms[j])
}
