package dedup

import (
	"encoding/binary"
	"math"
	"math/rand"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// MinHashSignature estimates Jaccard similarity between token sets. Each
// of the L permutation slots holds the minimum of (a_i*h(x) + b_i) over
// every element x, with random odd a_i and random b_i.
type MinHashSignature struct {
	values []uint64
	a      []uint64
	b      []uint64
}

// minhashParams holds one shared set of permutation constants so every
// signature in a run is comparable.
type minhashParams struct {
	a []uint64
	b []uint64
}

// newMinhashParams draws permutation constants. A non-zero seed gives
// reproducible runs; zero draws from the global RNG source.
func newMinhashParams(n int, seed int64) *minhashParams {
	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	p := &minhashParams{
		a: make([]uint64, n),
		b: make([]uint64, n),
	}
	for i := 0; i < n; i++ {
		p.a[i] = rng.Uint64() | 1 // odd multiplier
		p.b[i] = rng.Uint64()
	}

	return p
}

func (p *minhashParams) newSignature() *MinHashSignature {
	sig := &MinHashSignature{
		values: make([]uint64, len(p.a)),
		a:      p.a,
		b:      p.b,
	}
	for i := range sig.values {
		sig.values[i] = math.MaxUint64
	}
	return sig
}

// Update folds one set element into the signature.
func (s *MinHashSignature) Update(element string) {
	s.UpdateHash(xxhash.Sum64String(element))
}

// UpdateHash folds a pre-hashed element into the signature.
func (s *MinHashSignature) UpdateHash(h uint64) {
	for i := range s.values {
		perm := s.a[i]*h + s.b[i]
		if perm < s.values[i] {
			s.values[i] = perm
		}
	}
}

// Jaccard estimates the Jaccard similarity to another signature as the
// fraction of equal slots. Signatures of different lengths compare as 0.
func (s *MinHashSignature) Jaccard(other *MinHashSignature) float64 {
	if len(s.values) != len(other.values) {
		return 0
	}

	matches := 0
	for i := range s.values {
		if s.values[i] == other.values[i] {
			matches++
		}
	}

	return float64(matches) / float64(len(s.values))
}

// Values exposes the raw signature slots for banding.
func (s *MinHashSignature) Values() []uint64 { return s.values }

// LSHIndex buckets signatures into B bands of R rows so near-duplicates
// collide in at least one band with high probability. B*R must equal the
// signature length.
type LSHIndex struct {
	bands    int
	bandSize int
	tables   []map[uint64][]int
}

// NewLSHIndex creates an index with the given banding.
func NewLSHIndex(bands, rowsPerBand int) *LSHIndex {
	tables := make([]map[uint64][]int, bands)
	for i := range tables {
		tables[i] = make(map[uint64][]int)
	}
	return &LSHIndex{bands: bands, bandSize: rowsPerBand, tables: tables}
}

// Insert adds a document signature under its id.
func (idx *LSHIndex) Insert(docID int, sig *MinHashSignature) {
	values := sig.Values()
	for band := 0; band < idx.bands; band++ {
		key := idx.bandKey(values, band)
		idx.tables[band][key] = append(idx.tables[band][key], docID)
	}
}

// Query returns the candidate ids sharing at least one band bucket with
// sig, in ascending id order.
func (idx *LSHIndex) Query(sig *MinHashSignature) []int {
	values := sig.Values()
	seen := make(map[int]struct{})

	for band := 0; band < idx.bands; band++ {
		key := idx.bandKey(values, band)
		for _, id := range idx.tables[band][key] {
			seen[id] = struct{}{}
		}
	}

	candidates := make([]int, 0, len(seen))
	for id := range seen {
		candidates = append(candidates, id)
	}
	sort.Ints(candidates)

	return candidates
}

func (idx *LSHIndex) bandKey(values []uint64, band int) uint64 {
	start := band * idx.bandSize
	end := start + idx.bandSize
	if end > len(values) {
		end = len(values)
	}

	var buf [8]byte
	h := xxhash.New()
	for _, v := range values[start:end] {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	return h.Sum64()
}
