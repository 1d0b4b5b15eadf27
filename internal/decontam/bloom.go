// Package decontam detects benchmark contamination: overlap between
// corpus documents and held-out evaluation sets, measured over word
// n-grams with a Bloom pre-filter in front of the exact set.
package decontam

import (
	"math"
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// BloomFilter is a fixed-size bit array with k seeded hash functions. It
// never returns a false negative: MightContain is true for every added
// element.
type BloomFilter struct {
	bits  []uint64
	size  uint64
	seeds []uint64
}

// NewBloomFilter sizes the filter for expectedElements at the requested
// false-positive rate using m = -n*ln(p)/(ln 2)^2 and k = (m/n)*ln 2,
// with k capped at 8. Hash seeds are drawn from a PRNG at construction.
func NewBloomFilter(expectedElements int, falsePositiveRate float64) *BloomFilter {
	if expectedElements <= 0 {
		expectedElements = 1
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}

	ln2 := math.Ln2
	size := uint64(math.Ceil(-float64(expectedElements) * math.Log(falsePositiveRate) / (ln2 * ln2)))
	if size == 0 {
		size = 64
	}

	k := int(math.Round(float64(size) / float64(expectedElements) * ln2))
	if k < 1 {
		k = 1
	}
	if k > 8 {
		k = 8
	}

	rng := rand.New(rand.NewSource(rand.Int63()))
	seeds := make([]uint64, k)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}

	return &BloomFilter{
		bits:  make([]uint64, (size+63)/64),
		size:  size,
		seeds: seeds,
	}
}

// Add inserts an element.
func (b *BloomFilter) Add(item string) {
	for _, seed := range b.seeds {
		pos := b.position(item, seed)
		b.bits[pos/64] |= 1 << (pos % 64)
	}
}

// MightContain reports whether item may have been added. False positives
// occur at roughly the configured rate; false negatives never.
func (b *BloomFilter) MightContain(item string) bool {
	for _, seed := range b.seeds {
		pos := b.position(item, seed)
		if b.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// Clear resets every bit.
func (b *BloomFilter) Clear() {
	for i := range b.bits {
		b.bits[i] = 0
	}
}

// Size returns the bit-array size.
func (b *BloomFilter) Size() uint64 { return b.size }

// HashFunctions returns the number of hash functions in use.
func (b *BloomFilter) HashFunctions() int { return len(b.seeds) }

func (b *BloomFilter) position(item string, seed uint64) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(seed >> (8 * i))
	}
	d.Write(buf[:])
	d.WriteString(item)
	return d.Sum64() % b.size
}
