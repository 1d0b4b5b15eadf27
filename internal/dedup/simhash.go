package dedup

import (
	"math/bits"

	"github.com/cespare/xxhash/v2"

	"github.com/ModeEric/RapidSift/internal/textutil"
)

// SimHashSignature is a 64-bit-wide locality-sensitive fingerprint whose
// hamming distance approximates cosine distance over token weights.
type SimHashSignature struct {
	bitsWidth int
	value     uint64
}

// NewSimHash computes the signature of text over at most 64 bit positions.
// Token frequency weights fall out of the ±1 accumulation naturally since
// repeated tokens contribute repeatedly.
func NewSimHash(text string, width int) SimHashSignature {
	if width <= 0 || width > 64 {
		width = 64
	}

	acc := make([]int64, width)
	for _, token := range textutil.Tokenize(text) {
		h := xxhash.Sum64String(token)
		for i := 0; i < width; i++ {
			if (h>>uint(i))&1 == 1 {
				acc[i]++
			} else {
				acc[i]--
			}
		}
	}

	var value uint64
	for i := 0; i < width; i++ {
		if acc[i] > 0 {
			value |= 1 << uint(i)
		}
	}

	return SimHashSignature{bitsWidth: width, value: value}
}

// HammingDistance counts differing bit positions.
func (s SimHashSignature) HammingDistance(other SimHashSignature) int {
	return bits.OnesCount64(s.value ^ other.value)
}

// Similarity is 1 - hamming/width; symmetric, and 1.0 against itself.
func (s SimHashSignature) Similarity(other SimHashSignature) float64 {
	return 1.0 - float64(s.HammingDistance(other))/float64(s.bitsWidth)
}

// Value returns the raw fingerprint.
func (s SimHashSignature) Value() uint64 { return s.value }
