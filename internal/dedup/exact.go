// Package dedup removes exact and near-duplicate documents from a corpus.
//
// Exact deduplication hashes full document texts; near-duplicate detection
// offers MinHash+LSH, SimHash, and TF-IDF cosine methods. All methods
// preserve input order in their unique output and keep one representative
// per duplicate group.
package dedup

import (
	"bufio"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/ModeEric/RapidSift/internal/filter"
)

// Algorithm selects the exact-dedup hash function.
type Algorithm int

const (
	XXHash64 Algorithm = iota
	MD5
	SHA1
	SHA256
)

// ParseAlgorithm maps a flag value to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(s) {
	case "", "xxhash", "xxhash64":
		return XXHash64, nil
	case "md5":
		return MD5, nil
	case "sha1":
		return SHA1, nil
	case "sha256":
		return SHA256, nil
	default:
		return XXHash64, fmt.Errorf("unknown hash algorithm %q (want md5, sha1, sha256, or xxhash)", s)
	}
}

// HashText computes the 64-bit document hash under the chosen algorithm.
// Cryptographic digests are truncated to their top 8 bytes. Hash
// collisions are accepted: byte-equality verification is not performed,
// which is a documented false-positive risk for xxhash64.
func HashText(text string, algorithm Algorithm) uint64 {
	switch algorithm {
	case MD5:
		sum := md5.Sum([]byte(text))
		return binary.BigEndian.Uint64(sum[:8])
	case SHA1:
		sum := sha1.Sum([]byte(text))
		return binary.BigEndian.Uint64(sum[:8])
	case SHA256:
		sum := sha256.Sum256([]byte(text))
		return binary.BigEndian.Uint64(sum[:8])
	default:
		return xxhash.Sum64String(text)
	}
}

// ExactConfig configures exact deduplication.
type ExactConfig struct {
	Algorithm Algorithm
	// KeepLast keeps the last occurrence of each duplicate group instead
	// of the first. Output order still follows input order of the kept
	// representatives: kept indices are always re-sorted ascending.
	KeepLast bool
}

// Group is one duplicate equivalence class.
type Group struct {
	Hash    uint64
	Indices []int
}

// Result reports a deduplication run.
type Result struct {
	UniqueDocuments []filter.Document
	OriginalIndices []int
	DuplicateGroups []Group
	OriginalCount   int
}

// DuplicatesRemoved is the number of documents dropped.
func (r *Result) DuplicatesRemoved() int {
	return r.OriginalCount - len(r.UniqueDocuments)
}

// ReductionPercentage is the share of input removed, in percent.
func (r *Result) ReductionPercentage() float64 {
	if r.OriginalCount == 0 {
		return 0
	}
	return float64(r.DuplicatesRemoved()) / float64(r.OriginalCount) * 100.0
}

// ExactDeduplicator groups documents by content hash.
type ExactDeduplicator struct {
	cfg ExactConfig
}

// NewExactDeduplicator returns an exact deduplicator.
func NewExactDeduplicator(cfg ExactConfig) *ExactDeduplicator {
	return &ExactDeduplicator{cfg: cfg}
}

// Deduplicate returns the unique set of documents in input order, plus the
// duplicate groups found. Running it twice is idempotent.
func (d *ExactDeduplicator) Deduplicate(docs []filter.Document, progress filter.ProgressFunc) *Result {
	result := &Result{OriginalCount: len(docs)}
	if len(docs) == 0 {
		return result
	}

	hashes := make([]uint64, len(docs))
	for i, doc := range docs {
		hashes[i] = HashText(doc.Text, d.cfg.Algorithm)
		if progress != nil {
			progress(i+1, len(docs), nil)
		}
	}

	groupIndex := make(map[uint64][]int)
	order := make([]uint64, 0, len(docs))
	for i, h := range hashes {
		if _, seen := groupIndex[h]; !seen {
			order = append(order, h)
		}
		groupIndex[h] = append(groupIndex[h], i)
	}

	kept := make([]int, 0, len(order))
	for _, h := range order {
		indices := groupIndex[h]
		if d.cfg.KeepLast {
			kept = append(kept, indices[len(indices)-1])
		} else {
			kept = append(kept, indices[0])
		}
		if len(indices) > 1 {
			result.DuplicateGroups = append(result.DuplicateGroups, Group{Hash: h, Indices: indices})
		}
	}

	sort.Ints(kept)
	for _, idx := range kept {
		result.UniqueDocuments = append(result.UniqueDocuments, docs[idx])
		result.OriginalIndices = append(result.OriginalIndices, idx)
	}

	return result
}

// DeduplicateStream copies unique lines from r to w, maintaining a seen
// set. Empty lines are skipped.
func (d *ExactDeduplicator) DeduplicateStream(r io.Reader, w io.Writer) error {
	seen := make(map[uint64]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	bw := bufio.NewWriter(w)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		h := HashText(line, d.cfg.Algorithm)
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}

		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("failed to write unique line: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write unique line: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stream: %w", err)
	}

	return bw.Flush()
}
