package model

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// readUnigramCounts parses a "token count" per-line model file.
func readUnigramCounts(path string) (map[string]float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open unigram model %s: %w", path, err)
	}
	defer f.Close()

	counts := make(map[string]float64)
	total := 0.0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		n, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || n <= 0 {
			continue
		}
		counts[strings.ToLower(fields[0])] += n
		total += n
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read unigram model %s: %w", path, err)
	}

	if len(counts) == 0 {
		return nil, 0, fmt.Errorf("unigram model %s contains no usable entries", path)
	}

	return counts, total, nil
}
