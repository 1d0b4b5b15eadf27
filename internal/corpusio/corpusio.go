// Package corpusio reads and writes document corpora, domain lists, and
// statistics files.
//
// Corpus files may be plain text (one document per line), JSON (an array
// of document records or newline-delimited records), or any of those
// wrapped in zstd compression (a .zst suffix on the underlying format).
package corpusio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/valyala/gozstd"

	"github.com/ModeEric/RapidSift/internal/filter"
)

// MaxFileSizeBytes bounds corpus reads to keep a misconfigured input from
// exhausting memory.
const MaxFileSizeBytes = 2 * 1024 * 1024 * 1024

// limitedReader wraps a reader to enforce a byte budget.
type limitedReader struct {
	r      io.Reader
	n      int64
	source string
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n <= 0 {
		return 0, fmt.Errorf("content from %q exceeds size limit", l.source)
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	return n, err
}

// Open returns a reader for source: "-" reads stdin, a path ending in
// .zst is transparently decompressed, anything else is a plain file.
// The returned closer releases decompression state when applicable.
func Open(source string) (io.Reader, func(), error) {
	var raw io.ReadCloser
	switch source {
	case "-":
		raw = io.NopCloser(os.Stdin)
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %w", source, err)
		}
		raw = f
	}

	limited := &limitedReader{r: raw, n: MaxFileSizeBytes, source: source}

	if strings.HasSuffix(source, ".zst") {
		zr := gozstd.NewReader(limited)
		return zr, func() {
			zr.Release()
			raw.Close()
		}, nil
	}

	return limited, func() { raw.Close() }, nil
}

// Create returns a writer for path, compressing when it ends in .zst. The
// returned closer flushes and closes everything.
func Create(path string) (io.Writer, func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".zst") {
		zw := gozstd.NewWriter(f)
		return zw, func() error {
			if err := zw.Close(); err != nil {
				f.Close()
				return err
			}
			zw.Release()
			return f.Close()
		}, nil
	}

	bw := bufio.NewWriter(f)
	return bw, func() error {
		if err := bw.Flush(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}, nil
}

// Format names a corpus serialization.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseFormat maps "text" or "json" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown format %q (want text or json)", s)
	}
}

// LoadDocuments reads a corpus from source in the given format. Text input
// assigns sequential ids; JSON input may be a top-level array or
// newline-delimited records. Malformed JSON or invalid UTF-8 aborts the
// batch.
func LoadDocuments(source string, format Format) ([]filter.Document, error) {
	r, done, err := Open(source)
	if err != nil {
		return nil, err
	}
	defer done()

	switch format {
	case FormatJSON:
		return readJSON(r, source)
	default:
		return readText(r, source)
	}
}

func readText(r io.Reader, source string) ([]filter.Document, error) {
	var docs []filter.Document

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	id, lineNo := 0, 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !utf8.ValidString(line) {
			return nil, fmt.Errorf("invalid UTF-8 on line %d of %s", lineNo, source)
		}
		docs = append(docs, filter.Document{ID: strconv.Itoa(id), Text: line})
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	return docs, nil
}

func readJSON(r io.Reader, source string) ([]filter.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	// Top-level array or newline-delimited records.
	if trimmed[0] == '[' {
		var docs []filter.Document
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("malformed JSON corpus %s: %w", source, err)
		}
		return fillIDs(docs), nil
	}

	var docs []filter.Document
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for dec.More() {
		var doc filter.Document
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("malformed JSON record in %s: %w", source, err)
		}
		docs = append(docs, doc)
	}

	return fillIDs(docs), nil
}

func fillIDs(docs []filter.Document) []filter.Document {
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = strconv.Itoa(i)
		}
	}
	return docs
}

// SaveDocuments writes documents to path in the given format, mirroring
// the input schemas.
func SaveDocuments(path string, docs []filter.Document, format Format) error {
	w, closeFn, err := Create(path)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(docs); err != nil {
			closeFn()
			return fmt.Errorf("failed to encode documents: %w", err)
		}
	default:
		for _, doc := range docs {
			if _, err := io.WriteString(w, strings.ReplaceAll(doc.Text, "\n", " ")+"\n"); err != nil {
				closeFn()
				return fmt.Errorf("failed to write document %s: %w", doc.ID, err)
			}
		}
	}

	return closeFn()
}

// LoadDomainList reads one domain per line; lines starting with '#' are
// comments.
func LoadDomainList(path string) ([]string, error) {
	r, done, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer done()

	var domains []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, strings.ToLower(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read domain list %s: %w", path, err)
	}

	return domains, nil
}

// LoadOptOutList reads "domain" or "domain\treason" lines into a map.
func LoadOptOutList(path string) (map[string]string, error) {
	r, done, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer done()

	entries := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, reason, _ := strings.Cut(line, "\t")
		entries[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(reason)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read opt-out list %s: %w", path, err)
	}

	return entries, nil
}

// statsDocument is the serialized statistics schema.
type statsDocument struct {
	TotalProcessed         int64            `json:"total_processed"`
	Kept                   int64            `json:"kept"`
	Rejected               int64            `json:"rejected"`
	Sanitized              int64            `json:"sanitized"`
	RejectionCounts        map[string]int64 `json:"rejection_counts"`
	RemovedPII             map[string]int64 `json:"removed_pii"`
	ContaminationByDataset map[string]int64 `json:"contamination_by_dataset"`
	LanguageCounts         map[string]int64 `json:"language_counts"`
	FilterTimingsMs        map[string]int64 `json:"filter_timings_ms"`
	DegradedFilters        []string         `json:"degraded_filters,omitempty"`
}

// WriteStats serializes run statistics as JSON.
func WriteStats(path string, stats *filter.Stats) error {
	doc := statsDocument{
		TotalProcessed:         stats.TotalProcessed,
		Kept:                   stats.Kept,
		Rejected:               stats.Rejected,
		Sanitized:              stats.Sanitized,
		RejectionCounts:        make(map[string]int64, len(stats.RejectionCounts)),
		RemovedPII:             stats.RemovedPII,
		ContaminationByDataset: stats.ContaminationByDataset,
		LanguageCounts:         stats.LanguageCounts,
		FilterTimingsMs:        make(map[string]int64, len(stats.FilterTimings)),
		DegradedFilters:        stats.DegradedFilters,
	}
	for reason, n := range stats.RejectionCounts {
		doc.RejectionCounts[string(reason)] = n
	}
	for name, d := range stats.FilterTimings {
		doc.FilterTimingsMs[name] = d.Milliseconds()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}

	return nil
}

// ListBenchmarkFiles returns the benchmark-ingestible files (.txt, .json,
// .csv) under dir, keyed by basename-derived dataset names.
func ListBenchmarkFiles(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read benchmark directory %s: %w", dir, err)
	}

	files := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".txt", ".json", ".csv":
			name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			files[name] = filepath.Join(dir, e.Name())
		}
	}

	return files, nil
}
