package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
)

// evenRejector rejects documents whose id parses to an even number.
type evenRejector struct{}

func (evenRejector) Name() string                   { return "even" }
func (evenRejector) Configure(*config.Config) error { return nil }
func (evenRejector) Evaluate(doc *filter.Document) filter.Decision {
	n, err := strconv.Atoi(doc.ID)
	if err != nil {
		return filter.Unknown("bad id")
	}
	if n%2 == 0 {
		return filter.Reject(filter.ReasonCustom, 0.9, "even id")
	}
	return filter.Keep(1.0, "odd id")
}

func makeDocs(n int) []filter.Document {
	docs := make([]filter.Document, n)
	for i := range docs {
		docs[i] = filter.Document{ID: strconv.Itoa(i), Text: fmt.Sprintf("document number %d", i)}
	}
	return docs
}

func newRunner(t *testing.T, threads, chunkSize int) *Runner {
	t.Helper()
	cfg := config.Default()
	p, err := filter.NewProcessor(cfg, evenRejector{})
	if err != nil {
		t.Fatal(err)
	}
	return &Runner{Processor: p, NumThreads: threads, ChunkSize: chunkSize}
}

func TestRunner_PreservesInputOrder(t *testing.T) {
	r := newRunner(t, 8, 7)

	docs := makeDocs(100)
	assessments, _, err := r.Run(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}

	if len(assessments) != 100 {
		t.Fatalf("assessments = %d, want 100", len(assessments))
	}
	for i, a := range assessments {
		if a == nil {
			t.Fatalf("assessment %d missing", i)
		}
		if a.Document.ID != strconv.Itoa(i) {
			t.Fatalf("assessment %d holds document %s", i, a.Document.ID)
		}
	}
}

func TestRunner_CountersSum(t *testing.T) {
	r := newRunner(t, 4, 16)

	_, stats, err := r.Run(context.Background(), makeDocs(99))
	if err != nil {
		t.Fatal(err)
	}

	if stats.TotalProcessed != 99 {
		t.Errorf("total = %d, want 99", stats.TotalProcessed)
	}
	if stats.Kept+stats.Rejected+stats.Sanitized != stats.TotalProcessed {
		t.Errorf("kept %d + rejected %d + sanitized %d != total %d",
			stats.Kept, stats.Rejected, stats.Sanitized, stats.TotalProcessed)
	}
	if stats.Rejected != 50 {
		t.Errorf("rejected = %d, want 50 even ids", stats.Rejected)
	}
}

func TestRunner_EmptyBatch(t *testing.T) {
	r := newRunner(t, 2, 8)

	assessments, stats, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(assessments) != 0 || stats.TotalProcessed != 0 {
		t.Errorf("empty batch produced %d assessments, %d processed", len(assessments), stats.TotalProcessed)
	}
}

func TestRunner_Cancellation(t *testing.T) {
	r := newRunner(t, 2, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before the run starts

	_, _, err := r.Run(ctx, makeDocs(50))
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !strings.Contains(err.Error(), "context canceled") {
		t.Errorf("error = %v, want context cancellation", err)
	}
}

func TestRunner_ProgressReachesTotal(t *testing.T) {
	cfg := config.Default()
	p, err := filter.NewProcessor(cfg, evenRejector{})
	if err != nil {
		t.Fatal(err)
	}

	maxSeen := 0
	r := &Runner{
		Processor: p,
		ChunkSize: 10,
		Progress: func(processed, total int, _ *filter.Stats) {
			if processed > maxSeen {
				maxSeen = processed
			}
		},
		NumThreads: 1,
	}

	if _, _, err := r.Run(context.Background(), makeDocs(25)); err != nil {
		t.Fatal(err)
	}
	if maxSeen != 25 {
		t.Errorf("max progress = %d, want 25", maxSeen)
	}
}
