// Package pipeline fans document batches out to a worker pool while
// preserving input order on output.
//
// Workers process whole chunks; statistics are merged under a single
// mutex at chunk boundaries so contention stays bounded. An external
// cancellation context is checked between documents: in-flight documents
// complete, later ones are skipped.
package pipeline

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ModeEric/RapidSift/internal/filter"
)

// Runner drives a filter processor over batches.
type Runner struct {
	Processor  *filter.Processor
	NumThreads int // 0 = all available cores
	ChunkSize  int
	Progress   filter.ProgressFunc
}

// Run assesses every document and returns the assessments in input order
// alongside the merged statistics. On cancellation the partial results up
// to the cancellation point are returned with the context error.
func (r *Runner) Run(ctx context.Context, docs []filter.Document) ([]*filter.Assessment, *filter.Stats, error) {
	stats := filter.NewStats()
	if len(docs) == 0 {
		return nil, stats, nil
	}

	threads := r.NumThreads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	chunkSize := r.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 256
	}

	results := make([]*filter.Assessment, len(docs))

	var (
		statsMu   sync.Mutex
		processed atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)

	for start := 0; start < len(docs); start += chunkSize {
		end := start + chunkSize
		if end > len(docs) {
			end = len(docs)
		}
		start, end := start, end

		g.Go(func() error {
			chunkStats := filter.NewStats()

			for i := start; i < end; i++ {
				// Cancellation is honored between documents.
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				assessment := r.Processor.Assess(&docs[i])
				results[i] = assessment
				chunkStats.Record(assessment)

				if r.Progress != nil {
					n := int(processed.Add(1))
					r.Progress(n, len(docs), nil)
				}
			}

			// Stats merge happens once per chunk, not per document.
			statsMu.Lock()
			stats.Merge(chunkStats)
			statsMu.Unlock()

			return nil
		})
	}

	err := g.Wait()

	for name, d := range r.Processor.Timings() {
		stats.FilterTimings[name] = d
	}

	return results, stats, err
}
