package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ModeEric/RapidSift/internal/content"
	"github.com/ModeEric/RapidSift/internal/corpusio"
	"github.com/ModeEric/RapidSift/internal/counter"
	"github.com/ModeEric/RapidSift/internal/filter"
	"github.com/ModeEric/RapidSift/internal/model"
	"github.com/ModeEric/RapidSift/internal/pipeline"
	"github.com/ModeEric/RapidSift/internal/progress"
	"github.com/ModeEric/RapidSift/internal/quality"
)

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Filter documents by text quality",
	Long: `Run the quality battery over a corpus: length bounds, gibberish
detection, repetition analysis, formatting checks, source metadata, and
model-based scoring.`,
	RunE: runQuality,
}

func init() {
	qualityCmd.Flags().Int("min-words", 0, "Minimum word count")
	qualityCmd.Flags().Int("max-words", 0, "Maximum word count")
	qualityCmd.Flags().Int("min-chars", 0, "Minimum non-whitespace characters")
	qualityCmd.Flags().Int("max-chars", 0, "Maximum non-whitespace characters")
	qualityCmd.Flags().Float64("max-non-alpha", 0, "Maximum non-alphabetic ratio")
	qualityCmd.Flags().Float64("min-entropy", 0, "Minimum character entropy (bits)")
	qualityCmd.Flags().Bool("benchmark", false, "Report throughput timing")
	qualityCmd.Flags().Bool("analyze", false, "Print per-document decisions instead of writing output")
}

func runQuality(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogger(verbose)

	// Flag overrides on top of the config file.
	if n, _ := cmd.Flags().GetInt("min-words"); n > 0 {
		cfg.Length.MinWords = n
	}
	if n, _ := cmd.Flags().GetInt("max-words"); n > 0 {
		cfg.Length.MaxWords = n
	}
	if n, _ := cmd.Flags().GetInt("min-chars"); n > 0 {
		cfg.Length.MinChars = n
	}
	if n, _ := cmd.Flags().GetInt("max-chars"); n > 0 {
		cfg.Length.MaxChars = n
	}
	if v, _ := cmd.Flags().GetFloat64("max-non-alpha"); v > 0 {
		cfg.Gibberish.MaxNonAlphaRatio = v
	}
	if v, _ := cmd.Flags().GetFloat64("min-entropy"); v > 0 {
		cfg.Gibberish.MinEntropy = v
	}
	if n, _ := cmd.Flags().GetInt("threads"); n > 0 {
		cfg.NumThreads = n
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	modelFilter, err := model.NewFilter(cfg.Model)
	if err != nil {
		return err
	}

	processor, err := filter.NewProcessor(cfg,
		quality.NewLengthFilter(cfg.Length),
		quality.NewGibberishFilter(cfg.Gibberish),
		quality.NewRepetitionFilter(cfg.Repetition),
		quality.NewFormatFilter(cfg.Format),
		content.NewMetadataFilter(cfg.Metadata),
		modelFilter,
	)
	if err != nil {
		return err
	}

	docs, err := loadInput(cmd)
	if err != nil {
		return err
	}

	reporter := progress.NewReporter(os.Stderr, "Filtering")
	runner := &pipeline.Runner{
		Processor:  processor,
		NumThreads: cfg.NumThreads,
		ChunkSize:  cfg.ChunkSize,
		Progress: func(processed, total int, _ *filter.Stats) {
			reporter.Update(processed, total)
		},
	}

	start := time.Now()
	assessments, stats, runErr := runner.Run(cmd.Context(), docs)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	elapsed := time.Since(start)

	// On cancellation the partial results are still flushed; the
	// cancellation error propagates afterwards for the exit code.
	if analyze, _ := cmd.Flags().GetBool("analyze"); analyze {
		printAnalysis(assessments)
	} else if err := writeKept(cmd, assessments); err != nil {
		return err
	}

	if benchmark, _ := cmd.Flags().GetBool("benchmark"); benchmark {
		words, _ := counter.New(counter.Words)
		totalWords := 0
		for i := range docs {
			totalWords += words.Count(docs[i].Text)
		}

		rate := float64(stats.TotalProcessed) / elapsed.Seconds()
		fmt.Fprintf(os.Stderr, "processed %d documents (%d words) in %s (%.0f docs/s)\n",
			stats.TotalProcessed, totalWords, elapsed.Round(time.Millisecond), rate)
	}

	if err := finishRun(cmd, stats); err != nil {
		return err
	}

	return runErr
}

// printAnalysis dumps each document's verdict and per-filter decisions.
func printAnalysis(assessments []*filter.Assessment) {
	for _, a := range assessments {
		if a == nil {
			continue
		}
		fmt.Printf("%s\t%s\t%.3f\n", a.Document.ID, a.FinalResult, a.OverallScore)
		for _, d := range a.Decisions {
			fmt.Printf("  %-14s %-8s %.2f  %s\n", d.Filter, d.Result, d.Confidence, d.Details)
		}
	}
}

// loadInput reads the corpus named by the shared input/format flags.
func loadInput(cmd *cobra.Command) ([]filter.Document, error) {
	input, _ := cmd.Flags().GetString("input")
	formatName, _ := cmd.Flags().GetString("format")

	format, err := corpusio.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	return corpusio.LoadDocuments(input, format)
}

// writeKept emits kept and sanitized documents to the output file, using
// sanitized text when present.
func writeKept(cmd *cobra.Command, assessments []*filter.Assessment) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return nil
	}

	formatName, _ := cmd.Flags().GetString("format")
	format, err := corpusio.ParseFormat(formatName)
	if err != nil {
		return err
	}

	var kept []filter.Document
	for _, a := range assessments {
		if a == nil || a.FinalResult == filter.ResultReject {
			continue
		}
		doc := a.Document
		if a.SanitizedText != "" {
			doc.Text = a.SanitizedText
		}
		kept = append(kept, doc)
	}

	return corpusio.SaveDocuments(output, kept, format)
}

// finishRun writes the stats file when requested.
func finishRun(cmd *cobra.Command, stats *filter.Stats) error {
	statsPath, _ := cmd.Flags().GetString("stats")
	if statsPath == "" {
		return nil
	}
	return corpusio.WriteStats(statsPath, stats)
}
