// Command rapidsift filters, deduplicates, and decontaminates text
// corpora for training-data preparation.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ModeEric/RapidSift/internal/config"
)

// exit codes: 0 success, 1 error, 2 cancelled.
const (
	exitError     = 1
	exitCancelled = 2
)

var rootCmd = &cobra.Command{
	Use:   "rapidsift",
	Short: "High-throughput corpus curation pipeline",
	Long: `RapidSift prepares large text corpora for model training: quality
filtering, content safety, deduplication, benchmark decontamination,
language identification, and HTML text extraction.

Examples:
  rapidsift quality -i corpus.txt -o filtered.txt --min-words 10
  rapidsift content -i corpus.jsonl -f json --sanitize-mode --remove-emails
  rapidsift dedup -i corpus.txt -o unique.txt --mode exact --algorithm xxhash
  rapidsift dedup -i pages.jsonl -f json --mode extract --html-input`,
	SilenceUsage: true,
}

// setupLogger configures the default slog logger based on verbosity.
func setupLogger(verbose bool) {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadConfig layers the config file (if any) under flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func init() {
	for _, cmd := range []*cobra.Command{qualityCmd, contentCmd, dedupCmd} {
		cmd.Flags().StringP("input", "i", "", "Input corpus file (- for stdin)")
		cmd.Flags().StringP("output", "o", "", "Output file for kept documents")
		cmd.Flags().StringP("format", "f", "text", "Corpus format: text or json")
		cmd.Flags().StringP("config", "c", "", "Configuration file (.yaml or .json)")
		cmd.Flags().String("stats", "", "Write run statistics JSON to this file")
		cmd.Flags().Int("threads", 0, "Worker threads (0 = all cores)")
		cmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
		_ = cmd.MarkFlagRequired("input")
	}

	rootCmd.AddCommand(qualityCmd, contentCmd, dedupCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "cancelled")
			os.Exit(exitCancelled)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}
