package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ModeEric/RapidSift/internal/content"
	"github.com/ModeEric/RapidSift/internal/corpusio"
	"github.com/ModeEric/RapidSift/internal/filter"
	"github.com/ModeEric/RapidSift/internal/pipeline"
	"github.com/ModeEric/RapidSift/internal/progress"
)

// loadDomainFile reads a one-domain-per-line list file.
func loadDomainFile(path string) ([]string, error) {
	return corpusio.LoadDomainList(path)
}

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Filter documents for content safety and compliance",
	Long: `Run the content battery over a corpus: domain and URL checks,
toxicity scoring, PII detection and sanitization, and license
compliance.`,
	RunE: runContent,
}

func init() {
	contentCmd.Flags().String("blocked-domains", "", "Comma-separated blocked domains, or @file for a domain list file")
	contentCmd.Flags().String("allowed-domains", "", "Comma-separated allowed domains, or @file for a domain list file")
	contentCmd.Flags().Bool("block-ip-urls", false, "Reject documents from IP-literal URLs")
	contentCmd.Flags().Float64("toxicity-threshold", 0, "Overall toxicity rejection threshold")
	contentCmd.Flags().Float64("hate-threshold", 0, "Hate-speech rejection threshold")
	contentCmd.Flags().Float64("nsfw-threshold", 0, "NSFW rejection threshold")
	contentCmd.Flags().Bool("remove-emails", false, "Detect and remove email addresses")
	contentCmd.Flags().Bool("remove-phones", false, "Detect and remove phone numbers")
	contentCmd.Flags().Bool("remove-ssn", false, "Detect and remove SSNs")
	contentCmd.Flags().Bool("use-placeholders", false, "Replace PII with [EMAIL]-style placeholders")
	contentCmd.Flags().Bool("sanitize-mode", false, "Sanitize documents instead of rejecting where possible")
	contentCmd.Flags().Bool("strict-mode", false, "Reject on the first violating filter")
	contentCmd.MarkFlagsMutuallyExclusive("sanitize-mode", "strict-mode")
}

func runContent(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogger(verbose)

	if domains, err := domainListFlag(cmd, "blocked-domains"); err != nil {
		return err
	} else if len(domains) > 0 {
		cfg.Metadata.BlockedDomains = append(cfg.Metadata.BlockedDomains, domains...)
		cfg.License.BlockedDomains = append(cfg.License.BlockedDomains, domains...)
	}
	if domains, err := domainListFlag(cmd, "allowed-domains"); err != nil {
		return err
	} else if len(domains) > 0 {
		cfg.Metadata.AllowedDomains = append(cfg.Metadata.AllowedDomains, domains...)
		cfg.License.AllowedDomains = append(cfg.License.AllowedDomains, domains...)
	}

	if v, _ := cmd.Flags().GetBool("block-ip-urls"); v {
		cfg.Metadata.BlockIPURLs = true
	}
	if v, _ := cmd.Flags().GetFloat64("toxicity-threshold"); v > 0 {
		cfg.Toxicity.ToxicityThreshold = v
	}
	if v, _ := cmd.Flags().GetFloat64("hate-threshold"); v > 0 {
		cfg.Toxicity.HateThreshold = v
	}
	if v, _ := cmd.Flags().GetFloat64("nsfw-threshold"); v > 0 {
		cfg.Toxicity.NSFWThreshold = v
	}
	if v, _ := cmd.Flags().GetBool("remove-emails"); v {
		cfg.PII.RemoveEmails = true
	}
	if v, _ := cmd.Flags().GetBool("remove-phones"); v {
		cfg.PII.RemovePhones = true
	}
	if v, _ := cmd.Flags().GetBool("remove-ssn"); v {
		cfg.PII.RemoveSSNs = true
	}
	if v, _ := cmd.Flags().GetBool("use-placeholders"); v {
		cfg.PII.UsePlaceholders = true
	}
	if v, _ := cmd.Flags().GetBool("sanitize-mode"); v {
		cfg.Mode = "sanitize"
	}
	if v, _ := cmd.Flags().GetBool("strict-mode"); v {
		cfg.Mode = "strict"
	}
	if n, _ := cmd.Flags().GetInt("threads"); n > 0 {
		cfg.NumThreads = n
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	processor, err := filter.NewProcessor(cfg,
		content.NewMetadataFilter(cfg.Metadata),
		content.NewToxicityFilter(cfg.Toxicity),
		content.NewPIIFilter(cfg.PII),
		content.NewLicenseFilter(cfg.License),
	)
	if err != nil {
		return err
	}

	docs, err := loadInput(cmd)
	if err != nil {
		return err
	}

	reporter := progress.NewReporter(os.Stderr, "Screening")
	runner := &pipeline.Runner{
		Processor:  processor,
		NumThreads: cfg.NumThreads,
		ChunkSize:  cfg.ChunkSize,
		Progress: func(processed, total int, _ *filter.Stats) {
			reporter.Update(processed, total)
		},
	}

	assessments, stats, runErr := runner.Run(cmd.Context(), docs)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	// On cancellation the partial results are still flushed; the
	// cancellation error propagates afterwards for the exit code.
	if err := writeKept(cmd, assessments); err != nil {
		return err
	}

	if err := finishRun(cmd, stats); err != nil {
		return err
	}

	return runErr
}

// domainListFlag parses a comma-separated domain flag; an @path value
// loads a domain list file instead.
func domainListFlag(cmd *cobra.Command, name string) ([]string, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return nil, nil
	}

	if strings.HasPrefix(value, "@") {
		return loadDomainFile(value[1:])
	}

	var domains []string
	for _, d := range strings.Split(value, ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	return domains, nil
}
