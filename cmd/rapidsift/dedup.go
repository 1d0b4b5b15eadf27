package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ModeEric/RapidSift/internal/corpusio"
	"github.com/ModeEric/RapidSift/internal/decontam"
	"github.com/ModeEric/RapidSift/internal/dedup"
	"github.com/ModeEric/RapidSift/internal/extract"
	"github.com/ModeEric/RapidSift/internal/filter"
	"github.com/ModeEric/RapidSift/internal/lang"
	"github.com/ModeEric/RapidSift/internal/progress"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Deduplicate, decontaminate, language-filter, or extract",
	Long: `Corpus transformation modes:

  exact      remove byte-identical duplicates by content hash
  near       remove near-duplicates (MinHash+LSH, SimHash, or TF-IDF)
  language   keep documents in the target languages
  extract    convert HTML documents to cleaned main text
  benchmark  flag documents contaminated with benchmark data`,
	RunE: runDedup,
}

func init() {
	dedupCmd.Flags().String("mode", "exact", "exact|near|language|extract|benchmark")
	dedupCmd.Flags().String("algorithm", "xxhash", "Exact-dedup hash: md5|sha1|sha256|xxhash")
	dedupCmd.Flags().Bool("keep-last", false, "Keep the last occurrence of each duplicate group")
	dedupCmd.Flags().String("method", "minhash", "Near-dedup method: minhash|simhash|tfidf")
	dedupCmd.Flags().Float64("threshold", 0, "Near-dedup similarity threshold")

	// language mode
	dedupCmd.Flags().String("languages", "", "Comma-separated target languages (ISO 639-1)")
	dedupCmd.Flags().Float64("min-confidence", 0, "Minimum detection confidence")
	dedupCmd.Flags().Int("min-length", 0, "Minimum text length for detection")
	dedupCmd.Flags().Bool("mixed-languages", false, "Keep documents with mixed scripts")
	dedupCmd.Flags().Bool("lang-stats", false, "Print language distribution only")

	// extract mode
	dedupCmd.Flags().Bool("html-input", false, "Treat document text as HTML")
	dedupCmd.Flags().Bool("extract-title", false, "Print extracted titles")
	dedupCmd.Flags().Bool("remove-boilerplate", true, "Drop navigation/ads/headers/footers")
	dedupCmd.Flags().Float64("min-text-ratio", 0, "Minimum text/HTML ratio for validity")
	dedupCmd.Flags().Float64("quality-threshold", 0, "Minimum extraction quality score")
	dedupCmd.Flags().String("extraction-report", "", "Write a per-document extraction report")
	dedupCmd.Flags().Bool("markdown", false, "Emit extracted documents as Markdown instead of plain text")
	dedupCmd.Flags().String("engine", "tree", "Extraction engine: tree|readability|selector")
	dedupCmd.Flags().String("selector", "", "CSS selector for the selector engine")

	// benchmark mode
	dedupCmd.Flags().StringSlice("benchmark-file", nil, "Benchmark reference file (repeatable)")
	dedupCmd.Flags().StringSlice("benchmark-dir", nil, "Directory of benchmark files (repeatable)")
	dedupCmd.Flags().Int("ngram-size", 0, "Decontamination n-gram size")
}

func runDedup(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogger(verbose)

	mode, _ := cmd.Flags().GetString("mode")
	switch strings.ToLower(mode) {
	case "exact":
		return runExact(cmd)
	case "near":
		return runNear(cmd)
	case "language":
		return runLanguage(cmd)
	case "extract":
		return runExtract(cmd)
	case "benchmark":
		return runBenchmark(cmd)
	default:
		return fmt.Errorf("unknown mode %q (want exact, near, language, extract, or benchmark)", mode)
	}
}

func runExact(cmd *cobra.Command) error {
	algName, _ := cmd.Flags().GetString("algorithm")
	algorithm, err := dedup.ParseAlgorithm(algName)
	if err != nil {
		return err
	}
	keepLast, _ := cmd.Flags().GetBool("keep-last")

	docs, err := loadInput(cmd)
	if err != nil {
		return err
	}

	reporter := progress.NewReporter(os.Stderr, "Hashing")
	d := dedup.NewExactDeduplicator(dedup.ExactConfig{Algorithm: algorithm, KeepLast: keepLast})
	result := d.Deduplicate(docs, func(processed, total int, _ *filter.Stats) {
		reporter.Update(processed, total)
	})

	printDedupSummary(result)
	return writeDedupOutput(cmd, result)
}

func runNear(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	methodName, _ := cmd.Flags().GetString("method")
	method, err := dedup.ParseMethod(methodName)
	if err != nil {
		return err
	}

	nearCfg := dedup.NearConfig{
		Method:          method,
		Threshold:       cfg.Dedup.Threshold,
		NumPermutations: cfg.Dedup.NumPermutations,
		NgramSize:       cfg.Dedup.NgramSize,
		SimHashBits:     cfg.Dedup.SimHashBits,
		Bands:           cfg.Dedup.Bands,
		RowsPerBand:     cfg.Dedup.RowsPerBand,
		Seed:            cfg.Dedup.Seed,
	}
	if v, _ := cmd.Flags().GetFloat64("threshold"); v > 0 {
		nearCfg.Threshold = v
	}

	d, err := dedup.NewNearDeduplicator(nearCfg)
	if err != nil {
		return err
	}

	docs, err := loadInput(cmd)
	if err != nil {
		return err
	}

	reporter := progress.NewReporter(os.Stderr, "Comparing")
	result := d.Deduplicate(docs, func(processed, total int, _ *filter.Stats) {
		reporter.Update(processed, total)
	})

	printDedupSummary(result)
	return writeDedupOutput(cmd, result)
}

func runLanguage(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if langs, _ := cmd.Flags().GetString("languages"); langs != "" {
		cfg.Language.TargetLanguages = strings.Split(langs, ",")
	}
	if v, _ := cmd.Flags().GetFloat64("min-confidence"); v > 0 {
		cfg.Language.MinConfidence = v
	}
	if n, _ := cmd.Flags().GetInt("min-length"); n > 0 {
		cfg.Language.MinTextLength = n
	}
	if mixed, _ := cmd.Flags().GetBool("mixed-languages"); mixed {
		cfg.Language.RejectMixed = false
	}

	langFilter := lang.NewFilter(cfg.Language)

	docs, err := loadInput(cmd)
	if err != nil {
		return err
	}

	var kept []filter.Document
	for i := range docs {
		decision := langFilter.Evaluate(&docs[i])
		if decision.Result != filter.ResultReject {
			kept = append(kept, docs[i])
		}
	}

	if statsOnly, _ := cmd.Flags().GetBool("lang-stats"); statsOnly {
		counts := langFilter.LanguageCounts()
		languages := make([]string, 0, len(counts))
		for l := range counts {
			languages = append(languages, l)
		}
		sort.Strings(languages)
		for _, l := range languages {
			fmt.Printf("%s\t%d\n", l, counts[l])
		}
		return nil
	}

	fmt.Fprintf(os.Stderr, "kept %d of %d documents\n", len(kept), len(docs))

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return nil
	}
	formatName, _ := cmd.Flags().GetString("format")
	format, err := corpusio.ParseFormat(formatName)
	if err != nil {
		return err
	}
	return corpusio.SaveDocuments(output, kept, format)
}

func runExtract(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetFloat64("min-text-ratio"); v > 0 {
		cfg.Extract.MinTextRatio = v
	}
	if v, _ := cmd.Flags().GetFloat64("quality-threshold"); v > 0 {
		cfg.Extract.QualityThreshold = v
	}
	if remove, _ := cmd.Flags().GetBool("remove-boilerplate"); !remove {
		cfg.Extract.RemoveNavigation = false
		cfg.Extract.RemoveHeadersFooters = false
		cfg.Extract.RemoveAds = false
	}

	docs, err := loadInput(cmd)
	if err != nil {
		return err
	}

	extractor := extract.NewExtractor(cfg.Extract)
	reporter := progress.NewReporter(os.Stderr, "Extracting")

	printTitles, _ := cmd.Flags().GetBool("extract-title")
	asMarkdown, _ := cmd.Flags().GetBool("markdown")

	engine, _ := cmd.Flags().GetString("engine")
	selector, _ := cmd.Flags().GetString("selector")
	switch engine {
	case "", "tree", "readability", "selector":
	default:
		return fmt.Errorf("unknown extraction engine %q (want tree, readability, or selector)", engine)
	}
	if engine == "selector" && selector == "" {
		return fmt.Errorf("the selector engine requires --selector")
	}

	var kept []filter.Document
	var report []extract.Result

	for i := range docs {
		var result extract.Result
		switch engine {
		case "", "tree":
			result = extractor.Extract(docs[i].Text, docs[i].URL)
		case "readability":
			r, err := extractor.ExtractReadability(docs[i].Text, docs[i].URL)
			if err != nil {
				reporter.Update(i+1, len(docs))
				report = append(report, extract.Result{URL: docs[i].URL})
				continue
			}
			result = r
		case "selector":
			r, err := extractor.ExtractSelector(docs[i].Text, selector, docs[i].URL)
			if err != nil {
				reporter.Update(i+1, len(docs))
				report = append(report, extract.Result{URL: docs[i].URL})
				continue
			}
			result = r
		}
		reporter.Update(i+1, len(docs))
		report = append(report, result)

		if printTitles && result.Title != "" {
			fmt.Printf("%s\t%s\n", docs[i].ID, result.Title)
		}

		if !result.Valid() || result.TextRatio < cfg.Extract.MinTextRatio {
			continue
		}
		if cfg.Extract.QualityThreshold > 0 && result.QualityScore() < cfg.Extract.QualityThreshold {
			continue
		}

		doc := docs[i]
		doc.Text = result.Text
		if asMarkdown {
			if markdown, err := extract.ToMarkdown(docs[i].Text); err == nil {
				doc.Text = markdown
			}
		}
		kept = append(kept, doc)
	}

	if reportPath, _ := cmd.Flags().GetString("extraction-report"); reportPath != "" {
		if err := writeExtractionReport(reportPath, docs, report); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "extracted %d of %d documents\n", len(kept), len(docs))

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return nil
	}
	formatName, _ := cmd.Flags().GetString("format")
	format, err := corpusio.ParseFormat(formatName)
	if err != nil {
		return err
	}
	return corpusio.SaveDocuments(output, kept, format)
}

func runBenchmark(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if files, _ := cmd.Flags().GetStringSlice("benchmark-file"); len(files) > 0 {
		cfg.Decontam.BenchmarkFiles = append(cfg.Decontam.BenchmarkFiles, files...)
	}
	if dirs, _ := cmd.Flags().GetStringSlice("benchmark-dir"); len(dirs) > 0 {
		cfg.Decontam.BenchmarkDirs = append(cfg.Decontam.BenchmarkDirs, dirs...)
	}
	if n, _ := cmd.Flags().GetInt("ngram-size"); n > 0 {
		cfg.Decontam.NgramSize = n
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	decontamFilter := decontam.New(cfg.Decontam)
	if decontamFilter.NgramCount() == 0 {
		return fmt.Errorf("no benchmark n-grams loaded; pass --benchmark-file or --benchmark-dir")
	}

	docs, err := loadInput(cmd)
	if err != nil {
		return err
	}

	reporter := progress.NewReporter(os.Stderr, "Checking")

	var kept []filter.Document
	for i := range docs {
		a := decontamFilter.Assess(&docs[i])
		reporter.Update(i+1, len(docs))
		if !a.IsContaminated {
			kept = append(kept, docs[i])
			continue
		}
		fmt.Fprintf(os.Stderr, "contaminated: %s (%d matches, source %s)\n",
			docs[i].ID, len(a.Matches), a.MostLikelySource)
	}

	stats := decontamFilter.Stats()
	fmt.Fprintf(os.Stderr, "clean %d / contaminated %d of %d documents\n",
		stats.CleanDocuments, stats.ContaminatedDocuments, stats.TotalDocuments)

	if statsPath, _ := cmd.Flags().GetString("stats"); statsPath != "" {
		runStats := filter.NewStats()
		runStats.TotalProcessed = stats.TotalDocuments
		runStats.Kept = stats.CleanDocuments
		runStats.Rejected = stats.ContaminatedDocuments
		if stats.ContaminatedDocuments > 0 {
			runStats.RejectionCounts[filter.ReasonContamination] = stats.ContaminatedDocuments
		}
		for ds, n := range stats.ContaminationByDataset {
			runStats.ContaminationByDataset[ds] = n
		}
		if decontamFilter.Degraded() {
			runStats.DegradedFilters = append(runStats.DegradedFilters, decontamFilter.Name())
		}
		if err := corpusio.WriteStats(statsPath, runStats); err != nil {
			return err
		}
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return nil
	}
	formatName, _ := cmd.Flags().GetString("format")
	format, err := corpusio.ParseFormat(formatName)
	if err != nil {
		return err
	}
	return corpusio.SaveDocuments(output, kept, format)
}

func printDedupSummary(result *dedup.Result) {
	fmt.Fprintf(os.Stderr, "original %d, unique %d, removed %d (%.1f%%), groups %d\n",
		result.OriginalCount, len(result.UniqueDocuments), result.DuplicatesRemoved(),
		result.ReductionPercentage(), len(result.DuplicateGroups))
}

func writeDedupOutput(cmd *cobra.Command, result *dedup.Result) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return nil
	}

	formatName, _ := cmd.Flags().GetString("format")
	format, err := corpusio.ParseFormat(formatName)
	if err != nil {
		return err
	}

	return corpusio.SaveDocuments(output, result.UniqueDocuments, format)
}

// writeExtractionReport writes one line per document with extraction
// metrics.
func writeExtractionReport(path string, docs []filter.Document, results []extract.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create extraction report: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "id\tvalid\tquality\ttext_ratio\tparagraphs\tlink_density\ttitle")
	for i, r := range results {
		fmt.Fprintf(f, "%s\t%t\t%.3f\t%.3f\t%d\t%.2f\t%s\n",
			docs[i].ID, r.Valid(), r.QualityScore(), r.TextRatio, r.ParagraphCount, r.LinkDensity, r.Title)
	}

	return nil
}
