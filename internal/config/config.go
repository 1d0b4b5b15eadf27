// Package config defines the configuration surface for the curation
// pipeline and loads it from YAML or JSON files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Mode selects how the orchestrator fuses filter decisions.
type Mode int

const (
	// Balanced runs every filter and fuses their outputs.
	Balanced Mode = iota
	// Strict rejects on the first rejecting filter.
	Strict
	// Sanitize substitutes sanitized text into the running document and
	// continues; rejection still short-circuits.
	Sanitize
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Sanitize:
		return "sanitize"
	default:
		return "balanced"
	}
}

// Length bounds a document's word and character counts.
type Length struct {
	MinWords int `yaml:"min_words" json:"min_words"`
	MaxWords int `yaml:"max_words" json:"max_words"`
	MinChars int `yaml:"min_chars" json:"min_chars"`
	MaxChars int `yaml:"max_chars" json:"max_chars"`
	// StrictBounds rejects when either the word or character bound is
	// violated; otherwise both must be.
	StrictBounds bool `yaml:"strict_bounds" json:"strict_bounds"`
}

// Gibberish holds thresholds for the gibberish filter.
type Gibberish struct {
	MaxNonAlphaRatio   float64  `yaml:"max_non_alpha_ratio" json:"max_non_alpha_ratio"`
	MaxDigitRatio      float64  `yaml:"max_digit_ratio" json:"max_digit_ratio"`
	MaxSymbolRatio     float64  `yaml:"max_symbol_ratio" json:"max_symbol_ratio"`
	MaxRepetitionRatio float64  `yaml:"max_repetition_ratio" json:"max_repetition_ratio"`
	MaxConsecutive     int      `yaml:"max_consecutive_chars" json:"max_consecutive_chars"`
	MinEntropy         float64  `yaml:"min_entropy" json:"min_entropy"`
	Patterns           []string `yaml:"patterns" json:"patterns"`
}

// Repetition holds thresholds for the repetition filter.
type Repetition struct {
	MaxLineRepetitionRatio  float64 `yaml:"max_line_repetition_ratio" json:"max_line_repetition_ratio"`
	MaxNgramRepetitionRatio float64 `yaml:"max_ngram_repetition_ratio" json:"max_ngram_repetition_ratio"`
	MinUniqueWords          int     `yaml:"min_unique_words" json:"min_unique_words"`
	MinUniqueWordRatio      float64 `yaml:"min_unique_word_ratio" json:"min_unique_word_ratio"`
	NgramSize               int     `yaml:"ngram_size" json:"ngram_size"`
	MaxBoilerplateRatio     float64 `yaml:"max_boilerplate_ratio" json:"max_boilerplate_ratio"`
}

// Format holds thresholds for the format filter.
type Format struct {
	MaxHTMLRatio       float64  `yaml:"max_html_ratio" json:"max_html_ratio"`
	MaxCodeRatio       float64  `yaml:"max_code_ratio" json:"max_code_ratio"`
	MaxSingleLineRatio float64  `yaml:"max_single_line_ratio" json:"max_single_line_ratio"`
	AllowLists         bool     `yaml:"allow_lists" json:"allow_lists"`
	AllowPoetry        bool     `yaml:"allow_poetry" json:"allow_poetry"`
	UnwantedPatterns   []string `yaml:"unwanted_patterns" json:"unwanted_patterns"`
}

// Metadata configures the metadata/source filter.
type Metadata struct {
	BlockedDomains     []string `yaml:"blocked_domains" json:"blocked_domains"`
	AllowedDomains     []string `yaml:"allowed_domains" json:"allowed_domains"`
	BlockedURLPatterns []string `yaml:"blocked_url_patterns" json:"blocked_url_patterns"`
	BlockedTLDs        []string `yaml:"blocked_tlds" json:"blocked_tlds"`
	SpamKeywords       []string `yaml:"spam_keywords" json:"spam_keywords"`
	BlockIPURLs        bool     `yaml:"block_ip_urls" json:"block_ip_urls"`
	CheckURLShorteners bool     `yaml:"check_url_shorteners" json:"check_url_shorteners"`
}

// Toxicity configures per-category thresholds for the toxicity filter.
type Toxicity struct {
	ToxicityThreshold    float64 `yaml:"toxicity_threshold" json:"toxicity_threshold"`
	HateThreshold        float64 `yaml:"hate_threshold" json:"hate_threshold"`
	NSFWThreshold        float64 `yaml:"nsfw_threshold" json:"nsfw_threshold"`
	ViolenceThreshold    float64 `yaml:"violence_threshold" json:"violence_threshold"`
	HarassmentThreshold  float64 `yaml:"harassment_threshold" json:"harassment_threshold"`
	ContextAware         bool    `yaml:"context_aware" json:"context_aware"`
	MedicalException     bool    `yaml:"medical_exception" json:"medical_exception"`
	EducationalException bool    `yaml:"educational_exception" json:"educational_exception"`
}

// PII configures the PII filter.
type PII struct {
	RemoveEmails      bool     `yaml:"remove_emails" json:"remove_emails"`
	RemovePhones      bool     `yaml:"remove_phones" json:"remove_phones"`
	RemoveSSNs        bool     `yaml:"remove_ssns" json:"remove_ssns"`
	RemoveCreditCards bool     `yaml:"remove_credit_cards" json:"remove_credit_cards"`
	RemoveIPAddresses bool     `yaml:"remove_ip_addresses" json:"remove_ip_addresses"`
	RemoveAddresses   bool     `yaml:"remove_addresses" json:"remove_addresses"`
	RemoveNames       bool     `yaml:"remove_names" json:"remove_names"`
	UsePlaceholders   bool     `yaml:"use_placeholders" json:"use_placeholders"`
	Anonymize         bool     `yaml:"anonymize" json:"anonymize"`
	CustomPatterns    []string `yaml:"custom_patterns" json:"custom_patterns"`
	SafeDomains       []string `yaml:"safe_domains" json:"safe_domains"`
}

// License configures the license/copyright compliance filter.
type License struct {
	AllowedDomains      []string `yaml:"allowed_domains" json:"allowed_domains"`
	BlockedDomains      []string `yaml:"blocked_domains" json:"blocked_domains"`
	PaywalledDomains    []string `yaml:"paywalled_domains" json:"paywalled_domains"`
	AllowedLicenses     []string `yaml:"allowed_licenses" json:"allowed_licenses"`
	OptOutListPath      string   `yaml:"opt_out_list" json:"opt_out_list"`
	RemovalListPath     string   `yaml:"removal_list" json:"removal_list"`
	StrictMode          bool     `yaml:"strict_mode" json:"strict_mode"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold" json:"confidence_threshold"`
}

// ModelStage names one stage of multi-stage model filtering.
type ModelStage struct {
	Model     string  `yaml:"model" json:"model"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// Model configures model-based quality filtering.
type Model struct {
	MaxPerplexity     float64      `yaml:"max_perplexity" json:"max_perplexity"`
	QualityThreshold  float64      `yaml:"quality_threshold" json:"quality_threshold"`
	MaxSequenceLength int          `yaml:"max_sequence_length" json:"max_sequence_length"`
	MultiStage        bool         `yaml:"multi_stage" json:"multi_stage"`
	Stages            []ModelStage `yaml:"stages" json:"stages"`
	ShortCircuit      bool         `yaml:"short_circuit" json:"short_circuit"`
	CachePredictions  bool         `yaml:"cache_predictions" json:"cache_predictions"`
	CacheSize         int          `yaml:"cache_size" json:"cache_size"`
	PerplexityWeight  float64      `yaml:"perplexity_weight" json:"perplexity_weight"`
	ClassifierWeight  float64      `yaml:"classifier_weight" json:"classifier_weight"`
}

// Dedup configures exact and near-duplicate detection.
type Dedup struct {
	Algorithm       string  `yaml:"algorithm" json:"algorithm"` // md5|sha1|sha256|xxhash
	KeepLast        bool    `yaml:"keep_last" json:"keep_last"`
	Method          string  `yaml:"method" json:"method"` // minhash|simhash|tfidf
	Threshold       float64 `yaml:"threshold" json:"threshold"`
	NumPermutations int     `yaml:"num_permutations" json:"num_permutations"`
	NgramSize       int     `yaml:"ngram_size" json:"ngram_size"`
	SimHashBits     int     `yaml:"simhash_bits" json:"simhash_bits"`
	Bands           int     `yaml:"bands" json:"bands"`
	RowsPerBand     int     `yaml:"rows_per_band" json:"rows_per_band"`
	// Seed fixes the MinHash permutation constants for reproducible runs.
	// Zero seeds from the system RNG.
	Seed int64 `yaml:"seed" json:"seed"`
}

// Decontam configures benchmark decontamination.
type Decontam struct {
	BenchmarkFiles         []string `yaml:"benchmark_files" json:"benchmark_files"`
	BenchmarkDirs          []string `yaml:"benchmark_dirs" json:"benchmark_dirs"`
	NgramSize              int      `yaml:"ngram_size" json:"ngram_size"`
	ContaminationThreshold float64  `yaml:"contamination_threshold" json:"contamination_threshold"`
	MinMatchesToReject     int      `yaml:"min_matches_to_reject" json:"min_matches_to_reject"`
	MaxMatchesPerDocument  int      `yaml:"max_matches_per_document" json:"max_matches_per_document"`
	UseBloomFilter         bool     `yaml:"use_bloom_filter" json:"use_bloom_filter"`
	ExpectedNgrams         int      `yaml:"expected_ngrams" json:"expected_ngrams"`
	FalsePositiveRate      float64  `yaml:"false_positive_rate" json:"false_positive_rate"`
	CaseInsensitive        bool     `yaml:"case_insensitive" json:"case_insensitive"`
	RemovePunctuation      bool     `yaml:"remove_punctuation" json:"remove_punctuation"`
	ExcludeCommonPhrases   bool     `yaml:"exclude_common_phrases" json:"exclude_common_phrases"`
}

// Language configures language identification filtering.
type Language struct {
	TargetLanguages []string `yaml:"target_languages" json:"target_languages"`
	MinConfidence   float64  `yaml:"min_confidence" json:"min_confidence"`
	MinTextLength   int      `yaml:"min_text_length" json:"min_text_length"`
	RejectMixed     bool     `yaml:"reject_mixed" json:"reject_mixed"`
	ModelPath       string   `yaml:"model_path" json:"model_path"`
}

// Extract configures the HTML extractor.
type Extract struct {
	RemoveScripts        bool    `yaml:"remove_scripts" json:"remove_scripts"`
	RemoveStyles         bool    `yaml:"remove_styles" json:"remove_styles"`
	RemoveComments       bool    `yaml:"remove_comments" json:"remove_comments"`
	RemoveNavigation     bool    `yaml:"remove_navigation" json:"remove_navigation"`
	RemoveHeadersFooters bool    `yaml:"remove_headers_footers" json:"remove_headers_footers"`
	RemoveAds            bool    `yaml:"remove_ads" json:"remove_ads"`
	RemoveForms          bool    `yaml:"remove_forms" json:"remove_forms"`
	ExtractMainContent   bool    `yaml:"extract_main_content" json:"extract_main_content"`
	PreserveLinks        bool    `yaml:"preserve_links" json:"preserve_links"`
	DecodeEntities       bool    `yaml:"decode_entities" json:"decode_entities"`
	FixMojibake          bool    `yaml:"fix_mojibake" json:"fix_mojibake"`
	NormalizeWhitespace  bool    `yaml:"normalize_whitespace" json:"normalize_whitespace"`
	RemoveExtraNewlines  bool    `yaml:"remove_extra_newlines" json:"remove_extra_newlines"`
	TrimLines            bool    `yaml:"trim_lines" json:"trim_lines"`
	MinTotalLength       int     `yaml:"min_total_length" json:"min_total_length"`
	MinTextRatio         float64 `yaml:"min_text_ratio" json:"min_text_ratio"`
	QualityThreshold     float64 `yaml:"quality_threshold" json:"quality_threshold"`
}

// Weights maps filter names to their contribution in balanced fusion.
type Weights map[string]float64

// Config is the root configuration document.
type Config struct {
	Mode                 string  `yaml:"mode" json:"mode"` // balanced|strict|sanitize
	RejectionThreshold   float64 `yaml:"rejection_threshold" json:"rejection_threshold"`
	CriticalConfidence   float64 `yaml:"critical_confidence" json:"critical_confidence"`
	MaxConsecutiveErrors int     `yaml:"max_consecutive_errors" json:"max_consecutive_errors"`
	NumThreads           int     `yaml:"num_threads" json:"num_threads"`
	ChunkSize            int     `yaml:"chunk_size" json:"chunk_size"`
	Verbose              bool    `yaml:"verbose" json:"verbose"`

	Length     Length     `yaml:"length" json:"length"`
	Gibberish  Gibberish  `yaml:"gibberish" json:"gibberish"`
	Repetition Repetition `yaml:"repetition" json:"repetition"`
	Format     Format     `yaml:"format" json:"format"`
	Metadata   Metadata   `yaml:"metadata" json:"metadata"`
	Toxicity   Toxicity   `yaml:"toxicity" json:"toxicity"`
	PII        PII        `yaml:"pii" json:"pii"`
	License    License    `yaml:"license" json:"license"`
	Model      Model      `yaml:"model" json:"model"`
	Dedup      Dedup      `yaml:"dedup" json:"dedup"`
	Decontam   Decontam   `yaml:"decontam" json:"decontam"`
	Language   Language   `yaml:"language" json:"language"`
	Extract    Extract    `yaml:"extract" json:"extract"`

	Weights Weights `yaml:"weights" json:"weights"`
}

// Default returns a configuration with the documented default thresholds.
func Default() *Config {
	return &Config{
		Mode:                 "balanced",
		RejectionThreshold:   0.5,
		CriticalConfidence:   0.8,
		MaxConsecutiveErrors: 10,
		ChunkSize:            256,
		Length: Length{
			MinWords: 5,
			MaxWords: 1000000,
			MinChars: 20,
			MaxChars: 10000000,
		},
		Gibberish: Gibberish{
			MaxNonAlphaRatio:   0.3,
			MaxDigitRatio:      0.5,
			MaxSymbolRatio:     0.2,
			MaxRepetitionRatio: 0.3,
			MaxConsecutive:     50,
			MinEntropy:         2.0,
		},
		Repetition: Repetition{
			MaxLineRepetitionRatio:  0.3,
			MaxNgramRepetitionRatio: 0.5,
			MinUniqueWords:          10,
			MinUniqueWordRatio:      0.3,
			NgramSize:               3,
			MaxBoilerplateRatio:     0.7,
		},
		Format: Format{
			MaxHTMLRatio:       0.1,
			MaxCodeRatio:       0.2,
			MaxSingleLineRatio: 0.8,
			AllowLists:         true,
		},
		Metadata: Metadata{
			CheckURLShorteners: true,
		},
		Toxicity: Toxicity{
			ToxicityThreshold:    0.7,
			HateThreshold:        0.8,
			NSFWThreshold:        0.8,
			ViolenceThreshold:    0.7,
			HarassmentThreshold:  0.6,
			ContextAware:         true,
			MedicalException:     true,
			EducationalException: true,
		},
		PII: PII{
			RemoveEmails:      true,
			RemovePhones:      true,
			RemoveSSNs:        true,
			RemoveCreditCards: true,
			RemoveIPAddresses: true,
			RemoveAddresses:   true,
			UsePlaceholders:   true,
			Anonymize:         true,
		},
		License: License{
			ConfidenceThreshold: 0.7,
		},
		Model: Model{
			MaxPerplexity:     50.0,
			QualityThreshold:  0.5,
			MaxSequenceLength: 512,
			ShortCircuit:      true,
			CachePredictions:  true,
			CacheSize:         4096,
			PerplexityWeight:  1.0,
			ClassifierWeight:  1.5,
		},
		Dedup: Dedup{
			Algorithm:       "xxhash",
			Method:          "minhash",
			Threshold:       0.8,
			NumPermutations: 128,
			NgramSize:       5,
			SimHashBits:     64,
			Bands:           16,
			RowsPerBand:     8,
		},
		Decontam: Decontam{
			NgramSize:              13,
			ContaminationThreshold: 0.1,
			MaxMatchesPerDocument:  100,
			UseBloomFilter:         true,
			ExpectedNgrams:         1000000,
			FalsePositiveRate:      0.01,
			CaseInsensitive:        true,
			RemovePunctuation:      true,
			ExcludeCommonPhrases:   true,
		},
		Language: Language{
			MinConfidence: 0.65,
			MinTextLength: 10,
			RejectMixed:   true,
		},
		Extract: Extract{
			RemoveScripts:        true,
			RemoveStyles:         true,
			RemoveComments:       true,
			RemoveNavigation:     true,
			RemoveHeadersFooters: true,
			RemoveAds:            true,
			RemoveForms:          true,
			ExtractMainContent:   true,
			DecodeEntities:       true,
			FixMojibake:          true,
			NormalizeWhitespace:  true,
			RemoveExtraNewlines:  true,
			TrimLines:            true,
			MinTotalLength:       100,
			MinTextRatio:         0.3,
		},
		Weights: Weights{
			"length":     1.0,
			"gibberish":  2.0,
			"repetition": 1.5,
			"format":     1.0,
			"metadata":   1.2,
			"toxicity":   3.0,
			"pii":        1.5,
			"license":    2.0,
			"model":      1.5,
		},
	}
}

// Load reads a configuration file (.yaml, .yml, or .json), layering it over
// the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .yaml, .yml, or .json)", filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseMode maps a mode string to its Mode value.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "balanced":
		return Balanced, nil
	case "strict":
		return Strict, nil
	case "sanitize":
		return Sanitize, nil
	default:
		return Balanced, fmt.Errorf("unknown mode %q (want balanced, strict, or sanitize)", s)
	}
}

// Validate rejects out-of-range or contradictory settings with
// human-readable messages. It fails fast at startup.
func (c *Config) Validate() error {
	if _, err := ParseMode(c.Mode); err != nil {
		return err
	}

	unit := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %v", name, v)
		}
		return nil
	}

	checks := []error{
		unit("rejection_threshold", c.RejectionThreshold),
		unit("critical_confidence", c.CriticalConfidence),
		unit("toxicity.toxicity_threshold", c.Toxicity.ToxicityThreshold),
		unit("toxicity.hate_threshold", c.Toxicity.HateThreshold),
		unit("toxicity.nsfw_threshold", c.Toxicity.NSFWThreshold),
		unit("license.confidence_threshold", c.License.ConfidenceThreshold),
		unit("dedup.threshold", c.Dedup.Threshold),
		unit("decontam.contamination_threshold", c.Decontam.ContaminationThreshold),
		unit("language.min_confidence", c.Language.MinConfidence),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	if c.NumThreads < 0 {
		return fmt.Errorf("num_threads must be >= 0, got %d", c.NumThreads)
	}
	if c.Length.MinWords > c.Length.MaxWords {
		return fmt.Errorf("length.min_words (%d) exceeds length.max_words (%d)", c.Length.MinWords, c.Length.MaxWords)
	}
	if c.Dedup.NgramSize <= 0 {
		return fmt.Errorf("dedup.ngram_size must be positive, got %d", c.Dedup.NgramSize)
	}
	if c.Dedup.Bands*c.Dedup.RowsPerBand != c.Dedup.NumPermutations {
		return fmt.Errorf("dedup bands (%d) x rows_per_band (%d) must equal num_permutations (%d)",
			c.Dedup.Bands, c.Dedup.RowsPerBand, c.Dedup.NumPermutations)
	}
	if n := c.Decontam.NgramSize; n < 8 || n > 50 {
		return fmt.Errorf("decontam.ngram_size must be in [8, 50], got %d", n)
	}
	if fpr := c.Decontam.FalsePositiveRate; fpr <= 0 || fpr >= 1 {
		return fmt.Errorf("decontam.false_positive_rate must be in (0, 1), got %v", fpr)
	}

	return nil
}
