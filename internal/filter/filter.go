// Package filter defines the document model and the uniform contract every
// curation filter implements, plus the orchestrator that composes filters
// into a verdict.
package filter

import (
	"time"

	"github.com/ModeEric/RapidSift/internal/config"
)

// Document is one unit of input text with its source metadata. Documents
// are immutable after ingest; a sanitizing filter returns a replacement
// text and the orchestrator forwards the sanitized copy to later filters.
type Document struct {
	ID          string            `json:"id"`
	Text        string            `json:"text"`
	URL         string            `json:"url,omitempty"`
	Domain      string            `json:"domain,omitempty"`
	ContentType string            `json:"content_type,omitempty"`
	SourceIP    string            `json:"source_ip,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Result is the verdict variant of a filter decision.
type Result int

const (
	ResultUnknown Result = iota
	ResultKeep
	ResultReject
	// ResultSanitize keeps the document but substitutes cleaned text.
	ResultSanitize
)

// String returns the string representation of the result.
func (r Result) String() string {
	switch r {
	case ResultKeep:
		return "keep"
	case ResultReject:
		return "reject"
	case ResultSanitize:
		return "sanitize"
	default:
		return "unknown"
	}
}

// Reason is the closed set of tags a filter can attach to its decision.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonTooShort         Reason = "TooShort"
	ReasonTooLong          Reason = "TooLong"
	ReasonGibberish        Reason = "Gibberish"
	ReasonHighRepetition   Reason = "HighRepetition"
	ReasonBoilerplate      Reason = "Boilerplate"
	ReasonPoorFormatting   Reason = "PoorFormatting"
	ReasonSuspiciousURL    Reason = "SuspiciousURL"
	ReasonBlockedDomain    Reason = "BlockedDomain"
	ReasonToxicityHigh     Reason = "ToxicityHigh"
	ReasonHateSpeech       Reason = "HateSpeech"
	ReasonNsfwContent      Reason = "NsfwContent"
	ReasonPIIDetected      Reason = "PIIDetected"
	ReasonPrivacyViolation Reason = "PrivacyViolation"
	ReasonContamination    Reason = "Contamination"
	ReasonLicenseInvalid   Reason = "LicenseInvalid"
	ReasonMachineGenerated Reason = "MachineGenerated"
	ReasonCustom           Reason = "Custom"
)

// Decision is the output of one filter for one document.
type Decision struct {
	Result     Result
	Reason     Reason
	Confidence float64
	Details    string
	Metrics    map[string]float64

	// Categories observed by content filters, when applicable.
	ToxicityCategories []string
	PIITypes           []string

	// For ResultSanitize, the cleaned text and descriptors of what was
	// removed.
	SanitizedText   string
	RemovedElements []string
}

// Keep constructs a keep decision with the given confidence and details.
func Keep(confidence float64, details string) Decision {
	return Decision{Result: ResultKeep, Confidence: confidence, Details: details}
}

// Reject constructs a reject decision.
func Reject(reason Reason, confidence float64, details string) Decision {
	return Decision{Result: ResultReject, Reason: reason, Confidence: confidence, Details: details}
}

// Unknown constructs the neutral decision used when a filter cannot
// evaluate a document. The orchestrator ignores it for scoring.
func Unknown(details string) Decision {
	return Decision{Result: ResultUnknown, Confidence: 0, Details: details}
}

// Assessment aggregates every filter's decision on a document into a final
// verdict.
type Assessment struct {
	Document      Document
	Decisions     []NamedDecision
	FinalResult   Result
	OverallScore  float64
	SanitizedText string
	FeatureScores map[string]float64
}

// NamedDecision pairs a decision with the filter that produced it.
type NamedDecision struct {
	Filter string
	Decision
}

// Filter is the contract every curation filter implements. Evaluate must
// never panic; internal errors surface as Unknown decisions. Configure
// rebuilds compiled patterns from the global configuration.
type Filter interface {
	Evaluate(doc *Document) Decision
	Name() string
	Configure(cfg *config.Config) error
}

// Stats tracks pipeline counters. Counters are eventually consistent
// during a run and exact at the end; kept+rejected+sanitized always equals
// total processed.
type Stats struct {
	TotalProcessed int64 `json:"total_processed"`
	Kept           int64 `json:"kept"`
	Rejected       int64 `json:"rejected"`
	Sanitized      int64 `json:"sanitized"`

	RejectionCounts        map[Reason]int64         `json:"rejection_counts"`
	RemovedPII             map[string]int64         `json:"removed_pii"`
	ContaminationByDataset map[string]int64         `json:"contamination_by_dataset"`
	LanguageCounts         map[string]int64         `json:"language_counts"`
	FilterTimings          map[string]time.Duration `json:"filter_timings"`

	// DegradedFilters lists filters running without a configured resource
	// (missing benchmark file, absent model).
	DegradedFilters []string `json:"degraded_filters,omitempty"`
}

// NewStats returns a Stats with all maps initialized.
func NewStats() *Stats {
	return &Stats{
		RejectionCounts:        make(map[Reason]int64),
		RemovedPII:             make(map[string]int64),
		ContaminationByDataset: make(map[string]int64),
		LanguageCounts:         make(map[string]int64),
		FilterTimings:          make(map[string]time.Duration),
	}
}

// Merge folds other into s. Used by the batch driver at chunk boundaries.
func (s *Stats) Merge(other *Stats) {
	s.TotalProcessed += other.TotalProcessed
	s.Kept += other.Kept
	s.Rejected += other.Rejected
	s.Sanitized += other.Sanitized

	for reason, n := range other.RejectionCounts {
		s.RejectionCounts[reason] += n
	}
	for typ, n := range other.RemovedPII {
		s.RemovedPII[typ] += n
	}
	for ds, n := range other.ContaminationByDataset {
		s.ContaminationByDataset[ds] += n
	}
	for lang, n := range other.LanguageCounts {
		s.LanguageCounts[lang] += n
	}
	for name, d := range other.FilterTimings {
		s.FilterTimings[name] += d
	}
	s.DegradedFilters = append(s.DegradedFilters, other.DegradedFilters...)
}

// Record updates counters from one assessment.
func (s *Stats) Record(a *Assessment) {
	s.TotalProcessed++
	switch a.FinalResult {
	case ResultReject:
		s.Rejected++
		for _, d := range a.Decisions {
			if d.Result == ResultReject && d.Reason != ReasonNone {
				s.RejectionCounts[d.Reason]++
				break
			}
		}
	case ResultSanitize:
		s.Sanitized++
		for _, d := range a.Decisions {
			for _, typ := range d.PIITypes {
				s.RemovedPII[typ]++
			}
		}
	default:
		s.Kept++
	}
}

// ProgressFunc is invoked after every processed document. Implementations
// must not block the pipeline.
type ProgressFunc func(processed, total int, stats *Stats)
