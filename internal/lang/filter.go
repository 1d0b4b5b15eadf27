package lang

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
)

// Filter rejects documents outside the target languages, below the
// confidence floor, too short for reliable detection, or with mixed
// scripts when configured.
type Filter struct {
	cfg      config.Language
	detector Detector
	targets  map[string]struct{}

	mu     sync.Mutex
	counts map[string]int64
}

// NewFilter builds a language filter around the best available detector.
func NewFilter(cfg config.Language) *Filter {
	f := &Filter{cfg: cfg}
	f.rebuild()
	return f
}

// Name implements filter.Filter.
func (f *Filter) Name() string { return "language" }

// Configure implements filter.Filter.
func (f *Filter) Configure(cfg *config.Config) error {
	f.cfg = cfg.Language
	f.rebuild()
	return nil
}

func (f *Filter) rebuild() {
	f.detector = NewDetector(f.cfg.ModelPath)
	f.targets = make(map[string]struct{}, len(f.cfg.TargetLanguages))
	for _, lang := range f.cfg.TargetLanguages {
		f.targets[strings.ToLower(lang)] = struct{}{}
	}
	f.counts = make(map[string]int64)
}

// SetDetector overrides the detector, mainly for tests and pluggable
// backends.
func (f *Filter) SetDetector(d Detector) { f.detector = d }

// Detector returns the active detector.
func (f *Filter) Detector() Detector { return f.detector }

// LanguageCounts returns the per-language document counts seen so far.
func (f *Filter) LanguageCounts() map[string]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]int64, len(f.counts))
	for lang, n := range f.counts {
		out[lang] = n
	}
	return out
}

// Evaluate detects the document language and applies the configured
// acceptance rules. Confidence is length-adjusted before thresholding.
func (f *Filter) Evaluate(doc *filter.Document) filter.Decision {
	if !f.detector.Ready() {
		return filter.Unknown("language detector not ready")
	}

	if len(doc.Text) < f.cfg.MinTextLength {
		return filter.Reject(filter.ReasonCustom, 0.9,
			fmt.Sprintf("text too short for reliable language detection (%d chars, need %d)", len(doc.Text), f.cfg.MinTextLength))
	}

	detection := f.detector.Detect(doc.Text)
	confidence := AdjustConfidenceForLength(detection.Confidence, len(doc.Text))

	f.mu.Lock()
	f.counts[detection.Language]++
	f.mu.Unlock()

	metrics := map[string]float64{"language_confidence": confidence}

	if f.cfg.RejectMixed && HasMixedScripts(doc.Text) {
		d := filter.Reject(filter.ReasonCustom, 0.8, "document mixes multiple scripts")
		d.Metrics = metrics
		return d
	}

	if confidence < f.cfg.MinConfidence {
		d := filter.Reject(filter.ReasonCustom, 1.0-confidence,
			fmt.Sprintf("language confidence %.2f below minimum %.2f (detected %s)", confidence, f.cfg.MinConfidence, detection.Language))
		d.Metrics = metrics
		return d
	}

	if len(f.targets) > 0 {
		if _, ok := f.targets[detection.Language]; !ok {
			d := filter.Reject(filter.ReasonCustom, confidence,
				fmt.Sprintf("language %s not in target set", detection.Language))
			d.Metrics = metrics
			return d
		}
	}

	d := filter.Keep(confidence, fmt.Sprintf("detected language %s", detection.Language))
	d.Metrics = metrics
	return d
}
