package filter

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ModeEric/RapidSift/internal/config"
)

// Processor runs an ordered set of filters over documents and fuses their
// decisions into a final verdict.
//
// Three policies govern early exit and fusion:
//   - strict: the first Reject terminates evaluation
//   - sanitize: Sanitize results substitute the cleaned text into the
//     running document for subsequent filters; rejection still
//     short-circuits
//   - balanced: every filter runs and the final decision fuses all outputs
type Processor struct {
	filters []Filter
	cfg     *config.Config
	mode    config.Mode

	weights            map[string]float64
	rejectionThreshold float64
	criticalConfidence float64

	// consecutiveErrors disables a filter for the remainder of the run
	// after too many Unknown decisions in a row. The mutex guards the
	// streak bookkeeping and timings; workers share one processor.
	maxConsecutiveErrors int
	mu                   sync.Mutex
	errorStreaks         map[string]int
	disabled             map[string]bool
	timings              map[string]time.Duration
}

// NewProcessor builds a processor over the given filters, configuring each
// from cfg.
func NewProcessor(cfg *config.Config, filters ...Filter) (*Processor, error) {
	mode, err := config.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	for _, f := range filters {
		if err := f.Configure(cfg); err != nil {
			return nil, err
		}
	}

	maxErrs := cfg.MaxConsecutiveErrors
	if maxErrs <= 0 {
		maxErrs = 10
	}

	return &Processor{
		filters:              filters,
		cfg:                  cfg,
		mode:                 mode,
		weights:              cfg.Weights,
		rejectionThreshold:   cfg.RejectionThreshold,
		criticalConfidence:   cfg.CriticalConfidence,
		maxConsecutiveErrors: maxErrs,
		errorStreaks:         make(map[string]int),
		disabled:             make(map[string]bool),
		timings:              make(map[string]time.Duration),
	}, nil
}

// Filters returns the processor's filters in evaluation order.
func (p *Processor) Filters() []Filter { return p.filters }

// Assess evaluates one document through every filter and returns its
// assessment. Exactly one assessment is produced per document and its
// final result is always Keep, Reject, or Sanitize.
func (p *Processor) Assess(doc *Document) *Assessment {
	assessment := &Assessment{
		Document:      *doc,
		FeatureScores: make(map[string]float64),
	}

	// The running document carries sanitized text forward in sanitize
	// mode.
	current := *doc

	for _, f := range p.filters {
		if p.isDisabled(f.Name()) {
			continue
		}

		decision := p.evaluate(f, &current)
		assessment.Decisions = append(assessment.Decisions, NamedDecision{Filter: f.Name(), Decision: decision})

		for metric, v := range decision.Metrics {
			assessment.FeatureScores[f.Name()+"."+metric] = v
		}

		switch decision.Result {
		case ResultReject:
			if p.mode == config.Strict || p.mode == config.Sanitize {
				assessment.FinalResult = ResultReject
				assessment.OverallScore = p.fuse(assessment)
				return assessment
			}
		case ResultSanitize:
			if p.mode == config.Sanitize || p.mode == config.Balanced {
				current.Text = decision.SanitizedText
				assessment.SanitizedText = decision.SanitizedText
			}
		}
	}

	assessment.OverallScore = p.fuse(assessment)
	assessment.FinalResult = p.finalResult(assessment)

	return assessment
}

// evaluate runs one filter, tracks per-filter timing and error streaks,
// and applies the disable-after-N-errors policy.
func (p *Processor) evaluate(f Filter, doc *Document) Decision {
	start := time.Now()
	decision := f.Evaluate(doc)
	elapsed := time.Since(start)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.timings[f.Name()] += elapsed

	if decision.Result == ResultUnknown {
		p.errorStreaks[f.Name()]++
		if p.errorStreaks[f.Name()] >= p.maxConsecutiveErrors && !p.disabled[f.Name()] {
			p.disabled[f.Name()] = true
			slog.Warn("filter disabled after repeated errors",
				"filter", f.Name(), "consecutive_errors", p.errorStreaks[f.Name()])
		}
	} else {
		p.errorStreaks[f.Name()] = 0
	}

	return decision
}

func (p *Processor) isDisabled(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disabled[name]
}

// Timings returns the accumulated per-filter evaluation times.
func (p *Processor) Timings() map[string]time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]time.Duration, len(p.timings))
	for name, d := range p.timings {
		out[name] = d
	}
	return out
}

// fuse computes the weighted overall quality/safety score. Unknown
// decisions are neutral and contribute nothing. Reject decisions
// contribute 1-confidence so a confident rejection drags the score down.
func (p *Processor) fuse(a *Assessment) float64 {
	weightedSum := 0.0
	totalWeight := 0.0

	for _, d := range a.Decisions {
		if d.Result == ResultUnknown {
			continue
		}

		w := p.weightFor(d.Filter)
		contribution := d.Confidence
		if d.Result == ResultReject {
			contribution = 1 - d.Confidence
		}

		weightedSum += contribution * w
		totalWeight += w
	}

	if totalWeight == 0 {
		return 1.0
	}

	return weightedSum / totalWeight
}

// finalResult applies the balanced-mode fusion rule: reject when any
// filter rejected with critical confidence or when the accumulated danger
// exceeds the global threshold; ties fall back to Keep.
func (p *Processor) finalResult(a *Assessment) Result {
	danger := 0.0
	totalWeight := 0.0
	sanitized := false

	for _, d := range a.Decisions {
		switch d.Result {
		case ResultReject:
			if d.Confidence >= p.criticalConfidence {
				return ResultReject
			}
			danger += d.Confidence * p.weightFor(d.Filter)
			totalWeight += p.weightFor(d.Filter)
		case ResultSanitize:
			sanitized = true
			totalWeight += p.weightFor(d.Filter)
		case ResultKeep:
			totalWeight += p.weightFor(d.Filter)
		}
	}

	if totalWeight > 0 && danger/totalWeight > p.rejectionThreshold {
		return ResultReject
	}

	if sanitized {
		return ResultSanitize
	}

	return ResultKeep
}

func (p *Processor) weightFor(name string) float64 {
	if w, ok := p.weights[name]; ok && w > 0 {
		return w
	}
	return 1.0
}
