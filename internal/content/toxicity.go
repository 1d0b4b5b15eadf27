package content

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
)

// Category names a class of policy-violating content.
type Category string

const (
	CategoryHateSpeech Category = "HateSpeech"
	CategoryHarassment Category = "Harassment"
	CategoryProfanity  Category = "Profanity"
	CategoryViolence   Category = "Violence"
	CategoryNsfwSexual Category = "NsfwSexual"
	CategoryNsfwGore   Category = "NsfwGore"
	CategoryThreat     Category = "Threat"
	CategorySpam       Category = "Spam"
)

// categorySmoothing dampens scores for texts with few matches: score =
// matches / (matches + k).
const categorySmoothing = 3.0

// categoryPatterns are deliberately generic indicator phrases; production
// deployments load curated lists via Configure.
var categoryPatterns = map[Category][]*regexp.Regexp{
	CategoryHateSpeech: {
		regexp.MustCompile(`(?i)\b(?:racial|ethnic|religious) (?:slur|hatred|inferiority)\b`),
		regexp.MustCompile(`(?i)\ball (?:\w+ )?(?:people|members) of .{0,40}\b(?:are|should be) (?:eliminated|subhuman|vermin)\b`),
		regexp.MustCompile(`(?i)\bgo back to (?:your|their) country\b`),
	},
	CategoryHarassment: {
		regexp.MustCompile(`(?i)\b(?:kill|hurt) yourself\b`),
		regexp.MustCompile(`(?i)\bnobody (?:likes|wants) you\b`),
		regexp.MustCompile(`(?i)\byou (?:are|re) (?:worthless|pathetic|disgusting)\b`),
	},
	CategoryProfanity: {
		regexp.MustCompile(`(?i)\b(?:f+u+c+k+|s+h+i+t+|b+i+t+c+h+|a+s+s+h+o+l+e+)\b`),
		regexp.MustCompile(`(?i)\bdamn(?:ed)? (?:idiot|fool)\b`),
	},
	CategoryViolence: {
		regexp.MustCompile(`(?i)\b(?:beat|stab|shoot|strangle)(?:ing|ed)? (?:him|her|them|someone) (?:to death|until)\b`),
		regexp.MustCompile(`(?i)\bhow to (?:build|make) (?:a )?(?:bomb|explosive|weapon)\b`),
		regexp.MustCompile(`(?i)\bmass (?:shooting|killing) (?:plan|instructions)\b`),
	},
	CategoryNsfwSexual: {
		regexp.MustCompile(`(?i)\bexplicit (?:sexual|adult) content\b`),
		regexp.MustCompile(`(?i)\b(?:hardcore|xxx) (?:porn|videos?)\b`),
	},
	CategoryNsfwGore: {
		regexp.MustCompile(`(?i)\b(?:graphic|gory) (?:mutilation|dismemberment)\b`),
		regexp.MustCompile(`(?i)\b(?:blood and gore|torture footage)\b`),
	},
	CategoryThreat: {
		regexp.MustCompile(`(?i)\bi (?:will|m going to) (?:kill|hurt|find) you\b`),
		regexp.MustCompile(`(?i)\byou (?:will|re going to) (?:regret|pay for) this\b`),
	},
	CategorySpam: {
		regexp.MustCompile(`(?i)\b(?:click here|buy now|limited time offer)\b.{0,60}\b(?:click here|buy now|act now)\b`),
		regexp.MustCompile(`(?i)\bcongratulations[!,]? you(?:'ve| have)? won\b`),
		regexp.MustCompile(`(?i)\bmake \$?\d+[k,]* (?:per|a) (?:day|week) from home\b`),
	},
}

var contextPatterns = map[string]*regexp.Regexp{
	"medical":     regexp.MustCompile(`(?i)\b(?:diagnosis|symptom|clinical|patient|anatomy|medical|physician)\b`),
	"educational": regexp.MustCompile(`(?i)\b(?:curriculum|research|study|lecture|textbook|education(?:al)?)\b`),
	"news":        regexp.MustCompile(`(?i)\b(?:reported|according to|press release|journalist|correspondent)\b`),
	"legal":       regexp.MustCompile(`(?i)\b(?:court|statute|testimony|defendant|plaintiff|legal)\b`),
}

// ToxicityFilter scores documents across toxicity categories and rejects
// any that exceed a category threshold. Sanitization is not attempted:
// toxicity violations reject.
type ToxicityFilter struct {
	cfg config.Toxicity
}

// NewToxicityFilter returns a toxicity filter.
func NewToxicityFilter(cfg config.Toxicity) *ToxicityFilter {
	return &ToxicityFilter{cfg: cfg}
}

// Name implements filter.Filter.
func (f *ToxicityFilter) Name() string { return "toxicity" }

// Configure implements filter.Filter.
func (f *ToxicityFilter) Configure(cfg *config.Config) error {
	f.cfg = cfg.Toxicity
	return nil
}

// Evaluate computes smoothed per-category scores with context modifiers
// and rejects when any category exceeds its threshold.
func (f *ToxicityFilter) Evaluate(doc *filter.Document) filter.Decision {
	text := doc.Text
	if text == "" {
		return filter.Keep(1.0, "empty document")
	}

	scores := f.CategoryScores(text)

	metrics := make(map[string]float64, len(scores))
	overall := 0.0
	for cat, score := range scores {
		metrics["toxicity_"+strings.ToLower(string(cat))] = score
		if score > overall {
			overall = score
		}
	}
	metrics["toxicity_overall"] = overall

	var violated []Category
	for cat, score := range scores {
		if score > f.thresholdFor(cat) {
			violated = append(violated, cat)
		}
	}

	if len(violated) > 0 {
		sort.Slice(violated, func(i, j int) bool { return violated[i] < violated[j] })

		reason := filter.ReasonToxicityHigh
		switch violated[0] {
		case CategoryHateSpeech:
			reason = filter.ReasonHateSpeech
		case CategoryNsfwSexual, CategoryNsfwGore:
			reason = filter.ReasonNsfwContent
		}

		names := make([]string, len(violated))
		for i, c := range violated {
			names[i] = string(c)
		}

		d := filter.Reject(reason, overall, fmt.Sprintf("toxicity thresholds exceeded: %s", strings.Join(names, ", ")))
		d.Metrics = metrics
		d.ToxicityCategories = names
		return d
	}

	d := filter.Keep(1.0-overall, "toxicity within thresholds")
	d.Metrics = metrics
	return d
}

// CategoryScores returns the smoothed, context-adjusted score for every
// category.
func (f *ToxicityFilter) CategoryScores(text string) map[Category]float64 {
	modifier := f.contextModifier(text)

	scores := make(map[Category]float64, len(categoryPatterns))
	for cat, patterns := range categoryPatterns {
		matches := 0
		for _, re := range patterns {
			matches += len(re.FindAllStringIndex(text, -1))
		}

		score := float64(matches) / (float64(matches) + categorySmoothing)
		scores[cat] = score * modifier
	}

	return scores
}

// contextModifier halves scores in allowed medical, educational, news, or
// legal contexts.
func (f *ToxicityFilter) contextModifier(text string) float64 {
	if !f.cfg.ContextAware {
		return 1.0
	}

	for name, re := range contextPatterns {
		if !re.MatchString(text) {
			continue
		}
		switch name {
		case "medical":
			if f.cfg.MedicalException {
				return 0.5
			}
		case "educational":
			if f.cfg.EducationalException {
				return 0.5
			}
		default:
			return 0.5
		}
	}

	return 1.0
}

func (f *ToxicityFilter) thresholdFor(cat Category) float64 {
	switch cat {
	case CategoryHateSpeech:
		return f.cfg.HateThreshold
	case CategoryNsfwSexual, CategoryNsfwGore:
		return f.cfg.NSFWThreshold
	case CategoryViolence:
		return f.cfg.ViolenceThreshold
	case CategoryHarassment, CategoryThreat:
		return f.cfg.HarassmentThreshold
	default:
		return f.cfg.ToxicityThreshold
	}
}
