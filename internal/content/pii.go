package content

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
)

// PIIType names a class of personally identifiable information.
type PIIType string

const (
	PIIEmail      PIIType = "email"
	PIIPhone      PIIType = "phone"
	PIISSN        PIIType = "ssn"
	PIICreditCard PIIType = "credit_card"
	PIIIPAddress  PIIType = "ip_address"
	PIIAddress    PIIType = "address"
	PIIPersonName PIIType = "person_name"
	PIICustom     PIIType = "custom"
)

// Match records one PII detection with enough context to replace it and to
// audit the decision.
type Match struct {
	Type        PIIType
	Original    string
	Replacement string
	Start       int
	End         int
	Confidence  float64
	Context     string
}

var (
	emailRegex = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRegex = regexp.MustCompile(`\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}\b`)
	ssnRegex   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b|\b\d{9}\b`)
	ccRegex    = regexp.MustCompile(`\b(?:4\d{12}(?:\d{3})?|5[1-5]\d{14}|3[47]\d{13}|3\d{13}|6(?:011|5\d{2})\d{12})\b`)
	ipRegex    = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|[01]?\d{1,2})\.){3}(?:25[0-5]|2[0-4]\d|[01]?\d{1,2})\b`)
	addrRegex  = regexp.MustCompile(`(?i)\b\d+\s+[A-Za-z][A-Za-z ]*\s(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Place|Pl)\b`)
	nameRegex  = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
)

// exampleContexts suppress matches that are clearly illustrative.
var exampleContexts = []string{
	"example", "for example", "e.g.", "such as", "test", "demo", "sample",
}

// defaultSafeDomains are placeholder email domains never treated as PII.
var defaultSafeDomains = []string{
	"example.com", "test.com", "sample.org", "demo.net",
	"placeholder.edu", "noreply.com", "donotreply.com",
}

var placeholders = map[PIIType]string{
	PIIEmail:      "[EMAIL]",
	PIIPhone:      "[PHONE]",
	PIISSN:        "[SSN]",
	PIICreditCard: "[CREDIT_CARD]",
	PIIIPAddress:  "[IP_ADDRESS]",
	PIIAddress:    "[ADDRESS]",
	PIIPersonName: "[PERSON]",
	PIICustom:     "[REDACTED]",
}

var anonymousValues = map[PIIType]string{
	PIIEmail:      "user@example.com",
	PIIPhone:      "555-000-0000",
	PIISSN:        "000-00-0000",
	PIICreditCard: "4000000000000000",
	PIIIPAddress:  "192.0.2.0",
	PIIAddress:    "1 Main Street",
	PIIPersonName: "Jane Doe",
	PIICustom:     "[REDACTED]",
}

// PIIFilter detects and removes personally identifiable information. With
// sanitization enabled it returns a Sanitize decision carrying the cleaned
// text; otherwise PII rejects the document.
type PIIFilter struct {
	cfg          config.PII
	sanitizeMode bool
	custom       []*regexp.Regexp
	safeDomains  map[string]struct{}
}

// NewPIIFilter returns a PII filter.
func NewPIIFilter(cfg config.PII) *PIIFilter {
	f := &PIIFilter{cfg: cfg, sanitizeMode: true}
	f.rebuild()
	return f
}

// Name implements filter.Filter.
func (f *PIIFilter) Name() string { return "pii" }

// Configure implements filter.Filter.
func (f *PIIFilter) Configure(cfg *config.Config) error {
	f.cfg = cfg.PII
	mode, err := config.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}
	f.sanitizeMode = mode != config.Strict
	f.rebuild()
	return nil
}

func (f *PIIFilter) rebuild() {
	f.custom = f.custom[:0]
	for _, p := range f.cfg.CustomPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			slog.Warn("skipping invalid custom PII pattern", "pattern", p, "error", err)
			continue
		}
		f.custom = append(f.custom, re)
	}

	f.safeDomains = toSet(defaultSafeDomains)
	for _, d := range f.cfg.SafeDomains {
		f.safeDomains[strings.ToLower(d)] = struct{}{}
	}
}

// Evaluate detects PII and either sanitizes or rejects.
func (f *PIIFilter) Evaluate(doc *filter.Document) filter.Decision {
	matches := f.Detect(doc.Text)

	metrics := map[string]float64{"pii_count": float64(len(matches))}

	if len(matches) == 0 {
		d := filter.Keep(1.0, "no PII detected")
		d.Metrics = metrics
		return d
	}

	counts := make(map[PIIType]int)
	var types []string
	for _, m := range matches {
		if counts[m.Type] == 0 {
			types = append(types, string(m.Type))
		}
		counts[m.Type]++
	}
	sort.Strings(types)

	var descriptions []string
	for _, t := range types {
		descriptions = append(descriptions, fmt.Sprintf("%d %s", counts[PIIType(t)], t))
	}
	details := "PII detected: " + strings.Join(descriptions, ", ")

	if f.sanitizeMode && (f.cfg.UsePlaceholders || f.cfg.Anonymize) {
		d := filter.Decision{
			Result:        filter.ResultSanitize,
			Reason:        filter.ReasonPIIDetected,
			Confidence:    0.9,
			Details:       details,
			Metrics:       metrics,
			PIITypes:      types,
			SanitizedText: f.apply(doc.Text, matches),
		}
		for _, m := range matches {
			d.RemovedElements = append(d.RemovedElements, m.Original+" -> "+m.Replacement)
		}
		return d
	}

	d := filter.Reject(filter.ReasonPrivacyViolation, 0.9, details)
	d.Metrics = metrics
	d.PIITypes = types
	return d
}

// Detect returns the non-overlapping, context-filtered PII matches of
// text, sorted by start offset.
func (f *PIIFilter) Detect(text string) []Match {
	var all []Match

	if f.cfg.RemoveEmails {
		all = append(all, f.find(text, emailRegex, PIIEmail, 0.95)...)
	}
	if f.cfg.RemovePhones {
		all = append(all, f.find(text, phoneRegex, PIIPhone, 0.9)...)
	}
	if f.cfg.RemoveSSNs {
		all = append(all, f.find(text, ssnRegex, PIISSN, 0.9)...)
	}
	if f.cfg.RemoveCreditCards {
		for _, m := range f.find(text, ccRegex, PIICreditCard, 0.9) {
			if luhnValid(m.Original) {
				all = append(all, m)
			}
		}
	}
	if f.cfg.RemoveIPAddresses {
		all = append(all, f.find(text, ipRegex, PIIIPAddress, 0.85)...)
	}
	if f.cfg.RemoveAddresses {
		all = append(all, f.find(text, addrRegex, PIIAddress, 0.7)...)
	}
	if f.cfg.RemoveNames {
		all = append(all, f.findNames(text)...)
	}
	for _, re := range f.custom {
		all = append(all, f.find(text, re, PIICustom, 0.8)...)
	}

	// Sort by start offset, then sweep to drop overlaps keeping the
	// earliest-starting match.
	sort.Slice(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].End > all[j].End
	})

	var kept []Match
	lastEnd := -1
	for _, m := range all {
		if f.suppressed(m) {
			continue
		}
		if m.Start < lastEnd {
			continue
		}
		kept = append(kept, m)
		lastEnd = m.End
	}

	return kept
}

func (f *PIIFilter) find(text string, re *regexp.Regexp, typ PIIType, confidence float64) []Match {
	var matches []Match
	for _, loc := range re.FindAllStringIndex(text, -1) {
		original := text[loc[0]:loc[1]]
		matches = append(matches, Match{
			Type:        typ,
			Original:    original,
			Replacement: f.replacement(typ),
			Start:       loc[0],
			End:         loc[1],
			Confidence:  confidence,
			Context:     contextWindow(text, loc[0], loc[1]),
		})
	}
	return matches
}

// findNames pairs the capitalized-bigram regex with NER confirmation so
// that sentence-initial word pairs are not all flagged.
func (f *PIIFilter) findNames(text string) []Match {
	candidates := f.find(text, nameRegex, PIIPersonName, 0.5)
	if len(candidates) == 0 {
		return nil
	}

	persons := make(map[string]struct{})
	if doc, err := prose.NewDocument(text); err == nil {
		for _, ent := range doc.Entities() {
			if ent.Label == "PERSON" {
				persons[ent.Text] = struct{}{}
			}
		}
	} else {
		slog.Debug("NER unavailable, keeping regex name candidates", "error", err)
	}

	for i := range candidates {
		if _, ok := persons[candidates[i].Original]; ok {
			candidates[i].Confidence = 0.85
		}
	}

	return candidates
}

// suppressed drops matches embedded in example/test contexts and emails on
// safe domains.
func (f *PIIFilter) suppressed(m Match) bool {
	ctx := strings.ToLower(m.Context)
	for _, marker := range exampleContexts {
		if strings.Contains(ctx, marker) {
			return true
		}
	}

	if m.Type == PIIEmail {
		if at := strings.LastIndexByte(m.Original, '@'); at >= 0 {
			domain := strings.ToLower(m.Original[at+1:])
			if _, ok := f.safeDomains[domain]; ok {
				return true
			}
		}
	}

	return false
}

// apply replaces matches right-to-left so earlier offsets stay valid.
func (f *PIIFilter) apply(text string, matches []Match) string {
	result := text
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		result = result[:m.Start] + m.Replacement + result[m.End:]
	}
	return result
}

func (f *PIIFilter) replacement(typ PIIType) string {
	if f.cfg.UsePlaceholders {
		return placeholders[typ]
	}
	if f.cfg.Anonymize {
		return anonymousValues[typ]
	}
	return ""
}

func contextWindow(text string, start, end int) string {
	lo := start - 50
	if lo < 0 {
		lo = 0
	}
	hi := end + 50
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

// luhnValid applies the Luhn checksum to a digit string.
func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}
