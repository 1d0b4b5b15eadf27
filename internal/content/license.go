package content

import (
	"fmt"
	"strings"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/corpusio"
	"github.com/ModeEric/RapidSift/internal/filter"
	"github.com/ModeEric/RapidSift/internal/textutil"
)

// LicenseType identifies a detected content license.
type LicenseType string

const (
	LicenseUnknown      LicenseType = "unknown"
	LicensePublicDomain LicenseType = "public_domain"
	LicenseCCBY         LicenseType = "cc_by"
	LicenseCCBYSA       LicenseType = "cc_by_sa"
	LicenseCCBYNC       LicenseType = "cc_by_nc"
	LicenseCCBYND       LicenseType = "cc_by_nd"
	LicenseMIT          LicenseType = "mit"
	LicenseApache2      LicenseType = "apache_2"
	LicenseGPLv2        LicenseType = "gpl_v2"
	LicenseGPLv3        LicenseType = "gpl_v3"
	LicenseBSD2Clause   LicenseType = "bsd_2_clause"
	LicenseBSD3Clause   LicenseType = "bsd_3_clause"
)

var paywallKeywords = []string{
	"subscribe to continue", "subscribe", "paywall", "premium content", "members only",
}

// CopyrightAssessment summarizes the license posture of one document.
type CopyrightAssessment struct {
	DetectedLicense    LicenseType
	HasCopyrightNotice bool
	IsPaywalled        bool
	FromAllowedDomain  bool
	HasOptOutSignal    bool
	RequiresRemoval    bool
	Confidence         float64
}

// LicenseFilter rejects documents whose licensing or provenance forbids
// training use: opted-out domains, removal-listed ids, paywalled content,
// and disallowed licenses.
type LicenseFilter struct {
	cfg config.License

	allowed   map[string]struct{}
	blocked   map[string]struct{}
	paywalled map[string]struct{}
	licenses  map[LicenseType]struct{}

	optedOut map[string]string
	removals map[string]string
}

// NewLicenseFilter returns a license filter.
func NewLicenseFilter(cfg config.License) *LicenseFilter {
	f := &LicenseFilter{cfg: cfg}
	f.rebuild()
	return f
}

// Name implements filter.Filter.
func (f *LicenseFilter) Name() string { return "license" }

// Configure implements filter.Filter.
func (f *LicenseFilter) Configure(cfg *config.Config) error {
	f.cfg = cfg.License
	f.rebuild()
	return nil
}

func (f *LicenseFilter) rebuild() {
	f.allowed = toSet(f.cfg.AllowedDomains)
	f.blocked = toSet(f.cfg.BlockedDomains)
	f.paywalled = toSet(f.cfg.PaywalledDomains)

	f.licenses = make(map[LicenseType]struct{}, len(f.cfg.AllowedLicenses))
	for _, l := range f.cfg.AllowedLicenses {
		f.licenses[LicenseType(strings.ToLower(l))] = struct{}{}
	}
	if len(f.licenses) == 0 {
		for _, l := range []LicenseType{LicensePublicDomain, LicenseCCBY, LicenseCCBYSA, LicenseMIT, LicenseApache2, LicenseBSD2Clause, LicenseBSD3Clause} {
			f.licenses[l] = struct{}{}
		}
	}

	f.optedOut = make(map[string]string)
	if f.cfg.OptOutListPath != "" {
		entries, err := corpusio.LoadOptOutList(f.cfg.OptOutListPath)
		if err == nil {
			f.optedOut = entries
		}
	}

	f.removals = make(map[string]string)
	if f.cfg.RemovalListPath != "" {
		entries, err := corpusio.LoadOptOutList(f.cfg.RemovalListPath)
		if err == nil {
			f.removals = entries
		}
	}
}

// AddOptOut registers a domain-level opt-out.
func (f *LicenseFilter) AddOptOut(domain, reason string) {
	f.optedOut[strings.ToLower(domain)] = reason
}

// AddRemovalRequest registers a document-id removal request.
func (f *LicenseFilter) AddRemovalRequest(id, reason string) {
	f.removals[id] = reason
}

// Evaluate applies the compliance rules in order: opt-out, removal,
// allowlist, blocklist, paywall, license validity, confidence threshold.
func (f *LicenseFilter) Evaluate(doc *filter.Document) filter.Decision {
	assessment := f.Assess(doc)

	metrics := map[string]float64{"compliance_confidence": assessment.Confidence}

	reject := func(details string) filter.Decision {
		d := filter.Reject(filter.ReasonLicenseInvalid, assessment.Confidence, details)
		if d.Confidence < 0.5 {
			// A low compliance confidence means a confident rejection.
			d.Confidence = 1 - assessment.Confidence
		}
		d.Metrics = metrics
		return d
	}

	domain := f.domainOf(doc)

	if assessment.HasOptOutSignal {
		return reject("domain opted out: " + domain)
	}
	if assessment.RequiresRemoval {
		return reject("content removal requested: " + doc.ID)
	}
	if len(f.allowed) > 0 && !assessment.FromAllowedDomain {
		return reject("domain not in allowlist: " + domain)
	}
	if _, ok := f.blocked[domain]; ok {
		return reject("domain blocked: " + domain)
	}
	if assessment.IsPaywalled {
		return reject("content is paywalled")
	}
	if _, ok := f.licenses[assessment.DetectedLicense]; !ok {
		if f.cfg.StrictMode || assessment.HasCopyrightNotice {
			return reject(fmt.Sprintf("license not allowed: %s", assessment.DetectedLicense))
		}
	}
	if assessment.Confidence < f.cfg.ConfidenceThreshold && f.cfg.StrictMode {
		return reject(fmt.Sprintf("license compliance confidence too low: %.2f", assessment.Confidence))
	}

	d := filter.Keep(assessment.Confidence, "license compliant")
	d.Metrics = metrics
	return d
}

// Assess computes the copyright posture of a document without deciding.
func (f *LicenseFilter) Assess(doc *filter.Document) CopyrightAssessment {
	domain := f.domainOf(doc)

	a := CopyrightAssessment{
		DetectedLicense:    DetectLicense(doc.Text),
		HasCopyrightNotice: HasCopyrightNotice(doc.Text),
		IsPaywalled:        f.isPaywalled(doc, domain),
		RequiresRemoval:    false,
	}

	_, a.FromAllowedDomain = f.allowed[domain]
	_, a.HasOptOutSignal = f.optedOut[domain]
	_, a.RequiresRemoval = f.removals[doc.ID]

	// Compliance confidence starts neutral and moves with the evidence.
	confidence := 0.5
	if a.DetectedLicense != LicenseUnknown {
		confidence += 0.3
	}
	if a.FromAllowedDomain {
		confidence += 0.2
	}
	if a.HasCopyrightNotice && a.DetectedLicense == LicenseUnknown {
		confidence -= 0.3
	}
	if a.IsPaywalled {
		confidence -= 0.4
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	a.Confidence = confidence

	return a
}

func (f *LicenseFilter) domainOf(doc *filter.Document) string {
	if doc.Domain != "" {
		return strings.ToLower(doc.Domain)
	}
	return strings.ToLower(textutil.ExtractDomain(doc.URL))
}

func (f *LicenseFilter) isPaywalled(doc *filter.Document, domain string) bool {
	if _, ok := f.paywalled[domain]; ok {
		return true
	}

	lower := strings.ToLower(doc.Text)
	for _, kw := range paywallKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	return false
}

// DetectLicense finds the strongest license signal in text via keyword
// search.
func DetectLicense(text string) LicenseType {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "creative commons") || strings.Contains(lower, "cc by") {
		switch {
		case strings.Contains(lower, "cc by-sa") || strings.Contains(lower, "sharealike"):
			return LicenseCCBYSA
		case strings.Contains(lower, "cc by-nc") || strings.Contains(lower, "noncommercial"):
			return LicenseCCBYNC
		case strings.Contains(lower, "cc by-nd") || strings.Contains(lower, "noderivatives"):
			return LicenseCCBYND
		default:
			return LicenseCCBY
		}
	}

	if strings.Contains(lower, "cc0") || strings.Contains(lower, "public domain") {
		return LicensePublicDomain
	}
	if strings.Contains(lower, "mit license") {
		return LicenseMIT
	}
	if strings.Contains(lower, "apache license") {
		return LicenseApache2
	}
	if strings.Contains(lower, "gpl") {
		if strings.Contains(lower, "version 3") || strings.Contains(lower, "gplv3") || strings.Contains(lower, "gpl-3") {
			return LicenseGPLv3
		}
		return LicenseGPLv2
	}
	if strings.Contains(lower, "bsd") {
		if strings.Contains(lower, "2-clause") || strings.Contains(lower, "simplified") {
			return LicenseBSD2Clause
		}
		return LicenseBSD3Clause
	}

	return LicenseUnknown
}

// HasCopyrightNotice reports whether text carries a copyright marker.
func HasCopyrightNotice(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "copyright") ||
		strings.Contains(lower, "©") ||
		strings.Contains(lower, "(c)") ||
		strings.Contains(lower, "all rights reserved")
}
