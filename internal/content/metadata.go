// Package content implements the content-safety filters: metadata/source,
// toxicity, PII, and license compliance.
package content

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
	"github.com/ModeEric/RapidSift/internal/textutil"
)

// urlShorteners are domains whose links hide their destination.
var urlShorteners = map[string]struct{}{
	"bit.ly": {}, "tinyurl.com": {}, "t.co": {}, "goo.gl": {}, "ow.ly": {},
	"short.link": {}, "rb.gy": {}, "cutt.ly": {}, "is.gd": {}, "v.gd": {},
}

// maliciousTLDs carry disproportionate spam and malware rates.
var maliciousTLDs = map[string]struct{}{
	"tk": {}, "ml": {}, "ga": {}, "cf": {}, "click": {}, "download": {}, "review": {},
}

var machineTranslationIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btranslated (?:by|with|using)\b`),
	regexp.MustCompile(`(?i)\bmachine translation\b`),
	regexp.MustCompile(`(?i)\bgoogle translate\b`),
}

var aiGenerationIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bas an ai (?:language )?model\b`),
	regexp.MustCompile(`(?i)\bgenerated (?:by|with|using) (?:ai|gpt|a language model)\b`),
	regexp.MustCompile(`(?i)\bregenerate response\b`),
}

// MetadataFilter rejects documents from blocked or suspicious sources.
type MetadataFilter struct {
	cfg        config.Metadata
	strictMode bool

	blocked     map[string]struct{}
	allowed     map[string]struct{}
	blockedTLDs map[string]struct{}
	urlPatterns []*regexp.Regexp
}

// NewMetadataFilter returns a metadata filter.
func NewMetadataFilter(cfg config.Metadata) *MetadataFilter {
	f := &MetadataFilter{cfg: cfg}
	f.rebuild()
	return f
}

// Name implements filter.Filter.
func (f *MetadataFilter) Name() string { return "metadata" }

// Configure implements filter.Filter.
func (f *MetadataFilter) Configure(cfg *config.Config) error {
	f.cfg = cfg.Metadata
	mode, err := config.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}
	f.strictMode = mode == config.Strict
	f.rebuild()
	return nil
}

func (f *MetadataFilter) rebuild() {
	f.blocked = toSet(f.cfg.BlockedDomains)
	f.allowed = toSet(f.cfg.AllowedDomains)
	f.blockedTLDs = toSet(f.cfg.BlockedTLDs)

	f.urlPatterns = f.urlPatterns[:0]
	for _, p := range f.cfg.BlockedURLPatterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			slog.Warn("skipping invalid URL pattern", "pattern", p, "error", err)
			continue
		}
		f.urlPatterns = append(f.urlPatterns, re)
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	delete(set, "")
	return set
}

// Evaluate applies block/allow lists, URL suspicion scoring, and source
// reputation.
func (f *MetadataFilter) Evaluate(doc *filter.Document) filter.Decision {
	domain := doc.Domain
	if domain == "" {
		domain = textutil.ExtractDomain(doc.URL)
	}
	domain = strings.ToLower(domain)

	if doc.URL == "" && domain == "" {
		return filter.Keep(1.0, "no source metadata to evaluate")
	}

	reputation := f.domainReputation(domain)
	suspicion := f.suspicionScore(doc.URL, domain)

	metrics := map[string]float64{
		"domain_reputation": reputation,
		"url_suspicion":     suspicion,
	}

	if domain == "" && doc.URL != "" {
		d := filter.Reject(filter.ReasonSuspiciousURL, 0.8, "invalid or malformed URL: "+doc.URL)
		d.Metrics = metrics
		return d
	}

	if _, ok := f.blocked[domain]; ok {
		d := filter.Reject(filter.ReasonBlockedDomain, 0.95, "domain is on blocklist: "+domain)
		d.Metrics = metrics
		return d
	}

	if _, ok := f.allowed[domain]; ok {
		d := filter.Keep(1.0, "domain is on allowlist: "+domain)
		d.Metrics = metrics
		return d
	}

	if tld := textutil.ExtractTLD(domain); tld != "" {
		if _, ok := f.blockedTLDs[tld]; ok {
			d := filter.Reject(filter.ReasonSuspiciousURL, 0.8, "blocked TLD: "+tld)
			d.Metrics = metrics
			return d
		}
	}

	for _, re := range f.urlPatterns {
		if re.MatchString(doc.URL) {
			d := filter.Reject(filter.ReasonSuspiciousURL, 0.85, "URL matches suspicious pattern")
			d.Metrics = metrics
			return d
		}
	}

	if f.containsSpamKeywords(doc.URL) {
		d := filter.Reject(filter.ReasonSuspiciousURL, 0.7, "URL contains spam keywords")
		d.Metrics = metrics
		return d
	}

	if f.cfg.BlockIPURLs && textutil.IsIPAddress(domain) {
		d := filter.Reject(filter.ReasonSuspiciousURL, 0.9, "IP-based URL detected")
		d.Metrics = metrics
		return d
	}

	if f.cfg.CheckURLShorteners {
		if _, ok := urlShorteners[domain]; ok {
			d := filter.Reject(filter.ReasonSuspiciousURL, 0.6, "URL shortener detected: "+domain)
			d.Metrics = metrics
			return d
		}
	}

	if suspicion >= 0.5 {
		d := filter.Reject(filter.ReasonSuspiciousURL, suspicion, fmt.Sprintf("high suspicion score: %.2f", suspicion))
		d.Metrics = metrics
		return d
	}

	if reputation < 0.3 {
		d := filter.Reject(filter.ReasonBlockedDomain, 1.0-reputation, fmt.Sprintf("low domain reputation: %.2f", reputation))
		d.Metrics = metrics
		return d
	}

	// Machine-translation and AI-generation indicators are soft signals:
	// they reduce the score but only reject in strict mode.
	score := reputation * (1.0 - suspicion)
	details := "source check passed: " + domain

	if matchesAny(doc.Text, machineTranslationIndicators) {
		metrics["machine_translated"] = 1
		score *= 0.7
		details = "machine-translation indicators present"
		if f.strictMode {
			d := filter.Reject(filter.ReasonMachineGenerated, 0.7, "machine-translated content")
			d.Metrics = metrics
			return d
		}
	}
	if matchesAny(doc.Text, aiGenerationIndicators) {
		metrics["ai_generated"] = 1
		score *= 0.6
		details = "AI-generation indicators present"
		if f.strictMode {
			d := filter.Reject(filter.ReasonMachineGenerated, 0.75, "AI-generated content")
			d.Metrics = metrics
			return d
		}
	}

	d := filter.Keep(score, details)
	d.Metrics = metrics
	return d
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (f *MetadataFilter) containsSpamKeywords(url string) bool {
	if url == "" {
		return false
	}
	lower := strings.ToLower(url)
	for _, kw := range f.cfg.SpamKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// domainReputation starts neutral at 0.5 and is scaled by TLD class and
// domain structure, clamped to [0, 1].
func (f *MetadataFilter) domainReputation(domain string) float64 {
	if domain == "" {
		return 0.5
	}

	reputation := 0.5

	switch tld := textutil.ExtractTLD(domain); {
	case tldIn(tld, maliciousTLDs):
		reputation *= 0.3
	case tld == "com" || tld == "org" || tld == "edu" || tld == "gov":
		reputation *= 1.2
	}

	if len(domain) > 50 {
		reputation *= 0.8
	}
	if strings.HasPrefix(domain, "xn--") {
		reputation *= 0.7
	}
	if strings.Count(domain, "-") > 3 {
		reputation *= 0.8
	}

	if reputation > 1 {
		reputation = 1
	}
	if reputation < 0 {
		reputation = 0
	}
	return reputation
}

func tldIn(tld string, set map[string]struct{}) bool {
	_, ok := set[tld]
	return ok
}

// suspicionScore is the weighted count of structural red flags in the URL,
// normalized to [0, 1].
func (f *MetadataFilter) suspicionScore(url, domain string) float64 {
	if url == "" {
		return 0
	}

	count := 0

	if hasSuspiciousSubdomain(domain) {
		count++
	}
	if hasSuspiciousPath(url) {
		count++
	}
	if hasSuspiciousParameters(url) {
		count++
	}
	if f.containsSpamKeywords(url) {
		count++
	}
	if len(domain) > 50 {
		count++
	}
	if strings.Count(domain, "-") > 3 {
		count++
	}
	if strings.Count(domain, ".") > 4 {
		count++
	}
	if strings.HasPrefix(domain, "xn--") {
		count++
	}

	return float64(count) / 10.0
}

func hasSuspiciousSubdomain(domain string) bool {
	if strings.Count(domain, ".") > 4 {
		return true
	}
	return strings.HasPrefix(domain, "admin.") ||
		strings.HasPrefix(domain, "secure.") ||
		strings.HasPrefix(domain, "login.")
}

func hasSuspiciousPath(url string) bool {
	// Skip the scheme and authority.
	start := strings.Index(url, "://")
	if start < 0 {
		return false
	}
	slash := strings.IndexByte(url[start+3:], '/')
	if slash < 0 {
		return false
	}
	path := url[start+3+slash:]

	if len(path) > 200 {
		return true
	}

	return strings.Contains(path, "/click") ||
		strings.Contains(path, "/redirect") ||
		strings.Contains(path, "/track") ||
		strings.Contains(path, "/ads")
}

func hasSuspiciousParameters(url string) bool {
	q := strings.IndexByte(url, '?')
	if q < 0 {
		return false
	}
	params := url[q:]

	if strings.Count(params, "&") > 10 {
		return true
	}

	return strings.Contains(params, "click") ||
		strings.Contains(params, "track") ||
		strings.Contains(params, "referrer")
}
