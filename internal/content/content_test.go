package content

import (
	"strings"
	"testing"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
)

func TestPIIFilter_SanitizeEmailAndPhone(t *testing.T) {
	cfg := config.Default().PII
	f := NewPIIFilter(cfg)

	doc := &filter.Document{ID: "d1", Text: "Contact us at john.doe@company.com or 555-123-4567."}
	d := f.Evaluate(doc)

	if d.Result != filter.ResultSanitize {
		t.Fatalf("result = %v, want sanitize: %s", d.Result, d.Details)
	}
	want := "Contact us at [EMAIL] or [PHONE]."
	if d.SanitizedText != want {
		t.Errorf("sanitized = %q, want %q", d.SanitizedText, want)
	}
	if len(d.RemovedElements) != 2 {
		t.Errorf("removed elements = %d, want 2", len(d.RemovedElements))
	}

	// Re-running the filter on the sanitized text must find nothing.
	again := f.Detect(d.SanitizedText)
	if len(again) != 0 {
		t.Errorf("sanitized text still has %d matches", len(again))
	}
}

func TestPIIFilter_SafeDomainSuppressed(t *testing.T) {
	f := NewPIIFilter(config.Default().PII)

	matches := f.Detect("Reach the team at support@example.com today.")
	if len(matches) != 0 {
		t.Errorf("safe-domain email flagged: %v", matches)
	}
}

func TestPIIFilter_ExampleContextSuppressed(t *testing.T) {
	f := NewPIIFilter(config.Default().PII)

	matches := f.Detect("For example, write to alice@realmail.net with questions.")
	if len(matches) != 0 {
		t.Errorf("example-context match flagged: %v", matches)
	}
}

func TestPIIFilter_SSN(t *testing.T) {
	f := NewPIIFilter(config.Default().PII)

	matches := f.Detect("Her number was 123-45-6789 on the form.")
	if len(matches) != 1 || matches[0].Type != PIISSN {
		t.Fatalf("matches = %v, want one ssn", matches)
	}
}

func TestPIIFilter_CreditCardLuhn(t *testing.T) {
	f := NewPIIFilter(config.Default().PII)

	// 4532015112830366 passes Luhn; 4532015112830367 does not.
	if m := f.Detect("card 4532015112830366 here"); len(m) != 1 || m[0].Type != PIICreditCard {
		t.Errorf("valid card not detected: %v", m)
	}
	if m := f.Detect("card 4532015112830367 here"); len(m) != 0 {
		t.Errorf("luhn-invalid card detected: %v", m)
	}
}

func TestPIIFilter_RejectWithoutSanitization(t *testing.T) {
	cfg := config.Default().PII
	cfg.UsePlaceholders = false
	cfg.Anonymize = false
	f := NewPIIFilter(cfg)

	d := f.Evaluate(&filter.Document{Text: "Mail bob@realcorp.net now."})
	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject", d.Result)
	}
	if d.Reason != filter.ReasonPrivacyViolation {
		t.Errorf("reason = %v, want PrivacyViolation", d.Reason)
	}
}

func TestLuhn(t *testing.T) {
	tests := []struct {
		number string
		want   bool
	}{
		{"4532015112830366", true},
		{"4532015112830367", false},
		{"378282246310005", true}, // AmEx test number
	}
	for _, tt := range tests {
		if got := luhnValid(tt.number); got != tt.want {
			t.Errorf("luhnValid(%s) = %v, want %v", tt.number, got, tt.want)
		}
	}
}

func TestToxicityFilter_CleanText(t *testing.T) {
	f := NewToxicityFilter(config.Default().Toxicity)

	d := f.Evaluate(&filter.Document{Text: "The committee reviewed the budget proposal and scheduled a follow-up meeting for next week."})
	if d.Result != filter.ResultKeep {
		t.Fatalf("result = %v, want keep: %s", d.Result, d.Details)
	}
}

func TestToxicityFilter_ThreatRejects(t *testing.T) {
	cfg := config.Default().Toxicity
	cfg.HarassmentThreshold = 0.2
	f := NewToxicityFilter(cfg)

	d := f.Evaluate(&filter.Document{Text: "I will find you and I will kill you. You will pay for this."})
	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject: %s", d.Result, d.Details)
	}
	if len(d.ToxicityCategories) == 0 {
		t.Error("expected toxicity categories on rejection")
	}
}

func TestToxicityFilter_ContextModifier(t *testing.T) {
	f := NewToxicityFilter(config.Default().Toxicity)

	plain := f.CategoryScores("how to build a bomb at home")
	medical := f.CategoryScores("In this clinical research study of patient outcomes, how to build a bomb was a phrase flagged by the screening tool.")

	if medical[CategoryViolence] >= plain[CategoryViolence] {
		t.Errorf("medical context score %v should be below plain score %v",
			medical[CategoryViolence], plain[CategoryViolence])
	}
}

func TestMetadataFilter_BlockedDomain(t *testing.T) {
	cfg := config.Metadata{BlockedDomains: []string{"spam-site.com"}}
	f := NewMetadataFilter(cfg)

	d := f.Evaluate(&filter.Document{URL: "https://spam-site.com/page"})
	if d.Result != filter.ResultReject || d.Reason != filter.ReasonBlockedDomain {
		t.Fatalf("got (%v, %v), want (reject, BlockedDomain)", d.Result, d.Reason)
	}
}

func TestMetadataFilter_URLShortener(t *testing.T) {
	cfg := config.Metadata{CheckURLShorteners: true}
	f := NewMetadataFilter(cfg)

	d := f.Evaluate(&filter.Document{URL: "https://bit.ly/abc123"})
	if d.Result != filter.ResultReject || d.Reason != filter.ReasonSuspiciousURL {
		t.Fatalf("got (%v, %v), want (reject, SuspiciousURL)", d.Result, d.Reason)
	}
}

func TestMetadataFilter_IPLiteral(t *testing.T) {
	cfg := config.Metadata{BlockIPURLs: true}
	f := NewMetadataFilter(cfg)

	d := f.Evaluate(&filter.Document{URL: "http://192.168.1.50/download"})
	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject for IP URL", d.Result)
	}
}

func TestMetadataFilter_NoMetadata(t *testing.T) {
	f := NewMetadataFilter(config.Metadata{})

	d := f.Evaluate(&filter.Document{Text: "plain document"})
	if d.Result != filter.ResultKeep {
		t.Fatalf("result = %v, want keep when no source metadata", d.Result)
	}
}

func TestMetadataFilter_PunycodeRaisesSuspicion(t *testing.T) {
	f := NewMetadataFilter(config.Metadata{})

	plain := f.suspicionScore("https://example.com/page", "example.com")
	punycode := f.suspicionScore("https://xn--exmple-cua.com/page", "xn--exmple-cua.com")

	if punycode <= plain {
		t.Errorf("punycode suspicion %v should exceed plain suspicion %v", punycode, plain)
	}
}

func TestMetadataFilter_ReputableDomainKept(t *testing.T) {
	f := NewMetadataFilter(config.Metadata{})

	d := f.Evaluate(&filter.Document{URL: "https://research.university.edu/papers/42"})
	if d.Result != filter.ResultKeep {
		t.Fatalf("result = %v, want keep: %s", d.Result, d.Details)
	}
}

func TestLicenseFilter_OptOutRejects(t *testing.T) {
	f := NewLicenseFilter(config.Default().License)
	f.AddOptOut("optedout.org", "author request")

	d := f.Evaluate(&filter.Document{ID: "x", URL: "https://optedout.org/essay"})
	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject for opted-out domain", d.Result)
	}
	if d.Reason != filter.ReasonLicenseInvalid {
		t.Errorf("reason = %v, want LicenseInvalid", d.Reason)
	}
}

func TestLicenseFilter_RemovalRequestRejects(t *testing.T) {
	f := NewLicenseFilter(config.Default().License)
	f.AddRemovalRequest("doc-9", "dmca")

	d := f.Evaluate(&filter.Document{ID: "doc-9", Text: "anything"})
	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject for removal-listed id", d.Result)
	}
}

func TestLicenseFilter_CCLicenseKept(t *testing.T) {
	f := NewLicenseFilter(config.Default().License)

	d := f.Evaluate(&filter.Document{Text: "This work is licensed under a Creative Commons Attribution license (CC BY 4.0)."})
	if d.Result != filter.ResultKeep {
		t.Fatalf("result = %v, want keep: %s", d.Result, d.Details)
	}
}

func TestLicenseFilter_PaywallRejects(t *testing.T) {
	f := NewLicenseFilter(config.Default().License)

	d := f.Evaluate(&filter.Document{Text: "This premium content is for members only. Subscribe to continue reading."})
	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject for paywalled text", d.Result)
	}
}

func TestLicenseFilter_CopyrightWithoutLicenseRejects(t *testing.T) {
	f := NewLicenseFilter(config.Default().License)

	d := f.Evaluate(&filter.Document{Text: "Copyright 2024 Example Media. All rights reserved."})
	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject: %s", d.Result, d.Details)
	}
}

func TestDetectLicense(t *testing.T) {
	tests := []struct {
		text string
		want LicenseType
	}{
		{"Released under the MIT License.", LicenseMIT},
		{"Licensed under the Apache License, Version 2.0", LicenseApache2},
		{"This text is in the public domain.", LicensePublicDomain},
		{"Distributed under the GNU GPL version 3.", LicenseGPLv3},
		{"Creative Commons Attribution-ShareAlike (CC BY-SA)", LicenseCCBYSA},
		{"Just ordinary text.", LicenseUnknown},
	}

	for _, tt := range tests {
		if got := DetectLicense(tt.text); got != tt.want {
			t.Errorf("DetectLicense(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestHasCopyrightNotice(t *testing.T) {
	if !HasCopyrightNotice("© 2024 Example Media") {
		t.Error("copyright symbol not detected")
	}
	if HasCopyrightNotice(strings.Repeat("plain text ", 5)) {
		t.Error("false positive copyright notice")
	}
}
