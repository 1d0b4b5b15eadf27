package filter

import (
	"errors"
	"strings"
	"testing"

	"github.com/ModeEric/RapidSift/internal/config"
)

// stubFilter returns a fixed decision, optionally failing configuration.
type stubFilter struct {
	name      string
	decision  Decision
	configErr error
}

func (s *stubFilter) Evaluate(doc *Document) Decision    { return s.decision }
func (s *stubFilter) Name() string                       { return s.name }
func (s *stubFilter) Configure(cfg *config.Config) error { return s.configErr }

// textEchoFilter records the text it saw, for sanitize-forwarding checks.
type textEchoFilter struct {
	name string
	seen string
}

func (t *textEchoFilter) Evaluate(doc *Document) Decision {
	t.seen = doc.Text
	return Keep(1.0, "ok")
}
func (t *textEchoFilter) Name() string                       { return t.name }
func (t *textEchoFilter) Configure(cfg *config.Config) error { return nil }

func TestProcessor_FinalResultAlwaysConcrete(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		name     string
		decision Decision
		want     Result
	}{
		{"keep", Keep(0.9, "fine"), ResultKeep},
		{"reject critical", Reject(ReasonGibberish, 0.95, "bad"), ResultReject},
		{"unknown is neutral", Unknown("broken"), ResultKeep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProcessor(cfg, &stubFilter{name: "stub", decision: tt.decision})
			if err != nil {
				t.Fatal(err)
			}

			a := p.Assess(&Document{ID: "d", Text: "some text"})
			if a.FinalResult != tt.want {
				t.Errorf("final result = %v, want %v", a.FinalResult, tt.want)
			}
			if a.FinalResult == ResultUnknown {
				t.Error("final result must never be unknown")
			}
		})
	}
}

func TestProcessor_StrictModeShortCircuits(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "strict"

	second := &textEchoFilter{name: "second"}
	p, err := NewProcessor(cfg,
		&stubFilter{name: "first", decision: Reject(ReasonTooShort, 0.6, "short")},
		second,
	)
	if err != nil {
		t.Fatal(err)
	}

	a := p.Assess(&Document{Text: "hello"})
	if a.FinalResult != ResultReject {
		t.Fatalf("final = %v, want reject", a.FinalResult)
	}
	if len(a.Decisions) != 1 {
		t.Errorf("got %d decisions, want 1 (short circuit)", len(a.Decisions))
	}
	if second.seen != "" {
		t.Error("second filter ran after strict-mode rejection")
	}
}

func TestProcessor_SanitizeForwardsText(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "sanitize"

	sanitizer := &stubFilter{name: "pii", decision: Decision{
		Result:        ResultSanitize,
		Confidence:    0.9,
		SanitizedText: "cleaned text",
	}}
	echo := &textEchoFilter{name: "echo"}

	p, err := NewProcessor(cfg, sanitizer, echo)
	if err != nil {
		t.Fatal(err)
	}

	a := p.Assess(&Document{Text: "dirty text"})
	if a.FinalResult != ResultSanitize {
		t.Fatalf("final = %v, want sanitize", a.FinalResult)
	}
	if echo.seen != "cleaned text" {
		t.Errorf("downstream filter saw %q, want sanitized text", echo.seen)
	}
	if a.SanitizedText != "cleaned text" {
		t.Errorf("assessment sanitized text = %q", a.SanitizedText)
	}
}

func TestProcessor_BalancedDangerAccumulation(t *testing.T) {
	cfg := config.Default()
	cfg.CriticalConfidence = 0.99 // keep individual rejections sub-critical
	cfg.RejectionThreshold = 0.4

	p, err := NewProcessor(cfg,
		&stubFilter{name: "a", decision: Reject(ReasonGibberish, 0.7, "")},
		&stubFilter{name: "b", decision: Reject(ReasonPoorFormatting, 0.7, "")},
		&stubFilter{name: "c", decision: Keep(1.0, "")},
	)
	if err != nil {
		t.Fatal(err)
	}

	a := p.Assess(&Document{Text: "x"})
	if a.FinalResult != ResultReject {
		t.Errorf("accumulated danger should reject, got %v", a.FinalResult)
	}
}

func TestProcessor_ScoreInRange(t *testing.T) {
	cfg := config.Default()
	p, err := NewProcessor(cfg,
		&stubFilter{name: "a", decision: Keep(0.7, "")},
		&stubFilter{name: "b", decision: Reject(ReasonGibberish, 0.3, "")},
	)
	if err != nil {
		t.Fatal(err)
	}

	a := p.Assess(&Document{Text: "x"})
	if a.OverallScore < 0 || a.OverallScore > 1 {
		t.Errorf("overall score %v out of [0,1]", a.OverallScore)
	}
}

func TestProcessor_DisablesFilterAfterRepeatedErrors(t *testing.T) {
	cfg := config.Default()
	cfg.MaxConsecutiveErrors = 3

	failing := &stubFilter{name: "flaky", decision: Unknown("boom")}
	p, err := NewProcessor(cfg, failing)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		p.Assess(&Document{Text: "x"})
	}

	if !p.isDisabled("flaky") {
		t.Error("filter should be disabled after repeated unknown decisions")
	}

	a := p.Assess(&Document{Text: "x"})
	if len(a.Decisions) != 0 {
		t.Errorf("disabled filter still produced decisions: %d", len(a.Decisions))
	}
}

func TestProcessor_ConfigureErrorPropagates(t *testing.T) {
	cfg := config.Default()
	_, err := NewProcessor(cfg, &stubFilter{name: "bad", configErr: errors.New("bad pattern")})
	if err == nil || !strings.Contains(err.Error(), "bad pattern") {
		t.Errorf("expected configure error, got %v", err)
	}
}

func TestStats_CountersSum(t *testing.T) {
	stats := NewStats()

	assessments := []*Assessment{
		{FinalResult: ResultKeep},
		{FinalResult: ResultReject, Decisions: []NamedDecision{{Filter: "length", Decision: Reject(ReasonTooShort, 0.9, "")}}},
		{FinalResult: ResultSanitize},
		{FinalResult: ResultKeep},
	}
	for _, a := range assessments {
		stats.Record(a)
	}

	if stats.Kept+stats.Rejected+stats.Sanitized != stats.TotalProcessed {
		t.Errorf("kept %d + rejected %d + sanitized %d != total %d",
			stats.Kept, stats.Rejected, stats.Sanitized, stats.TotalProcessed)
	}
	if stats.RejectionCounts[ReasonTooShort] != 1 {
		t.Errorf("rejection count = %d, want 1", stats.RejectionCounts[ReasonTooShort])
	}
}

func TestStats_Merge(t *testing.T) {
	a := NewStats()
	a.TotalProcessed, a.Kept = 3, 3

	b := NewStats()
	b.TotalProcessed, b.Rejected = 2, 2
	b.RejectionCounts[ReasonGibberish] = 2

	a.Merge(b)

	if a.TotalProcessed != 5 || a.Kept != 3 || a.Rejected != 2 {
		t.Errorf("merge result: total %d kept %d rejected %d", a.TotalProcessed, a.Kept, a.Rejected)
	}
	if a.Kept+a.Rejected+a.Sanitized != a.TotalProcessed {
		t.Error("counters do not sum after merge")
	}
}
