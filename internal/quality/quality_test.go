package quality

import (
	"strings"
	"testing"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
)

func TestLengthFilter_TooShort(t *testing.T) {
	f := NewLengthFilter(config.Default().Length)

	doc := &filter.Document{ID: "x", Text: "Hi"}
	d := f.Evaluate(doc)

	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject", d.Result)
	}
	if d.Reason != filter.ReasonTooShort {
		t.Errorf("reason = %v, want TooShort", d.Reason)
	}
	if d.Confidence < 0.9 {
		t.Errorf("confidence = %v, want >= 0.9", d.Confidence)
	}
	if d.Metrics["word_count"] != 1 {
		t.Errorf("word_count = %v, want 1", d.Metrics["word_count"])
	}
}

func TestLengthFilter_Acceptable(t *testing.T) {
	f := NewLengthFilter(config.Length{MinWords: 5, MaxWords: 100, MinChars: 10, MaxChars: 1000})

	doc := &filter.Document{Text: "This document contains enough words to pass the filter easily."}
	d := f.Evaluate(doc)

	if d.Result != filter.ResultKeep {
		t.Fatalf("result = %v, want keep: %s", d.Result, d.Details)
	}
	// fewer than 20 words draws the mild penalty
	if d.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", d.Confidence)
	}
}

func TestLengthFilter_TooLong(t *testing.T) {
	f := NewLengthFilter(config.Length{MinWords: 1, MaxWords: 5, MinChars: 1, MaxChars: 10})

	doc := &filter.Document{Text: strings.Repeat("word ", 50)}
	d := f.Evaluate(doc)

	if d.Result != filter.ResultReject || d.Reason != filter.ReasonTooLong {
		t.Fatalf("got (%v, %v), want (reject, TooLong)", d.Result, d.Reason)
	}
}

func TestGibberishFilter_RepeatedCharacter(t *testing.T) {
	f := NewGibberishFilter(config.Default().Gibberish)

	doc := &filter.Document{Text: strings.Repeat("a", 52)}
	d := f.Evaluate(doc)

	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject: %s", d.Result, d.Details)
	}
	if d.Reason != filter.ReasonGibberish {
		t.Errorf("reason = %v, want Gibberish", d.Reason)
	}
	if !strings.Contains(d.Details, "excessive character repetition") {
		t.Errorf("details missing repetition violation: %s", d.Details)
	}
	if !strings.Contains(d.Details, "long consecutive character runs") {
		t.Errorf("details missing consecutive run violation: %s", d.Details)
	}
}

func TestGibberishFilter_NormalText(t *testing.T) {
	f := NewGibberishFilter(config.Default().Gibberish)

	doc := &filter.Document{Text: "The weather this morning was clear and cool, with a light breeze from the north that carried the smell of rain."}
	d := f.Evaluate(doc)

	if d.Result != filter.ResultKeep {
		t.Fatalf("result = %v, want keep: %s", d.Result, d.Details)
	}
	if d.Confidence <= 0 || d.Confidence > 1 {
		t.Errorf("confidence = %v, want (0, 1]", d.Confidence)
	}
}

func TestGibberishFilter_SymbolSoup(t *testing.T) {
	f := NewGibberishFilter(config.Default().Gibberish)

	doc := &filter.Document{Text: "!@#$%^&*()!@#$%^&*()!@#$%^&*()"}
	d := f.Evaluate(doc)

	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject", d.Result)
	}
}

func TestRepetitionFilter_RepeatedSentence(t *testing.T) {
	f := NewRepetitionFilter(config.Default().Repetition)

	sentence := "The quick brown fox jumps over the lazy dog."
	doc := &filter.Document{Text: sentence + "\n" + sentence + "\n" + sentence}
	d := f.Evaluate(doc)

	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject: %s", d.Result, d.Details)
	}
	if d.Reason != filter.ReasonHighRepetition {
		t.Errorf("reason = %v, want HighRepetition", d.Reason)
	}
	if d.Metrics["line_repetition_ratio"] <= 0.66 {
		t.Errorf("line_repetition_ratio = %v, want > 0.66", d.Metrics["line_repetition_ratio"])
	}
	if d.Metrics["unique_word_ratio"] >= 0.5 {
		t.Errorf("unique_word_ratio = %v, want < 0.5", d.Metrics["unique_word_ratio"])
	}
}

func TestRepetitionFilter_DiverseText(t *testing.T) {
	f := NewRepetitionFilter(config.Default().Repetition)

	doc := &filter.Document{Text: "Researchers announced a new approach to measuring glacier thickness from orbit.\n" +
		"The method combines radar altimetry with gravity measurements taken by paired satellites.\n" +
		"Early results suggest some Himalayan glaciers are thinning faster than models predicted."}
	d := f.Evaluate(doc)

	if d.Result != filter.ResultKeep {
		t.Fatalf("result = %v, want keep: %s", d.Result, d.Details)
	}
}

func TestTemplateLike(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, "Item 1234: widget")
	}
	if !isTemplateLike(strings.Join(lines, "\n")) {
		t.Error("uniform shape lines should be template-like")
	}

	if isTemplateLike("one line\nanother") {
		t.Error("short documents are never template-like")
	}
}

func TestFormatFilter_CodeContent(t *testing.T) {
	f := NewFormatFilter(config.Default().Format)

	doc := &filter.Document{Text: "function main() {\n  var x = compute();\n  const y = x + 1;\n}\nclass Thing {\n  private int n;\n}"}
	d := f.Evaluate(doc)

	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject: %s", d.Result, d.Details)
	}
	if d.Reason != filter.ReasonPoorFormatting {
		t.Errorf("reason = %v, want PoorFormatting", d.Reason)
	}
}

func TestFormatFilter_Prose(t *testing.T) {
	f := NewFormatFilter(config.Default().Format)

	doc := &filter.Document{Text: "The harvest festival drew visitors from across the valley. Stalls lined the main street selling preserves, woolen goods, and fresh bread. By evening the square had filled with music."}
	d := f.Evaluate(doc)

	if d.Result != filter.ResultKeep {
		t.Fatalf("result = %v, want keep: %s", d.Result, d.Details)
	}
}

func TestFormatFilter_HTMLMarkup(t *testing.T) {
	f := NewFormatFilter(config.Default().Format)

	doc := &filter.Document{Text: "<div><span>tiny</span></div><p>x</p>"}
	d := f.Evaluate(doc)

	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject for markup-heavy text", d.Result)
	}
}
