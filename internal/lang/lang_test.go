package lang

import (
	"testing"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
)

func TestRuleBased_DetectsEnglish(t *testing.T) {
	d := NewRuleBased()

	det := d.Detect("It is the best of all the options that you can be offered at this time, and this is for you.")
	if det.Language != "en" {
		t.Fatalf("language = %s, want en (confidence %v)", det.Language, det.Confidence)
	}
	if det.Confidence <= 0 || det.Confidence > 1 {
		t.Errorf("confidence %v out of (0,1]", det.Confidence)
	}
}

func TestRuleBased_DetectsGerman(t *testing.T) {
	d := NewRuleBased()

	det := d.Detect("Der Hund und die Katze sind in dem Garten mit den Kindern und das ist für die Familie.")
	if det.Language != "de" {
		t.Fatalf("language = %s, want de", det.Language)
	}
}

func TestRuleBased_ShortTextUnknown(t *testing.T) {
	d := NewRuleBased()

	det := d.Detect("hi there")
	if det.Language != "unknown" || det.Confidence != 0 {
		t.Errorf("short text detection = %+v, want unknown/0", det)
	}
}

func TestRuleBased_BatchMatchesSingle(t *testing.T) {
	d := NewRuleBased()

	texts := []string{
		"the cat sat on the mat and it was this that he wanted",
		"el perro y el gato se fueron con un amigo por la calle",
	}
	batch := d.DetectBatch(texts)
	if len(batch) != 2 {
		t.Fatalf("batch length = %d", len(batch))
	}
	for i, text := range texts {
		single := d.Detect(text)
		if batch[i] != single {
			t.Errorf("batch[%d] = %+v, single = %+v", i, batch[i], single)
		}
	}
}

func TestAdjustConfidenceForLength(t *testing.T) {
	tests := []struct {
		length int
		factor float64
	}{
		{10, 0.5},
		{30, 0.7},
		{80, 0.9},
		{500, 1.0},
	}

	for _, tt := range tests {
		if got := AdjustConfidenceForLength(1.0, tt.length); got != tt.factor {
			t.Errorf("AdjustConfidenceForLength(1.0, %d) = %v, want %v", tt.length, got, tt.factor)
		}
	}
}

func TestHasMixedScripts(t *testing.T) {
	latin := "The weather is pleasant today and the streets are quiet everywhere."
	mixed := "The weather сегодня просто отличная and the streets are quiet по всему городу."

	if HasMixedScripts(latin) {
		t.Error("pure latin flagged as mixed")
	}
	if !HasMixedScripts(mixed) {
		t.Error("latin+cyrillic not flagged as mixed")
	}
}

func TestClassifier_MissingModelFallsBack(t *testing.T) {
	d := NewDetector("/nonexistent/model.tsv")

	if _, ok := d.(*RuleBased); !ok {
		t.Fatalf("detector type = %T, want rule-based fallback", d)
	}
	if !d.Ready() {
		t.Error("fallback detector not ready")
	}
}

func TestFilter_RejectsShortText(t *testing.T) {
	f := NewFilter(config.Language{MinConfidence: 0.1, MinTextLength: 50})

	d := f.Evaluate(&filter.Document{Text: "too short"})
	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject for short text", d.Result)
	}
}

func TestFilter_TargetLanguages(t *testing.T) {
	cfg := config.Language{
		TargetLanguages: []string{"de"},
		MinConfidence:   0.1,
		MinTextLength:   10,
	}
	f := NewFilter(cfg)

	english := &filter.Document{Text: "It is the best of all the options that you can be offered at this time, and this is for you."}
	d := f.Evaluate(english)
	if d.Result != filter.ResultReject {
		t.Fatalf("english doc with de-only target = %v, want reject: %s", d.Result, d.Details)
	}

	german := &filter.Document{Text: "Der Hund und die Katze sind in dem Garten mit den Kindern und das ist für die Familie."}
	d = f.Evaluate(german)
	if d.Result != filter.ResultKeep {
		t.Fatalf("german doc with de target = %v, want keep: %s", d.Result, d.Details)
	}
}

func TestFilter_LanguageCounts(t *testing.T) {
	f := NewFilter(config.Language{MinConfidence: 0.1, MinTextLength: 10})

	f.Evaluate(&filter.Document{Text: "the cat sat on the mat and it was this that he wanted for now"})
	f.Evaluate(&filter.Document{Text: "the dog ran to the park and it was that which she wanted at last"})

	counts := f.LanguageCounts()
	if counts["en"] != 2 {
		t.Errorf("language counts = %v, want en=2", counts)
	}
}
