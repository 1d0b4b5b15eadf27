package model

import (
	"strings"
	"testing"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
)

func TestPerplexityModel_Bounds(t *testing.T) {
	m := NewPerplexityModel(50.0)

	texts := []string{
		"The library opens at nine and closes at five on weekdays.",
		"111111 222222 333333 444444 !!!!! $$$$$",
		"",
	}

	for _, text := range texts {
		pred, err := m.Predict(text)
		if err != nil {
			t.Fatalf("Predict(%q): %v", text, err)
		}
		if pred.QualityScore < 0 || pred.QualityScore > 1 {
			t.Errorf("quality score %v out of [0,1] for %q", pred.QualityScore, text)
		}
		if pred.Perplexity <= 0 {
			t.Errorf("perplexity %v should be positive for %q", pred.Perplexity, text)
		}
	}
}

func TestPerplexityModel_NoisyTextScoresWorse(t *testing.T) {
	m := NewPerplexityModel(50.0)

	clean, _ := m.Predict("The committee published its findings after a six month review of the data.")
	noisy, _ := m.Predict("$$$ 4444 @@@ 9999 %%% 1111 ### 7777 &&& 2222")

	if noisy.QualityScore >= clean.QualityScore {
		t.Errorf("noisy text quality %v should be below clean text quality %v",
			noisy.QualityScore, clean.QualityScore)
	}
}

func TestPerplexityModel_Unloaded(t *testing.T) {
	m := NewPerplexityModel(50.0)
	m.Unload()

	if _, err := m.Predict("anything"); err == nil {
		t.Error("unloaded model should refuse to predict")
	}
	if m.Loaded() {
		t.Error("model reports loaded after Unload")
	}
}

func TestKeywordClassifier_SpamScoresWorse(t *testing.T) {
	m := NewKeywordClassifierModel()

	quality, err := m.Predict("This research study presents a detailed analysis of the evidence, " +
		"explaining the method and discussing each result in a dedicated chapter.")
	if err != nil {
		t.Fatal(err)
	}

	spam, err := m.Predict("Click here to subscribe to our newsletter! Limited offer: " +
		"download now, claim your discount, winner announced after signup.")
	if err != nil {
		t.Fatal(err)
	}

	if spam.QualityScore >= quality.QualityScore {
		t.Errorf("spam score %v should be below quality score %v",
			spam.QualityScore, quality.QualityScore)
	}
	for _, p := range []Prediction{quality, spam} {
		if p.QualityScore < 0 || p.QualityScore > 1 {
			t.Errorf("score %v out of range", p.QualityScore)
		}
		if p.Confidence < 0 || p.Confidence > 1 {
			t.Errorf("confidence %v out of range", p.Confidence)
		}
	}
}

func TestKeywordClassifier_EmptyText(t *testing.T) {
	m := NewKeywordClassifierModel()

	pred, err := m.Predict("   ")
	if err != nil {
		t.Fatal(err)
	}
	if pred.QualityScore != 0 {
		t.Errorf("empty text score = %v, want 0", pred.QualityScore)
	}
}

func TestFilter_UnknownWhenNothingLoaded(t *testing.T) {
	f, err := NewFilter(config.Default().Model)
	if err != nil {
		t.Fatal(err)
	}
	f.UnloadAll()

	d := f.Evaluate(&filter.Document{Text: "some text"})
	if d.Result != filter.ResultUnknown {
		t.Fatalf("result = %v, want unknown with no loaded models", d.Result)
	}
}

func TestFilter_KeepsReasonableText(t *testing.T) {
	f, err := NewFilter(config.Default().Model)
	if err != nil {
		t.Fatal(err)
	}

	d := f.Evaluate(&filter.Document{Text: "The museum extended its opening hours for the summer exhibition, " +
		"and attendance rose steadily through July as the program expanded."})
	if d.Result != filter.ResultKeep {
		t.Fatalf("result = %v, want keep: %s", d.Result, d.Details)
	}
	if d.Metrics["quality_score"] < 0 || d.Metrics["quality_score"] > 1 {
		t.Errorf("quality score %v out of range", d.Metrics["quality_score"])
	}
}

func TestFilter_MultiStageShortCircuit(t *testing.T) {
	cfg := config.Default().Model
	cfg.MultiStage = true
	cfg.ShortCircuit = true
	// An impossible stage threshold forces immediate rejection.
	cfg.Stages = []config.ModelStage{{Model: "perplexity", Threshold: 1.1}}

	f, err := NewFilter(cfg)
	if err != nil {
		t.Fatal(err)
	}

	d := f.Evaluate(&filter.Document{Text: "Any document fails a threshold above one."})
	if d.Result != filter.ResultReject {
		t.Fatalf("result = %v, want reject from stage short-circuit", d.Result)
	}
	if !strings.Contains(d.Details, "stage 0") {
		t.Errorf("details should name the rejecting stage: %s", d.Details)
	}
}

func TestFilter_CacheStability(t *testing.T) {
	f, err := NewFilter(config.Default().Model)
	if err != nil {
		t.Fatal(err)
	}

	doc := &filter.Document{Text: "Repeated evaluations of the same text must agree."}
	first := f.Evaluate(doc)
	second := f.Evaluate(doc)

	if first.Metrics["quality_score"] != second.Metrics["quality_score"] {
		t.Errorf("cached score changed: %v then %v",
			first.Metrics["quality_score"], second.Metrics["quality_score"])
	}
}
