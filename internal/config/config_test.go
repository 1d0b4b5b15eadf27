package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_Validates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"rejection threshold above one", func(c *Config) { c.RejectionThreshold = 1.5 }},
		{"negative threads", func(c *Config) { c.NumThreads = -1 }},
		{"inverted length bounds", func(c *Config) { c.Length.MinWords = 100; c.Length.MaxWords = 10 }},
		{"banding mismatch", func(c *Config) { c.Dedup.Bands = 10 }},
		{"decontam ngram too small", func(c *Config) { c.Decontam.NgramSize = 3 }},
		{"decontam ngram too large", func(c *Config) { c.Decontam.NgramSize = 99 }},
		{"bad false positive rate", func(c *Config) { c.Decontam.FalsePositiveRate = 1.5 }},
		{"unknown mode", func(c *Config) { c.Mode = "aggressive" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for input, want := range map[string]Mode{"": Balanced, "balanced": Balanced, "strict": Strict, "sanitize": Sanitize} {
		got, err := ParseMode(input)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", input, got, err)
		}
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `mode: strict
rejection_threshold: 0.6
length:
  min_words: 12
  max_words: 5000
  min_chars: 40
  max_chars: 100000
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "strict" || cfg.RejectionThreshold != 0.6 {
		t.Errorf("top-level overrides not applied: %+v", cfg)
	}
	if cfg.Length.MinWords != 12 {
		t.Errorf("length.min_words = %d, want 12", cfg.Length.MinWords)
	}
	// Untouched sections keep defaults.
	if cfg.Dedup.NumPermutations != 128 {
		t.Errorf("dedup defaults lost: %+v", cfg.Dedup)
	}
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := os.WriteFile(path, []byte(`{"mode": "sanitize"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "sanitize" {
		t.Errorf("mode = %q, want sanitize", cfg.Mode)
	}
}

func TestLoad_BadExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected unsupported-format error")
	}
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("rejection_threshold: 7.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error on load")
	}
}
