package textutil

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"already normal", "a b c", "a b c"},
		{"tabs and newlines", "a\t\tb\n\nc", "a b c"},
		{"leading and trailing", "  hello world  ", "hello world"},
		{"only whitespace", " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeWhitespace(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeWhitespace(%q) = %q, want %q", tt.input, got, tt.want)
			}

			// idempotence
			if again := NormalizeWhitespace(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"simple", "the quick fox", []string{"the", "quick", "fox"}},
		{"punctuation stripped", "Hello, world! (really)", []string{"Hello", "world", "really"}},
		{"pure punctuation dropped", "... --- !!!", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitWords(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitWords(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("a\n\nb\nc\n", false)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitLines drop-empty = %v, want %v", got, want)
	}

	got = SplitLines("a\n\nb", true)
	want = []string{"a", "", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitLines keep-empty = %v, want %v", got, want)
	}
}

func TestWordNgrams(t *testing.T) {
	got := WordNgrams("the quick brown fox", 2)
	want := []string{"the quick", "quick brown", "brown fox"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WordNgrams = %v, want %v", got, want)
	}

	if got := WordNgrams("one two", 3); got != nil {
		t.Errorf("WordNgrams with too few tokens = %v, want nil", got)
	}
}

func TestCharNgrams(t *testing.T) {
	got := CharNgrams("abcd", 3)
	want := []string{"abc", "bcd"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CharNgrams = %v, want %v", got, want)
	}

	got = CharNgrams("ab", 5)
	if !reflect.DeepEqual(got, []string{"ab"}) {
		t.Errorf("short input CharNgrams = %v, want [ab]", got)
	}
}

func TestCharacterEntropy(t *testing.T) {
	if e := CharacterEntropy(""); e != 0 {
		t.Errorf("entropy of empty = %v, want 0", e)
	}
	if e := CharacterEntropy("aaaa"); e != 0 {
		t.Errorf("entropy of uniform = %v, want 0", e)
	}

	// "ab" has one bit of entropy
	if e := CharacterEntropy("abab"); math.Abs(e-1.0) > 1e-9 {
		t.Errorf("entropy of abab = %v, want 1.0", e)
	}

	if low, high := CharacterEntropy("aaaaaab"), CharacterEntropy("abcdefg"); low >= high {
		t.Errorf("expected repetitive text entropy %v < diverse text entropy %v", low, high)
	}
}

func TestRatios(t *testing.T) {
	if r := AlphaRatio(""); r != 0 {
		t.Errorf("AlphaRatio empty = %v", r)
	}
	if r := AlphaRatio("ab12"); r != 0.5 {
		t.Errorf("AlphaRatio = %v, want 0.5", r)
	}
	if r := DigitRatio("ab12"); r != 0.5 {
		t.Errorf("DigitRatio = %v, want 0.5", r)
	}
	if r := SymbolRatio("a!b "); r != 0.25 {
		t.Errorf("SymbolRatio = %v, want 0.25", r)
	}
}

func TestLongestRun(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},
		{"aabbbcc", 3},
		{strings.Repeat("x", 12), 12},
	}

	for _, tt := range tests {
		if got := LongestRun(tt.input); got != tt.want {
			t.Errorf("LongestRun(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.example.com/path", "example.com"},
		{"http://sub.domain.org", "sub.domain.org"},
		{"https://example.com:8080/x", "example.com"},
		{"not a url", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractDomain(tt.url); got != tt.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestExtractTLD(t *testing.T) {
	if got := ExtractTLD("example.co.uk"); got != "uk" {
		t.Errorf("ExtractTLD = %q, want uk", got)
	}
	if got := ExtractTLD("localhost"); got != "" {
		t.Errorf("ExtractTLD(localhost) = %q, want empty", got)
	}
}

func TestIsIPAddress(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"192.168.1.1", true},
		{"255.255.255.255", true},
		{"256.1.1.1", false},
		{"1.2.3", false},
		{"example.com", false},
	}

	for _, tt := range tests {
		if got := IsIPAddress(tt.input); got != tt.want {
			t.Errorf("IsIPAddress(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestStripHTML(t *testing.T) {
	input := `<p>Fish &amp; Chips &mdash; only &#163;5</p>`
	want := "Fish & Chips — only £5"
	if got := StripHTML(input); got != want {
		t.Errorf("StripHTML = %q, want %q", got, want)
	}

	// idempotence on stripped output
	once := StripHTML(input)
	if twice := StripHTML(once); twice != once {
		t.Errorf("StripHTML not idempotent: %q -> %q", once, twice)
	}
}

func TestVowelConsonantRatio(t *testing.T) {
	if r := VowelConsonantRatio("bcdfg"); r != 0 {
		t.Errorf("no-vowel ratio = %v, want 0", r)
	}
	if r := VowelConsonantRatio("aeiou"); r != 999.0 {
		t.Errorf("all-vowel ratio = %v, want sentinel", r)
	}
	if r := VowelConsonantRatio("ba"); r != 1.0 {
		t.Errorf("balanced ratio = %v, want 1.0", r)
	}
}
