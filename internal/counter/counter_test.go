package counter

import "testing"

func TestWordCounter(t *testing.T) {
	c := WordCounter{}

	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"one", 1},
		{"several words in here", 4},
		{"  spaced   out  ", 2},
	}

	for _, tt := range tests {
		if got := c.Count(tt.input); got != tt.want {
			t.Errorf("Count(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestCharCounter(t *testing.T) {
	c := CharCounter{}

	if got := c.Count("héllo"); got != 5 {
		t.Errorf("rune count = %d, want 5", got)
	}
	if got := c.Count(""); got != 0 {
		t.Errorf("empty count = %d, want 0", got)
	}
}

func TestNew(t *testing.T) {
	if c, err := New(Words); err != nil || c.Name() != "words" {
		t.Errorf("New(Words) = %v, %v", c, err)
	}
	if c, err := New(Characters); err != nil || c.Name() != "characters" {
		t.Errorf("New(Characters) = %v, %v", c, err)
	}
}
