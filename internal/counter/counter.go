// Package counter provides text counting strategies used to bound model
// inputs: tokens (tiktoken cl100k_base), words, and characters.
package counter

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts text in some unit.
type Counter interface {
	Count(text string) int
	Name() string
}

// Method selects a counting strategy.
type Method int

const (
	Tokens Method = iota
	Words
	Characters
)

// New returns a counter for the method. Token counting can fail when the
// encoding is unavailable.
func New(method Method) (Counter, error) {
	switch method {
	case Words:
		return WordCounter{}, nil
	case Characters:
		return CharCounter{}, nil
	default:
		return NewTokenCounter()
	}
}

// WordCounter counts whitespace-delimited words.
type WordCounter struct{}

// Count implements Counter.
func (WordCounter) Count(text string) int { return len(strings.Fields(text)) }

// Name implements Counter.
func (WordCounter) Name() string { return "words" }

// CharCounter counts UTF-8 runes, not bytes.
type CharCounter struct{}

// Count implements Counter.
func (CharCounter) Count(text string) int { return utf8.RuneCountInString(text) }

// Name implements Counter.
func (CharCounter) Name() string { return "characters" }

// TokenCounter counts and truncates by tiktoken cl100k_base tokens. Safe
// for concurrent use.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

// NewTokenCounter initializes the cl100k_base encoding.
func NewTokenCounter() (*TokenCounter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cl100k_base encoding: %w", err)
	}
	return &TokenCounter{encoding: encoding}, nil
}

// Count implements Counter.
func (tc *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}

	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.encoding.Encode(text, nil, nil))
}

// Name implements Counter.
func (tc *TokenCounter) Name() string { return "tokens (cl100k_base)" }

// Truncate returns text cut to at most maxTokens tokens.
func (tc *TokenCounter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 || text == "" {
		return ""
	}

	tc.mu.RLock()
	defer tc.mu.RUnlock()

	tokens := tc.encoding.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}

	return tc.encoding.Decode(tokens[:maxTokens])
}
