// Package chunk splits text into bounded pieces along semantic
// boundaries. The model-quality filter scores documents per chunk.
//
// Splitting proceeds in waves over progressively smaller units: paragraph
// boundaries, sentence boundaries, line boundaries, and finally word
// boundaries for oversized remainders.
package chunk

import "strings"

// splitStrategy is one boundary type, largest first.
type splitStrategy struct {
	name      string
	delimiter string
}

var strategies = []splitStrategy{
	{name: "paragraph", delimiter: "\n\n"},
	{name: "sentence", delimiter: ". "},
	{name: "sentence-question", delimiter: "? "},
	{name: "sentence-exclamation", delimiter: "! "},
	{name: "line", delimiter: "\n"},
	{name: "word", delimiter: " "},
}

// Split breaks text into chunks no longer than maxChars, preserving
// semantic boundaries where possible. A non-positive limit returns the
// whole text as one chunk.
func Split(text string, maxChars int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if maxChars <= 0 || len(trimmed) <= maxChars {
		return []string{trimmed}
	}

	chunks := []string{trimmed}
	for _, strategy := range strategies {
		var next []string
		for _, c := range chunks {
			if len(c) <= maxChars {
				next = append(next, c)
				continue
			}
			next = append(next, splitWith(c, strategy.delimiter, maxChars)...)
		}
		chunks = next

		if allWithin(chunks, maxChars) {
			break
		}
	}

	return chunks
}

// splitWith greedily packs delimiter-separated pieces into chunks of at
// most maxChars. Pieces that alone exceed the limit are passed through for
// a finer strategy to handle.
func splitWith(text, delimiter string, maxChars int) []string {
	pieces := strings.Split(text, delimiter)
	if len(pieces) == 1 {
		return []string{text}
	}

	// Re-attach the delimiter to every piece but the last so content is
	// not lost.
	for i := 0; i < len(pieces)-1; i++ {
		pieces[i] += delimiter
	}

	var chunks []string
	var current strings.Builder

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece) > maxChars {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if len(piece) > maxChars && current.Len() == 0 {
			chunks = append(chunks, piece)
			continue
		}
		current.WriteString(piece)
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	// Drop empties introduced by consecutive delimiters.
	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}

	return out
}

func allWithin(chunks []string, maxChars int) bool {
	for _, c := range chunks {
		if len(c) > maxChars {
			return false
		}
	}
	return true
}
