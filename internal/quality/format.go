package quality

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
	"github.com/ModeEric/RapidSift/internal/textutil"
)

var (
	htmlTagCountRegex = regexp.MustCompile(`<[^>]+>`)

	codePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(function|class|import|from|def|var|let|const)\b`),
		regexp.MustCompile(`\{[^}]*\}`),
		regexp.MustCompile(`\([^)]*\)\s*\{`),
		regexp.MustCompile(`#include|#define|#ifdef`),
		regexp.MustCompile(`\b(public|private|protected|static)\b`),
		regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*\s*=\s*[^;]+;`),
	}

	bulletLineRegex   = regexp.MustCompile(`^\s*[-*•◦▪▫‣⁃]\s+`)
	numberedLineRegex = regexp.MustCompile(`^\s*\d+[.)]\s+`)

	navigationPhraseRegex = regexp.MustCompile(`(?i)\b(home|about( us)?|contact( us)?|sitemap|log ?in|sign ?up)\b`)
	errorPageRegex        = regexp.MustCompile(`(?i)\b(404|403|500)\b.*\b(not found|forbidden|error)\b|\bpage not found\b|\baccess denied\b`)
	formContentRegex      = regexp.MustCompile(`(?i)\b(submit|required field|enter your|please fill|checkbox|drop-?down)\b`)
)

// FormatFilter rejects documents dominated by markup, code, or degenerate
// line structure.
type FormatFilter struct {
	cfg      config.Format
	unwanted []*regexp.Regexp
}

// NewFormatFilter returns a format filter with compiled unwanted patterns.
func NewFormatFilter(cfg config.Format) *FormatFilter {
	f := &FormatFilter{cfg: cfg}
	f.compile()
	return f
}

// Name implements filter.Filter.
func (f *FormatFilter) Name() string { return "format" }

// Configure implements filter.Filter.
func (f *FormatFilter) Configure(cfg *config.Config) error {
	f.cfg = cfg.Format
	f.compile()
	return nil
}

func (f *FormatFilter) compile() {
	f.unwanted = f.unwanted[:0]
	for _, p := range f.cfg.UnwantedPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			slog.Warn("skipping invalid unwanted pattern", "pattern", p, "error", err)
			continue
		}
		f.unwanted = append(f.unwanted, re)
	}
}

// Evaluate checks markup ratio, code likeness, line structure, list
// likeness, and special page types.
func (f *FormatFilter) Evaluate(doc *filter.Document) filter.Decision {
	text := doc.Text
	if text == "" {
		return filter.Keep(1.0, "empty document")
	}

	htmlRatio := htmlRatio(text)
	codeRatio := codeRatio(text)
	singleLineRatio := singleLineRatio(text)
	listRatio := listRatio(text)

	metrics := map[string]float64{
		"html_ratio":        htmlRatio,
		"code_ratio":        codeRatio,
		"single_line_ratio": singleLineRatio,
		"list_ratio":        listRatio,
	}

	var violations []string

	if htmlRatio > f.cfg.MaxHTMLRatio {
		violations = append(violations, fmt.Sprintf("excessive HTML markup (%d%%)", int(htmlRatio*100)))
	}
	if codeRatio > f.cfg.MaxCodeRatio {
		violations = append(violations, fmt.Sprintf("appears to be code (%d%% code-like)", int(codeRatio*100)))
	}
	if singleLineRatio > f.cfg.MaxSingleLineRatio && !(f.cfg.AllowPoetry && isPoetryLike(text)) {
		violations = append(violations, fmt.Sprintf("poor line structure (%d%% single-word lines)", int(singleLineRatio*100)))
	}
	if listRatio > 0.6 && !f.cfg.AllowLists {
		violations = append(violations, fmt.Sprintf("mostly list items (%d%%)", int(listRatio*100)))
	}
	if f.matchesUnwanted(text) {
		violations = append(violations, "matches unwanted formatting pattern")
	}
	if isNavigationContent(text) {
		violations = append(violations, "appears to be a navigation page")
	}
	if errorPageRegex.MatchString(text) {
		violations = append(violations, "appears to be an error page")
	}
	if isFormContent(text) {
		violations = append(violations, "appears to be form content")
	}

	if len(violations) > 0 {
		conf := 0.6 + 0.1*float64(len(violations))
		if conf > 0.95 {
			conf = 0.95
		}
		d := filter.Reject(filter.ReasonPoorFormatting, conf, "poor formatting detected: "+strings.Join(violations, ", "))
		d.Metrics = metrics
		return d
	}

	d := filter.Keep(1.0, "formatting acceptable")
	d.Metrics = metrics
	return d
}

func (f *FormatFilter) matchesUnwanted(text string) bool {
	for _, re := range f.unwanted {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// htmlRatio is the fraction of bytes occupied by markup tags.
func htmlRatio(text string) float64 {
	if text == "" {
		return 0
	}

	tagBytes := 0
	for _, m := range htmlTagCountRegex.FindAllString(text, -1) {
		tagBytes += len(m)
	}

	return float64(tagBytes) / float64(len(text))
}

// codeRatio is the fraction of lines that match a programming pattern.
func codeRatio(text string) float64 {
	lines := textutil.SplitLines(text, false)
	if len(lines) == 0 {
		return 0
	}

	codeLines := 0
	for _, line := range lines {
		for _, re := range codePatterns {
			if re.MatchString(line) {
				codeLines++
				break
			}
		}
	}

	return float64(codeLines) / float64(len(lines))
}

// singleLineRatio is the fraction of lines holding at most three words.
func singleLineRatio(text string) float64 {
	lines := textutil.SplitLines(text, false)
	if len(lines) < 3 {
		return 0
	}

	short := 0
	for _, line := range lines {
		if len(strings.Fields(line)) <= 3 {
			short++
		}
	}

	return float64(short) / float64(len(lines))
}

func listRatio(text string) float64 {
	lines := textutil.SplitLines(text, false)
	if len(lines) < 3 {
		return 0
	}

	bullets := 0
	for _, line := range lines {
		if bulletLineRegex.MatchString(line) || numberedLineRegex.MatchString(line) {
			bullets++
		}
	}

	return float64(bullets) / float64(len(lines))
}

// isPoetryLike accepts short lines when they form consistent stanzas:
// mostly non-empty short lines grouped by blank separators.
func isPoetryLike(text string) bool {
	lines := textutil.SplitLines(text, true)
	if len(lines) < 4 {
		return false
	}

	short, blank := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			blank++
			continue
		}
		if n := len(strings.Fields(trimmed)); n >= 2 && n <= 10 {
			short++
		}
	}

	return blank > 0 && float64(short)/float64(len(lines)-blank) > 0.7
}

func isNavigationContent(text string) bool {
	lines := textutil.SplitLines(text, false)
	if len(lines) == 0 {
		return false
	}

	// Pipe-separated menus on a single short line count too.
	if len(lines) <= 2 && strings.Count(text, "|") >= 2 && len(text) < 200 {
		return navigationPhraseRegex.MatchString(text)
	}

	navLines := 0
	for _, line := range lines {
		if len(strings.Fields(line)) <= 4 && navigationPhraseRegex.MatchString(line) {
			navLines++
		}
	}

	return len(lines) >= 3 && float64(navLines)/float64(len(lines)) > 0.5
}

func isFormContent(text string) bool {
	matches := formContentRegex.FindAllString(text, -1)
	words := len(strings.Fields(text))
	return words > 0 && len(matches) >= 3 && float64(len(matches))/float64(words) > 0.05
}
