package extract

import (
	stdhtml "html"
	"regexp"
	"strings"

	"github.com/ModeEric/RapidSift/internal/config"
	"github.com/ModeEric/RapidSift/internal/filter"
	"github.com/ModeEric/RapidSift/internal/textutil"
)

// Result holds the extracted text and its quality metrics.
type Result struct {
	Text     string
	Title    string
	URL      string
	Headings []string
	Links    []string
	Metadata map[string]string

	OriginalHTMLLength  int
	ExtractedTextLength int
	TextRatio           float64
	ParagraphCount      int
	LinkCount           int
	LinkDensity         float64 // links per 100 characters of extracted text
}

// Valid reports whether extraction produced usable text: at least 50
// characters and a text/HTML ratio of at least 0.1.
func (r *Result) Valid() bool {
	return r.ExtractedTextLength >= 50 && r.TextRatio >= 0.1
}

// QualityScore fuses text ratio, paragraph count, and link density into
// [0, 1].
func (r *Result) QualityScore() float64 {
	score := minF(r.TextRatio*2.0, 1.0) * 0.4
	score += minF(float64(r.ParagraphCount)/10.0, 1.0) * 0.3
	score += (1.0 - minF(r.LinkDensity/10.0, 1.0)) * 0.3
	return score
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

var (
	contentTags = map[string]struct{}{
		"article": {}, "main": {}, "section": {}, "div": {}, "p": {},
		"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	}
	boilerplateTags = map[string]struct{}{
		"script": {}, "style": {}, "noscript": {}, "iframe": {}, "embed": {},
		"object": {}, "nav": {}, "header": {}, "footer": {}, "aside": {}, "menu": {},
	}
	formTags = map[string]struct{}{
		"form": {}, "input": {}, "select": {}, "textarea": {}, "button": {}, "label": {},
	}

	contentClassRegex = regexp.MustCompile(`(?i)\b(content|article|main|body|text|post|entry)\b`)
	navClassRegex     = regexp.MustCompile(`(?i)\b(nav|navigation|menu|sidebar|footer|header)\b`)
	adClassRegex      = regexp.MustCompile(`(?i)\b(ad|ads|advertisement|banner|sponsor)\b`)

	headingTags = map[string]struct{}{
		"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	}
)

// mojibakeTable maps the usual UTF-8-read-as-Latin-1 sequences back to
// their characters.
var mojibakeTable = [][2]string{
	{"â", "'"},
	{"â", "'"},
	{"â", "“"},
	{"â", "”"},
	{"â", "–"},
	{"â", "—"},
	{"â¦", "…"},
	{"Â ", " "},
}

// Extractor converts HTML into cleaned text with quality metrics.
type Extractor struct {
	cfg config.Extract
}

// NewExtractor returns an extractor with the given configuration.
func NewExtractor(cfg config.Extract) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract runs the full pipeline on one HTML document: parse, metadata,
// boilerplate scoring, content selection, text assembly, cleaning, and
// metrics. Empty input yields an invalid zero result; malformed HTML
// yields best-effort text.
func (e *Extractor) Extract(htmlText, url string) Result {
	result := Result{
		URL:                url,
		OriginalHTMLLength: len(htmlText),
		Metadata:           map[string]string{},
	}
	if strings.TrimSpace(htmlText) == "" {
		return result
	}

	// Title and meta come from regex before tree traversal so malformed
	// pages still yield useful metadata.
	result.Title = extractTitle(htmlText)
	result.Metadata = extractMeta(htmlText)

	t := parse(htmlText)

	root := 0
	if e.cfg.ExtractMainContent {
		e.dropBoilerplate(t, 0)
		root = e.bestSubtree(t)
	}

	result.Headings = e.collectHeadings(t, root)
	if e.cfg.PreserveLinks {
		result.Links = e.collectLinks(t, root)
	}
	result.LinkCount = t.subtreeLinkCount(root)

	var b strings.Builder
	e.assemble(t, root, &b)
	text := e.clean(b.String())

	result.Text = text
	result.ExtractedTextLength = len(text)
	if result.OriginalHTMLLength > 0 {
		result.TextRatio = float64(result.ExtractedTextLength) / float64(result.OriginalHTMLLength)
	}
	result.ParagraphCount = countParagraphs(text)

	if result.ExtractedTextLength > 0 {
		result.LinkDensity = float64(result.LinkCount) / float64(result.ExtractedTextLength) * 100.0
	}

	return result
}

// ExtractBatch extracts every document, reporting progress after each.
func (e *Extractor) ExtractBatch(htmlDocs []string, urls []string, progress filter.ProgressFunc) []Result {
	results := make([]Result, len(htmlDocs))
	for i, doc := range htmlDocs {
		url := ""
		if i < len(urls) {
			url = urls[i]
		}
		results[i] = e.Extract(doc, url)
		if progress != nil {
			progress(i+1, len(htmlDocs), nil)
		}
	}
	return results
}

// score implements the boilerplate scoring rules for one element.
func (e *Extractor) score(t *tree, idx int) float64 {
	node := &t.nodes[idx]
	score := 0.0

	if _, ok := contentTags[node.tag]; ok {
		score += 10
	}

	classAndID := t.attr(idx, "class") + " " + t.attr(idx, "id")
	if contentClassRegex.MatchString(classAndID) {
		score += 10
	}

	textLen := t.subtreeTextLen(idx)
	score += minF(float64(textLen)/10.0, 20.0)

	if _, ok := boilerplateTags[node.tag]; ok {
		score -= 20
	}
	if navClassRegex.MatchString(classAndID) {
		score -= 15
	}
	if adClassRegex.MatchString(classAndID) {
		score -= 25
	}

	if textLen > 0 {
		density := float64(t.subtreeLinkCount(idx)) / float64(textLen) * 100.0
		if density > 5 {
			score -= density
		}
	}

	return score
}

// isBoilerplate reports whether an element should be dropped entirely
// under the current configuration.
func (e *Extractor) isBoilerplate(t *tree, idx int) bool {
	tag := t.nodes[idx].tag
	classAndID := t.attr(idx, "class") + " " + t.attr(idx, "id")

	switch tag {
	case "script", "noscript":
		if e.cfg.RemoveScripts {
			return true
		}
	case "style":
		if e.cfg.RemoveStyles {
			return true
		}
	case "iframe", "embed", "object":
		return true
	case "nav", "menu":
		if e.cfg.RemoveNavigation {
			return true
		}
	case "header", "footer", "aside":
		if e.cfg.RemoveHeadersFooters {
			return true
		}
	}

	if _, ok := formTags[tag]; ok && e.cfg.RemoveForms {
		return true
	}
	if e.cfg.RemoveNavigation && navClassRegex.MatchString(classAndID) {
		return true
	}
	if e.cfg.RemoveAds && adClassRegex.MatchString(classAndID) {
		return true
	}

	return false
}

// dropBoilerplate prunes boilerplate subtrees in place.
func (e *Extractor) dropBoilerplate(t *tree, idx int) {
	kept := t.nodes[idx].children[:0]
	for _, c := range t.nodes[idx].children {
		if e.isBoilerplate(t, c) {
			continue
		}
		e.dropBoilerplate(t, c)
		kept = append(kept, c)
	}
	t.nodes[idx].children = kept
}

// bestSubtree picks the highest-scoring element as the content root,
// falling back to the document root when nothing scores positive.
func (e *Extractor) bestSubtree(t *tree) int {
	best, bestScore := 0, 0.0

	var walk func(idx int)
	walk = func(idx int) {
		if idx != 0 {
			if s := e.score(t, idx); s > bestScore {
				best, bestScore = idx, s
			}
		}
		for _, c := range t.nodes[idx].children {
			walk(c)
		}
	}
	walk(0)

	return best
}

// assemble walks the subtree depth-first appending text, with newlines
// after block elements.
func (e *Extractor) assemble(t *tree, idx int, b *strings.Builder) {
	node := &t.nodes[idx]

	if text := strings.TrimSpace(node.text); text != "" {
		b.WriteString(text)
		b.WriteByte(' ')
	}

	_, isHeading := headingTags[node.tag]
	if node.tag == "p" || isHeading {
		b.WriteByte('\n')
	}

	for _, c := range t.nodes[idx].children {
		e.assemble(t, c, b)
	}

	switch {
	case node.tag == "br" || node.tag == "div":
		b.WriteByte('\n')
	case node.tag == "p" || isHeading:
		b.WriteString("\n\n")
	}
}

var multiNewlineRegex = regexp.MustCompile(`\n{3,}`)

// clean applies the configured text cleanup: entity decoding, mojibake
// repair, whitespace normalization per line, and newline collapsing.
func (e *Extractor) clean(text string) string {
	if e.cfg.DecodeEntities {
		text = stdhtml.UnescapeString(text)
	}
	if e.cfg.FixMojibake {
		for _, pair := range mojibakeTable {
			text = strings.ReplaceAll(text, pair[0], pair[1])
		}
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if e.cfg.NormalizeWhitespace {
			line = textutil.NormalizeWhitespace(line)
		} else if e.cfg.TrimLines {
			line = strings.TrimSpace(line)
		}
		lines[i] = line
	}
	text = strings.Join(lines, "\n")

	if e.cfg.RemoveExtraNewlines {
		text = multiNewlineRegex.ReplaceAllString(text, "\n\n")
	}

	return strings.TrimSpace(text)
}

// collectHeadings returns the h1..h6 texts under root in document order.
func (e *Extractor) collectHeadings(t *tree, root int) []string {
	var headings []string

	var walk func(idx int)
	walk = func(idx int) {
		if _, ok := headingTags[t.nodes[idx].tag]; ok {
			var b strings.Builder
			collectText(t, idx, &b)
			if h := textutil.NormalizeWhitespace(b.String()); h != "" {
				headings = append(headings, h)
			}
		}
		for _, c := range t.nodes[idx].children {
			walk(c)
		}
	}
	walk(root)

	return headings
}

// collectLinks returns the href targets under root.
func (e *Extractor) collectLinks(t *tree, root int) []string {
	var links []string

	var walk func(idx int)
	walk = func(idx int) {
		if t.nodes[idx].tag == "a" {
			if href := t.attr(idx, "href"); href != "" {
				links = append(links, href)
			}
		}
		for _, c := range t.nodes[idx].children {
			walk(c)
		}
	}
	walk(root)

	return links
}

func collectText(t *tree, idx int, b *strings.Builder) {
	if text := strings.TrimSpace(t.nodes[idx].text); text != "" {
		b.WriteString(text)
		b.WriteByte(' ')
	}
	for _, c := range t.nodes[idx].children {
		collectText(t, c, b)
	}
}

// countParagraphs counts blank-line-separated blocks of the cleaned text.
func countParagraphs(text string) int {
	if text == "" {
		return 0
	}

	count := 0
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count
}

func decodeEntities(s string) string {
	return stdhtml.UnescapeString(s)
}
