package extract

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// Engine selects how HTML becomes text.
type Engine int

const (
	// EngineTree is the default boilerplate-scoring extractor.
	EngineTree Engine = iota
	// EngineReadability delegates main-content detection to readability.
	EngineReadability
	// EngineSelector extracts the elements matching a CSS selector.
	EngineSelector
)

// ExtractReadability extracts the main article content with the
// readability algorithm and wraps it in the standard Result with metrics
// computed over the extracted text.
func (e *Extractor) ExtractReadability(htmlText, pageURL string) (Result, error) {
	base := &url.URL{}
	if pageURL != "" {
		if parsed, err := url.Parse(pageURL); err == nil {
			base = parsed
		}
	}

	article, err := readability.FromReader(strings.NewReader(htmlText), base)
	if err != nil {
		return Result{}, fmt.Errorf("readability extraction failed: %w", err)
	}

	text := e.clean(article.TextContent)

	result := Result{
		Text:                text,
		Title:               article.Title,
		URL:                 pageURL,
		Metadata:            extractMeta(htmlText),
		OriginalHTMLLength:  len(htmlText),
		ExtractedTextLength: len(text),
		ParagraphCount:      countParagraphs(text),
	}
	if result.OriginalHTMLLength > 0 {
		result.TextRatio = float64(result.ExtractedTextLength) / float64(result.OriginalHTMLLength)
	}

	return result, nil
}

// ExtractSelector extracts the text of all elements matching a CSS
// selector.
func (e *Extractor) ExtractSelector(htmlText, selector, pageURL string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	selection := doc.Find(selector)
	if selection.Length() == 0 {
		return Result{}, fmt.Errorf("no elements found matching selector: %s", selector)
	}

	var parts []string
	selection.Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})

	text := e.clean(strings.Join(parts, "\n\n"))

	result := Result{
		Text:                text,
		Title:               extractTitle(htmlText),
		URL:                 pageURL,
		Metadata:            extractMeta(htmlText),
		OriginalHTMLLength:  len(htmlText),
		ExtractedTextLength: len(text),
		ParagraphCount:      countParagraphs(text),
	}
	if result.OriginalHTMLLength > 0 {
		result.TextRatio = float64(result.ExtractedTextLength) / float64(result.OriginalHTMLLength)
	}

	return result, nil
}

// ToMarkdown converts an HTML fragment to Markdown for report output.
func ToMarkdown(htmlText string) (string, error) {
	converter := md.NewConverter("", true, nil)

	markdown, err := converter.ConvertString(htmlText)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}

	cleaned := strings.TrimSpace(markdown)
	cleaned = strings.ReplaceAll(cleaned, "\n\n\n", "\n\n")

	return cleaned, nil
}
