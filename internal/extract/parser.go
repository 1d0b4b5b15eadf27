// Package extract converts HTML into cleaned main text plus quality
// metrics: boilerplate scoring over a parsed element tree, content
// selection, text assembly, and cleaning.
//
// Three engines are available: the default tree engine with boilerplate
// scoring, a readability engine, and a CSS-selector engine.
package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// element is one node in the parsed tree. Elements live in an arena and
// refer to each other by index; parent is -1 for the synthetic document
// root.
type element struct {
	tag      string
	attrs    map[string]string
	text     string
	children []int
	parent   int
}

// tree is the arena of parsed elements. Index 0 is always the synthetic
// "document" root, which also absorbs text outside any element.
type tree struct {
	nodes []element
}

// voidTags never carry children.
var voidTags = map[string]struct{}{
	"br": {}, "hr": {}, "img": {}, "input": {}, "meta": {}, "link": {},
	"area": {}, "base": {}, "col": {}, "embed": {}, "source": {}, "track": {}, "wbr": {},
}

// parse tokenizes HTML into an element tree. The parser is permissive:
// a mismatched closing tag pops up to the nearest matching open element
// (absorbing anything unclosed in between) and is ignored when no such
// element is open. Self-closing syntax is honored.
func parse(htmlText string) *tree {
	t := &tree{}
	t.nodes = append(t.nodes, element{tag: "document", parent: -1})

	tokenizer := html.NewTokenizer(strings.NewReader(htmlText))
	current := 0
	// Open-element stack by arena index; index 0 stays at the bottom.
	stack := []int{0}

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return t

		case html.StartTagToken:
			name, hasAttr := tokenizer.TagName()
			tag := strings.ToLower(string(name))
			idx := t.addChild(current, tag, readAttrs(tokenizer, hasAttr))

			if _, void := voidTags[tag]; !void {
				stack = append(stack, idx)
				current = idx
			}

		case html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			t.addChild(current, strings.ToLower(string(name)), readAttrs(tokenizer, hasAttr))

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := strings.ToLower(string(name))

			// Pop to the matching open element; unclosed descendants are
			// absorbed by it. Ignore the tag when nothing matches.
			for i := len(stack) - 1; i > 0; i-- {
				if t.nodes[stack[i]].tag == tag {
					stack = stack[:i]
					current = stack[len(stack)-1]
					break
				}
			}

		case html.TextToken:
			text := string(tokenizer.Text())
			if strings.TrimSpace(text) != "" {
				t.nodes[current].text += text
			}

		case html.CommentToken, html.DoctypeToken:
			// Dropped.
		}
	}
}

func readAttrs(tokenizer *html.Tokenizer, hasAttr bool) map[string]string {
	if !hasAttr {
		return nil
	}

	attrs := make(map[string]string)
	for {
		key, val, more := tokenizer.TagAttr()
		attrs[strings.ToLower(string(key))] = string(val)
		if !more {
			break
		}
	}
	return attrs
}

func (t *tree) addChild(parent int, tag string, attrs map[string]string) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, element{tag: tag, attrs: attrs, parent: parent})
	t.nodes[parent].children = append(t.nodes[parent].children, idx)
	return idx
}

func (t *tree) attr(idx int, name string) string {
	if t.nodes[idx].attrs == nil {
		return ""
	}
	return t.nodes[idx].attrs[name]
}

// subtreeTextLen is the total direct-text length under idx, inclusive.
func (t *tree) subtreeTextLen(idx int) int {
	n := len(strings.TrimSpace(t.nodes[idx].text))
	for _, c := range t.nodes[idx].children {
		n += t.subtreeTextLen(c)
	}
	return n
}

// subtreeLinkCount counts <a> elements under idx, inclusive.
func (t *tree) subtreeLinkCount(idx int) int {
	n := 0
	if t.nodes[idx].tag == "a" {
		n++
	}
	for _, c := range t.nodes[idx].children {
		n += t.subtreeLinkCount(c)
	}
	return n
}

var (
	titleRegex    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaNameRegex = regexp.MustCompile(`(?is)<meta\s+[^>]*>`)
	metaAttrRegex = regexp.MustCompile(`(?is)(name|property|content)\s*=\s*["']([^"']*)["']`)
)

// extractTitle pulls the page title by regex so malformed pages still
// yield metadata.
func extractTitle(htmlText string) string {
	m := titleRegex.FindStringSubmatch(htmlText)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(decodeEntities(m[1]))
}

// extractMeta pulls name/property -> content pairs by regex.
func extractMeta(htmlText string) map[string]string {
	meta := make(map[string]string)

	for _, tag := range metaNameRegex.FindAllString(htmlText, -1) {
		var name, content string
		for _, attr := range metaAttrRegex.FindAllStringSubmatch(tag, -1) {
			switch strings.ToLower(attr[1]) {
			case "name", "property":
				name = strings.ToLower(attr[2])
			case "content":
				content = attr[2]
			}
		}
		if name != "" && content != "" {
			meta[name] = decodeEntities(content)
		}
	}

	return meta
}
