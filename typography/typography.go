// Package typography renders titles, sequence descriptions and article text
// with typographic quotes, dashes and ellipses.
package typography

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.Typographer),
	goldmark.WithRendererOptions(
		gmhtml.WithUnsafe(), // descriptions may carry inline HTML
	),
)

// markdownSpecial are characters that would change the meaning of plain
// text fed to the Markdown parser. Quotes, dashes and dots are left alone
// so the typographer can see them.
var markdownSpecial = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
	`<`, `\<`, `>`, `\>`, `#`, `\#`, `|`, `\|`, `~`, `\~`, `!`, `\!`, `&`, `\&`,
)

// Text inside these elements is left verbatim.
var verbatimElements = map[atom.Atom]bool{
	atom.Code: true, atom.Pre: true, atom.Kbd: true, atom.Samp: true,
	atom.Script: true, atom.Style: true, atom.Textarea: true,
}

// Quotes never pair across these elements.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Br: true, atom.Hr: true, atom.Table: true, atom.Tr: true,
	atom.Td: true, atom.Th: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Figure: true, atom.Figcaption: true, atom.Caption: true,
	atom.Pre: true, atom.Section: true, atom.Article: true,
}

// Title returns s as plain text with its whitespace collapsed and straight
// quotes, "--", "---" and "..." replaced by their typographic forms.
func Title(s string) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if collapsed == "" {
		return s
	}
	return smarten(0, collapsed, 0)
}

// Text returns s with typographic punctuation. Leading and trailing
// whitespace is kept; inner whitespace may collapse to single spaces.
func Text(s string) string {
	return smarten(0, s, 0)
}

// Tree rewrites every text node below root with typographic punctuation,
// skipping code, pre and similar elements. A quote at the edge of a text
// node is paired using the text next to it, so `"<em>so</em>"` curls both
// ways.
func Tree(root *html.Node) {
	segs := collectText(root, false, nil)

	// Neighbours are read from the original text
	texts := make([]string, len(segs))
	for i, seg := range segs {
		if seg.node != nil {
			texts[i] = seg.node.Data
		}
	}

	for i, seg := range segs {
		if seg.node == nil || seg.verbatim {
			continue
		}
		var before, after rune
		if i > 0 && segs[i-1].node != nil {
			before, _ = utf8.DecodeLastRuneInString(texts[i-1])
		}
		if i+1 < len(segs) && segs[i+1].node != nil {
			after, _ = utf8.DecodeRuneInString(texts[i+1])
		}
		seg.node.Data = smarten(before, texts[i], after)
	}
}

// Description renders a sequence description, written in Markdown with
// optional inline HTML, to an HTML fragment with typographic punctuation.
// Text inside raw HTML gets the same treatment as Markdown text.
func Description(s string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return "", fmt.Errorf("failed to render description: %w", err)
	}
	rendered := strings.TrimSpace(buf.String())
	if rendered == "" {
		return "", nil
	}

	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(rendered), container)
	if err != nil {
		return "", fmt.Errorf("failed to parse description: %w", err)
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	Tree(container)

	var out bytes.Buffer
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&out, c); err != nil {
			return "", fmt.Errorf("failed to render description: %w", err)
		}
	}
	return out.String(), nil
}

// segment is a text node in document order; a nil node marks a block
// boundary.
type segment struct {
	node     *html.Node
	verbatim bool
}

func collectText(n *html.Node, verbatim bool, out []segment) []segment {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			out = append(out, segment{node: c, verbatim: verbatim})
		case html.ElementNode:
			block := blockElements[c.DataAtom]
			if block {
				out = append(out, segment{})
			}
			out = collectText(c, verbatim || verbatimElements[c.DataAtom], out)
			if block {
				out = append(out, segment{})
			}
		}
	}
	return out
}

// smarten runs s through the Markdown typographer. before and after are
// the runes next to s in the surrounding text, zero when there are none.
// They become a placeholder on either side so that quotes at the edges
// open or close correctly; the placeholders are cut off again afterwards.
func smarten(before rune, s string, after rune) string {
	if !strings.ContainsAny(s, `"'`) && !strings.Contains(s, "--") && !strings.Contains(s, "...") {
		return s
	}

	lead := s[:len(s)-len(strings.TrimLeftFunc(s, unicode.IsSpace))]
	trail := s[len(strings.TrimRightFunc(s, unicode.IsSpace)):]
	core := strings.Join(strings.Fields(s), " ")
	if core == "" {
		return s
	}
	if lead != "" {
		before = ' '
	}
	if trail != "" {
		after = ' '
	}

	// The opening placeholder is never blank, which also keeps the line
	// from starting a heading, list or code block.
	pre, post := "x", "x"
	if before == 0 || isBreak(before) {
		pre = "("
	}
	switch {
	case after == 0 || unicode.IsSpace(after):
		post = ""
	case isBreak(after):
		post = ")"
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(pre+markdownSpecial.Replace(core)+post), &buf); err != nil {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return s
	}

	out := strings.TrimSpace(doc.Find("body").Text())
	if len(out) < len(pre)+len(post) || !strings.HasPrefix(out, pre) || !strings.HasSuffix(out, post) {
		return s
	}
	out = out[len(pre) : len(out)-len(post)]
	if out == "" {
		return s
	}
	return lead + out + trail
}

func isBreak(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}
