// Package normalize turns an extracted article body into the markup tree
// that goes into the book: navigation blurbs and spoilers tagged, every
// link resolved against the identifier table, and the whole wrapped with
// an anchored title heading.
package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/seqbook/anchors"
	"github.com/pevans/seqbook/typography"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MalformedArticleError reports a body that does not parse into a markup
// tree. Source is the offending markup.
type MalformedArticleError struct {
	URL    string
	Source string
	Err    error
}

func (e *MalformedArticleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed article %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("malformed article %s", e.URL)
}

func (e *MalformedArticleError) Unwrap() error {
	return e.Err
}

var errEmptyBody = errors.New("body has no content")

// Article is one normalized article.
type Article struct {
	ID        string
	URL       string
	Title     string
	SourceURL string
	// Body is the article container: <div class="article" id="ID"> with
	// the title heading as first child.
	Body *html.Node
}

// HTML renders the article container.
func (a *Article) HTML() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, a.Body); err != nil {
		return "", fmt.Errorf("failed to render article %s: %w", a.URL, err)
	}
	return buf.String(), nil
}

// DropAnchor removes the id attribute from the container. Used for repeat
// occurrences of an article whose anchor is owned by its first occurrence.
func (a *Article) DropAnchor() {
	goquery.NewDocumentFromNode(a.Body).Selection.RemoveAttr("id")
}

// Normalizer applies the normalization steps. It holds only the immutable
// Context and can be shared by every article of a run.
type Normalizer struct {
	ctx      Context
	rewriter *Rewriter
}

// NewNormalizer validates ctx and returns a Normalizer.
func NewNormalizer(ctx Context) (*Normalizer, error) {
	rw, err := NewRewriter(ctx)
	if err != nil {
		return nil, err
	}
	return &Normalizer{ctx: ctx, rewriter: rw}, nil
}

// Rewriter returns the link rewriter used by the normalizer.
func (n *Normalizer) Rewriter() *Rewriter {
	return n.rewriter
}

var (
	navigationText = regexp.MustCompile(`(?i)^(Part of.*sequence|(Next|Previous) post:|\((end|start) of.*sequence)`)
	whiteColor     = regexp.MustCompile(`(?i)^(#fff|#ffffff|white|rgb\(\s*255\s*,\s*255\s*,\s*255\s*\))(\s*!important)?$`)
)

// inlineElements are the elements checked for white-on-white spoilers.
const inlineElements = "span, font, em, strong, b, i, u, a, small, sub, sup, code"

// Normalize parses body into a fresh tree and runs navigation tagging,
// link rewriting, spoiler tagging and typography over it. The result is
// wrapped with a heading holding the smart-quoted title and a link to sourceURL.
func (n *Normalizer) Normalize(url, title, sourceURL, body string) (*Article, error) {
	nodes, err := parseFragment(body)
	if err != nil {
		return nil, &MalformedArticleError{URL: url, Source: body, Err: err}
	}

	id, ok := n.ctx.Table.Lookup(url)
	if !ok {
		id = anchors.IDFor(url)
	}
	if sourceURL == "" {
		sourceURL = url
	}
	title = typography.Title(title)
	if title == "" {
		title = "(No title)"
	}

	root := articleRoot(nodes)
	setAttr(root, "class", ClassArticle)
	setAttr(root, "id", id)

	sel := goquery.NewDocumentFromNode(root).Selection
	tagNavigation(sel)
	n.rewriteLinks(sel)
	tagSpoilers(sel)
	typography.Tree(root)

	root.InsertBefore(titleHeading(title, sourceURL), root.FirstChild)

	return &Article{
		ID:        id,
		URL:       url,
		Title:     title,
		SourceURL: sourceURL,
		Body:      root,
	}, nil
}

// RewriteFragment runs link rewriting over a markup fragment, such as a
// sequence description, and returns the rewritten markup.
func (n *Normalizer) RewriteFragment(markup string) (string, error) {
	if strings.TrimSpace(markup) == "" {
		return "", nil
	}

	nodes, err := parseFragment(markup)
	if err != nil {
		return "", fmt.Errorf("failed to parse fragment: %w", err)
	}

	holder := newElement(atom.Div)
	for _, node := range nodes {
		holder.AppendChild(node)
	}
	n.rewriteLinks(goquery.NewDocumentFromNode(holder).Selection)

	var buf bytes.Buffer
	for c := holder.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render fragment: %w", err)
		}
	}
	return buf.String(), nil
}

// parseFragment parses markup in a <div> context. A fragment with no
// element and no visible text is rejected.
func parseFragment(markup string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), newElement(atom.Div))
	if err != nil {
		return nil, err
	}

	for _, node := range nodes {
		switch node.Type {
		case html.ElementNode:
			return nodes, nil
		case html.TextNode:
			if strings.TrimSpace(node.Data) != "" {
				return nodes, nil
			}
		}
	}
	return nil, errEmptyBody
}

// articleRoot returns the fragment's single top-level <div> if it has one,
// otherwise a new <div> holding every node.
func articleRoot(nodes []*html.Node) *html.Node {
	var only *html.Node
	count := 0
	for _, node := range nodes {
		switch node.Type {
		case html.ElementNode:
			only = node
			count++
		case html.TextNode:
			if strings.TrimSpace(node.Data) != "" {
				count += 2
			}
		}
	}
	if count == 1 && only.DataAtom == atom.Div {
		return only
	}

	root := newElement(atom.Div)
	for _, node := range nodes {
		root.AppendChild(node)
	}
	return root
}

// tagNavigation marks right-aligned "Part of the ... sequence" and "Next
// post:" blurbs as web navigation.
func tagNavigation(sel *goquery.Selection) {
	sel.Find("p[style], div[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		if !strings.Contains(compactStyle(style), "text-align:right") {
			return
		}
		if navigationText.MatchString(strings.TrimSpace(s.Text())) {
			s.AddClass(ClassWebNavigation)
		}
	})
}

// rewriteLinks rewrites every link and places a footnote span right after
// it. Running it again over its own output changes nothing.
func (n *Normalizer) rewriteLinks(sel *goquery.Selection) {
	sel.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.TrimSpace(href) == "" {
			return
		}

		target, class := n.rewriter.Rewrite(href)
		s.SetAttr("href", target)
		if class == ClassInternal {
			s.RemoveClass(ClassExternal)
		} else {
			s.RemoveClass(ClassInternal)
		}
		s.AddClass(class)

		link := s.Get(0)
		if next := link.NextSibling; isFootnote(next) {
			setAttr(next, "data-href", target)
			return
		}
		footnote := newElement(atom.Span)
		footnote.Attr = []html.Attribute{
			{Key: "class", Val: ClassFootnote},
			{Key: "data-href", Val: target},
		}
		s.AfterNodes(footnote)
	})
}

// tagSpoilers reclassifies white text as a spoiler and drops the color so
// the renderer's default applies.
func tagSpoilers(sel *goquery.Selection) {
	sel.Find(inlineElements).Each(func(_ int, s *goquery.Selection) {
		spoiler := false

		if style, ok := s.Attr("style"); ok {
			kept, removed := stripWhiteColor(style)
			if removed {
				spoiler = true
				if kept == "" {
					s.RemoveAttr("style")
				} else {
					s.SetAttr("style", kept)
				}
			}
		}

		if color, ok := s.Attr("color"); ok && goquery.NodeName(s) == "font" &&
			whiteColor.MatchString(strings.TrimSpace(color)) {
			spoiler = true
			s.RemoveAttr("color")
		}

		if spoiler {
			s.AddClass(ClassSpoiler)
		}
	})
}

// stripWhiteColor removes "color: white" style declarations. It reports
// whether one was found.
func stripWhiteColor(style string) (string, bool) {
	var kept []string
	removed := false
	for decl := range strings.SplitSeq(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		prop, value, ok := strings.Cut(decl, ":")
		if ok && strings.EqualFold(strings.TrimSpace(prop), "color") &&
			whiteColor.MatchString(strings.TrimSpace(value)) {
			removed = true
			continue
		}
		kept = append(kept, decl)
	}
	if len(kept) == 0 {
		return "", removed
	}
	return strings.Join(kept, "; ") + ";", removed
}

// titleHeading builds <h3><span class="title">title</span> <a href="src">↗</a></h3>.
func titleHeading(title, sourceURL string) *html.Node {
	h3 := newElement(atom.H3)

	span := newElement(atom.Span)
	span.Attr = []html.Attribute{{Key: "class", Val: ClassTitle}}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	h3.AppendChild(span)

	h3.AppendChild(&html.Node{Type: html.TextNode, Data: " "})

	link := newElement(atom.A)
	link.Attr = []html.Attribute{{Key: "href", Val: sourceURL}}
	link.AppendChild(&html.Node{Type: html.TextNode, Data: "↗"})
	h3.AppendChild(link)

	return h3
}

func compactStyle(style string) string {
	return strings.ToLower(strings.Join(strings.Fields(style), ""))
}

func isFootnote(node *html.Node) bool {
	if node == nil || node.Type != html.ElementNode || node.DataAtom != atom.Span {
		return false
	}
	var footnote, href bool
	for _, attr := range node.Attr {
		switch attr.Key {
		case "class":
			footnote = attr.Val == ClassFootnote
		case "data-href":
			href = true
		}
	}
	return footnote && href
}

func newElement(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func setAttr(node *html.Node, key, val string) {
	for i := range node.Attr {
		if node.Attr[i].Key == key {
			node.Attr[i].Val = val
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: key, Val: val})
}
