package assemble

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/pevans/seqbook/normalize"
	"golang.org/x/net/html"
)

// Kind is the class of a sequence container.
type Kind string

const (
	KindSequence    Kind = "sequence"
	KindSubsequence Kind = "subsequence"
)

// Container is one sequence or subsequence of the book.
type Container struct {
	Kind  Kind
	Title string
	// Description is rendered markup, links already rewritten. Empty when
	// the manifest node has none.
	Description string
	Articles    []*normalize.Article
	Children    []*Container
}

// Document is the assembled book body in reading order.
type Document struct {
	Sequences []*Container
}

// Articles returns every article of the document in reading order.
func (d *Document) Articles() []*normalize.Article {
	var out []*normalize.Article
	for _, seq := range d.Sequences {
		out = appendArticles(out, seq)
	}
	return out
}

func appendArticles(out []*normalize.Article, c *Container) []*normalize.Article {
	out = append(out, c.Articles...)
	for _, child := range c.Children {
		out = appendArticles(out, child)
	}
	return out
}

// Article returns the article anchored at id.
func (d *Document) Article(id string) (*normalize.Article, bool) {
	for _, a := range d.Articles() {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// Render writes the document body markup to w.
func (d *Document) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, seq := range d.Sequences {
		if err := renderContainer(bw, seq); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// HTML returns the document body markup.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderContainer(w *bufio.Writer, c *Container) error {
	fmt.Fprintf(w, `<div class="%s">`, c.Kind)
	fmt.Fprintf(w, "<h2>%s</h2>", html.EscapeString(c.Title))
	if c.Description != "" {
		fmt.Fprintf(w, `<div class="description">%s</div>`, c.Description)
	}

	for _, a := range c.Articles {
		if err := html.Render(w, a.Body); err != nil {
			return fmt.Errorf("failed to render article %s: %w", a.URL, err)
		}
	}
	for _, child := range c.Children {
		if err := renderContainer(w, child); err != nil {
			return err
		}
	}

	_, err := w.WriteString("</div>\n")
	return err
}
