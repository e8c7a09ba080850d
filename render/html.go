// Package render turns an assembled document into the final book: an HTML
// file built from a skeleton and stylesheets, and a PDF produced from it by
// an external engine.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/pevans/seqbook/assemble"
	"golang.org/x/net/html"
)

// Options controls how the HTML book is written.
type Options struct {
	// Skeleton is the path of a custom HTML skeleton. Empty uses the
	// embedded one.
	Skeleton string
	// ScreenCSS and PrintCSS are the stylesheet hrefs. Empty means the
	// default names.
	ScreenCSS string
	PrintCSS  string
	// Title replaces the skeleton's <title> when set.
	Title string
	// RunID tags the output. A fresh UUID is used when empty.
	RunID string
}

// WriteHTML writes the complete HTML book for doc to w. It returns the
// run id written into the document.
func WriteHTML(doc *assemble.Document, opts Options, w io.Writer) (string, error) {
	skeleton := Skeleton()
	if opts.Skeleton != "" {
		b, err := os.ReadFile(opts.Skeleton)
		if err != nil {
			return "", fmt.Errorf("failed to read skeleton: %w", err)
		}
		skeleton = b
	}

	page, err := goquery.NewDocumentFromReader(strings.NewReader(string(skeleton)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSkeleton, err)
	}

	head := page.Find("head")
	body := page.Find("body")
	if head.Length() == 0 || body.Length() == 0 {
		return "", fmt.Errorf("%w: missing head or body", ErrSkeleton)
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	if opts.Title != "" {
		page.Find("title").SetText(opts.Title)
		page.Find("h1.book-title").SetText(opts.Title)
	}

	screen := opts.ScreenCSS
	if screen == "" {
		screen = DefaultScreenCSS
	}
	printCSS := opts.PrintCSS
	if printCSS == "" {
		printCSS = DefaultPrintCSS
	}

	head.AppendHtml(fmt.Sprintf(`<meta name="generator" content="seqbook"><meta name="seqbook-run" content="%s">`, html.EscapeString(runID)))
	head.AppendHtml(fmt.Sprintf(`<link rel="stylesheet" type="text/css" href="%s">`, html.EscapeString(screen)))
	head.AppendHtml(fmt.Sprintf(`<link rel="stylesheet" type="text/css" href="%s" media="print">`, html.EscapeString(printCSS)))

	markup, err := doc.HTML()
	if err != nil {
		return "", err
	}
	body.AppendHtml(markup)

	if err := html.Render(w, page.Get(0)); err != nil {
		return "", fmt.Errorf("failed to write HTML: %w", err)
	}
	return runID, nil
}

// WriteHTMLFile writes the HTML book to path.
func WriteHTMLFile(doc *assemble.Document, opts Options, path string) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	runID, err := WriteHTML(doc, opts, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close %s: %w", path, cerr)
	}
	if err != nil {
		return "", err
	}
	return runID, nil
}
