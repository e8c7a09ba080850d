package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BareDialect scrapes pages laid out as an h1 followed by the article
// elements, ending at a share list.
type BareDialect struct {
	ShareSelector string
}

func (d *BareDialect) Extract(url string, raw []byte) (*Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	heading := doc.Find("h1").First()
	if heading.Length() == 0 {
		return nil, errors.New("page has no h1 heading")
	}
	// Normalize whitespace: replace multiple spaces/newlines with single space
	title := strings.Join(strings.Fields(heading.Text()), " ")

	var body strings.Builder
	body.WriteString("<div>")
	var renderErr error
	heading.NextUntil(d.ShareSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		html, err := goquery.OuterHtml(s)
		if err != nil {
			renderErr = err
			return false
		}
		body.WriteString(html)
		return true
	})
	if renderErr != nil {
		return nil, fmt.Errorf("failed to render content: %w", renderErr)
	}
	body.WriteString("</div>")

	link, _ := doc.Find(`link[rel="canonical"]`).First().Attr("href")

	return &Extracted{
		Title: title,
		Body:  body.String(),
		Link:  strings.TrimSpace(link),
	}, nil
}
