package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageDialect scrapes a full article page.
type PageDialect struct {
	TitleSuffix     string
	ContentSelector string
}

func (d *PageDialect) Extract(url string, raw []byte) (*Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	title = strings.TrimSpace(strings.TrimSuffix(title, d.TitleSuffix))
	if title == "" {
		return nil, errors.New("page has no title")
	}

	content := doc.Find(d.ContentSelector).First()
	if content.Length() == 0 {
		return nil, fmt.Errorf("no element matches %q", d.ContentSelector)
	}
	body, err := goquery.OuterHtml(content)
	if err != nil {
		return nil, fmt.Errorf("failed to render content: %w", err)
	}

	link, _ := doc.Find(`link[rel="canonical"]`).First().Attr("href")

	return &Extracted{
		Title: title,
		Body:  body,
		Link:  strings.TrimSpace(link),
	}, nil
}
