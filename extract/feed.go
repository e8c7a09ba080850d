package extract

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// FeedDialect reads the RSS rendition of an article: a feed whose first
// item carries title, link, guid and the body in description.
type FeedDialect struct{}

func (FeedDialect) Extract(url string, raw []byte) (*Extracted, error) {
	fp := gofeed.NewParser()
	feed, err := fp.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	if len(feed.Items) == 0 {
		return nil, errors.New("feed has no items")
	}

	item := feed.Items[0]

	// Body: gofeed puts <description> in Description and content:encoded
	// in Content
	body := item.Description
	if body == "" {
		body = item.Content
	}

	link := item.Link
	if link == "" {
		link = item.GUID
	}

	return &Extracted{
		Title: item.Title,
		Body:  body,
		Link:  link,
	}, nil
}
