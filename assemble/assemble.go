// Package assemble walks the sequence manifest and builds the book body:
// one container per sequence, each holding its subsequences or its
// normalized articles in reading order.
package assemble

import (
	"context"
	"errors"
	"fmt"

	"github.com/pevans/seqbook/anchors"
	"github.com/pevans/seqbook/cache"
	"github.com/pevans/seqbook/config"
	"github.com/pevans/seqbook/extract"
	"github.com/pevans/seqbook/logger"
	"github.com/pevans/seqbook/normalize"
	"github.com/pevans/seqbook/typography"
)

// Assembler builds a Document from the configuration of a run.
type Assembler struct {
	store      *config.Store
	table      *anchors.Table
	extractor  *extract.Extractor
	normalizer *normalize.Normalizer
	fetcher    cache.Fetcher
	log        logger.Logger
}

// New creates an Assembler. table must have been assigned from the
// manifest of store.
func New(
	store *config.Store,
	table *anchors.Table,
	extractor *extract.Extractor,
	normalizer *normalize.Normalizer,
	fetcher cache.Fetcher,
	log logger.Logger,
) *Assembler {
	return &Assembler{
		store:      store,
		table:      table,
		extractor:  extractor,
		normalizer: normalizer,
		fetcher:    fetcher,
		log:        log,
	}
}

// Assemble fetches, extracts and normalizes every article of the
// manifest. Articles with a skip fix are left out without being fetched.
// Any other failure aborts the run.
func (a *Assembler) Assemble(ctx context.Context) (*Document, error) {
	doc := &Document{}
	seen := make(map[string]bool)

	for i := range a.store.Manifest() {
		node := &a.store.Manifest()[i]
		seq, err := a.container(ctx, node, KindSequence, seen)
		if err != nil {
			return nil, err
		}
		doc.Sequences = append(doc.Sequences, seq)
	}

	a.log.Info("document assembled",
		logger.Int("sequences", len(doc.Sequences)),
		logger.Int("articles", len(doc.Articles())))
	return doc, nil
}

func (a *Assembler) container(ctx context.Context, node *config.SequenceNode, kind Kind, seen map[string]bool) (*Container, error) {
	c := &Container{
		Kind:  kind,
		Title: typography.Title(node.Title),
	}

	if node.Description != "" {
		desc, err := typography.Description(node.Description)
		if err != nil {
			return nil, fmt.Errorf("failed to render description of %q: %w", node.Title, err)
		}
		desc, err = a.normalizer.RewriteFragment(desc)
		if err != nil {
			return nil, fmt.Errorf("failed to rewrite description of %q: %w", node.Title, err)
		}
		c.Description = desc
	}

	if node.HasSubsequences() {
		for i := range node.Subsequences {
			child, err := a.container(ctx, &node.Subsequences[i], KindSubsequence, seen)
			if err != nil {
				return nil, err
			}
			c.Children = append(c.Children, child)
		}
		return c, nil
	}

	a.log.Info("assembling sequence",
		logger.String("title", node.Title),
		logger.Int("articles", len(node.Articles)))

	for _, url := range node.Articles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		article, err := a.article(ctx, url)
		if err != nil {
			return nil, err
		}
		if article == nil {
			continue
		}

		if seen[url] {
			article.DropAnchor()
		}
		seen[url] = true
		c.Articles = append(c.Articles, article)
	}

	return c, nil
}

// article returns nil, nil for skipped articles.
func (a *Assembler) article(ctx context.Context, url string) (*normalize.Article, error) {
	if _, skip := a.store.FirstFix(url, config.FixSkip); skip {
		a.log.Warn("skipping article", logger.String("url", url))
		return nil, nil
	}

	raw, err := a.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	ex, err := a.extractor.Extract(url, raw, a.store.FixesFor(url))
	if errors.Is(err, extract.ErrSkip) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return a.normalizer.Normalize(url, ex.Title, ex.Link, ex.Body)
}

func (a *Assembler) fetch(ctx context.Context, url string) ([]byte, error) {
	raw, err := a.fetcher.Fetch(ctx, url)
	if err == nil {
		return raw, nil
	}

	var fetchErr *cache.FetchError
	if errors.As(err, &fetchErr) {
		return nil, err
	}
	return nil, &cache.FetchError{URL: url, Err: err}
}

// Prefetch fetches every article that is not skipped, filling the cache
// without assembling anything. It returns the number of distinct
// articles fetched.
func (a *Assembler) Prefetch(ctx context.Context) (int, error) {
	seen := make(map[string]bool)
	fetched := 0

	err := config.Walk(a.store.Manifest(), func(_ *config.SequenceNode, url string) error {
		if seen[url] {
			return nil
		}
		seen[url] = true

		if _, skip := a.store.FirstFix(url, config.FixSkip); skip {
			a.log.Debug("not fetching skipped article", logger.String("url", url))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := a.fetch(ctx, url); err != nil {
			return err
		}
		fetched++
		return nil
	})
	if err != nil {
		return fetched, err
	}

	a.log.Info("all articles downloaded", logger.Int("articles", fetched))
	return fetched, nil
}
