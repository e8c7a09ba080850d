// Package extract turns one article's raw source bytes into a title and a
// body markup fragment. It applies the configured content fixes first and
// then dispatches to the source dialect selected for the URL.
package extract

import (
	"errors"
	"fmt"

	"github.com/pevans/seqbook/config"
)

// ErrSkip is returned by Extract for URLs carrying a skip fix.
var ErrSkip = errors.New("article skipped by configuration")

// UnknownDialectError is returned when a dialect has no registered
// implementation.
type UnknownDialectError = config.UnknownDialectError

// MalformedSourceError reports raw bytes that the selected dialect could
// not make sense of. Source holds the (fixed) bytes for diagnosis.
type MalformedSourceError struct {
	URL     string
	Dialect config.Dialect
	Source  []byte
	Err     error
}

func (e *MalformedSourceError) Error() string {
	return fmt.Sprintf("failed to extract %s with %s dialect: %v", e.URL, e.Dialect, e.Err)
}

func (e *MalformedSourceError) Unwrap() error {
	return e.Err
}

// Extracted is the normalized output of a dialect.
type Extracted struct {
	Title string
	// Body is a markup fragment, already stripped of site chrome.
	Body string
	// Link is the article's canonical source URL.
	Link string
}

// Dialect extracts title and body from one raw source shape.
type Dialect interface {
	Extract(url string, raw []byte) (*Extracted, error)
}

// Extractor dispatches to a registered Dialect. It holds no per-article
// state and is safe to reuse for every article of a run.
type Extractor struct {
	dialects map[config.Dialect]Dialect
}

// NewExtractor registers the built-in dialects, configured with sel.
func NewExtractor(sel Selectors) *Extractor {
	return &Extractor{
		dialects: map[config.Dialect]Dialect{
			config.DialectFeed: &FeedDialect{},
			config.DialectPage: &PageDialect{TitleSuffix: sel.TitleSuffix, ContentSelector: sel.Content},
			config.DialectBare: &BareDialect{ShareSelector: sel.Share},
		},
	}
}

// Register installs (or replaces) the implementation of a dialect.
func (e *Extractor) Register(d config.Dialect, impl Dialect) {
	e.dialects[d] = impl
}

// Extract runs the content fixer and the selected dialect over raw.
//
// A skip fix short-circuits with ErrSkip. Regex substitutions are applied
// in listed order before the dialect sees the bytes. The dialect is the one
// named by the first special-parser fix, or the feed dialect.
func (e *Extractor) Extract(url string, raw []byte, fixes []config.ContentFix) (*Extracted, error) {
	if _, skip := config.FirstOfType(fixes, config.FixSkip); skip {
		return nil, ErrSkip
	}

	fixed := ApplyFixes(raw, fixes)

	dialect := config.DialectFeed
	if fix, ok := config.FirstOfType(fixes, config.FixSpecialParser); ok {
		dialect = fix.Parser
	}

	impl, ok := e.dialects[dialect]
	if !ok {
		return nil, &UnknownDialectError{Name: dialect.String()}
	}

	out, err := impl.Extract(url, fixed)
	if err != nil {
		return nil, &MalformedSourceError{URL: url, Dialect: dialect, Source: fixed, Err: err}
	}
	if out.Link == "" {
		out.Link = url
	}

	return out, nil
}

// ApplyFixes applies every regex substitution fix to raw. Fixes run in
// listed order and each pair in listed order; every pattern replaces all
// of its matches.
func ApplyFixes(raw []byte, fixes []config.ContentFix) []byte {
	out := raw
	for _, fix := range fixes {
		if fix.Type != config.FixRegexSub {
			continue
		}
		for _, pair := range fix.RegexPairs {
			out = pair.Pattern.ReplaceAll(out, []byte(pair.Replacement))
		}
	}
	return out
}
