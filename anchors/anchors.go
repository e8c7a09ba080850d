// Package anchors derives the same-document anchor identifier of every
// article in the manifest.
package anchors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pevans/seqbook/config"
)

var schemePrefix = regexp.MustCompile(`(?i)^https?://`)

// CollisionError reports two manifest URLs that map to the same anchor id.
// First == Second means the same URL is listed more than once.
type CollisionError struct {
	ID     string
	First  string
	Second string
}

func (e *CollisionError) Error() string {
	if e.First == e.Second {
		return fmt.Sprintf("article %s appears more than once in the manifest (anchor %q)", e.First, e.ID)
	}
	return fmt.Sprintf("anchor id collision: %s and %s both map to %q", e.First, e.Second, e.ID)
}

// Entry is one row of the identifier table.
type Entry struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

// Table maps article URLs to anchor ids. It is built once by Assign and is
// read-only afterwards.
type Table struct {
	ids     map[string]string
	owners  map[string]string
	entries []Entry
}

// Options tunes Assign.
type Options struct {
	// AllowDuplicates accepts the same URL listed in more than one place.
	// The first occurrence owns the anchor.
	AllowDuplicates bool
}

// Canonicalize strips the http(s) scheme and one trailing slash.
func Canonicalize(url string) string {
	url = schemePrefix.ReplaceAllString(url, "")
	return strings.TrimSuffix(url, "/")
}

// IDFor derives the anchor id of url: the canonical form with dots and
// slashes replaced by dashes.
func IDFor(url string) string {
	return strings.NewReplacer(".", "-", "/", "-").Replace(Canonicalize(url))
}

// Assign walks the manifest in reading order and assigns every article its
// anchor id. Distinct URLs sharing an id are always a *CollisionError.
func Assign(manifest []config.SequenceNode, opts Options) (*Table, error) {
	t := &Table{
		ids:    make(map[string]string),
		owners: make(map[string]string),
	}

	err := config.Walk(manifest, func(_ *config.SequenceNode, url string) error {
		id := IDFor(url)

		if owner, taken := t.owners[id]; taken {
			if owner != url {
				return &CollisionError{ID: id, First: owner, Second: url}
			}
			if !opts.AllowDuplicates {
				return &CollisionError{ID: id, First: owner, Second: url}
			}
			return nil
		}

		t.owners[id] = url
		t.ids[url] = id
		t.entries = append(t.entries, Entry{URL: url, ID: id})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

// Lookup returns the anchor id of url.
func (t *Table) Lookup(url string) (string, bool) {
	id, ok := t.ids[url]
	return id, ok
}

// HasID reports whether id belongs to an article of the manifest.
func (t *Table) HasID(id string) bool {
	_, ok := t.owners[id]
	return ok
}

// Owner returns the URL that owns id.
func (t *Table) Owner(id string) (string, bool) {
	url, ok := t.owners[id]
	return url, ok
}

// Len returns the number of distinct articles.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns the table rows in manifest order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
