package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pevans/seqbook/anchors"
	"github.com/pevans/seqbook/config"
)

// Context is the immutable per-run state the normalizer needs: where
// in-corpus links point and which articles exist.
type Context struct {
	Table     *anchors.Table
	Redirects map[string]string
	// Origin is the canonical site origin, e.g. "http://lesswrong.com".
	Origin string
	// ArticlePattern matches in-corpus article URLs that lack their
	// trailing slash.
	ArticlePattern *regexp.Regexp
}

// NewContext compiles the article pattern and builds a Context.
func NewContext(origin, articlePattern string, table *anchors.Table, redirects map[string]string) (Context, error) {
	re, err := regexp.Compile(articlePattern)
	if err != nil {
		return Context{}, &config.ConfigError{
			File: "settings",
			Msg:  fmt.Sprintf("invalid article pattern %q", articlePattern),
			Err:  err,
		}
	}
	return Context{
		Table:          table,
		Redirects:      redirects,
		Origin:         origin,
		ArticlePattern: re,
	}, nil
}

// Rewriter maps hrefs to their final form and link class.
type Rewriter struct {
	ctx Context
	// redirects and ids are keyed by canonical URL, so a key written
	// without its trailing slash still matches.
	redirects map[string]string
	ids       map[string]string
}

// NewRewriter validates ctx and returns a Rewriter. The redirect map must
// be single-hop: a destination that is itself a redirect source is a
// *config.ConfigError, as are two keys that canonicalize to the same URL
// with different targets.
func NewRewriter(ctx Context) (*Rewriter, error) {
	if ctx.Table == nil {
		return nil, fmt.Errorf("normalize: identifier table is required")
	}
	if ctx.ArticlePattern == nil {
		return nil, fmt.Errorf("normalize: article pattern is required")
	}
	ctx.Origin = strings.TrimSuffix(ctx.Origin, "/")

	r := &Rewriter{
		ctx:       ctx,
		redirects: make(map[string]string, len(ctx.Redirects)),
		ids:       make(map[string]string, ctx.Table.Len()),
	}

	for src, dest := range ctx.Redirects {
		from, to := r.canonical(strings.TrimSpace(src)), r.canonical(strings.TrimSpace(dest))
		if prev, dup := r.redirects[from]; dup && prev != to {
			return nil, &config.ConfigError{
				File: "redirects",
				Msg:  fmt.Sprintf("redirect %s is listed twice with different destinations (%s, %s)", from, prev, to),
			}
		}
		r.redirects[from] = to
	}
	for src, dest := range r.redirects {
		if _, chained := r.redirects[dest]; chained {
			return nil, &config.ConfigError{
				File: "redirects",
				Msg:  fmt.Sprintf("redirect %s -> %s is chained; resolve it in the map", src, dest),
			}
		}
	}

	// Spellings that differ only in the trailing slash share an anchor id,
	// so anchors.Assign has already rejected any conflict here
	for _, e := range ctx.Table.Entries() {
		r.ids[r.canonical(e.URL)] = e.ID
	}

	return r, nil
}

// Rewrite returns the final href for a link and whether it is internal or
// external.
//
//  1. A root-relative path gets the site origin.
//  2. An article URL lacking its trailing slash gets one.
//  3. A redirect map hit is replaced by its destination (one hop).
//  4. A URL in the identifier table becomes "#id" and is internal.
//
// A fragment-only href is kept as is and is internal when it names a known
// anchor. Rewrite is idempotent: Rewrite(Rewrite(h)) == Rewrite(h).
func (r *Rewriter) Rewrite(href string) (string, string) {
	h := strings.TrimSpace(href)

	if frag, ok := strings.CutPrefix(h, "#"); ok {
		if r.ctx.Table.HasID(frag) {
			return h, ClassInternal
		}
		return h, ClassExternal
	}

	h = r.canonical(h)
	if dest, ok := r.redirects[h]; ok {
		h = dest
	}

	if id, ok := r.ids[h]; ok {
		return "#" + id, ClassInternal
	}
	return h, ClassExternal
}

// canonical applies the origin prefix and trailing slash rules.
func (r *Rewriter) canonical(h string) string {
	if strings.HasPrefix(h, "/") && !strings.HasPrefix(h, "//") {
		h = r.ctx.Origin + h
	}
	if r.ctx.ArticlePattern.MatchString(h) && !strings.HasSuffix(h, "/") {
		h += "/"
	}
	return h
}
