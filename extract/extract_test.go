package extract

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/pevans/seqbook/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: read a file from testdata
func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

// Test helper: build a regex substitution fix
func regexFix(pairs ...string) config.ContentFix {
	fix := config.ContentFix{Type: config.FixRegexSub}
	for i := 0; i+1 < len(pairs); i += 2 {
		fix.RegexPairs = append(fix.RegexPairs, config.RegexPair{
			Pattern:     regexp.MustCompile(pairs[i]),
			Replacement: pairs[i+1],
		})
	}
	return fix
}

func TestExtract_FeedDialectDefault(t *testing.T) {
	e := NewExtractor(DefaultSelectors())
	url := "http://lesswrong.com/lw/go/the_simple_truth/"

	out, err := e.Extract(url, readTestdata(t, "article.xml"), nil)
	require.NoError(t, err)

	assert.Equal(t, "The Simple Truth", out.Title)
	assert.Equal(t, "http://lesswrong.com/lw/go/the_simple_truth/", out.Link)
	assert.Contains(t, out.Body, "<p>I remember this paper I wrote on existentialism.</p>")
	assert.Contains(t, out.Body, `<a href="/lw/gn/the_martial_art_of_rationality">`)
}

func TestExtract_PageDialect(t *testing.T) {
	e := NewExtractor(DefaultSelectors())
	fixes := []config.ContentFix{{Type: config.FixSpecialParser, Parser: config.DialectPage}}

	out, err := e.Extract("http://lesswrong.com/lw/i3/x/", readTestdata(t, "page.html"), fixes)
	require.NoError(t, err)

	assert.Equal(t, "Making Beliefs Pay Rent (in Anticipated Experiences)", out.Title)
	assert.Equal(t, `<div class="md"><p>Thus begins the ancient parable.</p></div>`, out.Body)
	assert.Equal(t, "http://lesswrong.com/lw/i3/making_beliefs_pay_rent_in_anticipated_experiences/", out.Link)
}

func TestExtract_BareDialect(t *testing.T) {
	e := NewExtractor(DefaultSelectors())
	fixes := []config.ContentFix{{Type: config.FixSpecialParser, Parser: config.DialectBare}}
	url := "http://yudkowsky.net/rational/virtues"

	out, err := e.Extract(url, readTestdata(t, "bare.html"), fixes)
	require.NoError(t, err)

	assert.Equal(t, "The Twelve Virtues of Rationality", out.Title)
	assert.Equal(t, "<div><p>The first virtue is curiosity.</p><blockquote>A burning itch to know.</blockquote></div>", out.Body)
	assert.NotContains(t, out.Body, "after share")
	assert.Equal(t, url, out.Link, "link falls back to the article URL")
}

func TestExtract_Skip(t *testing.T) {
	e := NewExtractor(DefaultSelectors())
	fixes := []config.ContentFix{regexFix("a", "b"), {Type: config.FixSkip}}

	out, err := e.Extract("http://x/", []byte("not even parsed"), fixes)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrSkip))
}

func TestExtract_UnknownDialect(t *testing.T) {
	e := NewExtractor(DefaultSelectors())
	fixes := []config.ContentFix{{Type: config.FixSpecialParser, Parser: config.Dialect(42)}}

	_, err := e.Extract("http://x/", readTestdata(t, "article.xml"), fixes)

	var dialectErr *UnknownDialectError
	require.True(t, errors.As(err, &dialectErr))
	assert.Equal(t, "dialect(42)", dialectErr.Name)
}

func TestExtract_MalformedSource(t *testing.T) {
	e := NewExtractor(DefaultSelectors())
	raw := []byte("<html><body>not a feed</body></html>")

	_, err := e.Extract("http://x/", raw, nil)

	var srcErr *MalformedSourceError
	require.True(t, errors.As(err, &srcErr), "expected MalformedSourceError, got %v", err)
	assert.Equal(t, "http://x/", srcErr.URL)
	assert.Equal(t, config.DialectFeed, srcErr.Dialect)
	assert.Equal(t, raw, srcErr.Source)
}

func TestExtract_PageWithoutContent(t *testing.T) {
	e := NewExtractor(DefaultSelectors())
	fixes := []config.ContentFix{{Type: config.FixSpecialParser, Parser: config.DialectPage}}

	_, err := e.Extract("http://x/", []byte("<title>T - Less Wrong</title><p>no container</p>"), fixes)

	var srcErr *MalformedSourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Contains(t, err.Error(), "no element matches")
}

func TestExtract_FixesAppliedBeforeDialect(t *testing.T) {
	e := NewExtractor(DefaultSelectors())
	// Broken feed: the fix repairs the closing tag
	raw := []byte(`<rss version="2.0"><channel><item><title>T</title><description>body</description></itemz></channel></rss>`)
	fixes := []config.ContentFix{regexFix(`</itemz>`, `</item>`)}

	out, err := e.Extract("http://x/", raw, fixes)
	require.NoError(t, err)
	assert.Equal(t, "T", out.Title)
	assert.Equal(t, "body", out.Body)
}

func TestApplyFixes_GlobalAndOrdered(t *testing.T) {
	fixes := []config.ContentFix{
		regexFix(`<br>`, `<br />`),
		{Type: config.FixNoXMLDownload},
		regexFix(`(\w+)@(\w+)`, `$2 at $1`),
	}

	out := ApplyFixes([]byte("a<br>b<br>me@home"), fixes)
	assert.Equal(t, "a<br />b<br />home at me", string(out))
}

// TestApplyFixes_OrderSensitive verifies that overlapping substitutions
// depend on the listed order
func TestApplyFixes_OrderSensitive(t *testing.T) {
	first := regexFix(`cat`, `dog`)
	second := regexFix(`dog`, `bird`)
	raw := []byte("cat dog")

	forward := ApplyFixes(raw, []config.ContentFix{first, second})
	reversed := ApplyFixes(raw, []config.ContentFix{second, first})

	assert.Equal(t, "bird bird", string(forward))
	assert.Equal(t, "dog bird", string(reversed))
	assert.NotEqual(t, string(forward), string(reversed))
}

func TestApplyFixes_NoFixes(t *testing.T) {
	raw := []byte("unchanged")
	assert.Equal(t, raw, ApplyFixes(raw, nil))
}

func TestSelectorsFromConfig(t *testing.T) {
	cfg := &config.FileConfig{}
	cfg.Selectors.Share = "div.sharing"

	sel := SelectorsFromConfig(cfg)
	assert.Equal(t, "div.sharing", sel.Share)
	assert.Equal(t, config.DefaultContent, sel.Content)
	assert.Equal(t, DefaultSelectors(), SelectorsFromConfig(nil))
}
