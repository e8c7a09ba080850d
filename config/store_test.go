package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: write the three documents into a temp dir and return paths
func writeDocuments(t *testing.T, manifest, fixes, redirects string) Paths {
	t.Helper()
	dir := t.TempDir()
	paths := Paths{
		Manifest:  filepath.Join(dir, "sequences.json"),
		Fixes:     filepath.Join(dir, "workarounds.json"),
		Redirects: filepath.Join(dir, "redirects.json"),
	}
	require.NoError(t, os.WriteFile(paths.Manifest, []byte(manifest), 0o600))
	require.NoError(t, os.WriteFile(paths.Fixes, []byte(fixes), 0o600))
	require.NoError(t, os.WriteFile(paths.Redirects, []byte(redirects), 0o600))
	return paths
}

func TestLoad_Valid(t *testing.T) {
	paths := writeDocuments(t,
		`[
	{"title": "S1", "description": "First <em>one</em>", "articles": ["http://lesswrong.com/lw/ab/foo/"]},
	{"title": "S2", "subsequences": [
		{"title": "S2a", "articles": ["http://lesswrong.com/lw/cd/bar/"]}
	]}
]`,
		`{
	"http://lesswrong.com/lw/ab/foo/": [
		{"type": "apply-regex-sub", "regex-pairs": [["a", "b"], ["c+", "d"]]},
		{"type": "special-parser", "parser": "lw-html"},
		{"type": "no-xml-download"}
	],
	"http://lesswrong.com/lw/cd/bar/": [{"type": "skip"}]
}`,
		`{"http://oldsite.com/x": "http://lesswrong.com/lw/zz/y/"}`,
	)

	store, err := Load(paths)
	require.NoError(t, err)

	manifest := store.Manifest()
	require.Len(t, manifest, 2)
	assert.Equal(t, "S1", manifest[0].Title)
	assert.Equal(t, "First <em>one</em>", manifest[0].Description)
	assert.False(t, manifest[0].HasSubsequences())
	assert.True(t, manifest[1].HasSubsequences())
	assert.Equal(t, []string{"http://lesswrong.com/lw/cd/bar/"}, manifest[1].Subsequences[0].Articles)

	fixes := store.FixesFor("http://lesswrong.com/lw/ab/foo/")
	require.Len(t, fixes, 3)
	assert.Equal(t, FixRegexSub, fixes[0].Type)
	require.Len(t, fixes[0].RegexPairs, 2)
	assert.Equal(t, "c+", fixes[0].RegexPairs[1].Pattern.String())
	assert.Equal(t, "d", fixes[0].RegexPairs[1].Replacement)
	assert.Equal(t, DialectPage, fixes[1].Parser)

	_, skip := store.FirstFix("http://lesswrong.com/lw/cd/bar/", FixSkip)
	assert.True(t, skip)

	dest, ok := store.RedirectOf("http://oldsite.com/x")
	assert.True(t, ok)
	assert.Equal(t, "http://lesswrong.com/lw/zz/y/", dest)

	_, ok = store.RedirectOf("http://lesswrong.com/lw/zz/y/")
	assert.False(t, ok)
}

func TestLoad_YAMLDocuments(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Manifest:  filepath.Join(dir, "sequences.yaml"),
		Fixes:     filepath.Join(dir, "fixes.yaml"),
		Redirects: filepath.Join(dir, "redirects.yaml"),
	}
	manifest := `- title: Map and Territory
  articles:
    - http://lesswrong.com/lw/ab/foo/
`
	fixes := `http://lesswrong.com/lw/ab/foo/:
  - type: apply-regex-substitution
    regex-pairs:
      - ["<br>", "<br />"]
`
	require.NoError(t, os.WriteFile(paths.Manifest, []byte(manifest), 0o600))
	require.NoError(t, os.WriteFile(paths.Fixes, []byte(fixes), 0o600))
	require.NoError(t, os.WriteFile(paths.Redirects, []byte("{}\n"), 0o600))

	store, err := Load(paths)
	require.NoError(t, err)
	assert.Equal(t, "Map and Territory", store.Manifest()[0].Title)

	fix, ok := store.FirstFix("http://lesswrong.com/lw/ab/foo/", FixRegexSub)
	require.True(t, ok, "apply-regex-substitution is an alias of apply-regex-sub")
	assert.Equal(t, "<br />", fix.RegexPairs[0].Replacement)
}

// TestLoad_AmbiguousNode verifies a node with both lists is rejected
func TestLoad_AmbiguousNode(t *testing.T) {
	paths := writeDocuments(t,
		`[{"title": "Bad", "articles": ["http://lesswrong.com/lw/ab/foo/"],
		   "subsequences": [{"title": "Sub", "articles": []}]}]`,
		`{}`, `{}`)

	store, err := Load(paths)
	assert.Nil(t, store)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
	assert.Contains(t, cfgErr.Error(), `"Bad"`)
	assert.Contains(t, cfgErr.Error(), "both articles and subsequences")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		manifest  string
		fixes     string
		redirects string
		contains  string
	}{
		{
			name:      "malformed manifest",
			manifest:  `[{"title": `,
			fixes:     `{}`,
			redirects: `{}`,
			contains:  "failed to parse document",
		},
		{
			name:      "nested subsequences",
			manifest:  `[{"title": "A", "subsequences": [{"title": "B", "subsequences": []}]}]`,
			fixes:     `{}`,
			redirects: `{}`,
			contains:  "cannot contain subsequences",
		},
		{
			name:      "missing title",
			manifest:  `[{"articles": ["http://x/"]}]`,
			fixes:     `{}`,
			redirects: `{}`,
			contains:  "without a title",
		},
		{
			name:      "unknown fix type",
			manifest:  `[]`,
			fixes:     `{"http://x/": [{"type": "frobnicate"}]}`,
			redirects: `{}`,
			contains:  `unknown fix type "frobnicate"`,
		},
		{
			name:      "invalid regex",
			manifest:  `[]`,
			fixes:     `{"http://x/": [{"type": "apply-regex-sub", "regex-pairs": [["(", "x"]]}]}`,
			redirects: `{}`,
			contains:  "invalid pattern",
		},
		{
			name:      "short regex pair",
			manifest:  `[]`,
			fixes:     `{"http://x/": [{"type": "apply-regex-sub", "regex-pairs": [["a"]]}]}`,
			redirects: `{}`,
			contains:  "exactly two elements",
		},
		{
			name:      "malformed redirects",
			manifest:  `[]`,
			fixes:     `{}`,
			redirects: `["not", "a", "map"]`,
			contains:  "failed to parse document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := writeDocuments(t, tt.manifest, tt.fixes, tt.redirects)
			_, err := Load(paths)
			require.Error(t, err)

			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %T", err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoad_MissingDocument(t *testing.T) {
	paths := writeDocuments(t, `[]`, `{}`, `{}`)
	paths.Redirects = filepath.Join(t.TempDir(), "nope.json")

	_, err := Load(paths)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, paths.Redirects, cfgErr.File)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoad_UnknownDialect(t *testing.T) {
	paths := writeDocuments(t, `[]`,
		`{"http://x/": [{"type": "special-parser", "parser": "lw-pdf"}]}`, `{}`)

	_, err := Load(paths)

	var dialectErr *UnknownDialectError
	require.True(t, errors.As(err, &dialectErr), "expected UnknownDialectError, got %v", err)
	assert.Equal(t, "lw-pdf", dialectErr.Name)
}

func TestFixesFor_Empty(t *testing.T) {
	store, err := NewStore(nil, nil, nil)
	require.NoError(t, err)

	fixes := store.FixesFor("http://unknown/")
	assert.NotNil(t, fixes)
	assert.Empty(t, fixes)
}

func TestWalk_Order(t *testing.T) {
	manifest := []SequenceNode{
		{Title: "A", Articles: []string{"a1", "a2"}},
		{Title: "B", Subsequences: []SequenceNode{
			{Title: "B1", Articles: []string{"b1"}},
			{Title: "B2", Articles: []string{"b2", "b3"}},
		}},
		{Title: "C", Articles: []string{"c1"}},
	}

	var visited []string
	err := Walk(manifest, func(node *SequenceNode, url string) error {
		visited = append(visited, node.Title+":"+url)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A:a1", "A:a2", "B1:b1", "B2:b2", "B2:b3", "C:c1"}, visited)
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		name string
		want Dialect
	}{
		{"feed", DialectFeed},
		{"lw-xml", DialectFeed},
		{"LW-HTML", DialectPage},
		{"page", DialectPage},
		{"bare", DialectBare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDialect(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}

	_, err := ParseDialect("epub")
	assert.EqualError(t, err, `unknown extraction dialect "epub"`)
	assert.Equal(t, "dialect(9)", Dialect(9).String())
}
