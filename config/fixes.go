package config

import (
	"fmt"
	"regexp"
	"strings"
)

// FixType names one kind of per-URL content fix.
type FixType string

const (
	FixRegexSub      FixType = "apply-regex-sub"
	FixSpecialParser FixType = "special-parser"
	FixSkip          FixType = "skip"
	FixNoXMLDownload FixType = "no-xml-download"
)

// Dialect selects the extraction procedure for an article's raw source.
type Dialect int

const (
	// DialectFeed is the default: an RSS document whose first item holds
	// the article.
	DialectFeed Dialect = iota
	// DialectPage scrapes a full article page.
	DialectPage
	// DialectBare scrapes a page with a bare h1 + body layout.
	DialectBare
)

var dialectNames = map[string]Dialect{
	"feed":    DialectFeed,
	"lw-xml":  DialectFeed,
	"page":    DialectPage,
	"lw-html": DialectPage,
	"bare":    DialectBare,
	"lw-bare": DialectBare,
}

// ParseDialect decodes a dialect name from the fixes document.
func ParseDialect(name string) (Dialect, error) {
	d, ok := dialectNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, &UnknownDialectError{Name: name}
	}
	return d, nil
}

func (d Dialect) String() string {
	switch d {
	case DialectFeed:
		return "feed"
	case DialectPage:
		return "page"
	case DialectBare:
		return "bare"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// RegexPair is one compiled substitution. Replacement uses Go's regexp
// expansion syntax ($1, ${name}).
type RegexPair struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// ContentFix is a declarative per-URL override.
type ContentFix struct {
	Type       FixType
	RegexPairs []RegexPair
	Parser     Dialect
}

// rawFix is the on-disk shape of a fix.
type rawFix struct {
	Type       string     `json:"type" yaml:"type"`
	RegexPairs [][]string `json:"regex-pairs,omitempty" yaml:"regex-pairs,omitempty"`
	Parser     string     `json:"parser,omitempty" yaml:"parser,omitempty"`
	Comment    string     `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// compileFixes turns the decoded fixes document into ContentFix values.
// Regexes are compiled and parser names resolved here so that a broken
// document fails the run before anything is fetched.
func compileFixes(file string, raw map[string][]rawFix) (map[string][]ContentFix, error) {
	fixes := make(map[string][]ContentFix, len(raw))
	for url, list := range raw {
		compiled := make([]ContentFix, 0, len(list))
		for _, rf := range list {
			fix, err := compileFix(file, url, rf)
			if err != nil {
				return nil, err
			}
			compiled = append(compiled, fix)
		}
		fixes[url] = compiled
	}
	return fixes, nil
}

func compileFix(file, url string, rf rawFix) (ContentFix, error) {
	switch FixType(rf.Type) {
	case FixRegexSub, "apply-regex-substitution":
		fix := ContentFix{Type: FixRegexSub}
		for _, pair := range rf.RegexPairs {
			if len(pair) != 2 {
				return ContentFix{}, &ConfigError{
					File: file,
					Msg:  fmt.Sprintf("%s: regex pair must have exactly two elements, got %d", url, len(pair)),
				}
			}
			re, err := regexp.Compile(pair[0])
			if err != nil {
				return ContentFix{}, &ConfigError{
					File: file,
					Msg:  fmt.Sprintf("%s: invalid pattern %q", url, pair[0]),
					Err:  err,
				}
			}
			fix.RegexPairs = append(fix.RegexPairs, RegexPair{Pattern: re, Replacement: pair[1]})
		}
		return fix, nil

	case FixSpecialParser:
		d, err := ParseDialect(rf.Parser)
		if err != nil {
			return ContentFix{}, err
		}
		return ContentFix{Type: FixSpecialParser, Parser: d}, nil

	case FixSkip, FixNoXMLDownload:
		return ContentFix{Type: FixType(rf.Type)}, nil

	default:
		return ContentFix{}, &ConfigError{
			File: file,
			Msg:  fmt.Sprintf("%s: unknown fix type %q", url, rf.Type),
		}
	}
}
