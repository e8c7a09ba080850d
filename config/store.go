package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Paths locates the three configuration documents of a run.
type Paths struct {
	Manifest  string
	Fixes     string
	Redirects string
}

// Store is the immutable per-run configuration: manifest, content fixes and
// redirect map. It is built once by Load and only read afterwards.
type Store struct {
	manifest  []SequenceNode
	fixes     map[string][]ContentFix
	redirects map[string]string
}

// Load reads and validates the manifest, fixes and redirect documents.
// Every failure is a *ConfigError (or *UnknownDialectError for a
// special-parser fix naming a missing dialect).
func Load(paths Paths) (*Store, error) {
	var manifest []SequenceNode
	if err := decodeDocument(paths.Manifest, &manifest); err != nil {
		return nil, err
	}

	var rawFixes map[string][]rawFix
	if err := decodeDocument(paths.Fixes, &rawFixes); err != nil {
		return nil, err
	}
	fixes, err := compileFixes(paths.Fixes, rawFixes)
	if err != nil {
		return nil, err
	}

	var redirects map[string]string
	if err := decodeDocument(paths.Redirects, &redirects); err != nil {
		return nil, err
	}

	return newStore(paths.Manifest, manifest, fixes, redirects)
}

// NewStore builds a Store from already decoded values. The manifest is
// validated the same way Load validates it.
func NewStore(manifest []SequenceNode, fixes map[string][]ContentFix, redirects map[string]string) (*Store, error) {
	return newStore("manifest", manifest, fixes, redirects)
}

func newStore(file string, manifest []SequenceNode, fixes map[string][]ContentFix, redirects map[string]string) (*Store, error) {
	if err := validateManifest(file, manifest); err != nil {
		return nil, err
	}
	if fixes == nil {
		fixes = map[string][]ContentFix{}
	}
	if redirects == nil {
		redirects = map[string]string{}
	}
	return &Store{
		manifest:  manifest,
		fixes:     fixes,
		redirects: redirects,
	}, nil
}

// Manifest returns the ordered list of top-level sequences. Callers must
// not modify it.
func (s *Store) Manifest() []SequenceNode {
	return s.manifest
}

// FixesFor returns the fixes configured for url in listed order, or an
// empty slice.
func (s *Store) FixesFor(url string) []ContentFix {
	fixes, ok := s.fixes[url]
	if !ok {
		return []ContentFix{}
	}
	return fixes
}

// FirstFix returns the first fix of the given type configured for url.
func (s *Store) FirstFix(url string, fixType FixType) (ContentFix, bool) {
	return FirstOfType(s.fixes[url], fixType)
}

// RedirectOf returns the canonical destination for url, if any.
func (s *Store) RedirectOf(url string) (string, bool) {
	dest, ok := s.redirects[url]
	return dest, ok
}

// Redirects returns the redirect map. Callers must not modify it.
func (s *Store) Redirects() map[string]string {
	return s.redirects
}

// FirstOfType returns the first fix of fixType in fixes.
func FirstOfType(fixes []ContentFix, fixType FixType) (ContentFix, bool) {
	for _, fix := range fixes {
		if fix.Type == fixType {
			return fix, true
		}
	}
	return ContentFix{}, false
}

// decodeDocument reads a JSON or YAML document into v. Files ending in
// .json go through encoding/json; everything else through yaml.v3.
func decodeDocument(path string, v any) error {
	if path == "" {
		return &ConfigError{File: "(unset)", Msg: "configuration document path is empty"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ConfigError{File: path, Msg: "file does not exist"}
		}
		return &ConfigError{File: path, Msg: "failed to read file", Err: err}
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, v)
	} else {
		err = yaml.Unmarshal(data, v)
	}
	if err != nil {
		return &ConfigError{File: path, Msg: "failed to parse document", Err: err}
	}

	return nil
}

// String gives a one-line summary for logging.
func (s *Store) String() string {
	articles := 0
	_ = Walk(s.manifest, func(*SequenceNode, string) error {
		articles++
		return nil
	})
	return fmt.Sprintf("%d sequences, %d articles, %d fixed urls, %d redirects",
		len(s.manifest), articles, len(s.fixes), len(s.redirects))
}
