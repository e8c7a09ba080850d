package render

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed assets/*
var assets embed.FS

// Default stylesheet names, relative to the HTML output.
const (
	DefaultScreenCSS = "screen.css"
	DefaultPrintCSS  = "print.css"
)

// Skeleton returns the embedded document skeleton.
func Skeleton() []byte {
	b, err := assets.ReadFile("assets/skeleton.html")
	if err != nil {
		panic(fmt.Sprintf("embedded skeleton missing: %v", err))
	}
	return b
}

// Stylesheet returns an embedded stylesheet by file name.
func Stylesheet(name string) ([]byte, error) {
	b, err := assets.ReadFile("assets/" + name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	return b, nil
}

// WriteStylesheets writes the embedded screen and print stylesheets into
// dir so that the default links of WriteHTML resolve.
func WriteStylesheets(dir string) error {
	for _, name := range []string{DefaultScreenCSS, DefaultPrintCSS} {
		b, err := Stylesheet(name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			return fmt.Errorf("failed to write stylesheet %s: %w", name, err)
		}
	}
	return nil
}
