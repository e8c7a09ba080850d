package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig represents the structure of seqbook.yaml, the run settings
// file. Every field is optional; Defaults fills in what is missing.
type FileConfig struct {
	Manifest  string `yaml:"manifest"`
	Fixes     string `yaml:"fixes"`
	Redirects string `yaml:"redirects"`

	Cache struct {
		DSN               string `yaml:"dsn"`
		CheckLastModified bool   `yaml:"check_last_modified"`
	} `yaml:"cache"`

	Site struct {
		Origin         string `yaml:"origin"`
		ArticlePattern string `yaml:"article_pattern"`
	} `yaml:"site"`

	Selectors struct {
		TitleSuffix string `yaml:"title_suffix"`
		Content     string `yaml:"content"`
		Share       string `yaml:"share"`
	} `yaml:"selectors"`

	Output struct {
		HTML      string `yaml:"html"`
		PDF       string `yaml:"pdf"`
		Renderer  string `yaml:"renderer"` // "rod" or "prince"
		Prince    string `yaml:"prince"`
		Skeleton  string `yaml:"skeleton"`
		ScreenCSS string `yaml:"screen_css"`
		PrintCSS  string `yaml:"print_css"`
	} `yaml:"output"`

	AllowDuplicates bool   `yaml:"allow_duplicates"`
	LogLevel        string `yaml:"log_level"`
}

// Default settings.
const (
	DefaultManifest       = "sequences.json"
	DefaultFixes          = "workarounds.json"
	DefaultRedirects      = "redirects.json"
	DefaultCacheDSN       = "html_cache.db"
	DefaultOrigin         = "http://lesswrong.com"
	DefaultArticlePattern = `^https?://(?:www\.)?lesswrong\.com/lw/[^/?#]+/[^/?#]+$`
	DefaultTitleSuffix    = " - Less Wrong"
	DefaultContent        = `div[itemprop="description"] > div`
	DefaultShare          = "ul.share"
	DefaultHTMLOutput     = "lesswrong-seq.html"
	DefaultPDFOutput      = "lesswrong-seq.pdf"
	DefaultRenderer       = "rod"
	DefaultPrince         = "prince"
)

// LoadConfigFile loads the run settings from path. Returns nil if the file
// doesn't exist (not an error). Returns error if the file exists but cannot
// be parsed.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Defaults fills every empty field with its default value and returns cfg.
// A nil receiver yields a fully defaulted config.
func (cfg *FileConfig) Defaults() *FileConfig {
	if cfg == nil {
		cfg = &FileConfig{}
	}
	setDefault(&cfg.Manifest, DefaultManifest)
	setDefault(&cfg.Fixes, DefaultFixes)
	setDefault(&cfg.Redirects, DefaultRedirects)
	setDefault(&cfg.Cache.DSN, DefaultCacheDSN)
	setDefault(&cfg.Site.Origin, DefaultOrigin)
	setDefault(&cfg.Site.ArticlePattern, DefaultArticlePattern)
	setDefault(&cfg.Selectors.TitleSuffix, DefaultTitleSuffix)
	setDefault(&cfg.Selectors.Content, DefaultContent)
	setDefault(&cfg.Selectors.Share, DefaultShare)
	setDefault(&cfg.Output.HTML, DefaultHTMLOutput)
	setDefault(&cfg.Output.PDF, DefaultPDFOutput)
	setDefault(&cfg.Output.Renderer, DefaultRenderer)
	setDefault(&cfg.Output.Prince, DefaultPrince)
	setDefault(&cfg.LogLevel, "info")
	return cfg
}

// Paths returns the locations of the three configuration documents.
func (cfg *FileConfig) Paths() Paths {
	return Paths{
		Manifest:  cfg.Manifest,
		Fixes:     cfg.Fixes,
		Redirects: cfg.Redirects,
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
