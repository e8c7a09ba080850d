package extract

import "github.com/pevans/seqbook/config"

// Selectors defines where the scraping dialects find an article's parts.
type Selectors struct {
	// TitleSuffix is the site name trailing every page <title>.
	TitleSuffix string
	// Content selects the element whose markup is the article body.
	Content string
	// Share selects the list that ends a bare article body.
	Share string
}

// DefaultSelectors returns the selectors for lesswrong.com pages.
func DefaultSelectors() Selectors {
	return Selectors{
		TitleSuffix: config.DefaultTitleSuffix,
		Content:     config.DefaultContent,
		Share:       config.DefaultShare,
	}
}

// SelectorsFromConfig reads the selectors from the run settings. Empty
// fields fall back to the defaults.
func SelectorsFromConfig(cfg *config.FileConfig) Selectors {
	sel := DefaultSelectors()
	if cfg == nil {
		return sel
	}
	if cfg.Selectors.TitleSuffix != "" {
		sel.TitleSuffix = cfg.Selectors.TitleSuffix
	}
	if cfg.Selectors.Content != "" {
		sel.Content = cfg.Selectors.Content
	}
	if cfg.Selectors.Share != "" {
		sel.Share = cfg.Selectors.Share
	}
	return sel
}
