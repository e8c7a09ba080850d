package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pevans/seqbook/config"
	"github.com/pevans/seqbook/logger"
)

// Fetcher returns the raw source bytes of an article.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetchError reports a network or storage failure while obtaining url.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FixLookup gives the fetcher access to the per-URL fixes.
type FixLookup interface {
	FirstFix(url string, fixType config.FixType) (config.ContentFix, bool)
}

// FetcherConfig holds settings for HTTPFetcher.
type FetcherConfig struct {
	// Timeout per request
	Timeout time.Duration
	// CheckLastModified re-downloads cached pages whose Last-Modified
	// header is newer than the cached copy.
	CheckLastModified bool
	UserAgent         string
}

// DefaultFetcherConfig returns the default fetcher settings.
func DefaultFetcherConfig() *FetcherConfig {
	return &FetcherConfig{
		Timeout:   30 * time.Second,
		UserAgent: "seqbook/1.0 (sequence book generator)",
	}
}

// HTTPFetcher serves article sources from the cache and downloads the
// missing ones.
type HTTPFetcher struct {
	store  *Store
	fixes  FixLookup
	config *FetcherConfig
	client *http.Client
	log    logger.Logger
	now    func() time.Time
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher backed by store.
func NewHTTPFetcher(store *Store, fixes FixLookup, cfg *FetcherConfig, log logger.Logger) *HTTPFetcher {
	if cfg == nil {
		cfg = DefaultFetcherConfig()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultFetcherConfig().UserAgent
	}
	return &HTTPFetcher{
		store:  store,
		fixes:  fixes,
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
		now:    time.Now,
	}
}

// DownloadURL returns the address the source of url is downloaded from.
// Articles are fetched in their RSS rendition (url + "/.xml") unless they
// carry a no-xml-download fix.
func DownloadURL(url string, noXML bool) string {
	if noXML {
		return url
	}
	return strings.TrimSuffix(url, "/") + "/.xml"
}

// Fetch returns the raw source of url, downloading it when it is not
// cached or, with CheckLastModified, when the cached copy is stale.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	_, noXML := f.fixes.FirstFix(url, config.FixNoXMLDownload)
	source := DownloadURL(url, noXML)

	page, err := f.store.Get(url)
	switch {
	case errors.Is(err, ErrPageNotFound):
	case err != nil:
		return nil, &FetchError{URL: url, Err: err}
	case !f.config.CheckLastModified:
		return page.Body, nil
	default:
		stale, err := f.isStale(ctx, source, page)
		if err != nil {
			f.log.Warn("Last-Modified check failed, using cached copy",
				logger.String("url", url), logger.Error(err))
			return page.Body, nil
		}
		if !stale {
			return page.Body, nil
		}
		f.log.Info("will re-download, it was modified", logger.String("url", url))
	}

	body, lastModified, err := f.download(ctx, source)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	if err := f.store.Put(Page{
		URL:          url,
		Body:         body,
		FetchedAt:    f.now(),
		LastModified: lastModified,
	}); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	f.log.Debug("downloaded", logger.String("url", source), logger.Int("bytes", len(body)))
	return body, nil
}

// isStale asks the server for Last-Modified and compares it with the time
// the cached copy was fetched. No header means not stale.
func (f *HTTPFetcher) isStale(ctx context.Context, source string, page *Page) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, source, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send HEAD request: %w", err)
	}
	resp.Body.Close()

	lastModified := parseLastModified(resp.Header.Get("Last-Modified"))
	if lastModified == nil {
		return false, nil
	}
	return page.FetchedAt.Before(*lastModified), nil
}

// download performs the GET request for source.
func (f *HTTPFetcher) download(ctx context.Context, source string) ([]byte, *time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, parseLastModified(resp.Header.Get("Last-Modified")), nil
}

func parseLastModified(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := http.ParseTime(value)
	if err != nil {
		return nil
	}
	return &t
}
