package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pevans/seqbook/anchors"
	"github.com/pevans/seqbook/assemble"
	"github.com/pevans/seqbook/cache"
	"github.com/pevans/seqbook/config"
	"github.com/pevans/seqbook/extract"
	"github.com/pevans/seqbook/logger"
	"github.com/pevans/seqbook/normalize"
	"github.com/spf13/pflag"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// fail prints an error and exits.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// commonFlags are the flags shared by every command that reads the
// configuration documents.
type commonFlags struct {
	configPath        string
	manifest          string
	fixes             string
	redirects         string
	cacheDSN          string
	logLevel          string
	allowDuplicates   bool
	checkLastModified bool
}

func addCommonFlags(fs *pflag.FlagSet) *commonFlags {
	f := &commonFlags{}
	fs.StringVarP(&f.configPath, "config", "c", getEnv("SEQBOOK_CONFIG", "seqbook.yaml"), "Path to the settings file")
	fs.StringVar(&f.manifest, "sequence-file", config.DefaultManifest, "Path of the sequence manifest")
	fs.StringVar(&f.fixes, "workarounds-file", config.DefaultFixes, "Path of the content fixes document")
	fs.StringVar(&f.redirects, "redirects-file", config.DefaultRedirects, "Path of the redirect map")
	fs.StringVar(&f.cacheDSN, "cache", config.DefaultCacheDSN, "Path of the download cache database")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.BoolVar(&f.allowDuplicates, "allow-duplicates", false, "Allow an article in more than one sequence")
	fs.BoolVar(&f.checkLastModified, "check-last-modified", false, "Re-download cached articles modified since")
	return f
}

// settings merges the settings file, the environment and the flags that
// were set explicitly, in increasing precedence.
func (f *commonFlags) settings(fs *pflag.FlagSet) (*config.FileConfig, error) {
	cfg, err := config.LoadConfigFile(f.configPath)
	if err != nil {
		return nil, err
	}
	cfg = cfg.Defaults()

	if v := os.Getenv("SEQBOOK_CACHE_DSN"); v != "" {
		cfg.Cache.DSN = v
	}
	if v := os.Getenv("SEQBOOK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if fs.Changed("sequence-file") {
		cfg.Manifest = f.manifest
	}
	if fs.Changed("workarounds-file") {
		cfg.Fixes = f.fixes
	}
	if fs.Changed("redirects-file") {
		cfg.Redirects = f.redirects
	}
	if fs.Changed("cache") {
		cfg.Cache.DSN = f.cacheDSN
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Changed("allow-duplicates") {
		cfg.AllowDuplicates = f.allowDuplicates
	}
	if fs.Changed("check-last-modified") {
		cfg.Cache.CheckLastModified = f.checkLastModified
	}

	return cfg, nil
}

// pipeline holds everything a run needs, built in dependency order:
// configuration, identifier table, normalizer, then the cache.
type pipeline struct {
	settings  *config.FileConfig
	log       logger.Logger
	store     *config.Store
	table     *anchors.Table
	cache     *cache.Store
	assembler *assemble.Assembler
}

func openPipeline(cfg *config.FileConfig) (*pipeline, error) {
	log, err := logger.New(logger.Config{Level: cfg.LogLevel})
	if err != nil {
		return nil, err
	}

	store, err := config.Load(cfg.Paths())
	if err != nil {
		return nil, err
	}
	log.Debug("configuration loaded", logger.String("store", store.String()))

	table, err := anchors.Assign(store.Manifest(), anchors.Options{AllowDuplicates: cfg.AllowDuplicates})
	if err != nil {
		return nil, err
	}

	nctx, err := normalize.NewContext(cfg.Site.Origin, cfg.Site.ArticlePattern, table, store.Redirects())
	if err != nil {
		return nil, err
	}
	normalizer, err := normalize.NewNormalizer(nctx)
	if err != nil {
		return nil, err
	}

	cacheStore, err := cache.NewStore(cfg.Cache.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	fetchCfg := cache.DefaultFetcherConfig()
	fetchCfg.CheckLastModified = cfg.Cache.CheckLastModified
	fetcher := cache.NewHTTPFetcher(cacheStore, store, fetchCfg, log)

	extractor := extract.NewExtractor(extract.SelectorsFromConfig(cfg))

	return &pipeline{
		settings:  cfg,
		log:       log,
		store:     store,
		table:     table,
		cache:     cacheStore,
		assembler: assemble.New(store, table, extractor, normalizer, fetcher, log),
	}, nil
}

func (p *pipeline) Close() {
	p.cache.Close()
	p.log.Sync()
}

// withPipeline opens the pipeline, runs fn under a signal context and closes
// the pipeline again whatever fn returns. Commands report errors only after
// it returns, so the cache is always closed before the process exits.
func withPipeline(cfg *config.FileConfig, fn func(ctx context.Context, p *pipeline) error) error {
	p, err := openPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := signalContext()
	defer cancel()

	return fn(ctx, p)
}

// withCache opens just the download cache for fn and closes it afterwards.
func withCache(cfg *config.FileConfig, fn func(store *cache.Store) error) error {
	store, err := cache.NewStore(cfg.Cache.DSN)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer store.Close()

	return fn(store)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
