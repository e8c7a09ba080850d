package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"
)

func handleDownload(args []string) {
	if err := runDownload(args); err != nil {
		fail("%v", err)
	}
}

func runDownload(args []string) error {
	fs := pflag.NewFlagSet("download", pflag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Parse(args)

	cfg, err := common.settings(fs)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	return withPipeline(cfg, func(ctx context.Context, p *pipeline) error {
		n, err := p.assembler.Prefetch(ctx)
		if err != nil {
			return fmt.Errorf("download failed after %d articles: %w", n, err)
		}

		fmt.Printf("Downloaded %d articles into %s\n", n, cfg.Cache.DSN)
		return nil
	})
}
