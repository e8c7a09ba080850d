package main

import (
	"context"
	"fmt"

	"github.com/pevans/seqbook/preview"
	"github.com/pevans/seqbook/render"
	"github.com/spf13/pflag"
)

func handleServe(args []string) {
	if err := runServe(args); err != nil {
		fail("%v", err)
	}
}

func runServe(args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ExitOnError)
	common := addCommonFlags(fs)
	addr := fs.String("addr", "localhost:8080", "Address to listen on")
	skeleton := fs.String("html-skel", "", "Custom HTML skeleton")
	title := fs.String("title", "", "Book title")
	fs.Parse(args)

	cfg, err := common.settings(fs)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	override(&cfg.Output.Skeleton, *skeleton)

	return withPipeline(cfg, func(ctx context.Context, p *pipeline) error {
		doc, err := p.assembler.Assemble(ctx)
		if err != nil {
			return err
		}

		server, err := preview.NewServer(doc, p.table, render.Options{
			Skeleton: cfg.Output.Skeleton,
			Title:    *title,
		}, p.log)
		if err != nil {
			return err
		}

		return server.Run(ctx, *addr)
	})
}
