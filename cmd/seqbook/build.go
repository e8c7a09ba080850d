package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pevans/seqbook/logger"
	"github.com/pevans/seqbook/render"
	"github.com/spf13/pflag"
)

func handleBuild(args []string) {
	if err := runBuild(args); err != nil {
		fail("%v", err)
	}
}

func runBuild(args []string) error {
	fs := pflag.NewFlagSet("build", pflag.ExitOnError)
	common := addCommonFlags(fs)
	htmlOut := fs.String("save-html", "", "Where to write the HTML book (default from settings)")
	pdfOut := fs.StringP("output", "o", "", "Where to write the PDF book (default from settings)")
	engine := fs.String("renderer", "", "PDF engine: rod or prince")
	prince := fs.String("prince", "", "Path of the prince binary")
	skeleton := fs.String("html-skel", "", "Custom HTML skeleton")
	screenCSS := fs.String("css-screen", "", "Screen stylesheet href")
	printCSS := fs.String("css-print", "", "Print stylesheet href")
	title := fs.String("title", "", "Book title")
	noPDF := fs.Bool("no-pdf", false, "Stop after writing the HTML book")
	fs.Parse(args)

	cfg, err := common.settings(fs)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	override(&cfg.Output.HTML, *htmlOut)
	override(&cfg.Output.PDF, *pdfOut)
	override(&cfg.Output.Renderer, *engine)
	override(&cfg.Output.Prince, *prince)
	override(&cfg.Output.Skeleton, *skeleton)
	override(&cfg.Output.ScreenCSS, *screenCSS)
	override(&cfg.Output.PrintCSS, *printCSS)

	return withPipeline(cfg, func(ctx context.Context, p *pipeline) error {
		start := time.Now()
		doc, err := p.assembler.Assemble(ctx)
		if err != nil {
			p.log.Error("build failed", logger.Error(err))
			return err
		}

		// Embedded stylesheets go next to the HTML unless custom ones are set
		if cfg.Output.ScreenCSS == "" && cfg.Output.PrintCSS == "" {
			if err := render.WriteStylesheets(filepath.Dir(cfg.Output.HTML)); err != nil {
				return err
			}
		}

		runID, err := render.WriteHTMLFile(doc, render.Options{
			Skeleton:  cfg.Output.Skeleton,
			ScreenCSS: cfg.Output.ScreenCSS,
			PrintCSS:  cfg.Output.PrintCSS,
			Title:     *title,
		}, cfg.Output.HTML)
		if err != nil {
			return err
		}
		p.log.Info("HTML written",
			logger.String("path", cfg.Output.HTML),
			logger.String("run", runID))

		if *noPDF {
			return nil
		}

		renderer, err := render.NewRenderer(render.EngineConfig{
			Engine: cfg.Output.Renderer,
			Prince: cfg.Output.Prince,
		}, p.log)
		if err != nil {
			return err
		}
		defer renderer.Close()

		if err := renderer.Render(ctx, cfg.Output.HTML, cfg.Output.PDF); err != nil {
			return err
		}

		p.log.Info("book built",
			logger.String("pdf", cfg.Output.PDF),
			logger.Duration("elapsed", time.Since(start)))
		return nil
	})
}

// override sets *field to value when value is not empty.
func override(field *string, value string) {
	if value != "" {
		*field = value
	}
}
