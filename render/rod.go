package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pevans/seqbook/logger"
)

// Book page dimensions in inches. print.css may override them through
// @page since PreferCSSPageSize is set.
const (
	paperWidthInches  = 6
	paperHeightInches = 9
	marginInches      = 0.6
)

// DefaultRodTimeout bounds the page load.
const DefaultRodTimeout = 2 * time.Minute

// RodRenderer prints the HTML book to PDF with headless Chrome.
// Rod downloads Chromium on first run if none is found.
type RodRenderer struct {
	browser *rod.Browser
	timeout time.Duration
	log     logger.Logger
}

// NewRodRenderer creates a RodRenderer with the given page load timeout.
func NewRodRenderer(timeout time.Duration, log logger.Logger) *RodRenderer {
	if timeout <= 0 {
		timeout = DefaultRodTimeout
	}
	return &RodRenderer{timeout: timeout, log: log}
}

// ensureBrowser lazily connects to the browser.
func (r *RodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Pre-installed browser (containers)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return nil
}

// Close releases browser resources.
func (r *RodRenderer) Close() error {
	if r.browser != nil {
		err := r.browser.Close()
		r.browser = nil
		return err
	}
	return nil
}

// Render opens htmlPath in headless Chrome and writes the PDF to outPath.
func (r *RodRenderer) Render(ctx context.Context, htmlPath, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", htmlPath, err)
	}

	if err := r.ensureBrowser(); err != nil {
		return err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + abs})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	reader, err := page.PDF(pdfOptions())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	if err := os.WriteFile(outPath, pdf, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	r.log.Info("PDF written",
		logger.String("path", outPath),
		logger.Int("bytes", len(pdf)))
	return nil
}

// pdfOptions builds the Chrome print settings, page numbers in the native
// footer.
func pdfOptions() *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PaperWidth:          floatPtr(paperWidthInches),
		PaperHeight:         floatPtr(paperHeightInches),
		MarginTop:           floatPtr(marginInches),
		MarginBottom:        floatPtr(marginInches),
		MarginLeft:          floatPtr(marginInches),
		MarginRight:         floatPtr(marginInches),
		PrintBackground:     true,
		PreferCSSPageSize:   true,
		DisplayHeaderFooter: true,
		HeaderTemplate:      "<span></span>",
		FooterTemplate:      `<div style="font-size: 9px; width: 100%; text-align: center;"><span class="pageNumber"></span></div>`,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
