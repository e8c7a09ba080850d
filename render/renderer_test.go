package render

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pevans/seqbook/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     EngineConfig
		want    any
		wantErr bool
	}{
		{name: "default is rod", cfg: EngineConfig{}, want: &RodRenderer{}},
		{name: "rod", cfg: EngineConfig{Engine: EngineRod}, want: &RodRenderer{}},
		{name: "prince", cfg: EngineConfig{Engine: EnginePrince}, want: &PrinceRenderer{}},
		{name: "unknown", cfg: EngineConfig{Engine: "weasyprint"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRenderer(tt.cfg, logger.NewNop())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownEngine)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, r)
			assert.NoError(t, r.Close())
		})
	}
}

func TestNewPrinceRenderer_DefaultBinary(t *testing.T) {
	assert.Equal(t, DefaultPrince, NewPrinceRenderer("", logger.NewNop()).Binary)
}

func TestPdfOptions(t *testing.T) {
	opts := pdfOptions()
	assert.True(t, opts.PreferCSSPageSize)
	assert.True(t, opts.PrintBackground)
	require.NotNil(t, opts.PaperWidth)
	assert.Equal(t, float64(paperWidthInches), *opts.PaperWidth)
	assert.Contains(t, opts.FooterTemplate, "pageNumber")
}

func TestRodRenderer_CancelledContext(t *testing.T) {
	r := NewRodRenderer(0, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Render(ctx, "book.html", "book.pdf")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, r.Close())
}

// Test helper: a shell script standing in for prince
func fakePrince(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "prince")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestPrinceRenderer_Render(t *testing.T) {
	// args: --javascript <html> -o <pdf>
	bin := fakePrince(t, `cp "$2" "$4"; echo "warning: something" >&2`)
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "book.html")
	outPath := filepath.Join(dir, "book.pdf")
	require.NoError(t, os.WriteFile(htmlPath, []byte("<html></html>"), 0o644))

	err := NewPrinceRenderer(bin, logger.NewNop()).Render(context.Background(), htmlPath, outPath)
	require.NoError(t, err)

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(b))
}

func TestPrinceRenderer_Failure(t *testing.T) {
	bin := fakePrince(t, `echo "error: cannot open input" >&2; exit 1`)

	err := NewPrinceRenderer(bin, logger.NewNop()).Render(context.Background(), "in.html", "out.pdf")
	assert.ErrorIs(t, err, ErrPDFGeneration)
	assert.Contains(t, err.Error(), "cannot open input")
}
