package render

import (
	"context"
	"fmt"
	"time"

	"github.com/pevans/seqbook/logger"
)

// Renderer turns an HTML book on disk into its final format.
type Renderer interface {
	Render(ctx context.Context, htmlPath, outPath string) error
	Close() error
}

// Compile-time interface checks
var (
	_ Renderer = (*RodRenderer)(nil)
	_ Renderer = (*PrinceRenderer)(nil)
)

// Engine names accepted by NewRenderer.
const (
	EngineRod    = "rod"
	EnginePrince = "prince"
)

// EngineConfig holds the settings of every engine; each engine reads only
// its own fields.
type EngineConfig struct {
	Engine string
	// Prince is the prince binary, looked up in PATH when not absolute.
	Prince  string
	Timeout time.Duration
}

// NewRenderer returns the renderer named by cfg.Engine.
func NewRenderer(cfg EngineConfig, log logger.Logger) (Renderer, error) {
	switch cfg.Engine {
	case EngineRod, "":
		return NewRodRenderer(cfg.Timeout, log), nil
	case EnginePrince:
		return NewPrinceRenderer(cfg.Prince, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
	}
}
