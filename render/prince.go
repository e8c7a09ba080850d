package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pevans/seqbook/logger"
)

// DefaultPrince is the prince binary looked up in PATH.
const DefaultPrince = "prince"

// PrinceRenderer prints the HTML book with the PrinceXML binary.
type PrinceRenderer struct {
	Binary string
	log    logger.Logger
}

// NewPrinceRenderer creates a PrinceRenderer for binary.
func NewPrinceRenderer(binary string, log logger.Logger) *PrinceRenderer {
	if binary == "" {
		binary = DefaultPrince
	}
	return &PrinceRenderer{Binary: binary, log: log}
}

// Render runs prince over htmlPath, writing outPath.
func (p *PrinceRenderer) Render(ctx context.Context, htmlPath, outPath string) error {
	cmd := exec.CommandContext(ctx, p.Binary, "--javascript", htmlPath, "-o", outPath)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	p.log.Debug("running prince", logger.String("command", strings.Join(cmd.Args, " ")))

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(output.String()); msg != "" {
			return fmt.Errorf("%w: prince: %v: %s", ErrPDFGeneration, err, msg)
		}
		return fmt.Errorf("%w: prince: %v", ErrPDFGeneration, err)
	}

	// prince reports warnings on stderr even on success
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		if line != "" {
			p.log.Warn("prince", logger.String("message", line))
		}
	}

	p.log.Info("PDF written", logger.String("path", outPath))
	return nil
}

// Close is a no-op.
func (p *PrinceRenderer) Close() error {
	return nil
}
