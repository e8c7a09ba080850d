package render

import "errors"

// Sentinel errors for rendering.
var (
	ErrStyleNotFound  = errors.New("stylesheet not found")
	ErrSkeleton       = errors.New("invalid document skeleton")
	ErrUnknownEngine  = errors.New("unknown renderer")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
)
