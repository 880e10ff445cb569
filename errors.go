package mdlive

import "errors"

// Sentinel errors for library operations.
var (
	// ErrStructure wraps partition failures: the document's blocks cannot be
	// laid out as a sequence of non-overlapping segments.
	ErrStructure = errors.New("document structure error")

	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
)
