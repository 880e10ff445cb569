package main

import (
	"errors"
	"os"

	mdlive "github.com/alnah/go-mdlive"
	"github.com/alnah/go-mdlive/internal/assets"
	"github.com/alnah/go-mdlive/internal/config"
	"github.com/alnah/go-mdlive/internal/fileutil"
	"github.com/alnah/go-mdlive/internal/server"
)

// Exit codes for the mdlive CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Clean shutdown or successful one-shot render
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Document not found, permission denied, port busy
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, mdlive.ErrBrowserConnect) ||
		errors.Is(err, mdlive.ErrPageCreate) ||
		errors.Is(err, mdlive.ErrPageLoad) ||
		errors.Is(err, mdlive.ErrPDFGeneration) {
		return ExitBrowser
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, fileutil.ErrReadAttempts) ||
		errors.Is(err, server.ErrNoFreePort) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrListen) {
		return ExitIO
	}

	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrFieldOutOfRange) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrTemplateNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, mdlive.ErrStructure) ||
		errors.Is(err, ErrUsage) {
		return ExitUsage
	}

	return ExitGeneral
}
