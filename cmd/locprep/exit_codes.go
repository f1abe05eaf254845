package main

import (
	"errors"
	"os"

	locprep "github.com/alnah/go-locprep"
	"github.com/alnah/go-locprep/internal/config"
	"github.com/alnah/go-locprep/internal/fetch"
	"github.com/alnah/go-locprep/internal/fileutil"
)

// Exit codes for the locprep CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // All artifacts staged
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or arguments
	ExitIO      = 3 // Fetch, read or staging failure
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, locprep.ErrBrowserConnect) ||
		errors.Is(err, locprep.ErrPageCreate) ||
		errors.Is(err, locprep.ErrPageLoad) ||
		errors.Is(err, locprep.ErrDocumentRender) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, locprep.ErrUpstreamFetch) ||
		errors.Is(err, fetch.ErrStatus) ||
		errors.Is(err, fetch.ErrBodyTooLarge) ||
		errors.Is(err, fileutil.ErrArtifactExists) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrReadCSS) ||
		errors.Is(err, ErrWriteArtifact) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, locprep.ErrEmptyPath) ||
		errors.Is(err, locprep.ErrEmptyURL) ||
		errors.Is(err, locprep.ErrEmptyHTML) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrInvalidFlags) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrTooManyArgs) ||
		errors.Is(err, ErrInvalidWorkerCount) {
		return ExitUsage
	}

	return ExitGeneral
}
