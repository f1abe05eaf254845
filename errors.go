package locprep

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyPath = errors.New("page path cannot be empty")
	ErrEmptyURL  = errors.New("URL cannot be empty")
	ErrEmptyHTML = errors.New("HTML content cannot be empty")

	// ErrUpstreamFetch reports that page or table content could not be
	// fetched. The run is aborted; partial content is never annotated.
	ErrUpstreamFetch = errors.New("upstream content fetch failed")

	// Document rendering errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrDocumentRender = errors.New("document rendering failed")
)
