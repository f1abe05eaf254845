package locprep

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Option configures a Localizer.
type Option func(*Localizer)

// localizerConfig holds internal configuration for Localizer.
type localizerConfig struct {
	timeout      time.Duration
	rulesURL     string
	ruleCache    bool
	mediaBaseURL string
	document     bool
	css          string
	httpClient   *http.Client
	userAgent    string
	maxBytes     int64
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// WithTimeout bounds each PreparePage and PrepareSheet call, including
// document rendering.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("locprep: WithTimeout duration must be positive")
	}
	return func(l *Localizer) {
		l.cfg.timeout = d
	}
}

// WithLogger sets the logger. A nil logger keeps the no-op default.
func WithLogger(log *zap.Logger) Option {
	return func(l *Localizer) {
		if log != nil {
			l.log = log
		}
	}
}

// WithRulesURL sets the location of the remote DNT rule list. Without it
// only the inline-link rule applies.
func WithRulesURL(url string) Option {
	return func(l *Localizer) {
		l.cfg.rulesURL = url
	}
}

// WithRuleCache revalidates the rule list with its ETag instead of
// downloading it for every page.
func WithRuleCache(enabled bool) Option {
	return func(l *Localizer) {
		l.cfg.ruleCache = enabled
	}
}

// WithMediaBaseURL sets the URL that replaces the "./media_" prefix of
// page media before Markdown conversion.
func WithMediaBaseURL(url string) Option {
	return func(l *Localizer) {
		l.cfg.mediaBaseURL = url
	}
}

// WithDocument enables PDF rendering of prepared pages.
func WithDocument(enabled bool) Option {
	return func(l *Localizer) {
		l.cfg.document = enabled
	}
}

// WithCSS sets the stylesheet applied when rendering documents.
func WithCSS(css string) Option {
	return func(l *Localizer) {
		l.cfg.css = css
	}
}

// WithHTTPClient sets the client used for every fetch.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Localizer) {
		l.cfg.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header of fetches.
func WithUserAgent(ua string) Option {
	return func(l *Localizer) {
		l.cfg.userAgent = ua
	}
}

// WithMaxBytes caps the size of any fetched body. Larger bodies fail
// rather than being truncated.
func WithMaxBytes(n int64) Option {
	return func(l *Localizer) {
		l.cfg.maxBytes = n
	}
}

// withRenderer injects the document renderer (tests).
func withRenderer(r documentRenderer) Option {
	return func(l *Localizer) {
		l.renderer = r
	}
}
