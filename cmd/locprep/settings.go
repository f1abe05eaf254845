package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	locprep "github.com/alnah/go-locprep"
	"github.com/alnah/go-locprep/internal/config"
)

// ErrReadCSS is returned when the document stylesheet cannot be read.
var ErrReadCSS = errors.New("failed to read CSS file")

// resolveConfig loads the named config (or the environment default) and
// applies flag overrides. The result is validated again after merging.
func resolveConfig(common *commonFlags, source *sourceFlags, env *Environment) (*config.Config, error) {
	var cfg *config.Config
	if common.config != "" {
		loaded, err := config.LoadConfig(common.config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		base := *env.Config
		cfg = &base
	}

	mergeFlags(cfg, common, source)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags overrides config values with explicitly set flags.
func mergeFlags(cfg *config.Config, common *commonFlags, source *sourceFlags) {
	if source.timeout != "" {
		cfg.Fetch.Timeout = source.timeout
	}
	if source.rulesURL != "" {
		cfg.Rules.URL = source.rulesURL
	}
	if source.mediaBaseURL != "" {
		cfg.Content.MediaBaseURL = source.mediaBaseURL
	}

	switch {
	case common.quiet:
		cfg.Logging.Level = config.LevelNone
	case common.verbose:
		cfg.Logging.Level = config.LevelDebug
	}
}

// runTimeout is the per-run bound handed to the Localizer: the fetch timeout,
// or the document timeout when rendering is enabled and it is longer.
func runTimeout(cfg *config.Config) time.Duration {
	d := cfg.FetchTimeout()
	if cfg.Document.Enabled {
		d = max(d, cfg.DocumentTimeout())
	}
	return d
}

// readCSS returns the content of the configured stylesheet, if any.
func readCSS(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided stylesheet
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadCSS, err)
	}
	return string(data), nil
}

// localizerOptions translates the effective config into Localizer options.
func localizerOptions(cfg *config.Config, css string, log *zap.Logger, env *Environment) []locprep.Option {
	opts := []locprep.Option{
		locprep.WithLogger(log),
		locprep.WithRulesURL(cfg.Rules.URL),
		locprep.WithRuleCache(cfg.Rules.Cache),
		locprep.WithMediaBaseURL(cfg.Content.MediaBaseURL),
		locprep.WithUserAgent(cfg.Fetch.UserAgent),
		locprep.WithMaxBytes(cfg.Fetch.MaxBytes),
		locprep.WithDocument(cfg.Document.Enabled),
		locprep.WithCSS(css),
	}
	if d := runTimeout(cfg); d > 0 {
		opts = append(opts, locprep.WithTimeout(d))
	}
	if env.HTTPClient != nil {
		opts = append(opts, locprep.WithHTTPClient(env.HTTPClient))
	}
	return opts
}

// outputDir returns the --output flag, falling back to output.dir.
func outputDir(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg.Output.Dir != "" {
		return cfg.Output.Dir
	}
	return config.DefaultOutputDir
}
