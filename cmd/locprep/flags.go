package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// Sentinel errors for argument handling.
var (
	ErrInvalidFlags       = errors.New("invalid flags")
	ErrNoInput            = errors.New("no input specified")
	ErrTooManyArgs        = errors.New("too many arguments")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// maxWorkers bounds --workers; each worker may own a browser.
const maxWorkers = 32

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// sourceFlags holds flags that override fetch and rule settings.
type sourceFlags struct {
	timeout      string
	rulesURL     string
	mediaBaseURL string
}

// stageFlags holds artifact staging flags.
type stageFlags struct {
	output string
	force  bool
}

// pageFlags holds flags for the page command.
type pageFlags struct {
	common   commonFlags
	source   sourceFlags
	stage    stageFlags
	workers  int
	document bool
	css      string
}

// sheetFlags holds flags for the sheet and restore commands.
type sheetFlags struct {
	common commonFlags
	source sourceFlags
	stage  stageFlags
}

// addCommonFlags adds the shared flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addSourceFlags adds fetch override flags to a FlagSet.
func addSourceFlags(fs *flag.FlagSet, f *sourceFlags) {
	fs.StringVarP(&f.timeout, "timeout", "t", "", "fetch timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.rulesURL, "rules-url", "", "DNT rule list URL")
	fs.StringVar(&f.mediaBaseURL, "media-base-url", "", "base URL for ./media_ references")
}

// addStageFlags adds staging flags to a FlagSet.
func addStageFlags(fs *flag.FlagSet, f *stageFlags) {
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.BoolVarP(&f.force, "force", "f", false, "overwrite existing artifacts")
}

// newFlagSet creates a FlagSet whose errors are returned, not printed.
// Usage is printed by the command on flag.ErrHelp.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

// parseErr wraps a parse failure; flag.ErrHelp stays matchable.
func parseErr(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidFlags, err)
}

// parsePageFlags parses page command flags and returns positional args.
func parsePageFlags(args []string) (*pageFlags, []string, error) {
	fs := newFlagSet("page")
	f := &pageFlags{}

	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVarP(&f.document, "document", "d", false, "render a PDF of each page")
	fs.StringVar(&f.css, "css", "", "stylesheet for rendered documents")

	addCommonFlags(fs, &f.common)
	addSourceFlags(fs, &f.source)
	addStageFlags(fs, &f.stage)

	if err := fs.Parse(args); err != nil {
		return nil, nil, parseErr(err)
	}
	if f.workers < 0 || f.workers > maxWorkers {
		return nil, nil, fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidWorkerCount, f.workers, maxWorkers)
	}

	return f, fs.Args(), nil
}

// parseSheetFlags parses sheet or restore flags and returns positional args.
func parseSheetFlags(name string, args []string) (*sheetFlags, []string, error) {
	fs := newFlagSet(name)
	f := &sheetFlags{}

	addCommonFlags(fs, &f.common)
	addSourceFlags(fs, &f.source)
	addStageFlags(fs, &f.stage)

	if err := fs.Parse(args); err != nil {
		return nil, nil, parseErr(err)
	}

	return f, fs.Args(), nil
}

// parseConfigFlags parses config command flags.
func parseConfigFlags(args []string) (*commonFlags, *sourceFlags, error) {
	fs := newFlagSet("config")
	common, source := &commonFlags{}, &sourceFlags{}

	addCommonFlags(fs, common)
	addSourceFlags(fs, source)

	if err := fs.Parse(args); err != nil {
		return nil, nil, parseErr(err)
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("%w: %v", ErrTooManyArgs, fs.Args())
	}

	return common, source, nil
}
