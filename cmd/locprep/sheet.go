package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	locprep "github.com/alnah/go-locprep"
	"github.com/alnah/go-locprep/internal/config"
	"github.com/alnah/go-locprep/internal/fetch"
	"github.com/alnah/go-locprep/internal/fileutil"
)

// ErrReadInput is returned when translated sheet HTML cannot be read.
var ErrReadInput = errors.New("failed to read input")

// Sheet artifact names.
const (
	sheetHTMLName     = "sheet.html"
	sheetJSONName     = "sheet.json"
	sheetWorkbookName = "sheet.xlsx"
)

// runSheet encodes the JSON table at a URL as sheet HTML.
func runSheet(ctx context.Context, args []string, env *Environment) error {
	flags, rest, err := parseSheetFlags("sheet", args)
	if errors.Is(err, flag.ErrHelp) {
		printSheetUsage(env.Stdout)
		return nil
	}
	if err != nil {
		return err
	}
	source, err := singleArg(rest)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(&flags.common, &flags.source, env)
	if err != nil {
		return err
	}
	cfg.Document.Enabled = false

	log := cfg.Logging.Logger()
	defer func() { _ = log.Sync() }()

	l := locprep.NewLocalizer(localizerOptions(cfg, "", log, env)...)
	defer func() { _ = l.Close() }()

	sheet, err := l.PrepareSheet(ctx, source)
	if err != nil {
		return err
	}

	paths, err := stage(outputDir(flags.stage.output, cfg), []artifact{
		{sheetHTMLName, []byte(sheet.HTML)},
	}, flags.stage.force)
	if err != nil {
		return err
	}
	printCreated(paths, flags.common.quiet, env)
	return nil
}

// runRestore decodes translated sheet HTML, read from a file or URL, into
// JSON and a workbook.
func runRestore(ctx context.Context, args []string, env *Environment) error {
	flags, rest, err := parseSheetFlags("restore", args)
	if errors.Is(err, flag.ErrHelp) {
		printRestoreUsage(env.Stdout)
		return nil
	}
	if err != nil {
		return err
	}
	source, err := singleArg(rest)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(&flags.common, &flags.source, env)
	if err != nil {
		return err
	}
	cfg.Document.Enabled = false

	log := cfg.Logging.Logger()
	defer func() { _ = log.Sync() }()

	input, err := readInput(ctx, source, cfg, env)
	if err != nil {
		return err
	}

	l := locprep.NewLocalizer(localizerOptions(cfg, "", log, env)...)
	defer func() { _ = l.Close() }()

	restored, err := l.RestoreSheet(string(input))
	if err != nil {
		return err
	}

	artifacts := []artifact{{sheetJSONName, restored.JSON}}
	if len(restored.Workbook.Sheets) > 0 {
		var buf bytes.Buffer
		if err := restored.Workbook.Write(&buf); err != nil {
			return fmt.Errorf("writing workbook: %w", err)
		}
		artifacts = append(artifacts, artifact{sheetWorkbookName, buf.Bytes()})
	} else {
		log.Warn("workbook skipped, no sheet has rows", zap.String("source", source))
	}

	paths, err := stage(outputDir(flags.stage.output, cfg), artifacts, flags.stage.force)
	if err != nil {
		return err
	}
	printCreated(paths, flags.common.quiet, env)
	return nil
}

// readInput reads source from a URL or a local file.
func readInput(ctx context.Context, source string, cfg *config.Config, env *Environment) ([]byte, error) {
	if fileutil.IsURL(source) {
		f := fetch.New(fetch.Config{
			Timeout:   cfg.FetchTimeout(),
			MaxBytes:  cfg.Fetch.MaxBytes,
			UserAgent: cfg.Fetch.UserAgent,
			Client:    env.HTTPClient,
		})
		body, err := f.Get(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
		}
		return body, nil
	}

	data, err := os.ReadFile(source) // #nosec G304 -- user-provided input path
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	return data, nil
}

// singleArg returns the only positional argument.
func singleArg(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", ErrNoInput
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("%w: %v", ErrTooManyArgs, args)
	}
}
