package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/gosimple/slug"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	locprep "github.com/alnah/go-locprep"
)

// Sentinel errors for page operations.
var (
	ErrWriteArtifact = errors.New("failed to stage artifact")
	ErrPagesFailed   = errors.New("some pages failed")
	ErrPoolInit      = errors.New("failed to acquire a localizer")
)

// Page artifact names.
const (
	pageHTMLName     = "page.html"
	pageMarkdownName = "page.md"
	pagePDFName      = "page.pdf"
)

// PagePreparer is the part of the Localizer used by the page command.
type PagePreparer interface {
	PreparePage(ctx context.Context, path string) (*locprep.Page, error)
}

// Compile-time interface implementation check.
var _ PagePreparer = (*locprep.Localizer)(nil)

// Pool abstracts localizer pool operations for testability.
type Pool interface {
	Acquire() PagePreparer
	Release(PagePreparer)
	Size() int
}

// poolAdapter adapts *locprep.LocalizerPool to Pool.
type poolAdapter struct {
	pool *locprep.LocalizerPool
}

func (a *poolAdapter) Acquire() PagePreparer {
	return a.pool.Acquire()
}

// Release panics on a value that did not come from Acquire (programmer error).
func (a *poolAdapter) Release(p PagePreparer) {
	l, ok := p.(*locprep.Localizer)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", p))
	}
	a.pool.Release(l)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}

// pageJob is one page to prepare and where its artifacts go.
type pageJob struct {
	Path string
	Dir  string
}

// pageResult holds the outcome of a single page.
type pageResult struct {
	Path      string
	Artifacts []string
	Err       error
	Duration  time.Duration
}

// runPage prepares every page path given on the command line.
func runPage(ctx context.Context, args []string, env *Environment) error {
	flags, paths, err := parsePageFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printPageUsage(env.Stdout)
		return nil
	}
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return ErrNoInput
	}

	cfg, err := resolveConfig(&flags.common, &flags.source, env)
	if err != nil {
		return err
	}
	if flags.document {
		cfg.Document.Enabled = true
	}
	if flags.css != "" {
		cfg.Document.CSS = flags.css
	}

	css, err := readCSS(cfg.Document.CSS)
	if err != nil {
		return err
	}

	log := cfg.Logging.Logger()
	defer func() { _ = log.Sync() }()

	jobs := pageJobs(paths, outputDir(flags.stage.output, cfg))

	size := min(locprep.ResolvePoolSize(flags.workers), len(jobs))
	pool := locprep.NewLocalizerPool(size, localizerOptions(cfg, css, log, env)...)
	defer func() {
		if err := pool.Close(); err != nil {
			log.Warn("closing localizers", zap.Error(err))
		}
	}()

	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Pool size: %d\n", size)
	}

	results := prepareBatch(ctx, &poolAdapter{pool: pool}, jobs, flags.stage.force, env)
	return printResults(results, flags.common.quiet, flags.common.verbose, env)
}

// pageJobs assigns an artifact directory to each path. A single page stages
// directly into dir; several pages each get a subdirectory named after
// their path.
func pageJobs(paths []string, dir string) []pageJob {
	jobs := make([]pageJob, len(paths))
	seen := make(map[string]int)
	for i, p := range paths {
		jobs[i] = pageJob{Path: p, Dir: dir}
		if len(paths) == 1 {
			continue
		}
		name := pageDirName(p)
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s-%d", name, n)
		}
		jobs[i].Dir = filepath.Join(dir, name)
	}
	return jobs
}

// pageDirName turns a page path into a directory name:
// "https://host/products/overview" becomes "products-overview".
func pageDirName(path string) string {
	p := path
	if u, err := url.Parse(path); err == nil && u.Host != "" {
		p = u.Path
	}
	if name := slug.Make(p); name != "" {
		return name
	}
	return "index"
}

// prepareBatch processes pages concurrently using the pool.
func prepareBatch(ctx context.Context, pool Pool, jobs []pageJob, force bool, env *Environment) []pageResult {
	if len(jobs) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(jobs))
	results := make([]pageResult, len(jobs))
	queue := make(chan int, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			svc := pool.Acquire()
			if svc == nil {
				for idx := range queue {
					results[idx] = pageResult{Path: jobs[idx].Path, Err: ErrPoolInit}
				}
				return
			}
			defer pool.Release(svc)

			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = pageResult{Path: jobs[idx].Path, Err: ctx.Err()}
					continue
				}
				results[idx] = preparePage(ctx, svc, jobs[idx], force, env)
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)

	wg.Wait()
	return results
}

// preparePage prepares a single page and stages its artifacts.
func preparePage(ctx context.Context, svc PagePreparer, job pageJob, force bool, env *Environment) pageResult {
	start := env.Now()
	result := pageResult{Path: job.Path}

	page, err := svc.PreparePage(ctx, job.Path)
	if err != nil {
		result.Err = err
		result.Duration = env.Now().Sub(start)
		return result
	}

	artifacts := []artifact{
		{pageHTMLName, []byte(page.HTML)},
		{pageMarkdownName, []byte(page.Markdown)},
	}
	if page.PDF != nil {
		artifacts = append(artifacts, artifact{pagePDFName, page.PDF})
	}

	result.Artifacts, result.Err = stage(job.Dir, artifacts, force)
	result.Duration = env.Now().Sub(start)
	return result
}

// printResults outputs page results and returns an error wrapping the first
// failure when any page failed.
func printResults(results []pageResult, quiet, verbose bool, env *Environment) error {
	var failed int
	var first error

	for _, r := range results {
		if r.Err != nil {
			failed++
			if first == nil {
				first = r.Err
			}
			// A single failure is reported once, by the caller.
			if len(results) > 1 {
				fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.Path, r.Err)
			}
			continue
		}

		if quiet {
			continue
		}

		for _, a := range r.Artifacts {
			if verbose {
				fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.Path, a, r.Duration.Round(time.Millisecond))
			} else {
				fmt.Fprintf(env.Stdout, "Created %s\n", a)
			}
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}

	if failed == 0 {
		return nil
	}
	if len(results) == 1 {
		return first
	}
	return fmt.Errorf("%w: %d of %d: %w", ErrPagesFailed, failed, len(results), first)
}
