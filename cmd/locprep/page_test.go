package main

// Notes:
// - prepareBatch: tested with a mock pool and preparer; the real Localizer
//   is exercised end-to-end in main_test.go.
// - poolAdapter: we test Release type safety; Acquire/Size delegate.

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	locprep "github.com/alnah/go-locprep"
	"github.com/alnah/go-locprep/internal/fileutil"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Mock preparer and pool
// ---------------------------------------------------------------------------

type mockPreparer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	pdf   []byte
}

func (m *mockPreparer) PreparePage(_ context.Context, path string) (*locprep.Page, error) {
	m.mu.Lock()
	m.calls = append(m.calls, path)
	m.mu.Unlock()

	if err := m.fail[path]; err != nil {
		return nil, err
	}
	return &locprep.Page{
		Path:     path,
		HTML:     `<p translate="no">` + path + `</p>`,
		Markdown: "# " + path + "\n",
		PDF:      m.pdf,
	}, nil
}

type mockPool struct {
	svc  PagePreparer
	size int
}

func (p *mockPool) Acquire() PagePreparer { return p.svc }
func (p *mockPool) Release(PagePreparer)  {}
func (p *mockPool) Size() int             { return p.size }

func testEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &Environment{
		Now:    func() time.Time { return now },
		Stdout: stdout,
		Stderr: stderr,
	}, stdout, stderr
}

// ---------------------------------------------------------------------------
// TestPageJobs - Artifact directory assignment
// ---------------------------------------------------------------------------

func TestPageJobs(t *testing.T) {
	t.Parallel()

	single := pageJobs([]string{"https://example.com/products/overview"}, "out")
	if single[0].Dir != "out" {
		t.Errorf("single page dir = %q, want %q", single[0].Dir, "out")
	}

	multi := pageJobs([]string{
		"https://example.com/products/overview",
		"https://example.com/",
		"https://other.example.com/products/overview",
	}, "out")

	want := []string{
		filepath.Join("out", "products-overview"),
		filepath.Join("out", "index"),
		filepath.Join("out", "products-overview-2"),
	}
	for i, j := range multi {
		if j.Dir != want[i] {
			t.Errorf("jobs[%d].Dir = %q, want %q", i, j.Dir, want[i])
		}
	}
}

func TestPageDirName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"https://example.com/products/overview", "products-overview"},
		{"https://example.com/", "index"},
		{"https://example.com", "index"},
		{"/drafts/page", "drafts-page"},
		{"https://example.com/../etc", "etc"},
		{"https://example.com/Produits/Été", "produits-ete"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			got := pageDirName(tt.path)
			if got != tt.want {
				t.Errorf("pageDirName(%q) = %q, want %q", tt.path, got, tt.want)
			}
			if strings.ContainsAny(got, `/\`) {
				t.Errorf("pageDirName(%q) = %q contains a separator", tt.path, got)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPrepareBatch - Concurrent page preparation and staging
// ---------------------------------------------------------------------------

func TestPrepareBatch(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv()
	dir := t.TempDir()
	svc := &mockPreparer{pdf: []byte("%PDF-1.4 mock")}
	jobs := pageJobs([]string{"https://example.com/a", "https://example.com/b"}, dir)

	results := prepareBatch(context.Background(), &mockPool{svc: svc, size: 4}, jobs, false, env)

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: unexpected error %v", r.Path, r.Err)
		}
		if len(r.Artifacts) != 3 {
			t.Errorf("%s: artifacts = %v, want html, md and pdf", r.Path, r.Artifacts)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "b", pageHTMLName))
	if err != nil {
		t.Fatalf("reading staged HTML: %v", err)
	}
	if string(data) != `<p translate="no">https://example.com/b</p>` {
		t.Errorf("page.html = %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "a", pagePDFName)); err != nil {
		t.Errorf("page.pdf not staged: %v", err)
	}
}

func TestPrepareBatch_NoPDFWithoutDocument(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv()
	dir := t.TempDir()
	jobs := pageJobs([]string{"https://example.com/a"}, dir)

	results := prepareBatch(context.Background(), &mockPool{svc: &mockPreparer{}, size: 1}, jobs, false, env)

	if len(results[0].Artifacts) != 2 {
		t.Errorf("artifacts = %v, want html and md only", results[0].Artifacts)
	}
	if fileutil.FileExists(filepath.Join(dir, pagePDFName)) {
		t.Error("page.pdf should not be staged when no PDF was rendered")
	}
}

func TestPrepareBatch_PartialFailure(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv()
	dir := t.TempDir()
	svc := &mockPreparer{fail: map[string]error{"https://example.com/b": locprep.ErrUpstreamFetch}}
	jobs := pageJobs([]string{"https://example.com/a", "https://example.com/b"}, dir)

	results := prepareBatch(context.Background(), &mockPool{svc: svc, size: 2}, jobs, false, env)

	if results[0].Err != nil {
		t.Errorf("a: unexpected error %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, locprep.ErrUpstreamFetch) {
		t.Errorf("b: error = %v, want ErrUpstreamFetch", results[1].Err)
	}
	if fileutil.FileExists(filepath.Join(dir, "b", pageHTMLName)) {
		t.Error("failed page must not stage artifacts")
	}
}

func TestPrepareBatch_ExistingArtifact(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, pageHTMLName), []byte("kept"), 0o600); err != nil {
		t.Fatal(err)
	}
	jobs := pageJobs([]string{"https://example.com/a"}, dir)
	pool := &mockPool{svc: &mockPreparer{}, size: 1}

	results := prepareBatch(context.Background(), pool, jobs, false, env)
	if !errors.Is(results[0].Err, fileutil.ErrArtifactExists) {
		t.Fatalf("error = %v, want ErrArtifactExists", results[0].Err)
	}
	if !errors.Is(results[0].Err, ErrWriteArtifact) {
		t.Errorf("error = %v, want ErrWriteArtifact", results[0].Err)
	}

	results = prepareBatch(context.Background(), pool, jobs, true, env)
	if results[0].Err != nil {
		t.Fatalf("force: unexpected error %v", results[0].Err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, pageHTMLName))
	if string(data) == "kept" {
		t.Error("--force should overwrite the existing artifact")
	}
}

func TestPrepareBatch_CancelledContext(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := &mockPreparer{}
	jobs := pageJobs([]string{"https://example.com/a", "https://example.com/b"}, t.TempDir())
	results := prepareBatch(ctx, &mockPool{svc: svc, size: 1}, jobs, false, env)

	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("%s: error = %v, want context.Canceled", r.Path, r.Err)
		}
	}
	if len(svc.calls) != 0 {
		t.Errorf("preparer called %d times after cancellation", len(svc.calls))
	}
}

func TestPrepareBatch_NilService(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv()
	jobs := pageJobs([]string{"https://example.com/a"}, t.TempDir())
	results := prepareBatch(context.Background(), &mockPool{size: 1}, jobs, false, env)

	if !errors.Is(results[0].Err, ErrPoolInit) {
		t.Errorf("error = %v, want ErrPoolInit", results[0].Err)
	}
}

func TestPrepareBatch_Empty(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv()
	if results := prepareBatch(context.Background(), &mockPool{size: 1}, nil, false, env); results != nil {
		t.Errorf("results = %v, want nil", results)
	}
}

// ---------------------------------------------------------------------------
// TestPrintResults - Output and batch error
// ---------------------------------------------------------------------------

func TestPrintResults(t *testing.T) {
	t.Parallel()

	results := []pageResult{
		{Path: "https://example.com/a", Artifacts: []string{"out/a/page.html", "out/a/page.md"}},
		{Path: "https://example.com/b", Err: locprep.ErrUpstreamFetch},
	}

	t.Run("normal", func(t *testing.T) {
		t.Parallel()

		env, stdout, stderr := testEnv()
		err := printResults(results, false, false, env)

		if !errors.Is(err, ErrPagesFailed) || !errors.Is(err, locprep.ErrUpstreamFetch) {
			t.Errorf("error = %v, want ErrPagesFailed wrapping ErrUpstreamFetch", err)
		}
		if !strings.Contains(stdout.String(), "Created out/a/page.md") {
			t.Errorf("stdout = %q", stdout.String())
		}
		if !strings.Contains(stdout.String(), "1 succeeded, 1 failed") {
			t.Errorf("stdout missing summary: %q", stdout.String())
		}
		if !strings.Contains(stderr.String(), "FAILED https://example.com/b") {
			t.Errorf("stderr = %q", stderr.String())
		}
	})

	t.Run("quiet", func(t *testing.T) {
		t.Parallel()

		env, stdout, _ := testEnv()
		_ = printResults(results, true, false, env)
		if stdout.Len() != 0 {
			t.Errorf("quiet stdout = %q, want empty", stdout.String())
		}
	})

	t.Run("single failure returned as is", func(t *testing.T) {
		t.Parallel()

		env, _, stderr := testEnv()
		err := printResults(results[1:], false, false, env)
		if errors.Is(err, ErrPagesFailed) || !errors.Is(err, locprep.ErrUpstreamFetch) {
			t.Errorf("error = %v, want bare ErrUpstreamFetch", err)
		}
		if stderr.Len() != 0 {
			t.Errorf("stderr = %q, single failure is reported by the caller", stderr.String())
		}
	})
}

// ---------------------------------------------------------------------------
// TestPoolAdapter_Release_WrongType - Pool adapter type safety
// ---------------------------------------------------------------------------

func TestPoolAdapter_Release_WrongType(t *testing.T) {
	t.Parallel()

	pool := locprep.NewLocalizerPool(1)
	defer pool.Close()

	adapter := &poolAdapter{pool: pool}
	if adapter.Size() != 1 {
		t.Errorf("Size() = %d, want 1", adapter.Size())
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for wrong type, got none")
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("expected string panic, got %T", r)
		}
		if !strings.Contains(msg, "unexpected type") {
			t.Errorf("panic message should contain 'unexpected type', got %q", msg)
		}
	}()

	adapter.Release(&mockPreparer{})
}
