package main

// Notes:
// - runMain: we test exit codes and staged artifacts end-to-end against an
//   httptest server, with document rendering disabled (no browser).
// - hasVerboseFlag: we test detection before flag parsing.

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-locprep/internal/config"
	"github.com/alnah/go-locprep/internal/fileutil"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Content server and environment
// ---------------------------------------------------------------------------

const (
	testPlainHTML = `<div><p>Intro</p><a href="https://www.example.com">https://www.example.com</a>` +
		`<img src="./media_1.png"></div>`
	testMarkdown  = "# Intro\n"
	testSheetJSON = `{"total":2,"offset":0,"limit":2,"data":[` +
		`{"Key":"apply","Text":"Apply now"},{"Key":"learn","Text":"Learn more"}],":type":"sheet"}`
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/products/overview.plain.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testPlainHTML))
	})
	mux.HandleFunc("/products/overview.md", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testMarkdown))
	})
	mux.HandleFunc("/placeholders.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testSheetJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newMainEnv(t *testing.T) (*Environment, string) {
	t.Helper()

	env, _, _ := testEnv()
	cfg := config.DefaultConfig()
	cfg.Output.Dir = t.TempDir()
	cfg.Logging.Level = config.LevelNone
	env.Config = cfg
	return env, cfg.Output.Dir
}

func stdoutOf(env *Environment) string { return env.Stdout.(interface{ String() string }).String() }
func stderrOf(env *Environment) string { return env.Stderr.(interface{ String() string }).String() }

// ---------------------------------------------------------------------------
// TestRunMain - Command dispatch
// ---------------------------------------------------------------------------

func TestRunMain_Dispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"locprep"}, ExitUsage, "", "Usage: locprep"},
		{"version", []string{"locprep", "version"}, ExitSuccess, "locprep dev", ""},
		{"help", []string{"locprep", "help"}, ExitSuccess, "Commands:", ""},
		{"help page", []string{"locprep", "help", "page"}, ExitSuccess, "Usage: locprep page", ""},
		{"help restore", []string{"locprep", "help", "restore"}, ExitSuccess, "sheet.xlsx", ""},
		{"help unknown", []string{"locprep", "help", "nope"}, ExitUsage, "", "unknown command: nope"},
		{"page --help", []string{"locprep", "page", "--help"}, ExitSuccess, "--document", ""},
		{"unknown command", []string{"locprep", "convert"}, ExitUsage, "", "unknown command: convert"},
		{"page without path", []string{"locprep", "page"}, ExitUsage, "", "no input specified"},
		{"sheet with two urls", []string{"locprep", "sheet", "a", "b"}, ExitUsage, "", "too many arguments"},
		{"bad flag", []string{"locprep", "sheet", "--nope"}, ExitUsage, "", "invalid flags"},
		{"missing named config", []string{"locprep", "config", "-c", "./missing.yaml"}, ExitUsage, "", "config file not found"},
		{"invalid rules url", []string{"locprep", "config", "--rules-url", "not-a-url"}, ExitUsage, "", "rules.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _ := newMainEnv(t)
			code := runMain(tt.args, env)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderrOf(env))
			}
			if tt.wantStdout != "" && !strings.Contains(stdoutOf(env), tt.wantStdout) {
				t.Errorf("stdout = %q, want substring %q", stdoutOf(env), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderrOf(env), tt.wantStderr) {
				t.Errorf("stderr = %q, want substring %q", stderrOf(env), tt.wantStderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Page - Page staging
// ---------------------------------------------------------------------------

func TestRunMain_Page(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	env, dir := newMainEnv(t)
	args := []string{"locprep", "page", srv.URL + "/products/overview",
		"--media-base-url", "https://media.example.com"}

	if code := runMain(args, env); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderrOf(env))
	}

	html, err := os.ReadFile(filepath.Join(dir, pageHTMLName))
	if err != nil {
		t.Fatalf("reading page.html: %v", err)
	}
	if !strings.Contains(string(html), `translate="no"`) {
		t.Errorf("page.html has no DNT marker: %s", html)
	}
	if !strings.Contains(string(html), `./media_1.png`) {
		t.Errorf("page.html should keep media references: %s", html)
	}

	md, err := os.ReadFile(filepath.Join(dir, pageMarkdownName))
	if err != nil {
		t.Fatalf("reading page.md: %v", err)
	}
	if !strings.Contains(string(md), "https://media.example.com") {
		t.Errorf("page.md does not use the media base URL: %s", md)
	}
	if _, err := os.Stat(filepath.Join(dir, pagePDFName)); !os.IsNotExist(err) {
		t.Error("page.pdf staged without --document")
	}
	if !strings.Contains(stdoutOf(env), "Created "+filepath.Join(dir, pageMarkdownName)) {
		t.Errorf("stdout = %q", stdoutOf(env))
	}

	// Staged artifacts are write-once.
	again, _ := newMainEnv(t)
	again.Config.Output.Dir = dir
	if code := runMain(args, again); code != ExitIO {
		t.Errorf("second run exit code = %d, want %d", code, ExitIO)
	}
	forced, _ := newMainEnv(t)
	forced.Config.Output.Dir = dir
	if code := runMain(append(args, "--force"), forced); code != ExitSuccess {
		t.Errorf("--force exit code = %d, stderr: %s", code, stderrOf(forced))
	}
}

func TestRunMain_PageUpstreamNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	env, dir := newMainEnv(t)

	code := runMain([]string{"locprep", "page", srv.URL + "/missing"}, env)
	if code != ExitIO {
		t.Errorf("exit code = %d, want %d", code, ExitIO)
	}
	if fileutil.FileExists(filepath.Join(dir, pageHTMLName)) {
		t.Error("nothing should be staged when the upstream fetch fails")
	}
}

func TestRunMain_PageMissingCSS(t *testing.T) {
	t.Parallel()

	env, _ := newMainEnv(t)
	code := runMain([]string{"locprep", "page", "https://example.com/a", "--css", filepath.Join(t.TempDir(), "none.css")}, env)
	if code != ExitIO {
		t.Errorf("exit code = %d, want %d", code, ExitIO)
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_SheetRestore - Sheet round-trip through staged files
// ---------------------------------------------------------------------------

func TestRunMain_SheetRestore(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	env, dir := newMainEnv(t)

	if code := runMain([]string{"locprep", "sheet", srv.URL + "/placeholders.json"}, env); code != ExitSuccess {
		t.Fatalf("sheet exit code = %d, stderr: %s", code, stderrOf(env))
	}
	encoded := filepath.Join(dir, sheetHTMLName)
	if !fileutil.FileExists(encoded) {
		t.Fatalf("sheet.html not staged in %s", dir)
	}

	restoreEnv, restoreDir := newMainEnv(t)
	if code := runMain([]string{"locprep", "restore", encoded, "-q"}, restoreEnv); code != ExitSuccess {
		t.Fatalf("restore exit code = %d, stderr: %s", code, stderrOf(restoreEnv))
	}
	if stdoutOf(restoreEnv) != "" {
		t.Errorf("quiet restore printed %q", stdoutOf(restoreEnv))
	}

	data, err := os.ReadFile(filepath.Join(restoreDir, sheetJSONName))
	if err != nil {
		t.Fatalf("reading sheet.json: %v", err)
	}
	for _, want := range []string{`":type":"sheet"`, `"Apply now"`, `"Learn more"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("sheet.json missing %s: %s", want, data)
		}
	}
	if !fileutil.FileExists(filepath.Join(restoreDir, sheetWorkbookName)) {
		t.Error("sheet.xlsx not staged")
	}
}

func TestRunMain_RestoreMissingInput(t *testing.T) {
	t.Parallel()

	env, _ := newMainEnv(t)
	code := runMain([]string{"locprep", "restore", filepath.Join(t.TempDir(), "none.html")}, env)
	if code != ExitIO {
		t.Errorf("exit code = %d, want %d", code, ExitIO)
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Config - Effective configuration
// ---------------------------------------------------------------------------

func TestRunMain_Config(t *testing.T) {
	t.Parallel()

	env, _ := newMainEnv(t)
	code := runMain([]string{"locprep", "config", "--media-base-url", "https://media.example.com", "-v"}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderrOf(env))
	}

	out := stdoutOf(env)
	for _, want := range []string{"mediaBaseURL", "media.example.com", "level: debug"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}

// ---------------------------------------------------------------------------
// TestHasVerboseFlag
// ---------------------------------------------------------------------------

func TestHasVerboseFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"page", "-v", "x"}, true},
		{[]string{"page", "--verbose"}, true},
		{[]string{"page", "x"}, false},
		{[]string{"page", "--", "-v"}, false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := hasVerboseFlag(tt.args); got != tt.want {
			t.Errorf("hasVerboseFlag(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
