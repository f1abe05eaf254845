package locprep

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-locprep/internal/dnt"
	"github.com/alnah/go-locprep/internal/fetch"
	"github.com/alnah/go-locprep/internal/pipeline"
	"github.com/alnah/go-locprep/internal/tabular"
	"github.com/alnah/go-locprep/internal/workbook"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.HTMLConverter     = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.MarkdownConverter = (*pipeline.HTMLToMarkdown)(nil)
	_ pipeline.StyleInjector     = (*pipeline.CSSInjection)(nil)
)

// Page source suffixes appended to a page path.
const (
	PlainHTMLSuffix = ".plain.html"
	MarkdownSuffix  = ".md"
)

// Page is a prepared content page.
type Page struct {
	Path     string
	HTML     string // annotated HTML, media references untouched
	Markdown string // annotated HTML converted to Markdown
	PDF      []byte // nil unless document rendering is enabled
	Report   dnt.Report
}

// Sheet is a JSON table encoded for translation.
type Sheet struct {
	URL      string
	Document *tabular.Document
	HTML     string
}

// Restored is a translated sheet decoded back from HTML.
type Restored struct {
	Document *tabular.Document
	JSON     []byte
	Workbook *workbook.Workbook
}

// Localizer prepares pages and sheets for translation and restores
// translated sheets. Create with NewLocalizer and Close when done.
type Localizer struct {
	cfg           localizerConfig
	log           *zap.Logger
	fetcher       *fetch.Fetcher
	metadata      *pipeline.MetadataExtractor
	htmlConverter pipeline.HTMLConverter
	mdConverter   pipeline.MarkdownConverter
	cssInjector   pipeline.StyleInjector
	renderer      documentRenderer
}

// NewLocalizer creates a Localizer. The browser used for documents is only
// launched on the first render.
func NewLocalizer(opts ...Option) *Localizer {
	l := &Localizer{
		cfg:         localizerConfig{timeout: defaultTimeout},
		log:         zap.NewNop(),
		cssInjector: &pipeline.CSSInjection{},
	}

	for _, opt := range opts {
		opt(l)
	}

	l.fetcher = fetch.New(fetch.Config{
		Timeout:   l.cfg.timeout,
		MaxBytes:  l.cfg.maxBytes,
		UserAgent: l.cfg.userAgent,
		Client:    l.cfg.httpClient,
	})

	gm := pipeline.NewGoldmarkConverter()
	l.htmlConverter = gm
	l.metadata = pipeline.NewMetadataExtractor(gm)
	l.mdConverter = pipeline.NewHTMLToMarkdown(l.cfg.mediaBaseURL)

	// Create renderer if not injected (e.g., by tests)
	if l.renderer == nil && l.cfg.document {
		l.renderer = newRodRenderer(l.cfg.timeout)
	}
	return l
}

// LoadRules fetches and compiles the DNT rule list. An unreachable or
// unreadable rule source is logged and yields an empty rule set; the
// caller carries on without annotations. Without a configured source only
// the inline-link rule is returned.
func (l *Localizer) LoadRules(ctx context.Context) *dnt.RuleSet {
	if l.cfg.rulesURL == "" {
		return dnt.Compile(&dnt.RuleList{})
	}

	body, err := l.fetchRules(ctx)
	if err != nil {
		l.log.Warn("DNT config unavailable", zap.String("url", l.cfg.rulesURL), zap.Error(err))
		return dnt.NewRuleSet()
	}

	list, err := dnt.ParseRuleList(body)
	if err != nil {
		l.log.Warn("DNT config unavailable", zap.String("url", l.cfg.rulesURL), zap.Error(err))
		return dnt.NewRuleSet()
	}

	rules := dnt.Compile(list)
	l.log.Debug("DNT rules compiled", zap.Int("records", len(list.Data)), zap.Int("selectors", rules.Len()))
	return rules
}

func (l *Localizer) fetchRules(ctx context.Context) ([]byte, error) {
	if !l.cfg.ruleCache {
		return l.fetcher.Get(ctx, l.cfg.rulesURL)
	}
	res, err := l.fetcher.GetConditional(ctx, l.cfg.rulesURL)
	if err != nil {
		return nil, err
	}
	if res.Cached {
		l.log.Debug("DNT config not modified", zap.String("etag", res.ETag))
	}
	return res.Body, nil
}

// PreparePage fetches path.plain.html and path.md, appends the page
// metadata block to the HTML, annotates DNT regions and converts the
// result to Markdown (and PDF when enabled). Any fetch failure aborts the
// run with ErrUpstreamFetch.
func (l *Localizer) PreparePage(ctx context.Context, path string) (*Page, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrEmptyPath
	}

	ctx, cancel := context.WithTimeout(ctx, l.cfg.timeout)
	defer cancel()

	plain, err := l.fetchUpstream(ctx, path+PlainHTMLSuffix)
	if err != nil {
		return nil, err
	}
	md, err := l.fetchUpstream(ctx, path+MarkdownSuffix)
	if err != nil {
		return nil, err
	}

	metadata, err := l.metadata.Extract(ctx, string(md))
	if err != nil {
		return nil, fmt.Errorf("extracting page metadata: %w", err)
	}

	annotated, report, err := l.annotate(ctx, string(plain)+metadata)
	if err != nil {
		return nil, err
	}

	page := &Page{Path: path, HTML: annotated, Report: report}
	if page.Markdown, err = l.toMarkdown(ctx, annotated); err != nil {
		return nil, err
	}

	if l.cfg.document {
		if page.PDF, err = l.renderDocument(ctx, page.Markdown); err != nil {
			return nil, err
		}
	}

	l.log.Info("page prepared",
		zap.String("path", path),
		zap.Int("matched", report.Matched),
		zap.Int("marked", report.Marked),
		zap.Bool("document", page.PDF != nil))
	return page, nil
}

// AnnotateHTML marks DNT regions of htmlContent with the current rule list.
func (l *Localizer) AnnotateHTML(ctx context.Context, htmlContent string) (string, dnt.Report, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return "", dnt.Report{}, ErrEmptyHTML
	}
	return l.annotate(ctx, htmlContent)
}

func (l *Localizer) annotate(ctx context.Context, htmlContent string) (string, dnt.Report, error) {
	rules := l.LoadRules(ctx)

	annotated, report, err := dnt.AnnotateString(htmlContent, rules)
	if err != nil {
		return "", report, fmt.Errorf("annotating HTML: %w", err)
	}
	for _, sel := range report.Invalid {
		l.log.Warn("DNT selector skipped", zap.String("selector", sel))
	}
	l.log.Debug("DNT annotation done", zap.Int("matched", report.Matched), zap.Int("marked", report.Marked))
	return annotated, report, nil
}

func (l *Localizer) toMarkdown(ctx context.Context, annotated string) (string, error) {
	withMedia, err := pipeline.RewriteMediaURLs(annotated, l.cfg.mediaBaseURL)
	if err != nil {
		return "", fmt.Errorf("rewriting media URLs: %w", err)
	}
	md, err := l.mdConverter.ToMarkdown(ctx, withMedia)
	if err != nil {
		return "", fmt.Errorf("converting to Markdown: %w", err)
	}
	return md, nil
}

func (l *Localizer) renderDocument(ctx context.Context, markdown string) ([]byte, error) {
	htmlContent, err := l.htmlConverter.ToHTML(ctx, markdown)
	if err != nil {
		return nil, fmt.Errorf("converting to HTML: %w", err)
	}
	htmlContent, err = l.cssInjector.InjectCSS(ctx, htmlContent, l.cfg.css)
	if err != nil {
		return nil, fmt.Errorf("injecting CSS: %w", err)
	}
	pdf, err := l.renderer.Render(ctx, htmlContent)
	if err != nil {
		return nil, fmt.Errorf("rendering document: %w", err)
	}
	return pdf, nil
}

// PrepareSheet fetches a JSON table and encodes it as HTML for translation.
func (l *Localizer) PrepareSheet(ctx context.Context, url string) (*Sheet, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrEmptyURL
	}

	ctx, cancel := context.WithTimeout(ctx, l.cfg.timeout)
	defer cancel()

	body, err := l.fetchUpstream(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := tabular.ParseJSON(body)
	if err != nil {
		return nil, err
	}

	encoded, err := tabular.EncodeString(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding sheet: %w", err)
	}

	l.log.Info("sheet prepared", zap.String("url", url), zap.Strings("sheets", sheetNames(doc)))
	return &Sheet{URL: url, Document: doc, HTML: encoded}, nil
}

// RestoreSheet decodes translated sheet HTML back into a tabular document,
// its JSON form and a workbook.
func (l *Localizer) RestoreSheet(htmlContent string) (*Restored, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return nil, ErrEmptyHTML
	}

	doc, err := tabular.DecodeString(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("decoding sheet: %w", err)
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}

	wb := workbook.FromDocument(doc)
	l.log.Debug("sheet restored",
		zap.Bool("multiSheet", doc.MultiSheet()),
		zap.Strings("sheets", sheetNames(doc)),
		zap.Int("workbookSheets", len(wb.Sheets)))
	return &Restored{Document: doc, JSON: data, Workbook: wb}, nil
}

// Close releases resources (headless Chrome browser).
func (l *Localizer) Close() error {
	if l.renderer != nil {
		return l.renderer.Close()
	}
	return nil
}

func (l *Localizer) fetchUpstream(ctx context.Context, url string) ([]byte, error) {
	body, err := l.fetcher.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
	}
	return body, nil
}

func sheetNames(d *tabular.Document) []string {
	if d.MultiSheet() {
		return d.Names
	}
	return []string{tabular.DefaultSheetName}
}
