package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// defaultTitle names documents without a level-one heading.
const defaultTitle = "Page"

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
	ToFragment(ctx context.Context, content string) (string, error)
}

// GoldmarkConverter converts Markdown to HTML using goldmark (pure Go).
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM, heading IDs and
// class-based code highlighting. Raw HTML in the Markdown is kept.
func NewGoldmarkConverter() *GoldmarkConverter {
	return &GoldmarkConverter{md: goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)}
}

// rendered is the body of a converted page and its first h1 text.
type rendered struct {
	body  string
	title string
}

// ToHTML converts Markdown content to a standalone HTML5 document titled
// after its first level-one heading.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	r, err := withContext(ctx, func() (rendered, error) { return c.render(content) })
	if err != nil {
		return "", err
	}

	title := r.title
	if title == "" {
		title = defaultTitle
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	sb.WriteString(html.EscapeString(title))
	sb.WriteString("</title>\n</head>\n<body>\n")
	sb.WriteString(r.body)
	sb.WriteString("</body>\n</html>\n")
	return sb.String(), nil
}

// ToFragment converts Markdown content to an HTML fragment.
func (c *GoldmarkConverter) ToFragment(ctx context.Context, content string) (string, error) {
	r, err := withContext(ctx, func() (rendered, error) { return c.render(content) })
	return r.body, err
}

// render parses once, then reads the title from the AST and renders the body.
func (c *GoldmarkConverter) render(content string) (rendered, error) {
	src := []byte(content)
	doc := c.md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, src, doc); err != nil {
		return rendered{}, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return rendered{body: buf.String(), title: firstHeading(doc, src)}, nil
}

func firstHeading(doc ast.Node, src []byte) string {
	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !entering || !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		title = strings.TrimSpace(plainText(h, src))
		return ast.WalkStop, nil
	})
	return title
}

func plainText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(src))
			continue
		}
		sb.WriteString(plainText(c, src))
	}
	return sb.String()
}

// withContext runs fn on its own goroutine so a canceled ctx returns
// immediately; goldmark and html-to-markdown take no context.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-done:
		return r.val, r.err
	}
}
