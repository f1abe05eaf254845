package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// ErrMarkdownConversion indicates HTML to Markdown conversion failed.
var ErrMarkdownConversion = errors.New("markdown conversion failed")

// MarkdownConverter abstracts HTML to Markdown conversion.
type MarkdownConverter interface {
	ToMarkdown(ctx context.Context, htmlContent string) (string, error)
}

// HTMLToMarkdown converts HTML to CommonMark with GFM tables.
type HTMLToMarkdown struct {
	conv   *converter.Converter
	domain string
}

// NewHTMLToMarkdown creates an HTMLToMarkdown. Relative links are resolved
// against domain when it is not empty.
func NewHTMLToMarkdown(domain string) *HTMLToMarkdown {
	return &HTMLToMarkdown{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		domain: domain,
	}
}

// ToMarkdown converts htmlContent to Markdown.
func (h *HTMLToMarkdown) ToMarkdown(ctx context.Context, htmlContent string) (string, error) {
	md, err := withContext(ctx, func() (string, error) {
		if h.domain != "" {
			return h.conv.ConvertString(htmlContent, converter.WithDomain(h.domain))
		}
		return h.conv.ConvertString(htmlContent)
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdownConversion, err)
	}
	return md, nil
}
