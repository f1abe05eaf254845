package pipeline

import (
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StyleInjector defines the contract for adding a stylesheet to a rendered
// document before it is printed.
type StyleInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) (string, error)
}

// CSSInjection adds CSS as a <style> element of the document head.
type CSSInjection struct{}

// InjectCSS appends a <style> element to the head of htmlContent. Fragments
// get the element prepended. Empty CSS leaves the HTML unchanged.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) (string, error) {
	if cssContent == "" {
		return htmlContent, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := parseDoc(htmlContent)
	if err != nil {
		return "", err
	}

	style := newElement(atom.Style)
	style.AppendChild(&html.Node{Type: html.TextNode, Data: sanitizeCSS(cssContent)})

	if head := doc.first(atom.Head); head != nil && !doc.fragment {
		head.AppendChild(style)
	} else {
		doc.root.InsertBefore(style, doc.root.FirstChild)
	}
	return doc.String()
}

// sanitizeCSS escapes sequences that could close the <style> element early.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
