// Package pipeline implements the Markdown and HTML stages around DNT
// annotation.
//
// This package handles:
//   - Markdown preprocessing (line normalization, grid tables to pipe tables)
//   - Markdown to HTML conversion via Goldmark
//   - Page-level metadata extraction as a block
//   - Media URL rewriting and HTML to Markdown conversion
//   - CSS injection for document rendering
//
// Fetching, rule compilation and annotation live in their own packages;
// PDF rendering is handled by the root locprep package using headless
// Chrome (go-rod).
package pipeline
