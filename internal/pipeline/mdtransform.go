package pipeline

import (
	"context"
	"regexp"
	"strings"
)

// Precompiled regex patterns for performance.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Compress multiple blank lines to max 2
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)

	// Grid table border: +---+ or +===+ with optional alignment colons
	gridBorder = regexp.MustCompile(`^\+[-=:+ ]*\+$`)
)

// MarkdownPreprocessor defines the contract for markdown preprocessing.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// CommonMarkPreprocessor applies transformations before CommonMark conversion.
type CommonMarkPreprocessor struct{}

// PreprocessMarkdown applies all transformations to prepare Markdown for conversion.
func (p *CommonMarkPreprocessor) PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}

	content = normalizeLineEndings(content)
	content = convertGridTables(content)
	content = compressBlankLines(content)
	return content
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// compressBlankLines limits consecutive blank lines to 2 maximum.
func compressBlankLines(content string) string {
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

// convertGridTables rewrites grid tables (+---+ borders, | cells) as GFM
// pipe tables so Goldmark can parse them. Row spans are not supported;
// multi-line rows are joined with spaces. Fenced code is left untouched.
func convertGridTables(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	last := 0
	eachGridTable(lines, func(start, end int, rows [][]string) {
		out = append(out, lines[last:start]...)
		out = append(out, "")
		out = append(out, pipeTable(rows)...)
		out = append(out, "")
		last = end
	})
	out = append(out, lines[last:]...)
	return strings.Join(out, "\n")
}

// eachGridTable calls fn for every grid table outside fenced code with the
// half-open line range it spans and its parsed rows.
func eachGridTable(lines []string, fn func(start, end int, rows [][]string)) {
	inFence := false
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if inFence || !gridBorder.MatchString(trimmed) {
			continue
		}

		end := i
		for end < len(lines) && isGridLine(strings.TrimSpace(lines[end])) {
			end++
		}
		if rows := parseGridRows(lines[i:end]); len(rows) > 0 {
			fn(i, end, rows)
		}
		i = end - 1
	}
}

func isGridLine(s string) bool {
	return gridBorder.MatchString(s) || (strings.HasPrefix(s, "|") && strings.HasSuffix(s, "|") && len(s) > 1)
}

// parseGridRows groups content lines between borders into rows of cells.
func parseGridRows(lines []string) [][]string {
	var rows [][]string
	var current []string
	open := false

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if gridBorder.MatchString(line) {
			if open {
				rows = append(rows, current)
			}
			current, open = nil, false
			continue
		}

		cells := strings.Split(line[1:len(line)-1], "|")
		for j, cell := range cells {
			cell = strings.TrimSpace(cell)
			if j >= len(current) {
				current = append(current, cell)
			} else if cell != "" {
				current[j] = strings.TrimSpace(current[j] + " " + cell)
			}
		}
		open = true
	}
	if open {
		rows = append(rows, current)
	}
	return rows
}

// pipeTable renders rows as a pipe table whose first row is the header.
func pipeTable(rows [][]string) []string {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}

	render := func(cells []string) string {
		padded := make([]string, cols)
		copy(padded, cells)
		return "| " + strings.Join(padded, " | ") + " |"
	}

	out := []string{render(rows[0]), "|" + strings.Repeat(" --- |", cols)}
	for _, r := range rows[1:] {
		out = append(out, render(r))
	}
	return out
}
