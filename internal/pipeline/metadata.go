package pipeline

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var nonClassChars = regexp.MustCompile(`[^0-9a-z]+`)

// MetadataExtractor finds the page-level metadata table in page Markdown
// and renders it as a block.
type MetadataExtractor struct {
	converter HTMLConverter
}

// NewMetadataExtractor creates a MetadataExtractor using conv for Markdown
// rendering.
func NewMetadataExtractor(conv HTMLConverter) *MetadataExtractor {
	return &MetadataExtractor{converter: conv}
}

// Extract returns the first grid table holding a text node that is exactly
// "Metadata" or "metadata", rendered as
//
//	<div><div class="metadata"><div><div>key</div><div>value</div></div>…</div></div>
//
// Pipe tables never qualify. Returns "" when the page has no metadata table.
func (m *MetadataExtractor) Extract(ctx context.Context, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		table *html.Node
		err   error
	)
	lines := strings.Split(normalizeLineEndings(markdown), "\n")
	eachGridTable(lines, func(_, _ int, rows [][]string) {
		if table == nil && err == nil {
			table, err = m.metadataTable(ctx, rows)
		}
	})
	if err != nil {
		return "", err
	}
	if table == nil {
		return "", nil
	}

	section := newElement(atom.Div)
	section.AppendChild(TableToBlock(table))
	return renderNode(section)
}

// metadataTable renders one grid table and returns it when it is the
// metadata table, nil otherwise.
func (m *MetadataExtractor) metadataTable(ctx context.Context, rows [][]string) (*html.Node, error) {
	fragment, err := m.converter.ToFragment(ctx, strings.Join(pipeTable(rows), "\n"))
	if err != nil {
		return nil, err
	}
	doc, err := parseDoc(fragment)
	if err != nil {
		return nil, err
	}

	var table *html.Node
	walk(doc.root, func(n *html.Node) {
		if table == nil && n.DataAtom == atom.Table && isMetadataTable(n) {
			table = n
		}
	})
	return table, nil
}

func isMetadataTable(table *html.Node) bool {
	found := false
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			if n.Data == "Metadata" || n.Data == "metadata" {
				found = true
			}
			return
		}
		for c := n.FirstChild; c != nil && !found; c = c.NextSibling {
			visit(c)
		}
	}
	visit(table)
	return found
}

// TableToBlock converts a table into block markup. The first cell of the
// first row names the block (its CSS class); each later row becomes a div
// of cell divs. Cell children are moved, not copied.
func TableToBlock(table *html.Node) *html.Node {
	var rows []*html.Node
	walk(table, func(n *html.Node) {
		if n.DataAtom == atom.Tr {
			rows = append(rows, n)
		}
	})

	block := newElement(atom.Div)
	if len(rows) == 0 {
		return block
	}
	if first := cells(rows[0]); len(first) > 0 {
		if name := BlockClassName(textOf(first[0])); name != "" {
			block.Attr = append(block.Attr, html.Attribute{Key: "class", Val: name})
		}
	}

	for _, tr := range rows[1:] {
		rowDiv := newElement(atom.Div)
		for _, cell := range cells(tr) {
			cellDiv := newElement(atom.Div)
			for c := cell.FirstChild; c != nil; {
				next := c.NextSibling
				cell.RemoveChild(c)
				cellDiv.AppendChild(c)
				c = next
			}
			rowDiv.AppendChild(cellDiv)
		}
		block.AppendChild(rowDiv)
	}
	return block
}

func cells(tr *html.Node) []*html.Node {
	var out []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom == atom.Td || c.DataAtom == atom.Th {
			out = append(out, c)
		}
	}
	return out
}

// BlockClassName turns a block name such as "Section Metadata (dark)" into
// its class "section-metadata-dark".
func BlockClassName(name string) string {
	s := nonClassChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}
