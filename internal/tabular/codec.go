package tabular

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Encoding attributes.
const (
	TypeAttr = "data-type"
	NameAttr = "name"
	KeyAttr  = "key"

	TypeSheet = "sheet"
	TypeRow   = "row"
	TypeCol   = "col"

	// DefaultSheetName names the only sheet of a single-table document.
	DefaultSheetName = "default"
)

var (
	sheetSelector = cascadia.MustCompile(`body > div[data-type="sheet"]`)
	rowSelector   = cascadia.MustCompile(`div[data-type="row"]`)
)

// Encode builds an HTML document holding one sheet container per table,
// in Names order for multi-sheet documents.
func Encode(d *Document) *html.Node {
	doc, body := newDocument()
	if !d.MultiSheet() {
		body.AppendChild(encodeSheet(d.Single, DefaultSheetName))
		return doc
	}
	for _, name := range d.Names {
		body.AppendChild(encodeSheet(d.Table(name), name))
	}
	return doc
}

// EncodeString encodes d and renders it as HTML text.
func EncodeString(d *Document) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, Encode(d)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Decode rebuilds a document from its HTML encoding. Exactly one sheet
// container decodes to a single table; any other count decodes to a
// multi-sheet document (empty when there are no sheets).
func Decode(doc *html.Node) *Document {
	sheets := sheetSelector.MatchAll(doc)
	if len(sheets) == 1 {
		return &Document{Single: decodeSheet(sheets[0])}
	}

	d := &Document{Names: []string{}, Tables: make(map[string]*Table, len(sheets))}
	for _, sheet := range sheets {
		name := attr(sheet, NameAttr)
		d.Names = append(d.Names, name)
		d.Tables[name] = decodeSheet(sheet)
	}
	return d
}

// DecodeString parses htmlContent and decodes it.
func DecodeString(htmlContent string) (*Document, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}
	return Decode(doc), nil
}

func newDocument() (doc, body *html.Node) {
	doc = &html.Node{Type: html.DocumentNode}
	root := element(atom.Html)
	body = element(atom.Body)
	root.AppendChild(element(atom.Head))
	root.AppendChild(body)
	doc.AppendChild(root)
	return doc, body
}

// element creates a node with attrs given as key, value pairs.
func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func encodeSheet(t *Table, name string) *html.Node {
	sheet := element(atom.Div)
	// Absent fields carry no attribute so they decode back as absent.
	for _, f := range []struct {
		key   string
		field Field
	}{{totalKey, t.Total}, {offsetKey, t.Offset}, {limitKey, t.Limit}} {
		if f.field.Valid {
			sheet.Attr = append(sheet.Attr, html.Attribute{Key: f.key, Val: f.field.Value})
		}
	}
	sheet.Attr = append(sheet.Attr,
		html.Attribute{Key: NameAttr, Val: name},
		html.Attribute{Key: TypeAttr, Val: TypeSheet},
	)
	for _, row := range t.Rows {
		rowDiv := element(atom.Div, TypeAttr, TypeRow)
		for _, key := range row.keys {
			col := element(atom.Span, KeyAttr, key, TypeAttr, TypeCol)
			if v := row.values[key]; v != "" {
				col.AppendChild(&html.Node{Type: html.TextNode, Data: v})
			}
			rowDiv.AppendChild(col)
		}
		sheet.AppendChild(rowDiv)
	}
	return sheet
}

func decodeSheet(sheet *html.Node) *Table {
	t := &Table{
		Total:  attrField(sheet, totalKey),
		Offset: attrField(sheet, offsetKey),
		Limit:  attrField(sheet, limitKey),
	}
	for _, rowNode := range rowSelector.MatchAll(sheet) {
		row := &Row{}
		for c := rowNode.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				row.Set(attr(c, KeyAttr), textContent(c))
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// attrField reads a sheet attribute; a missing attribute is absent.
func attrField(n *html.Node, key string) Field {
	if v, ok := lookupAttr(n, key); ok {
		return Present(v)
	}
	return Field{}
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
