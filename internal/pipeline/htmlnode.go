package pipeline

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlDoc is parsed page HTML. Fragments (page bodies, sheet encodings)
// are kept under a bare document node so they render without the
// <html><head><body> scaffolding the parser would add.
type htmlDoc struct {
	root     *html.Node
	fragment bool
}

func isFullDocument(content string) bool {
	head := strings.ToLower(strings.TrimSpace(content))
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}

func parseDoc(content string) (*htmlDoc, error) {
	if isFullDocument(content) {
		root, err := html.Parse(strings.NewReader(content))
		if err != nil {
			return nil, err
		}
		return &htmlDoc{root: root}, nil
	}

	nodes, err := html.ParseFragment(strings.NewReader(content), newElement(atom.Body))
	if err != nil {
		return nil, err
	}
	return &htmlDoc{root: adopt(nodes), fragment: true}, nil
}

// adopt places nodes under a new document node.
func adopt(nodes ...*html.Node) *html.Node {
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root
}

// first returns the first element under the root with the given atom.
func (d *htmlDoc) first(a atom.Atom) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) {
		if found == nil && n.DataAtom == a {
			found = n
		}
	})
	return found
}

func (d *htmlDoc) String() (string, error) {
	if !d.fragment {
		return renderNode(d.root)
	}
	return renderChildren(d.root)
}

func renderNode(n *html.Node) (string, error) {
	var sb strings.Builder
	err := html.Render(&sb, n)
	return sb.String(), err
}

func renderChildren(n *html.Node) (string, error) {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// walk calls fn for every element node under n, depth first.
func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func newElement(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textOf(c))
	}
	return sb.String()
}
