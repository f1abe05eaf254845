package dnt

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Marker attribute understood by the translation service.
const (
	MarkerAttr  = "translate"
	MarkerValue = "no"
)

// Report summarizes one annotation run.
type Report struct {
	Matched int      // elements matched by any selector
	Marked  int      // elements that received the marker
	Invalid []string // selectors the engine rejected
}

// Annotate applies rules to doc in place. For each element a selector
// matches, every operation of that selector is evaluated in order; any
// matching operation sets the marker and nothing clears it.
func Annotate(doc *html.Node, rules *RuleSet) Report {
	var r Report
	for _, selector := range rules.Selectors() {
		sel, err := cascadia.Compile(selector)
		if err != nil {
			r.Invalid = append(r.Invalid, selector)
			continue
		}

		ops := rules.Operations(selector)
		for _, el := range sel.MatchAll(doc) {
			r.Matched++
			for _, op := range ops {
				if target := op.Target(el); target != nil && mark(target) {
					r.Marked++
				}
			}
		}
	}
	return r
}

// AnnotateString parses htmlContent, annotates it and renders it back.
func AnnotateString(htmlContent string, rules *RuleSet) (string, Report, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", Report{}, err
	}

	report := Annotate(doc, rules)

	var buf strings.Builder
	if err := html.Render(&buf, doc); err != nil {
		return "", report, err
	}
	return buf.String(), report, nil
}

// Target returns the element op marks for el, or nil when op does not
// apply. ConditionExists always marks el itself.
func (op Operation) Target(el *html.Node) *html.Node {
	switch op.Condition {
	case ConditionExists:
		return el
	case ConditionEquals, ConditionBeginsWith:
	default:
		return nil
	}

	if !op.matches(TextContent(el)) {
		return nil
	}
	if op.Action != ActionDNTRow {
		return el
	}
	if el.Parent == nil || el.Parent.Type != html.ElementNode {
		return nil
	}
	return el.Parent
}

func (op Operation) matches(text string) bool {
	for _, v := range op.Match {
		switch op.Condition {
		case ConditionEquals:
			if text == v {
				return true
			}
		case ConditionBeginsWith:
			if strings.HasPrefix(text, v) {
				return true
			}
		}
	}
	return false
}

// TextContent concatenates the text of every descendant text node.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// mark sets the marker on el and reports whether it was not already set.
func mark(el *html.Node) bool {
	for i, a := range el.Attr {
		if a.Namespace == "" && a.Key == MarkerAttr {
			if a.Val == MarkerValue {
				return false
			}
			el.Attr[i].Val = MarkerValue
			return true
		}
	}
	el.Attr = append(el.Attr, html.Attribute{Key: MarkerAttr, Val: MarkerValue})
	return true
}
