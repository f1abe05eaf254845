package pipeline

import (
	"strings"

	"golang.org/x/net/html"
)

// MediaPrefix marks media references relative to the page.
const MediaPrefix = "./media_"

// RewriteMediaURLs points relative media references ("./media_…") at
// baseURL so the converted document can embed them. If baseURL is empty,
// returns the HTML unchanged.
//
// Rewrites:
//   - img[src], source[src], a[href]
//   - source[srcset], img[srcset] (every candidate)
func RewriteMediaURLs(htmlContent, baseURL string) (string, error) {
	if baseURL == "" {
		return htmlContent, nil
	}
	base := strings.TrimSuffix(baseURL, "/") + "/"

	doc, err := parseDoc(htmlContent)
	if err != nil {
		return "", err
	}

	walk(doc.root, func(n *html.Node) {
		for i, a := range n.Attr {
			switch {
			case a.Key == "src" && (n.Data == "img" || n.Data == "source"),
				a.Key == "href" && n.Data == "a":
				n.Attr[i].Val = rewriteMediaURL(a.Val, base)
			case a.Key == "srcset" && (n.Data == "img" || n.Data == "source"):
				n.Attr[i].Val = rewriteSrcset(a.Val, base)
			}
		}
	})

	return doc.String()
}

func rewriteMediaURL(val, base string) string {
	if !strings.HasPrefix(val, MediaPrefix) {
		return val
	}
	return base + strings.TrimPrefix(val, "./")
}

func rewriteSrcset(val, base string) string {
	if !strings.Contains(val, MediaPrefix) {
		return val
	}
	candidates := strings.Split(val, ",")
	for i, c := range candidates {
		fields := strings.Fields(c)
		if len(fields) == 0 {
			continue
		}
		fields[0] = rewriteMediaURL(fields[0], base)
		candidates[i] = strings.Join(fields, " ")
	}
	return strings.Join(candidates, ", ")
}
