package pypi

import (
	"strings"

	"golang.org/x/net/html"
)

// hasClassToken reports whether n's class attribute contains token as a
// whole class name. Token matching keeps "release__version" from counting
// as a "release" block.
func hasClassToken(n *html.Node, token string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == token {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText flattens a node's text content, separating text nodes with
// spaces so adjacent tokens never fuse.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
