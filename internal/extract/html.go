package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// VisibleText flattens an HTML document into segmentable text.
// Block elements become paragraph breaks, <pre> blocks are fenced so
// the segmenter types them as code, and anchors render as "text (url)"
// so reference extraction still sees link targets after the markup is
// gone. Relative hrefs resolve against baseURL.
func VisibleText(htmlContent, baseURL string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	var buf strings.Builder
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			case "pre":
				buf.WriteString("\n\n```\n")
				buf.WriteString(strings.Trim(nodeText(n), "\n"))
				buf.WriteString("\n```\n\n")
				return
			case "a":
				text := strings.TrimSpace(nodeText(n))
				resolved := resolveHref(base, attrValue(n, "href"))
				if text != "" {
					buf.WriteString(text)
				}
				if resolved != "" {
					buf.WriteString(" (")
					buf.WriteString(resolved)
					buf.WriteString(")")
				}
				buf.WriteString(" ")
				return
			case "br":
				buf.WriteString("\n")
			case "p", "div", "section", "article", "blockquote", "table", "ul", "ol",
				"h1", "h2", "h3", "h4", "h5", "h6", "li", "tr":
				buf.WriteString("\n\n")
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return collapseBlankRuns(buf.String()), nil
}

// nodeText returns the raw text of a subtree without block handling
func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

// attrValue returns the value of the named attribute, or ""
func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

// resolveHref resolves a href against the base, keeping only http(s)
// targets. Anchors, javascript: and mailto: links are dropped.
func resolveHref(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		parsed = base.ResolveReference(parsed)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return parsed.String()
}

// collapseBlankRuns squeezes runs of blank lines down to one blank
// line and trims surrounding whitespace
func collapseBlankRuns(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := true // swallow leading blanks
	for _, l := range lines {
		trimmed := strings.TrimRight(l, " \t")
		if strings.TrimSpace(trimmed) == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, trimmed)
		blank = false
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
