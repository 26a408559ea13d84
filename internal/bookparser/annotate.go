package bookparser

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var cssURLRe = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// annotateHTML builds the annotated-chapter form: body markup with styles
// inlined and every asset reference rewritten to a base64 data URL.
// Missing assets are logged and left untouched.
func annotateHTML(docPath string, root *html.Node, idx *zipIndex) (string, error) {
	body := findBody(root)
	if body == nil {
		body = root
	}

	var styleBlocks []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			inBody := isDescendant(body, node)
			switch node.DataAtom {
			case atom.Link:
				inlineLinkedStylesheet(docPath, node, idx)
				if node.DataAtom == atom.Style && node.FirstChild != nil && !inBody {
					styleBlocks = append(styleBlocks, node.FirstChild.Data)
				}
			case atom.Style:
				inlineStyleContents(docPath, node, idx)
				if node.FirstChild != nil && !inBody {
					styleBlocks = append(styleBlocks, node.FirstChild.Data)
				}
			case atom.Img:
				rewriteImgSrc(docPath, node, idx)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	var buf bytes.Buffer
	for _, css := range styleBlocks {
		buf.WriteString("<style>")
		buf.WriteString(css)
		buf.WriteString("</style>")
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// inlineLinkedStylesheet replaces a <link rel="stylesheet"> with an
// equivalent <style> whose contents are the resolved stylesheet, itself
// asset-rewritten relative to the stylesheet's own directory.
func inlineLinkedStylesheet(docPath string, node *html.Node, idx *zipIndex) {
	rel, _ := attr(node, "rel")
	if !strings.EqualFold(rel, "stylesheet") {
		return
	}
	href, ok := attr(node, "href")
	if !ok {
		return
	}
	cssPath := resolveHref(docPath, href)
	f, ok := idx.find(cssPath)
	if !ok {
		slog.Warn("bookparser: linked stylesheet missing", "path", cssPath, "doc", docPath)
		return
	}
	data, err := readZipFile(f)
	if err != nil {
		slog.Warn("bookparser: failed to read stylesheet", "path", cssPath, "error", err)
		return
	}
	css := rewriteCSSURLs(cssPath, string(data), idx)

	node.Type = html.ElementNode
	node.Data = "style"
	node.DataAtom = atom.Style
	node.Attr = nil
	node.FirstChild = nil
	node.LastChild = nil
	node.AppendChild(&html.Node{Type: html.TextNode, Data: css})
}

func inlineStyleContents(docPath string, node *html.Node, idx *zipIndex) {
	if node.FirstChild == nil || node.FirstChild.Type != html.TextNode {
		return
	}
	node.FirstChild.Data = rewriteCSSURLs(docPath, node.FirstChild.Data, idx)
}

func rewriteCSSURLs(basePath, css string, idx *zipIndex) string {
	return cssURLRe.ReplaceAllStringFunc(css, func(m string) string {
		sub := cssURLRe.FindStringSubmatch(m)
		ref := sub[1]
		if strings.HasPrefix(ref, "data:") {
			return m
		}
		assetPath := resolveHref(basePath, ref)
		f, ok := idx.find(assetPath)
		if !ok {
			slog.Warn("bookparser: css asset missing", "path", assetPath, "base", basePath)
			return m
		}
		data, err := readZipFile(f)
		if err != nil {
			slog.Warn("bookparser: failed to read css asset", "path", assetPath, "error", err)
			return m
		}
		return "url(" + dataURL(assetPath, data) + ")"
	})
}

func rewriteImgSrc(docPath string, node *html.Node, idx *zipIndex) {
	src, ok := attr(node, "src")
	if !ok || strings.HasPrefix(src, "data:") {
		return
	}
	assetPath := resolveHref(docPath, src)
	f, ok := idx.find(assetPath)
	if !ok {
		slog.Warn("bookparser: image asset missing", "path", assetPath, "doc", docPath)
		return
	}
	data, err := readZipFile(f)
	if err != nil {
		slog.Warn("bookparser: failed to read image asset", "path", assetPath, "error", err)
		return
	}
	setAttr(node, "src", dataURL(assetPath, data))
	removeAttr(node, "srcset")
}

func isDescendant(ancestor, node *html.Node) bool {
	for n := node; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}
