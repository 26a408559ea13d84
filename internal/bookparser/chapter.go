package bookparser

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var paragraphLikeAtoms = map[atom.Atom]bool{
	atom.P:          true,
	atom.Li:         true,
	atom.Blockquote: true,
	atom.Dd:         true,
}

var blockLevelAtoms = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.Li:         true,
	atom.Blockquote: true,
	atom.Dd:         true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Br:         true,
	atom.Tr:         true,
}

var headingAtoms = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
}

// chapterDoc is one spine content document's extracted forms.
type chapterDoc struct {
	title         string
	plainText     string
	annotatedHTML string
}

// parseChapterDoc parses one XHTML/HTML content document into its plain
// text and annotated-HTML forms.
func parseChapterDoc(docPath string, data []byte, idx *zipIndex, fallbackTitle string) (chapterDoc, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return chapterDoc{}, fmt.Errorf("parsing %s: %w", docPath, err)
	}

	removeScripts(root)

	title := firstHeadingText(root)
	if title == "" {
		title = fallbackTitle
	}

	plain := extractPlainText(root)

	annotated, err := annotateHTML(docPath, root, idx)
	if err != nil {
		return chapterDoc{}, err
	}

	return chapterDoc{title: title, plainText: plain, annotatedHTML: annotated}, nil
}

func removeScripts(n *html.Node) {
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		var next *html.Node
		for c := node.FirstChild; c != nil; c = next {
			next = c.NextSibling
			if c.Type == html.ElementNode && c.DataAtom == atom.Script {
				node.RemoveChild(c)
				continue
			}
			walk(c)
		}
	}
	walk(n)
}

func firstHeadingText(n *html.Node) string {
	var found string
	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if node.Type == html.ElementNode && headingAtoms[node.DataAtom] {
			found = strings.TrimSpace(textContent(node))
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(n)
	return found
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

var whitespaceRe = regexp.MustCompile(`[ \t\r\n]+`)
var blankLinesRe = regexp.MustCompile(`\n{3,}`)

// extractPlainText implements a two-tier extraction: preferred
// extraction from paragraph-like blocks, falling back to a
// block-boundary-to-blank-line conversion when no such blocks exist.
func extractPlainText(root *html.Node) string {
	var paragraphs []string
	var collectParagraphs func(*html.Node)
	collectParagraphs = func(node *html.Node) {
		if node.Type == html.ElementNode && paragraphLikeAtoms[node.DataAtom] {
			text := collapseWhitespace(textContent(node))
			if text != "" {
				paragraphs = append(paragraphs, text)
			}
			return // don't descend into nested paragraph-like blocks twice
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collectParagraphs(c)
		}
	}
	collectParagraphs(root)

	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n\n")
	}

	// Fallback: render block-end boundaries as blank lines, strip the
	// remaining tags, then collapse whitespace while preserving the
	// blank-line paragraph separators.
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if node.Type == html.ElementNode && blockLevelAtoms[node.DataAtom] {
			sb.WriteString("\n\n")
		}
	}
	if body := findBody(root); body != nil {
		walk(body)
	} else {
		walk(root)
	}

	raw := sb.String()
	lines := strings.Split(raw, "\n")
	collapsed := make([]string, 0, len(lines))
	for _, line := range lines {
		collapsed = append(collapsed, collapseWhitespace(line))
	}
	text := strings.Join(collapsed, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// countWords returns the whitespace-token count of s.
func countWords(s string) int {
	return len(strings.Fields(s))
}

func chapterFallbackTitle(n int) string {
	return "Chapter " + strconv.Itoa(n)
}
