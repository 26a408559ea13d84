// Package bookparser implements the Book Parser: it turns a
// compressed e-book archive into plain text with chapter bounds, plus an
// annotated-HTML rendering of each chapter for display alongside playback.
package bookparser

import (
	"archive/zip"
	"encoding/xml"
	"path"
	"sort"
	"strings"

	"github.com/jackzampolin/syncread/internal/synerr"
	"github.com/jackzampolin/syncread/internal/types"
)

// minChapterChars is the discard threshold: chapters shorter than this
// after extraction are dropped as noise (typically copyright/blank
// filler pages).
const minChapterChars = 50

// ParsedBook is the Book Parser's output, prior to being wrapped into a
// persisted types.Book by the caller (which assigns owner, blob path,
// hash, and byte size).
type ParsedBook struct {
	Title                 string
	Author                string
	PlainText             string
	Chapters              []types.Chapter
	AnnotatedHTMLChapters []string
}

// Parse reads a book archive and extracts its text and chapter structure.
func Parse(r *zip.Reader) (*ParsedBook, error) {
	idx := newZipIndex(r)

	opfPath, err := locatePackageDocument(idx)
	if err != nil {
		return nil, err
	}

	f, ok := idx.find(opfPath)
	if !ok {
		return nil, synerr.New(synerr.InvalidArchive, "package document %q not found in archive", opfPath)
	}
	opfBytes, err := readZipFile(f)
	if err != nil {
		return nil, synerr.Wrap(synerr.InvalidArchive, err, "reading package document %q", opfPath)
	}

	var pkg opfPackage
	if err := xml.Unmarshal(opfBytes, &pkg); err != nil {
		return nil, synerr.Wrap(synerr.InvalidArchive, err, "parsing package document %q", opfPath)
	}

	opfDir := path.Dir(opfPath)
	hrefs := pkg.spineHrefs()
	if len(hrefs) == 0 {
		return nil, synerr.New(synerr.InvalidArchive, "package document %q has an empty spine", opfPath)
	}

	var textBuf strings.Builder
	var chapters []types.Chapter
	var annotated []string

	chapterNum := 0
	for _, href := range hrefs {
		if !isContentDocument(href) {
			continue
		}
		docPath := resolveHref(opfPath, href)
		docFile, ok := idx.find(docPath)
		if !ok {
			continue // asset missing at the spine level; nothing meaningful to parse
		}
		data, err := readZipFile(docFile)
		if err != nil {
			return nil, synerr.Wrap(synerr.InvalidArchive, err, "reading content document %q", docPath)
		}

		chapterNum++
		doc, err := parseChapterDoc(docPath, data, idx, chapterFallbackTitle(chapterNum))
		if err != nil {
			return nil, synerr.Wrap(synerr.InvalidArchive, err, "parsing content document %q", docPath)
		}

		if len(doc.plainText) < minChapterChars {
			continue
		}

		if textBuf.Len() > 0 {
			textBuf.WriteString("\n\n")
		}
		start := textBuf.Len()
		textBuf.WriteString(doc.plainText)
		end := textBuf.Len()

		chapters = append(chapters, types.Chapter{
			Title:     doc.title,
			StartChar: start,
			EndChar:   end,
			WordCount: countWords(doc.plainText),
		})
		annotated = append(annotated, doc.annotatedHTML)
	}

	if len(chapters) == 0 {
		return nil, synerr.New(synerr.InvalidArchive, "no chapter content survived extraction")
	}

	return &ParsedBook{
		Title:                 strings.TrimSpace(pkg.Metadata.Title),
		Author:                strings.TrimSpace(pkg.Metadata.Creator),
		PlainText:             textBuf.String(),
		Chapters:              chapters,
		AnnotatedHTMLChapters: annotated,
	}, nil
}

func isContentDocument(href string) bool {
	lower := strings.ToLower(href)
	if i := strings.IndexByte(lower, '#'); i >= 0 {
		lower = lower[:i]
	}
	return strings.HasSuffix(lower, ".xhtml") || strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}

// locatePackageDocument finds the archive's package (.opf) document via
// META-INF/container.xml, falling back to scanning for any .opf entry.
func locatePackageDocument(idx *zipIndex) (string, error) {
	if f, ok := idx.find("META-INF/container.xml"); ok {
		data, err := readZipFile(f)
		if err == nil {
			var c container
			if err := xml.Unmarshal(data, &c); err == nil && len(c.Rootfiles) > 0 && c.Rootfiles[0].FullPath != "" {
				return cleanZipPath(c.Rootfiles[0].FullPath), nil
			}
		}
	}
	candidates := make([]string, 0, 1)
	for p := range idx.byExact {
		if strings.HasSuffix(strings.ToLower(p), ".opf") {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return "", synerr.New(synerr.InvalidArchive, "no package manifest (.opf) found in archive")
	}
	sort.Strings(candidates)
	return candidates[0], nil
}
