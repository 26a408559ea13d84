package bookparser

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTestArchive(t *testing.T, files map[string]string) *zip.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return zr
}

const containerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const packageOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
    <dc:creator>Jane Author</dc:creator>
  </metadata>
  <manifest>
    <item id="copyright" href="copyright.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch1" href="chapters/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="chapters/ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="style" href="styles/style.css" media-type="text/css"/>
  </manifest>
  <spine>
    <itemref idref="copyright"/>
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`

const chapter1XHTML = `<?xml version="1.0"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter One</title><link rel="stylesheet" href="../styles/style.css"/></head>
<body>
<h1>The Beginning</h1>
<p>It was a dark and stormy night when everything changed for good.</p>
<p>Nobody expected what came next, least of all the narrator of this tale.</p>
</body>
</html>`

const chapter2XHTML = `<?xml version="1.0"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter Two</title></head>
<body>
<h1>The Middle</h1>
<p>Much later, after the storm had passed, the survivors gathered together.</p>
</body>
</html>`

const copyrightXHTML = `<html><body><p>(c) 2026</p></body></html>`

const styleCSS = `body { background: url('../images/bg.png'); color: #333; }`

func TestParseExtractsChaptersAndDiscardsShort(t *testing.T) {
	zr := buildTestArchive(t, map[string]string{
		"META-INF/container.xml":  containerXML,
		"OEBPS/content.opf":       packageOPF,
		"OEBPS/copyright.xhtml":   copyrightXHTML,
		"OEBPS/chapters/ch1.xhtml": chapter1XHTML,
		"OEBPS/chapters/ch2.xhtml": chapter2XHTML,
		"OEBPS/styles/style.css":  styleCSS,
	})

	book, err := Parse(zr)
	require.NoError(t, err)

	require.Equal(t, "Test Book", book.Title)
	require.Equal(t, "Jane Author", book.Author)
	require.Len(t, book.Chapters, 2, "copyright page should be discarded as too short")
	require.Equal(t, "The Beginning", book.Chapters[0].Title)
	require.Equal(t, "The Middle", book.Chapters[1].Title)

	for i, ch := range book.Chapters {
		require.LessOrEqual(t, ch.StartChar, ch.EndChar)
		if i > 0 {
			require.LessOrEqual(t, book.Chapters[i-1].EndChar, ch.StartChar)
		}
	}
	require.LessOrEqual(t, book.Chapters[len(book.Chapters)-1].EndChar, len(book.PlainText))

	ch0Text := book.PlainText[book.Chapters[0].StartChar:book.Chapters[0].EndChar]
	require.Contains(t, ch0Text, "dark and stormy night")
	require.Contains(t, ch0Text, "\n\n")
}

func TestParseInlinesStylesheet(t *testing.T) {
	zr := buildTestArchive(t, map[string]string{
		"META-INF/container.xml":  containerXML,
		"OEBPS/content.opf":       packageOPF,
		"OEBPS/copyright.xhtml":   copyrightXHTML,
		"OEBPS/chapters/ch1.xhtml": chapter1XHTML,
		"OEBPS/chapters/ch2.xhtml": chapter2XHTML,
		"OEBPS/styles/style.css":  styleCSS,
	})

	book, err := Parse(zr)
	require.NoError(t, err)
	require.Len(t, book.AnnotatedHTMLChapters, 2)
	require.Contains(t, book.AnnotatedHTMLChapters[0], "<style")
	require.NotContains(t, book.AnnotatedHTMLChapters[0], "../styles/style.css")
}

func TestParseFallsBackToChapterNNumbering(t *testing.T) {
	zr := buildTestArchive(t, map[string]string{
		"META-INF/container.xml": containerXML,
		"OEBPS/content.opf": `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>T</dc:title></metadata>
  <manifest><item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/></manifest>
  <spine><itemref idref="ch1"/></spine>
</package>`,
		"OEBPS/ch1.xhtml": `<html><body><p>` + longParagraph() + `</p></body></html>`,
	})

	book, err := Parse(zr)
	require.NoError(t, err)
	require.Len(t, book.Chapters, 1)
	require.Equal(t, "Chapter 1", book.Chapters[0].Title)
}

func TestParseMissingManifestIsInvalidArchive(t *testing.T) {
	zr := buildTestArchive(t, map[string]string{
		"README.txt": "not a book",
	})
	_, err := Parse(zr)
	require.Error(t, err)
}

func longParagraph() string {
	s := ""
	for i := 0; i < 10; i++ {
		s += "word "
	}
	return s + "and quite a bit more text to clear the fifty character floor comfortably."
}
