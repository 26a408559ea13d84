package bookparser

import (
	"archive/zip"
	"io"
	"path"
	"strings"
)

// zipIndex gives case-insensitive lookup over a book archive's entries,
// because some producers emit hrefs whose case doesn't match the actual
// zip entry name.
type zipIndex struct {
	byExact map[string]*zip.File
	byLower map[string]*zip.File
}

func newZipIndex(zr *zip.Reader) *zipIndex {
	idx := &zipIndex{
		byExact: make(map[string]*zip.File, len(zr.File)),
		byLower: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		clean := cleanZipPath(f.Name)
		idx.byExact[clean] = f
		idx.byLower[strings.ToLower(clean)] = f
	}
	return idx
}

func cleanZipPath(p string) string {
	return path.Clean(strings.TrimPrefix(p, "/"))
}

func (z *zipIndex) find(p string) (*zip.File, bool) {
	p = cleanZipPath(p)
	if f, ok := z.byExact[p]; ok {
		return f, true
	}
	f, ok := z.byLower[strings.ToLower(p)]
	return f, ok
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// resolveHref resolves an href found inside docPath against docPath's
// directory: asset references are relative to the containing document.
// Fragment identifiers are stripped.
func resolveHref(docPath, href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return ""
	}
	if strings.Contains(href, "://") {
		return ""
	}
	return cleanZipPath(path.Join(path.Dir(docPath), href))
}
