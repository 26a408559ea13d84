package bookparser

import (
	"encoding/base64"
	"path"
	"strings"
)

var extToMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".css":  "text/css",
	".otf":  "font/otf",
	".ttf":  "font/ttf",
	".woff": "font/woff",
	".woff2": "font/woff2",
}

func mimeForPath(p string) string {
	if m, ok := extToMIME[strings.ToLower(path.Ext(p))]; ok {
		return m
	}
	return "application/octet-stream"
}

// dataURL builds a base64 data: URL for an asset's raw bytes.
func dataURL(p string, data []byte) string {
	return "data:" + mimeForPath(p) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
