package scanner

import (
	"path"
	"strings"

	"cssvars.dev/cvls/internal/cascade"
)

var cssExtensions = map[string]bool{
	".css": true, ".scss": true, ".sass": true, ".less": true,
}

var markupExtensions = map[string]bool{
	".html": true, ".htm": true, ".vue": true, ".svelte": true, ".astro": true,
}

// Supported reports whether files with the given URI or path are scanned.
func Supported(uri string) bool {
	ext := extOf(uri)
	return cssExtensions[ext] || markupExtensions[ext]
}

// IsMarkup reports whether uri names an HTML-like file, whose scan also
// yields a structural model.
func IsMarkup(uri string) bool {
	return markupExtensions[extOf(uri)]
}

// ScanDocument dispatches on the file extension of uri. The third return is
// false for unsupported extensions, which are skipped rather than guessed
// at.
func ScanDocument(uri, text string) ([]cascade.Definition, []cascade.Usage, bool) {
	ext := extOf(uri)
	switch {
	case cssExtensions[ext]:
		defs, uses := ScanCSS(uri, text)
		return defs, uses, true
	case markupExtensions[ext]:
		defs, uses := ScanHTML(uri, text)
		return defs, uses, true
	default:
		return nil, nil, false
	}
}

func extOf(uri string) string {
	clean := uri
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	return strings.ToLower(path.Ext(clean))
}
