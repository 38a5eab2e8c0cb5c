// Package pathdisplay renders file paths for human-facing output such as
// hover text and diagnostics.
package pathdisplay

import (
	"path/filepath"
	"strings"

	"cssvars.dev/cvls/internal/config"
)

// Format renders path according to mode. Relative mode is relative to
// root; abbreviated mode shortens every directory segment to segLen bytes
// fish-shell style, keeping the file name whole. Unknown modes fall back
// to relative.
func Format(mode, path, root string, segLen int) string {
	switch mode {
	case config.PathDisplayAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	case config.PathDisplayAbbreviated:
		return Abbreviate(relativeTo(path, root), segLen)
	default:
		return relativeTo(path, root)
	}
}

func relativeTo(path, root string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// Abbreviate shortens each directory segment to segLen bytes, preserving a
// leading dot (".config" -> ".c") and the final segment. segLen below 1 is
// treated as 1.
func Abbreviate(path string, segLen int) string {
	if segLen < 1 {
		segLen = 1
	}
	sep := string(filepath.Separator)
	segments := strings.Split(filepath.ToSlash(path), "/")
	for i, seg := range segments {
		if i == len(segments)-1 || seg == "" || seg == "." || seg == ".." {
			continue
		}
		keep := segLen
		if strings.HasPrefix(seg, ".") {
			keep++
		}
		if len(seg) > keep {
			segments[i] = seg[:keep]
		}
	}
	return strings.Join(segments, sep)
}
