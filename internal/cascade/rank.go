package cascade

import "sort"

// Compare orders two definitions by cascade precedence. It returns a
// positive number when a outranks b, negative when b outranks a, and zero
// only for a definition compared with itself.
//
// Precedence is, in order: !important beats normal; higher specificity
// beats lower (inline declarations carry (1,0,0,0) so they sit above any
// selector); remaining ties fall to source order, where "later in source"
// wins. Because the index spans many files, source order is the composite
// key (file URI, within-file declaration counter): URIs compare
// lexicographically, counters numerically, and the greater pair is treated
// as later. This is deterministic regardless of scan order, though it does
// not reproduce a browser's true document order across files.
func Compare(a, b *Definition) int {
	if a.Important != b.Important {
		if a.Important {
			return 1
		}
		return -1
	}
	if d := a.Specificity.Compare(b.Specificity); d != 0 {
		return d
	}
	if a.FileURI != b.FileURI {
		if a.FileURI > b.FileURI {
			return 1
		}
		return -1
	}
	return a.SourceOrder - b.SourceOrder
}

// Winner returns the highest-precedence definition, or nil for an empty
// slice.
func Winner(defs []Definition) *Definition {
	var best *Definition
	for i := range defs {
		if best == nil || Compare(&defs[i], best) > 0 {
			best = &defs[i]
		}
	}
	return best
}

// SortByPrecedence sorts definitions highest-precedence first. Used to
// present definition lists with the winning declaration on top.
func SortByPrecedence(defs []Definition) {
	sort.SliceStable(defs, func(i, j int) bool {
		return Compare(&defs[i], &defs[j]) > 0
	})
}
