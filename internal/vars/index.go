// Package vars holds the cross-file index of custom property definitions
// and usages. All mutation goes through per-file replacement under a single
// write lock, so readers always observe a consistent snapshot of any one
// file's contributions.
package vars

import (
	"sort"
	"sync"

	"cssvars.dev/cvls/internal/cascade"
	"cssvars.dev/cvls/internal/collections"
	"cssvars.dev/cvls/internal/log"
)

// Index maps variable names to everything known about them.
type Index struct {
	mu   sync.RWMutex
	defs map[string][]cascade.Definition
	uses map[string][]cascade.Usage

	// fileNames remembers which names each file touched, so replacing a
	// file's contributions never walks the whole index.
	fileNames map[string]collections.Set[string]

	// nextSeq hands out sequence numbers for pending scans; fileSeq
	// records the last applied one. Together they guard against an
	// out-of-order write racing a slow scan.
	nextSeq map[string]uint64
	fileSeq map[string]uint64

	// generation increments on every mutation; caches key off it.
	generation uint64
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		defs:      make(map[string][]cascade.Definition),
		uses:      make(map[string][]cascade.Usage),
		fileNames: make(map[string]collections.Set[string]),
		nextSeq:   make(map[string]uint64),
		fileSeq:   make(map[string]uint64),
	}
}

// IndexFile atomically replaces fileURI's contributions with defs and uses.
// The write is assigned the next sequence number for the file.
func (ix *Index) IndexFile(fileURI string, defs []cascade.Definition, uses []cascade.Usage) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.nextSeq[fileURI]++
	ix.applyLocked(fileURI, ix.nextSeq[fileURI], defs, uses)
}

// IndexFileVersion is IndexFile with an explicit sequence number. A write
// whose sequence is not newer than the last applied one for the file is a
// no-op returning false, which keeps a stale scan from clobbering fresher
// content.
func (ix *Index) IndexFileVersion(fileURI string, seq uint64, defs []cascade.Definition, uses []cascade.Usage) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if seq <= ix.fileSeq[fileURI] {
		log.Debug("dropping stale index write for %s (seq %d <= %d)", fileURI, seq, ix.fileSeq[fileURI])
		return false
	}
	ix.applyLocked(fileURI, seq, defs, uses)
	return true
}

// NextSeq reserves a sequence number for a scan of fileURI that will be
// applied later via IndexFileVersion. Scans can then run outside the lock:
// whichever finishes last by reservation order lands, not whichever
// finishes last on the clock.
func (ix *Index) NextSeq(fileURI string) uint64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.nextSeq[fileURI]++
	return ix.nextSeq[fileURI]
}

func (ix *Index) applyLocked(fileURI string, seq uint64, defs []cascade.Definition, uses []cascade.Usage) {
	ix.removeLocked(fileURI)

	names := collections.NewSet[string]()
	for _, d := range defs {
		ix.defs[d.Name] = append(ix.defs[d.Name], d)
		names.Add(d.Name)
	}
	for _, u := range uses {
		ix.uses[u.Name] = append(ix.uses[u.Name], u)
		names.Add(u.Name)
	}
	if names.Len() > 0 {
		ix.fileNames[fileURI] = names
	}
	if seq > ix.fileSeq[fileURI] {
		ix.fileSeq[fileURI] = seq
	}
	if seq > ix.nextSeq[fileURI] {
		ix.nextSeq[fileURI] = seq
	}
	ix.generation++
}

// RemoveFile drops all of fileURI's contributions, for deleted or closed
// files.
func (ix *Index) RemoveFile(fileURI string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(fileURI)
	ix.generation++
}

func (ix *Index) removeLocked(fileURI string) {
	names, ok := ix.fileNames[fileURI]
	if !ok {
		return
	}
	for name := range names {
		ix.defs[name] = pruneDefs(ix.defs[name], fileURI)
		if len(ix.defs[name]) == 0 {
			delete(ix.defs, name)
		}
		ix.uses[name] = pruneUses(ix.uses[name], fileURI)
		if len(ix.uses[name]) == 0 {
			delete(ix.uses, name)
		}
	}
	delete(ix.fileNames, fileURI)
}

func pruneDefs(defs []cascade.Definition, fileURI string) []cascade.Definition {
	kept := defs[:0]
	for _, d := range defs {
		if d.FileURI != fileURI {
			kept = append(kept, d)
		}
	}
	return kept
}

func pruneUses(uses []cascade.Usage, fileURI string) []cascade.Usage {
	kept := uses[:0]
	for _, u := range uses {
		if u.FileURI != fileURI {
			kept = append(kept, u)
		}
	}
	return kept
}

// WinnerFor returns the definition that wins the cascade for name, or nil
// when the name is undefined. With inlineContext set, inline-origin
// definitions are preferred; when none exist the full list decides, so a
// stylesheet definition still resolves variables used in style attributes.
func (ix *Index) WinnerFor(name string, inlineContext bool) *cascade.Definition {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	defs := ix.defs[name]
	if len(defs) == 0 {
		return nil
	}

	if inlineContext {
		var inline []cascade.Definition
		for _, d := range defs {
			if d.Inline {
				inline = append(inline, d)
			}
		}
		if len(inline) > 0 {
			if w := cascade.Winner(inline); w != nil {
				c := *w
				return &c
			}
		}
	}

	w := cascade.Winner(defs)
	if w == nil {
		return nil
	}
	c := *w
	return &c
}

// Definitions returns a copy of all definitions of name.
func (ix *Index) Definitions(name string) []cascade.Definition {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.defs[name]) == 0 {
		return nil
	}
	out := make([]cascade.Definition, len(ix.defs[name]))
	copy(out, ix.defs[name])
	return out
}

// Usages returns a copy of all usages of name.
func (ix *Index) Usages(name string) []cascade.Usage {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.uses[name]) == 0 {
		return nil
	}
	out := make([]cascade.Usage, len(ix.uses[name]))
	copy(out, ix.uses[name])
	return out
}

// IsDefined reports whether any file defines name.
func (ix *Index) IsDefined(name string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.defs[name]) > 0
}

// Names returns all defined variable names, sorted.
func (ix *Index) Names() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	names := make([]string, 0, len(ix.defs))
	for name := range ix.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileDefinitions returns fileURI's definitions, in source order.
func (ix *Index) FileDefinitions(fileURI string) []cascade.Definition {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []cascade.Definition
	for name := range ix.fileNames[fileURI] {
		for _, d := range ix.defs[name] {
			if d.FileURI == fileURI {
				out = append(out, d)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceOrder < out[j].SourceOrder })
	return out
}

// FileUsages returns fileURI's usages, in document order.
func (ix *Index) FileUsages(fileURI string) []cascade.Usage {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []cascade.Usage
	for name := range ix.fileNames[fileURI] {
		for _, u := range ix.uses[name] {
			if u.FileURI == fileURI {
				out = append(out, u)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Range.Start.Line != out[j].Range.Start.Line {
			return out[i].Range.Start.Line < out[j].Range.Start.Line
		}
		return out[i].Range.Start.Character < out[j].Range.Start.Character
	})
	return out
}

// Generation returns the current mutation counter. Any cached derivation of
// index state is stale once the generation moves.
func (ix *Index) Generation() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.generation
}
