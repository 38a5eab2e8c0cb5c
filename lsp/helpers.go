package lsp

import (
	"strings"

	"cssvars.dev/cvls/internal/cascade"
	"cssvars.dev/cvls/internal/dom"
	"cssvars.dev/cvls/internal/position"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// occurrence is a variable name found at a document position, with the
// range of the name and whether it sits in an inline style context.
type occurrence struct {
	name   string
	rng    cascade.Range
	inline bool
}

// occurrenceAt finds the indexed definition or usage whose name covers the
// given position. Falls back to extracting a `--name` token from the
// document text, so unsaved edits still respond before re-indexing lands.
func (s *Server) occurrenceAt(uri string, pos protocol.Position) (occurrence, bool) {
	p := cascade.Position{Line: pos.Line, Character: pos.Character}

	for _, d := range s.index.FileDefinitions(uri) {
		if containsPosition(d.NameRange, p) {
			return occurrence{name: d.Name, rng: d.NameRange, inline: d.Inline}, true
		}
	}
	for _, u := range s.index.FileUsages(uri) {
		if containsPosition(u.NameRange, p) {
			return occurrence{
				name:   u.Name,
				rng:    u.NameRange,
				inline: u.Context == cascade.ContextInlineStyle,
			}, true
		}
	}

	doc := s.documents.Get(uri)
	if doc == nil {
		return occurrence{}, false
	}
	name, rng, ok := variableAt(doc.Content(), pos)
	if !ok {
		return occurrence{}, false
	}
	return occurrence{name: name, rng: rng}, true
}

// winnerFor resolves the cascade winner for occ. When uri is a markup
// document with a retained structural model, candidates whose selectors
// cannot select any element of that document are set aside first, so a
// rule scoped to absent markup does not shadow one that applies.
func (s *Server) winnerFor(uri string, occ occurrence) *cascade.Definition {
	tree := s.treeFor(uri)
	if tree == nil {
		return s.index.WinnerFor(occ.name, occ.inline)
	}

	defs := s.index.Definitions(occ.name)
	applicable := make([]cascade.Definition, 0, len(defs))
	for _, d := range defs {
		if selectorApplies(tree, d) {
			applicable = append(applicable, d)
		}
	}
	if len(applicable) == 0 || len(applicable) == len(defs) {
		return s.index.WinnerFor(occ.name, occ.inline)
	}

	if occ.inline {
		var inline []cascade.Definition
		for _, d := range applicable {
			if d.Inline {
				inline = append(inline, d)
			}
		}
		if len(inline) > 0 {
			applicable = inline
		}
	}

	w := cascade.Winner(applicable)
	if w == nil {
		return nil
	}
	c := *w
	return &c
}

// selectorApplies reports whether a definition can reach an element of
// tree. Inline declarations, top-level rules, at-rule preludes, and
// selectors beyond the matcher's subset all pass; only a selector the
// matcher understands and finds no element for is set aside.
func selectorApplies(tree *dom.Tree, d cascade.Definition) bool {
	sel := strings.TrimSpace(d.Selector)
	if d.Inline || sel == "" || sel == ":root" || strings.HasPrefix(sel, "@") {
		return true
	}
	if strings.ContainsAny(sel, ":[+~*&") {
		return true
	}
	return len(tree.QueryAll(sel)) > 0
}

// variableAt extracts the `--name` token covering pos in text.
func variableAt(text string, pos protocol.Position) (string, cascade.Range, bool) {
	offset := position.OffsetOf(text, pos.Line, pos.Character)

	start := offset
	for start > 0 && isNameByte(text[start-1]) {
		start--
	}
	end := offset
	for end < len(text) && isNameByte(text[end]) {
		end++
	}

	name := text[start:end]
	if !strings.HasPrefix(name, "--") || len(name) < 3 {
		return "", cascade.Range{}, false
	}

	sl, sc := position.PositionAt(text, start)
	el, ec := position.PositionAt(text, end)
	return name, cascade.Range{
		Start: cascade.Position{Line: sl, Character: sc},
		End:   cascade.Position{Line: el, Character: ec},
	}, true
}

func isNameByte(b byte) bool {
	return b == '-' || b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func containsPosition(r cascade.Range, p cascade.Position) bool {
	if p.Line < r.Start.Line || p.Line > r.End.Line {
		return false
	}
	if p.Line == r.Start.Line && p.Character < r.Start.Character {
		return false
	}
	if p.Line == r.End.Line && p.Character > r.End.Character {
		return false
	}
	return true
}

func toProtocolRange(r cascade.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: r.Start.Line, Character: r.Start.Character},
		End:   protocol.Position{Line: r.End.Line, Character: r.End.Character},
	}
}

func locationOf(uri string, r cascade.Range) protocol.Location {
	return protocol.Location{URI: uri, Range: toProtocolRange(r)}
}
