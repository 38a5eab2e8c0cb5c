package lsp

import (
	"fmt"
	"strings"

	"cssvars.dev/cvls/internal/log"
	"cssvars.dev/cvls/internal/position"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) handleCompletion(context *glsp.Context, params *protocol.CompletionParams) (any, error) {
	return s.GetCompletions(params)
}

// GetCompletions offers every indexed variable name. Outside an existing
// var() call the insert text wraps the name, so completing `--fg` in a
// property value produces `var(--fg)`.
func (s *Server) GetCompletions(params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	uri := params.TextDocument.URI
	doc := s.documents.Get(uri)
	if doc == nil {
		return nil, nil
	}

	prefix := wordBefore(doc.Content(), params.Position)
	wrap := !insideVarCall(doc.Content(), params.Position)

	names := s.index.Names()
	items := make([]protocol.CompletionItem, 0, len(names))
	kind := protocol.CompletionItemKindVariable
	format := protocol.InsertTextFormatPlainText

	for _, name := range names {
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}

		item := protocol.CompletionItem{
			Label:            name,
			Kind:             &kind,
			InsertTextFormat: &format,
		}
		if def := s.index.WinnerFor(name, false); def != nil {
			detail := def.Value
			item.Detail = &detail
		}
		if wrap {
			insert := fmt.Sprintf("var(%s)", name)
			item.InsertText = &insert
		}
		items = append(items, item)
	}

	log.Debug("completion in %s: %d items for prefix %q", uri, len(items), prefix)
	return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

// wordBefore returns the variable-name characters immediately before pos.
func wordBefore(text string, pos protocol.Position) string {
	offset := position.OffsetOf(text, pos.Line, pos.Character)
	start := offset
	for start > 0 && isNameByte(text[start-1]) {
		start--
	}
	return text[start:offset]
}

// insideVarCall reports whether pos sits inside an unclosed var( call.
// Walks backward balancing parens, so a call broken across lines still
// counts; a declaration or block boundary ends the search.
func insideVarCall(text string, pos protocol.Position) bool {
	offset := position.OffsetOf(text, pos.Line, pos.Character)

	depth := 0
	for i := offset - 1; i >= 0; i-- {
		switch text[i] {
		case ')':
			depth++
		case '(':
			if depth > 0 {
				depth--
				continue
			}
			return i >= 3 && strings.EqualFold(text[i-3:i], "var")
		case ';', '{', '}':
			return false
		}
	}
	return false
}
