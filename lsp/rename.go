package lsp

import (
	"fmt"
	"strings"

	"cssvars.dev/cvls/internal/log"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) handleRename(context *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	return s.Rename(params)
}

// Rename edits the name ranges of every definition and usage of the
// variable at the cursor. A new name without the -- prefix gets one.
func (s *Server) Rename(params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	uri := params.TextDocument.URI
	occ, ok := s.occurrenceAt(uri, params.Position)
	if !ok {
		return nil, nil
	}

	newName := strings.TrimSpace(params.NewName)
	if !strings.HasPrefix(newName, "--") {
		newName = "--" + newName
	}
	if len(newName) < 3 {
		return nil, fmt.Errorf("invalid variable name %q", params.NewName)
	}

	changes := make(map[protocol.DocumentUri][]protocol.TextEdit)
	for _, d := range s.index.Definitions(occ.name) {
		changes[d.FileURI] = append(changes[d.FileURI], protocol.TextEdit{
			Range:   toProtocolRange(d.NameRange),
			NewText: newName,
		})
	}
	for _, u := range s.index.Usages(occ.name) {
		changes[u.FileURI] = append(changes[u.FileURI], protocol.TextEdit{
			Range:   toProtocolRange(u.NameRange),
			NewText: newName,
		})
	}
	if len(changes) == 0 {
		return nil, nil
	}

	log.Debug("rename %s -> %s across %d files", occ.name, newName, len(changes))
	return &protocol.WorkspaceEdit{Changes: changes}, nil
}
