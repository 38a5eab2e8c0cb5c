package lsp

import (
	"cssvars.dev/cvls/internal/log"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) handleReferences(context *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	return s.GetReferences(params)
}

// GetReferences returns every var() reference to the variable at the
// cursor, plus its definitions when the client asks for declarations.
func (s *Server) GetReferences(params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	occ, ok := s.occurrenceAt(uri, params.Position)
	if !ok {
		return nil, nil
	}

	var locations []protocol.Location
	if params.Context.IncludeDeclaration {
		for _, d := range s.index.Definitions(occ.name) {
			locations = append(locations, locationOf(d.FileURI, d.NameRange))
		}
	}
	for _, u := range s.index.Usages(occ.name) {
		locations = append(locations, locationOf(u.FileURI, u.NameRange))
	}

	log.Debug("references for %s: %d locations", occ.name, len(locations))
	return locations, nil
}
