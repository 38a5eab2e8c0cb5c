package lsp

import (
	"cssvars.dev/cvls/internal/log"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) handleDefinition(context *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	locations, err := s.GetDefinition(params)
	if err != nil || len(locations) == 0 {
		return nil, err
	}
	return locations, nil
}

// GetDefinition returns the definition sites of the variable at the
// cursor, cascade winner first.
func (s *Server) GetDefinition(params *protocol.DefinitionParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	occ, ok := s.occurrenceAt(uri, params.Position)
	if !ok {
		return nil, nil
	}

	defs := s.index.Definitions(occ.name)
	if len(defs) == 0 {
		return nil, nil
	}
	winner := s.winnerFor(uri, occ)

	locations := make([]protocol.Location, 0, len(defs))
	if winner != nil {
		locations = append(locations, locationOf(winner.FileURI, winner.NameRange))
	}
	for _, d := range defs {
		if winner != nil && d.FileURI == winner.FileURI && d.NameRange == winner.NameRange {
			continue
		}
		locations = append(locations, locationOf(d.FileURI, d.NameRange))
	}

	log.Debug("definition for %s: %d sites", occ.name, len(locations))
	return locations, nil
}
