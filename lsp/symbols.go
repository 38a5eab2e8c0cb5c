package lsp

import (
	"strings"

	"cssvars.dev/cvls/internal/log"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) handleDocumentSymbol(context *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	symbols, err := s.GetDocumentSymbols(params)
	if err != nil || len(symbols) == 0 {
		return nil, err
	}
	return symbols, nil
}

// GetDocumentSymbols lists the document's variable definitions in source
// order, with the enclosing selector as the container.
func (s *Server) GetDocumentSymbols(params *protocol.DocumentSymbolParams) ([]protocol.SymbolInformation, error) {
	uri := params.TextDocument.URI

	defs := s.index.FileDefinitions(uri)
	symbols := make([]protocol.SymbolInformation, 0, len(defs))
	for _, d := range defs {
		container := d.Selector
		symbols = append(symbols, protocol.SymbolInformation{
			Name:          d.Name,
			Kind:          protocol.SymbolKindVariable,
			Location:      locationOf(uri, d.Range),
			ContainerName: &container,
		})
	}

	log.Debug("document symbols for %s: %d", uri, len(symbols))
	return symbols, nil
}

func (s *Server) handleWorkspaceSymbol(context *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	return s.GetWorkspaceSymbols(params)
}

// GetWorkspaceSymbols lists every definition of every variable whose name
// contains the query. An empty query matches everything.
func (s *Server) GetWorkspaceSymbols(params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	query := strings.ToLower(params.Query)

	var symbols []protocol.SymbolInformation
	for _, name := range s.index.Names() {
		if query != "" && !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		for _, d := range s.index.Definitions(name) {
			container := d.Selector
			symbols = append(symbols, protocol.SymbolInformation{
				Name:          d.Name,
				Kind:          protocol.SymbolKindVariable,
				Location:      locationOf(d.FileURI, d.Range),
				ContainerName: &container,
			})
		}
	}

	log.Debug("workspace symbols for %q: %d", params.Query, len(symbols))
	return symbols, nil
}
