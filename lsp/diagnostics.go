package lsp

import (
	"fmt"

	"cssvars.dev/cvls/internal/log"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Diagnostics returns a warning for every var() reference in uri whose
// variable is not defined anywhere in the workspace. The slice is never
// nil, so publishing always clears stale diagnostics.
func (s *Server) Diagnostics(uri string) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0)
	severity := protocol.DiagnosticSeverityWarning
	source := serverName

	for _, u := range s.index.FileUsages(uri) {
		if s.index.IsDefined(u.Name) {
			continue
		}
		message := fmt.Sprintf("%s is not defined", u.Name)
		if u.Fallback != "" {
			message += fmt.Sprintf("; fallback %q applies", u.Fallback)
		}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    toProtocolRange(u.NameRange),
			Severity: &severity,
			Source:   &source,
			Message:  message,
		})
	}
	return diagnostics
}

// publishDiagnostics pushes diagnostics for uri to the client.
func (s *Server) publishDiagnostics(context *glsp.Context, uri string) {
	if context == nil {
		context = s.context
	}
	if context == nil {
		return
	}

	diagnostics := s.Diagnostics(uri)
	log.Debug("publishing %d diagnostics for %s", len(diagnostics), uri)
	context.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}
