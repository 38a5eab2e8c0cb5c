package lsp

import (
	"fmt"
	"strings"

	"cssvars.dev/cvls/internal/color"
	"cssvars.dev/cvls/internal/log"
	"cssvars.dev/cvls/internal/pathdisplay"
	"cssvars.dev/cvls/internal/uriutil"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) handleHover(context *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	return s.Hover(params)
}

// Hover returns the winning value, resolved color, and definition location
// for the variable at the cursor.
func (s *Server) Hover(params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI
	occ, ok := s.occurrenceAt(uri, params.Position)
	if !ok {
		return nil, nil
	}
	log.Debug("hover on %s in %s", occ.name, uri)

	def := s.winnerFor(uri, occ)
	if def == nil {
		return nil, nil
	}

	var md strings.Builder
	fmt.Fprintf(&md, "**%s**\n\n", occ.name)
	fmt.Fprintf(&md, "```css\n%s: %s;\n```\n", def.Name, def.Value)

	if c := s.resolver.ResolveValue(def.Value, occ.inline); c != nil {
		fmt.Fprintf(&md, "\nColor: `%s`\n", color.FormatHex(*c))
	}

	fmt.Fprintf(&md, "\nDefined in `%s`", s.displayPath(def.FileURI))
	if def.Selector != "" {
		fmt.Fprintf(&md, " under `%s`", def.Selector)
	}
	if len(s.index.Definitions(occ.name)) > 1 {
		fmt.Fprintf(&md, " (%d definitions)", len(s.index.Definitions(occ.name)))
	}

	rng := toProtocolRange(occ.rng)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: md.String(),
		},
		Range: &rng,
	}, nil
}

// displayPath renders a file URI per the configured path display mode.
func (s *Server) displayPath(fileURI string) string {
	path := uriutil.URIToPath(fileURI)
	return pathdisplay.Format(s.cfg.PathDisplay, path, s.rootPath, s.cfg.PathDisplayLength)
}
