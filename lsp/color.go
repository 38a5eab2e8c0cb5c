package lsp

import (
	"cssvars.dev/cvls/internal/cascade"
	"cssvars.dev/cvls/internal/color"
	"cssvars.dev/cvls/internal/log"
	"github.com/mazznoer/csscolorparser"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) handleDocumentColor(context *glsp.Context, params *protocol.DocumentColorParams) ([]protocol.ColorInformation, error) {
	return s.GetDocumentColors(params)
}

// GetDocumentColors returns a swatch for every var() usage in the document
// that resolves to a color, and for every definition value unless
// color-only-variables restricts swatches to variable references.
func (s *Server) GetDocumentColors(params *protocol.DocumentColorParams) ([]protocol.ColorInformation, error) {
	if !s.cfg.ColorPreview {
		return nil, nil
	}
	uri := params.TextDocument.URI

	var colors []protocol.ColorInformation

	if !s.cfg.ColorOnlyOnVariables {
		for _, d := range s.index.FileDefinitions(uri) {
			c := s.resolver.ResolveValue(d.Value, d.Inline)
			if c == nil {
				continue
			}
			colors = append(colors, protocol.ColorInformation{
				Range: toProtocolRange(d.ValueRange),
				Color: toProtocolColor(*c),
			})
		}
	}

	for _, u := range s.index.FileUsages(uri) {
		inline := u.Context == cascade.ContextInlineStyle
		c := s.resolver.ResolveVariable(u.Name, inline)
		if c == nil && u.Fallback != "" {
			c = s.resolver.ResolveValue(u.Fallback, inline)
		}
		if c == nil {
			continue
		}
		colors = append(colors, protocol.ColorInformation{
			Range: toProtocolRange(u.Range),
			Color: toProtocolColor(*c),
		})
	}

	log.Debug("document colors for %s: %d", uri, len(colors))
	return colors, nil
}

func (s *Server) handleColorPresentation(context *glsp.Context, params *protocol.ColorPresentationParams) ([]protocol.ColorPresentation, error) {
	return s.GetColorPresentations(params)
}

// GetColorPresentations offers hex, rgb, and hsl renderings of the picked
// color, each as an edit replacing the swatch's range.
func (s *Server) GetColorPresentations(params *protocol.ColorPresentationParams) ([]protocol.ColorPresentation, error) {
	c := csscolorparser.Color{
		R: float64(params.Color.Red),
		G: float64(params.Color.Green),
		B: float64(params.Color.Blue),
		A: float64(params.Color.Alpha),
	}

	labels := []string{
		color.FormatHex(c),
		color.FormatRGB(c),
		color.FormatHSL(c),
	}

	presentations := make([]protocol.ColorPresentation, 0, len(labels))
	for _, label := range labels {
		edit := protocol.TextEdit{Range: params.Range, NewText: label}
		presentations = append(presentations, protocol.ColorPresentation{
			Label:    label,
			TextEdit: &edit,
		})
	}
	return presentations, nil
}

func toProtocolColor(c csscolorparser.Color) protocol.Color {
	return protocol.Color{
		Red:   protocol.Decimal(c.R),
		Green: protocol.Decimal(c.G),
		Blue:  protocol.Decimal(c.B),
		Alpha: protocol.Decimal(c.A),
	}
}
