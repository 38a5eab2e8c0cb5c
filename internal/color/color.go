// Package color parses CSS color literals, renders them in hex/rgb/hsl
// notation, and resolves var() chains against the variable index.
package color

import (
	"fmt"
	"math"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// Parse parses a CSS color literal (hex, rgb[a], hsl[a], named, and the
// other forms csscolorparser understands). A nil result means the text is
// not a color; that is not an error.
func Parse(value string) *csscolorparser.Color {
	c, err := csscolorparser.Parse(strings.TrimSpace(value))
	if err != nil {
		return nil
	}
	return &c
}

// FormatHex renders #rrggbb, or #rrggbbaa when the color is translucent.
func FormatHex(c csscolorparser.Color) string {
	r, g, b, a := channels(c)
	if a < 255 {
		return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, a)
	}
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// FormatRGB renders rgb(r, g, b), or rgba(r, g, b, a) when translucent.
func FormatRGB(c csscolorparser.Color) string {
	r, g, b, a := channels(c)
	if a < 255 {
		return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, formatAlpha(c.A))
	}
	return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
}

// FormatHSL renders hsl(h, s%, l%), or hsla(h, s%, l%, a) when translucent.
func FormatHSL(c csscolorparser.Color) string {
	h, s, l := rgbToHSL(c.R, c.G, c.B)
	_, _, _, a := channels(c)
	if a < 255 {
		return fmt.Sprintf("hsla(%d, %d%%, %d%%, %s)", h, s, l, formatAlpha(c.A))
	}
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", h, s, l)
}

func channels(c csscolorparser.Color) (r, g, b, a int) {
	return clamp255(c.R), clamp255(c.G), clamp255(c.B), clamp255(c.A)
}

func clamp255(v float64) int {
	n := int(math.Round(v * 255))
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}

func formatAlpha(a float64) string {
	s := fmt.Sprintf("%.2f", a)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" {
		return "0"
	}
	return s
}

// rgbToHSL converts 0..1 channels to integer hue degrees and saturation
// and lightness percentages.
func rgbToHSL(r, g, b float64) (int, int, int) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l := (max + min) / 2

	if max == min {
		return 0, 0, int(math.Round(l * 100))
	}

	d := max - min
	var s float64
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	var h float64
	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h *= 60

	return int(math.Round(h)), int(math.Round(s * 100)), int(math.Round(l * 100))
}
