// Package scanner extracts custom property definitions and var() usages
// from stylesheet and markup text. It deliberately avoids a full CSS
// grammar: a byte-level state machine tracks comments, strings, and brace
// depth, and anything malformed is skipped with resynchronization rather
// than reported as an error.
package scanner

import (
	"regexp"
	"strings"

	"cssvars.dev/cvls/internal/cascade"
	"cssvars.dev/cvls/internal/position"
)

var reImportant = regexp.MustCompile(`(?i)!\s*important\s*$`)

var reComment = regexp.MustCompile(`(?s)/\*.*?\*/`)

// ScanCSS scans a whole stylesheet document, returning its definitions and
// usages in document order.
func ScanCSS(fileURI, text string) ([]cascade.Definition, []cascade.Usage) {
	order := 0
	return ScanCSSRegion(fileURI, text, 0, len(text), &order)
}

// ScanCSSRegion scans doc[from:to] as stylesheet text. Positions are
// computed against the whole document, so <style> element bodies report
// ranges in file coordinates. order is the file's running declaration
// counter.
func ScanCSSRegion(fileURI, doc string, from, to int, order *int) ([]cascade.Definition, []cascade.Usage) {
	s := &cssScan{
		fileURI: fileURI,
		doc:     doc,
		from:    from,
		to:      to,
		mask:    codeMask(doc, from, to),
		order:   order,
	}
	return s.definitions(), s.usages()
}

// ScanInlineStyle scans doc[from:to] as the body of a style="..."
// attribute. Declarations are recorded as inline definitions carrying
// selectorLabel as their context; usages are tagged ContextInlineStyle.
func ScanInlineStyle(fileURI, doc string, from, to int, selectorLabel string, order *int) ([]cascade.Definition, []cascade.Usage) {
	s := &cssScan{
		fileURI:       fileURI,
		doc:           doc,
		from:          from,
		to:            to,
		mask:          codeMask(doc, from, to),
		order:         order,
		inline:        true,
		selectorLabel: selectorLabel,
	}
	return s.definitions(), s.usages()
}

// Byte classes assigned by codeMask. Structural characters (braces,
// semicolons, parens) only count when the byte is code; string bytes are
// still value content, comment bytes are not.
const (
	byteCode = iota
	byteComment
	byteString
)

type cssScan struct {
	fileURI  string
	doc      string
	from, to int
	// mask[i-from] classifies each byte of the region.
	mask          []byte
	order         *int
	inline        bool
	selectorLabel string
}

func (s *cssScan) code(i int) bool    { return s.mask[i-s.from] == byteCode }
func (s *cssScan) comment(i int) bool { return s.mask[i-s.from] == byteComment }

// codeMask classifies the bytes of doc[from:to]. Comment and string
// delimiters share their contents' class. An unterminated string ends at
// the next newline so scanning resynchronizes; an unterminated comment
// claims the rest of the region.
func codeMask(doc string, from, to int) []byte {
	mask := make([]byte, to-from)

	state := byteCode
	var quote byte

	for i := from; i < to; i++ {
		c := doc[i]
		switch state {
		case byteCode:
			if c == '/' && i+1 < to && doc[i+1] == '*' {
				state = byteComment
				mask[i-from] = byteComment
				continue
			}
			if c == '"' || c == '\'' {
				state = byteString
				quote = c
				mask[i-from] = byteString
				continue
			}
			mask[i-from] = byteCode
		case byteComment:
			mask[i-from] = byteComment
			if c == '/' && doc[i-1] == '*' && i >= from+3 {
				state = byteCode
			}
		case byteString:
			mask[i-from] = byteString
			switch c {
			case '\\':
				if i+1 < to {
					i++
					mask[i-from] = byteString
				}
			case quote:
				state = byteCode
			case '\n':
				// bad-string: recover at the line break
				state = byteCode
			}
		}
	}
	return mask
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '-' || c == '_' || c >= 0x80
}

// definitions finds `--name: value` declarations in the region.
func (s *cssScan) definitions() []cascade.Definition {
	var defs []cascade.Definition
	var braceStack []int

	i := s.from
	for i < s.to {
		if !s.code(i) {
			i++
			continue
		}
		c := s.doc[i]

		if c == '{' {
			braceStack = append(braceStack, i)
			i++
			continue
		}
		if c == '}' {
			if len(braceStack) > 0 {
				braceStack = braceStack[:len(braceStack)-1]
			}
			i++
			continue
		}

		if c == '-' && i+1 < s.to && s.doc[i+1] == '-' && s.atDeclarationStart(i) {
			if def, next, ok := s.scanDeclaration(i, braceStack); ok {
				defs = append(defs, def)
				i = next
				continue
			}
		}
		i++
	}
	return defs
}

// atDeclarationStart reports whether a `--` at i begins a declaration: the
// previous significant code byte must end a statement or open a block.
func (s *cssScan) atDeclarationStart(i int) bool {
	for j := i - 1; j >= s.from; j-- {
		if !s.code(j) {
			continue
		}
		c := s.doc[j]
		if isSpace(c) {
			continue
		}
		return c == '{' || c == ';' || c == '}'
	}
	return true // region start
}

// scanDeclaration parses one declaration starting at the `--` at nameStart.
// Returns the definition and the offset to resume scanning from.
func (s *cssScan) scanDeclaration(nameStart int, braceStack []int) (cascade.Definition, int, bool) {
	nameEnd := nameStart + 2
	for nameEnd < s.to && isIdentByte(s.doc[nameEnd]) {
		nameEnd++
	}
	if nameEnd == nameStart+2 {
		return cascade.Definition{}, 0, false
	}

	// Expect a colon (and not `::`) after optional whitespace or comments
	k := nameEnd
	for k < s.to {
		if s.comment(k) || (s.code(k) && isSpace(s.doc[k])) {
			k++
			continue
		}
		break
	}
	if k >= s.to || !s.code(k) || s.doc[k] != ':' {
		return cascade.Definition{}, 0, false
	}
	if k+1 < s.to && s.code(k+1) && s.doc[k+1] == ':' {
		return cascade.Definition{}, 0, false
	}

	// Value runs to the first `;` or `}` outside parens. EOF also
	// terminates so unterminated blocks still contribute.
	valueStart := -1
	valueEnd := k + 1
	parens := 0
	end := s.to
	for p := k + 1; p < s.to; p++ {
		if s.comment(p) {
			continue
		}
		c := s.doc[p]
		if s.code(p) {
			if c == '(' {
				parens++
			} else if c == ')' && parens > 0 {
				parens--
			} else if parens == 0 && (c == ';' || c == '}') {
				end = p
				break
			}
			if isSpace(c) {
				continue
			}
		}
		// Code and string bytes are value content
		if valueStart < 0 {
			valueStart = p
		}
		valueEnd = p + 1
	}
	if valueStart < 0 {
		valueStart = valueEnd
	}

	value := s.doc[valueStart:valueEnd]
	important := false
	if loc := reImportant.FindStringIndex(value); loc != nil {
		important = true
		value = strings.TrimRight(value[:loc[0]], " \t\r\n")
		valueEnd = valueStart + len(value)
	}

	def := cascade.Definition{
		Name:        s.doc[nameStart:nameEnd],
		Value:       value,
		FileURI:     s.fileURI,
		Range:       s.rangeAt(nameStart, valueEnd),
		NameRange:   s.rangeAt(nameStart, nameEnd),
		ValueRange:  s.rangeAt(valueStart, valueEnd),
		Important:   important,
		Inline:      s.inline,
		SourceOrder: *s.order,
	}
	*s.order = *s.order + 1

	if s.inline {
		def.Selector = s.selectorLabel
		def.Specificity = cascade.SpecificityOf("", true)
	} else {
		def.Selector = s.selectorBefore(braceStack)
		def.Specificity = cascade.SpecificityOf(def.Selector, false)
	}
	return def, end, true
}

// selectorBefore recovers the selector of the innermost open block. A
// declaration outside any block belongs to ":root"; an at-rule prelude is
// returned whole, `@` included.
func (s *cssScan) selectorBefore(braceStack []int) string {
	if len(braceStack) == 0 {
		return ":root"
	}
	brace := braceStack[len(braceStack)-1]

	start := s.from
	for j := brace - 1; j >= s.from; j-- {
		if !s.code(j) {
			continue
		}
		c := s.doc[j]
		if c == '{' || c == '}' || c == ';' {
			start = j + 1
			break
		}
	}

	selector := reComment.ReplaceAllString(s.doc[start:brace], " ")
	selector = strings.Join(strings.Fields(selector), " ")
	if selector == "" {
		return ":root"
	}
	return selector
}

// usages finds var() references. A reference nested inside another call's
// fallback is not recorded separately; scanning resumes after the outer
// call's closing paren.
func (s *cssScan) usages() []cascade.Usage {
	var uses []cascade.Usage

	context := cascade.ContextStylesheet
	if s.inline {
		context = cascade.ContextInlineStyle
	}

	i := s.from
	for i+4 <= s.to {
		if !s.code(i) || !strings.HasPrefix(s.doc[i:s.to], "var(") {
			i++
			continue
		}
		if i > s.from && s.code(i-1) && isIdentByte(s.doc[i-1]) {
			i++
			continue
		}

		use, next, ok := s.scanVarCall(i, context)
		if !ok {
			i += 4
			continue
		}
		uses = append(uses, use)
		i = next
	}
	return uses
}

// scanVarCall parses the balanced var(...) call starting at callStart.
// Returns the usage and the offset just past the closing paren.
func (s *cssScan) scanVarCall(callStart int, context string) (cascade.Usage, int, bool) {
	argStart := callStart + 4
	depth := 1
	comma := -1
	end := -1

	for p := argStart; p < s.to; p++ {
		if !s.code(p) {
			continue
		}
		switch s.doc[p] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				end = p
			}
		case ',':
			if depth == 1 && comma < 0 {
				comma = p
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		// Unterminated call: skip it and resynchronize
		return cascade.Usage{}, 0, false
	}

	nameEnd := end
	if comma >= 0 {
		nameEnd = comma
	}
	nameStart := argStart
	for nameStart < nameEnd && isSpace(s.doc[nameStart]) {
		nameStart++
	}
	trimmedEnd := nameEnd
	for trimmedEnd > nameStart && isSpace(s.doc[trimmedEnd-1]) {
		trimmedEnd--
	}
	name := s.doc[nameStart:trimmedEnd]
	if !strings.HasPrefix(name, "--") || len(name) < 3 {
		return cascade.Usage{}, 0, false
	}

	fallback := ""
	if comma >= 0 {
		fallback = strings.TrimSpace(s.doc[comma+1 : end])
	}

	return cascade.Usage{
		Name:      name,
		Fallback:  fallback,
		FileURI:   s.fileURI,
		Range:     s.rangeAt(callStart, end+1),
		NameRange: s.rangeAt(nameStart, trimmedEnd),
		Context:   context,
	}, end + 1, true
}

func (s *cssScan) rangeAt(start, end int) cascade.Range {
	sl, sc := position.PositionAt(s.doc, start)
	el, ec := position.PositionAt(s.doc, end)
	return cascade.Range{
		Start: cascade.Position{Line: sl, Character: sc},
		End:   cascade.Position{Line: el, Character: ec},
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
