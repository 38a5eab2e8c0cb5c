// Package dom builds a lightweight structural model of HTML-like markup.
// It is not a conforming HTML parser: it runs a single forward scan with an
// explicit open-element stack, tolerates unbalanced markup, and records just
// enough structure (tags, ids, classes, attributes, spans) to attribute
// style declarations to elements.
package dom

import "strings"

// Attr is one parsed attribute. ValueStart/ValueEnd are byte offsets of the
// value text in the source document, excluding quotes.
type Attr struct {
	Name       string
	Value      string
	ValueStart int
	ValueEnd   int
}

// Node is one element, stored in the tree's arena. Parent and Children are
// arena indices; Parent is -1 for top-level elements.
type Node struct {
	Tag     string
	ID      string
	Classes []string
	Attrs   []Attr

	// Start/End span the element from `<` to the end of its close tag
	// (or EOF for implicitly closed elements). ContentStart/ContentEnd
	// span the text between the open and close tags.
	Start, End               int
	ContentStart, ContentEnd int

	Parent   int
	Children []int
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (Attr, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

// HasClass reports whether the element's class list contains name.
func (n *Node) HasClass(name string) bool {
	for _, c := range n.Classes {
		if c == name {
			return true
		}
	}
	return false
}

// Tree holds the parsed elements in document order.
type Tree struct {
	Nodes []Node
}

// voidTags never take children or a close tag.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// rawTextTags hold character data until their matching close tag; their
// contents never produce child elements.
var rawTextTags = map[string]bool{
	"style": true, "script": true,
}

// Parse scans text and returns its structural model. Malformed markup never
// fails: unmatched end tags are ignored, and elements still open at EOF are
// implicitly closed there.
func Parse(text string) *Tree {
	t := &Tree{}
	var stack []int

	i := 0
	for i < len(text) {
		lt := strings.IndexByte(text[i:], '<')
		if lt < 0 {
			break
		}
		i += lt

		switch {
		case strings.HasPrefix(text[i:], "<!--"):
			end := strings.Index(text[i+4:], "-->")
			if end < 0 {
				i = len(text)
			} else {
				i += 4 + end + 3
			}

		case strings.HasPrefix(text[i:], "<!") || strings.HasPrefix(text[i:], "<?"):
			gt := strings.IndexByte(text[i:], '>')
			if gt < 0 {
				i = len(text)
			} else {
				i += gt + 1
			}

		case strings.HasPrefix(text[i:], "</"):
			name, after := scanTagName(text, i+2)
			gt := strings.IndexByte(text[after:], '>')
			if gt < 0 {
				i = len(text)
				break
			}
			tagEnd := after + gt + 1
			stack = t.closeTag(stack, name, i, tagEnd)
			i = tagEnd

		default:
			name, after := scanTagName(text, i+1)
			if name == "" {
				// Stray `<` in text content
				i++
				continue
			}
			node, tagEnd, selfClosing := parseStartTag(text, i, after, name)
			if tagEnd < 0 {
				// Unterminated tag: skip the rest of the input
				i = len(text)
				break
			}

			idx := len(t.Nodes)
			if len(stack) > 0 {
				node.Parent = stack[len(stack)-1]
			} else {
				node.Parent = -1
			}
			t.Nodes = append(t.Nodes, node)
			if node.Parent >= 0 {
				t.Nodes[node.Parent].Children = append(t.Nodes[node.Parent].Children, idx)
			}

			if selfClosing || voidTags[name] {
				t.Nodes[idx].End = tagEnd
				t.Nodes[idx].ContentStart = tagEnd
				t.Nodes[idx].ContentEnd = tagEnd
				i = tagEnd
				continue
			}

			t.Nodes[idx].ContentStart = tagEnd

			if rawTextTags[name] {
				contentEnd, closeEnd := findRawTextEnd(text, tagEnd, name)
				t.Nodes[idx].ContentEnd = contentEnd
				t.Nodes[idx].End = closeEnd
				i = closeEnd
				continue
			}

			stack = append(stack, idx)
			i = tagEnd
		}
	}

	// Implicitly close anything still open
	for _, idx := range stack {
		t.Nodes[idx].ContentEnd = len(text)
		t.Nodes[idx].End = len(text)
	}
	return t
}

// closeTag pops the stack down to the nearest open element matching name,
// implicitly closing anything above it. Unmatched end tags leave the stack
// untouched.
func (t *Tree) closeTag(stack []int, name string, tagStart, tagEnd int) []int {
	match := -1
	for j := len(stack) - 1; j >= 0; j-- {
		if t.Nodes[stack[j]].Tag == name {
			match = j
			break
		}
	}
	if match < 0 {
		return stack
	}
	for j := len(stack) - 1; j > match; j-- {
		t.Nodes[stack[j]].ContentEnd = tagStart
		t.Nodes[stack[j]].End = tagStart
	}
	t.Nodes[stack[match]].ContentEnd = tagStart
	t.Nodes[stack[match]].End = tagEnd
	return stack[:match]
}

// scanTagName reads a tag name starting at pos, returning the lowercased
// name and the offset just past it.
func scanTagName(text string, pos int) (string, int) {
	end := pos
	for end < len(text) && isTagNameByte(text[end]) {
		end++
	}
	return strings.ToLower(text[pos:end]), end
}

func isTagNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '-'
}

// parseStartTag parses attributes from after the tag name through the
// closing `>`. Returns the node, the offset past `>`, and whether the tag
// was self-closing. tagEnd is -1 when the tag never closes.
func parseStartTag(text string, tagStart, pos int, name string) (Node, int, bool) {
	node := Node{Tag: name, Start: tagStart}
	selfClosing := false

	for pos < len(text) {
		for pos < len(text) && isSpaceByte(text[pos]) {
			pos++
		}
		if pos >= len(text) {
			return node, -1, false
		}
		if text[pos] == '>' {
			return finishStartTag(node, pos+1, selfClosing)
		}
		if text[pos] == '/' {
			selfClosing = true
			pos++
			continue
		}

		attrStart := pos
		for pos < len(text) && !isSpaceByte(text[pos]) &&
			text[pos] != '=' && text[pos] != '>' && text[pos] != '/' {
			pos++
		}
		attrName := strings.ToLower(text[attrStart:pos])
		if attrName == "" {
			pos++
			continue
		}

		attr := Attr{Name: attrName, ValueStart: pos, ValueEnd: pos}
		for pos < len(text) && isSpaceByte(text[pos]) {
			pos++
		}
		if pos < len(text) && text[pos] == '=' {
			pos++
			for pos < len(text) && isSpaceByte(text[pos]) {
				pos++
			}
			if pos < len(text) && (text[pos] == '"' || text[pos] == '\'') {
				quote := text[pos]
				pos++
				valStart := pos
				for pos < len(text) && text[pos] != quote {
					pos++
				}
				attr.Value = text[valStart:pos]
				attr.ValueStart = valStart
				attr.ValueEnd = pos
				if pos < len(text) {
					pos++ // closing quote
				}
			} else {
				valStart := pos
				for pos < len(text) && !isSpaceByte(text[pos]) &&
					text[pos] != '>' && text[pos] != '/' {
					pos++
				}
				attr.Value = text[valStart:pos]
				attr.ValueStart = valStart
				attr.ValueEnd = pos
			}
		}
		node.Attrs = append(node.Attrs, attr)
	}
	return node, -1, false
}

func finishStartTag(node Node, tagEnd int, selfClosing bool) (Node, int, bool) {
	for _, a := range node.Attrs {
		switch a.Name {
		case "id":
			node.ID = a.Value
		case "class":
			node.Classes = strings.Fields(a.Value)
		}
	}
	return node, tagEnd, selfClosing
}

// findRawTextEnd locates the close tag of a raw-text element, returning the
// offset of the content end and the offset just past the close tag. Missing
// close tags consume the rest of the input.
func findRawTextEnd(text string, from int, name string) (contentEnd, closeEnd int) {
	lower := strings.ToLower(text)
	idx := strings.Index(lower[from:], "</"+name)
	if idx < 0 {
		return len(text), len(text)
	}
	at := from + idx
	gt := strings.IndexByte(text[at:], '>')
	if gt < 0 {
		return at, len(text)
	}
	return at, at + gt + 1
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
