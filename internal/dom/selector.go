package dom

import "strings"

// combinator links a compound selector to the one on its left.
type combinator int

const (
	combinatorNone combinator = iota
	combinatorDescendant
	combinatorChild
)

// compound is one space-free selector unit: optional type name plus any
// number of #id and .class parts.
type compound struct {
	tag     string
	id      string
	classes []string
	comb    combinator // relationship to the compound on the left
}

// Matches reports whether the element at arena index idx matches selector.
// The supported subset is type, #id, and .class simple selectors combined
// with descendant (whitespace) and child (`>`) combinators; comma lists
// match if any member does.
func (t *Tree) Matches(idx int, selector string) bool {
	if idx < 0 || idx >= len(t.Nodes) {
		return false
	}
	for _, member := range strings.Split(selector, ",") {
		if chain := parseCompounds(member); len(chain) > 0 && t.matchChain(idx, chain) {
			return true
		}
	}
	return false
}

// QueryAll returns arena indices of all elements matching selector, in
// document order.
func (t *Tree) QueryAll(selector string) []int {
	var out []int
	for i := range t.Nodes {
		if t.Matches(i, selector) {
			out = append(out, i)
		}
	}
	return out
}

// matchChain matches the rightmost compound against the node, then walks
// ancestors for the rest of the chain.
func (t *Tree) matchChain(idx int, chain []compound) bool {
	last := chain[len(chain)-1]
	if !t.matchCompound(idx, last) {
		return false
	}
	rest := chain[:len(chain)-1]
	comb := last.comb
	node := idx

	for len(rest) > 0 {
		parent := t.Nodes[node].Parent
		want := rest[len(rest)-1]

		switch comb {
		case combinatorChild:
			if parent < 0 || !t.matchCompound(parent, want) {
				return false
			}
			node = parent
		default: // descendant
			found := false
			for parent >= 0 {
				if t.matchCompound(parent, want) {
					found = true
					break
				}
				parent = t.Nodes[parent].Parent
			}
			if !found {
				return false
			}
			node = parent
		}

		comb = want.comb
		rest = rest[:len(rest)-1]
	}
	return true
}

func (t *Tree) matchCompound(idx int, c compound) bool {
	n := &t.Nodes[idx]
	if c.tag != "" && c.tag != "*" && n.Tag != c.tag {
		return false
	}
	if c.id != "" && n.ID != c.id {
		return false
	}
	for _, class := range c.classes {
		if !n.HasClass(class) {
			return false
		}
	}
	return true
}

// parseCompounds splits one comma-list member into its compound chain.
// Unsupported syntax yields nil so the member never matches.
func parseCompounds(selector string) []compound {
	var chain []compound
	comb := combinatorNone

	for _, field := range strings.Fields(selector) {
		if field == ">" {
			comb = combinatorChild
			continue
		}

		// `ul>li`, `ul> li`, and `ul >li` all carry a child combinator
		for k, part := range strings.Split(field, ">") {
			if k > 0 {
				comb = combinatorChild
			}
			if part == "" {
				continue
			}
			c, ok := parseCompound(part)
			if !ok {
				return nil
			}
			c.comb = comb
			chain = append(chain, c)
			comb = combinatorDescendant
		}
	}
	return chain
}

func parseCompound(s string) (compound, bool) {
	var c compound
	i := 0
	for i < len(s) {
		switch s[i] {
		case '#':
			j := simpleNameEnd(s, i+1)
			if j == i+1 {
				return c, false
			}
			c.id = s[i+1 : j]
			i = j
		case '.':
			j := simpleNameEnd(s, i+1)
			if j == i+1 {
				return c, false
			}
			c.classes = append(c.classes, s[i+1:j])
			i = j
		default:
			if c.tag != "" || i != 0 {
				return c, false
			}
			j := simpleNameEnd(s, i)
			if j == i && s[i] == '*' {
				j = i + 1
			}
			if j == i {
				return c, false
			}
			c.tag = strings.ToLower(s[i:j])
			i = j
		}
	}
	if c.tag == "" && c.id == "" && len(c.classes) == 0 {
		return c, false
	}
	return c, true
}

func simpleNameEnd(s string, from int) int {
	i := from
	for i < len(s) {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
			c >= '0' && c <= '9' || c == '-' || c == '_' {
			i++
			continue
		}
		break
	}
	return i
}
