package scanner

import (
	"strings"

	"cssvars.dev/cvls/internal/cascade"
	"cssvars.dev/cvls/internal/dom"
)

// ScanHTML scans an HTML-like document: <style> element bodies are scanned
// as stylesheet text, and style="..." attribute values as inline
// declarations. The file's declaration counter runs across both, in
// document order.
func ScanHTML(fileURI, text string) ([]cascade.Definition, []cascade.Usage) {
	defs, uses, _ := ScanHTMLTree(fileURI, text)
	return defs, uses
}

// ScanHTMLTree is ScanHTML plus the structural model it built, for callers
// that need to relate declarations back to elements.
func ScanHTMLTree(fileURI, text string) ([]cascade.Definition, []cascade.Usage, *dom.Tree) {
	tree := dom.Parse(text)

	var defs []cascade.Definition
	var uses []cascade.Usage
	order := 0

	// Arena order is start-tag order, and an element's style attribute
	// precedes any <style> children, so this visit preserves document
	// order for the counter.
	for i := range tree.Nodes {
		n := &tree.Nodes[i]

		if attr, ok := n.Attr("style"); ok && attr.ValueEnd > attr.ValueStart {
			d, u := ScanInlineStyle(fileURI, text, attr.ValueStart, attr.ValueEnd, describeNode(n), &order)
			defs = append(defs, d...)
			uses = append(uses, u...)
		}

		if n.Tag == "style" && n.ContentEnd > n.ContentStart {
			d, u := ScanCSSRegion(fileURI, text, n.ContentStart, n.ContentEnd, &order)
			defs = append(defs, d...)
			uses = append(uses, u...)
		}
	}
	return defs, uses, tree
}

// describeNode labels an element the way a selector would,
// e.g. "div#app.btn.primary".
func describeNode(n *dom.Node) string {
	var b strings.Builder
	b.WriteString(n.Tag)
	if n.ID != "" {
		b.WriteByte('#')
		b.WriteString(n.ID)
	}
	for _, c := range n.Classes {
		b.WriteByte('.')
		b.WriteString(c)
	}
	return b.String()
}
