package dom_test

import (
	"testing"

	"cssvars.dev/cvls/internal/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findByTag(t *dom.Tree, tag string) *dom.Node {
	for i := range t.Nodes {
		if t.Nodes[i].Tag == tag {
			return &t.Nodes[i]
		}
	}
	return nil
}

func TestParseBasicStructure(t *testing.T) {
	tree := dom.Parse(`<html><body><div id="app" class="main dark"><p>hi</p></div></body></html>`)

	require.Len(t, tree.Nodes, 4)

	html := tree.Nodes[0]
	assert.Equal(t, "html", html.Tag)
	assert.Equal(t, -1, html.Parent)
	assert.Equal(t, []int{1}, html.Children)

	div := tree.Nodes[2]
	assert.Equal(t, "div", div.Tag)
	assert.Equal(t, "app", div.ID)
	assert.Equal(t, []string{"main", "dark"}, div.Classes)
	assert.Equal(t, 1, div.Parent)
	assert.Equal(t, []int{3}, div.Children)

	p := tree.Nodes[3]
	assert.Equal(t, "p", p.Tag)
	assert.Equal(t, 2, p.Parent)
}

func TestParseEmptyInput(t *testing.T) {
	tree := dom.Parse("")
	assert.Empty(t, tree.Nodes)

	tree = dom.Parse("just text, no markup")
	assert.Empty(t, tree.Nodes)
}

func TestParseVoidAndSelfClosing(t *testing.T) {
	tree := dom.Parse(`<div><br><img src="x.png"><input type="text"/><p>after</p></div>`)

	div := findByTag(tree, "div")
	require.NotNil(t, div)
	assert.Len(t, div.Children, 4, "void elements stay children of div, not of each other")

	p := findByTag(tree, "p")
	require.NotNil(t, p)
	assert.Equal(t, "div", tree.Nodes[p.Parent].Tag, "void elements must not capture following siblings")

	img := findByTag(tree, "img")
	require.NotNil(t, img)
	src, ok := img.Attr("src")
	require.True(t, ok)
	assert.Equal(t, "x.png", src.Value)
}

func TestParseUnmatchedEndTagIgnored(t *testing.T) {
	tree := dom.Parse(`<div></span><p>text</p></div>`)

	div := findByTag(tree, "div")
	require.NotNil(t, div)
	p := findByTag(tree, "p")
	require.NotNil(t, p)
	assert.Equal(t, "div", tree.Nodes[p.Parent].Tag)
}

func TestParseImplicitCloseAtEOF(t *testing.T) {
	text := `<div><section><p>never closed`
	tree := dom.Parse(text)

	require.Len(t, tree.Nodes, 3)
	for _, n := range tree.Nodes {
		assert.Equal(t, len(text), n.End, "open elements close at EOF")
	}
}

func TestParseMisnestedCloseClosesIntermediates(t *testing.T) {
	tree := dom.Parse(`<div><span><b>text</div><p>outside</p>`)

	p := findByTag(tree, "p")
	require.NotNil(t, p)
	assert.Equal(t, -1, p.Parent, "closing div implicitly closes span and b")
}

func TestParseStyleRawText(t *testing.T) {
	text := `<style>.x { color: red; } <div> is not markup here</style><p>real</p>`
	tree := dom.Parse(text)

	style := findByTag(tree, "style")
	require.NotNil(t, style)
	content := text[style.ContentStart:style.ContentEnd]
	assert.Contains(t, content, "<div> is not markup here")

	// No div node was created from the raw text
	assert.Nil(t, findByTag(tree, "div"))

	p := findByTag(tree, "p")
	require.NotNil(t, p)
	assert.Equal(t, -1, p.Parent)
}

func TestParseScriptRawText(t *testing.T) {
	text := `<script>if (a < b) { render("<span>") }</script>`
	tree := dom.Parse(text)

	require.Len(t, tree.Nodes, 1)
	script := tree.Nodes[0]
	assert.Equal(t, "script", script.Tag)
	assert.Contains(t, text[script.ContentStart:script.ContentEnd], `render("<span>")`)
}

func TestParseUnterminatedStyleConsumesRest(t *testing.T) {
	text := `<style>.x { color: red; }`
	tree := dom.Parse(text)

	require.Len(t, tree.Nodes, 1)
	assert.Equal(t, len(text), tree.Nodes[0].ContentEnd)
}

func TestParseCommentsAndDoctype(t *testing.T) {
	tree := dom.Parse(`<!DOCTYPE html><!-- <div>commented out</div> --><p>kept</p>`)

	require.Len(t, tree.Nodes, 1)
	assert.Equal(t, "p", tree.Nodes[0].Tag)
}

func TestParseAttributeValueSpans(t *testing.T) {
	text := `<div style="--x: red">ok</div>`
	tree := dom.Parse(text)

	require.Len(t, tree.Nodes, 1)
	style, ok := tree.Nodes[0].Attr("style")
	require.True(t, ok)
	assert.Equal(t, "--x: red", style.Value)
	assert.Equal(t, "--x: red", text[style.ValueStart:style.ValueEnd])
}

func TestParseSingleQuotedAndUnquotedAttrs(t *testing.T) {
	tree := dom.Parse(`<div id='app' data-x=7 hidden></div>`)

	require.Len(t, tree.Nodes, 1)
	n := tree.Nodes[0]
	assert.Equal(t, "app", n.ID)

	dataX, ok := n.Attr("data-x")
	require.True(t, ok)
	assert.Equal(t, "7", dataX.Value)

	hidden, ok := n.Attr("hidden")
	require.True(t, ok)
	assert.Equal(t, "", hidden.Value)
}
