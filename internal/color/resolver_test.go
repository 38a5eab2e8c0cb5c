package color_test

import (
	"fmt"
	"testing"

	"cssvars.dev/cvls/internal/color"
	"cssvars.dev/cvls/internal/scanner"
	"cssvars.dev/cvls/internal/vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexCSS(ix *vars.Index, uri, css string) {
	defs, uses := scanner.ScanCSS(uri, css)
	ix.IndexFile(uri, defs, uses)
}

func TestResolveVariable(t *testing.T) {
	t.Run("direct literal", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", ":root { --fg: #ff0000; }")

		r := color.NewResolver(ix)
		c := r.ResolveVariable("--fg", false)
		require.NotNil(t, c)
		assert.Equal(t, "#ff0000", color.FormatHex(*c))
	})

	t.Run("chain through another variable", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", ":root { --brand: #0000ff; --accent: var(--brand); }")

		r := color.NewResolver(ix)
		c := r.ResolveVariable("--accent", false)
		require.NotNil(t, c)
		assert.Equal(t, "#0000ff", color.FormatHex(*c))
	})

	t.Run("fallback used when the target is undefined", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", ":root { --accent: var(--missing, #00ff00); }")

		r := color.NewResolver(ix)
		c := r.ResolveVariable("--accent", false)
		require.NotNil(t, c)
		assert.Equal(t, "#00ff00", color.FormatHex(*c))
	})

	t.Run("nested fallbacks resolve depth-first", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", ":root { --x: var(--a, var(--b, tomato)); }")

		r := color.NewResolver(ix)
		c := r.ResolveVariable("--x", false)
		require.NotNil(t, c)
		assert.Equal(t, "#ff6347", color.FormatHex(*c))
	})

	t.Run("undefined variable yields nil", func(t *testing.T) {
		ix := vars.NewIndex()
		r := color.NewResolver(ix)
		assert.Nil(t, r.ResolveVariable("--nope", false))
	})

	t.Run("non-color chain end yields nil", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", ":root { --pad: 4px; --x: var(--pad); }")

		r := color.NewResolver(ix)
		assert.Nil(t, r.ResolveVariable("--x", false))
	})

	t.Run("direct cycle yields nil", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", ":root { --a: var(--b); --b: var(--a); }")

		r := color.NewResolver(ix)
		assert.Nil(t, r.ResolveVariable("--a", false))
		assert.Nil(t, r.ResolveVariable("--b", false))
	})

	t.Run("self cycle yields nil", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", ":root { --a: var(--a); }")

		r := color.NewResolver(ix)
		assert.Nil(t, r.ResolveVariable("--a", false))
	})

	t.Run("cycle with escape through fallback", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", ":root { --a: var(--b, #112233); --b: var(--a); }")

		r := color.NewResolver(ix)
		c := r.ResolveVariable("--a", false)
		require.NotNil(t, c)
		assert.Equal(t, "#112233", color.FormatHex(*c), "fallback rescues the cyclic chain")
	})

	t.Run("winner decides the chain", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", ":root { --fg: #111111; }\n#app { --fg: #222222; }")

		r := color.NewResolver(ix)
		c := r.ResolveVariable("--fg", false)
		require.NotNil(t, c)
		assert.Equal(t, "#222222", color.FormatHex(*c))
	})
}

func TestResolveValue(t *testing.T) {
	ix := vars.NewIndex()
	indexCSS(ix, "file:///a.css", ":root { --fg: #abcdef; }")
	r := color.NewResolver(ix)

	t.Run("literal", func(t *testing.T) {
		c := r.ResolveValue("rebeccapurple", false)
		require.NotNil(t, c)
		assert.Equal(t, "#663399", color.FormatHex(*c))
	})

	t.Run("reference", func(t *testing.T) {
		c := r.ResolveValue("var(--fg)", false)
		require.NotNil(t, c)
		assert.Equal(t, "#abcdef", color.FormatHex(*c))
	})

	t.Run("non-color", func(t *testing.T) {
		assert.Nil(t, r.ResolveValue("4px solid", false))
	})
}

func TestResolverCacheInvalidation(t *testing.T) {
	ix := vars.NewIndex()
	indexCSS(ix, "file:///a.css", ":root { --fg: #ff0000; }")
	r := color.NewResolver(ix)

	c := r.ResolveVariable("--fg", false)
	require.NotNil(t, c)
	assert.Equal(t, "#ff0000", color.FormatHex(*c))

	// Cached answer survives repeat queries
	c = r.ResolveVariable("--fg", false)
	require.NotNil(t, c)

	// Re-indexing moves the generation, so the stale entry is unused
	indexCSS(ix, "file:///a.css", ":root { --fg: #00ff00; }")
	c = r.ResolveVariable("--fg", false)
	require.NotNil(t, c)
	assert.Equal(t, "#00ff00", color.FormatHex(*c))
}

func TestResolverDepthCap(t *testing.T) {
	ix := vars.NewIndex()

	// A long but acyclic chain past the depth cap
	css := ":root {\n"
	for i := 0; i < 40; i++ {
		css += fmt.Sprintf("  --v%d: var(--v%d);\n", i, i+1)
	}
	css += "  --v40: #ffffff;\n}"
	indexCSS(ix, "file:///deep.css", css)

	r := color.NewResolver(ix)
	assert.Nil(t, r.ResolveVariable("--v0", false), "chains past the depth cap stop resolving")

	c := r.ResolveVariable("--v35", false)
	require.NotNil(t, c, "short tails of the same chain still resolve")
}
