package vars_test

import (
	"fmt"
	"sync"
	"testing"

	"cssvars.dev/cvls/internal/scanner"
	"cssvars.dev/cvls/internal/vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexCSS(ix *vars.Index, uri, css string) {
	defs, uses := scanner.ScanCSS(uri, css)
	ix.IndexFile(uri, defs, uses)
}

func TestIndexFileAndQueries(t *testing.T) {
	ix := vars.NewIndex()
	indexCSS(ix, "file:///theme.css", ":root { --fg: #333; --bg: white; }\na { color: var(--fg); }")

	assert.True(t, ix.IsDefined("--fg"))
	assert.True(t, ix.IsDefined("--bg"))
	assert.False(t, ix.IsDefined("--nope"))

	assert.Equal(t, []string{"--bg", "--fg"}, ix.Names())

	defs := ix.Definitions("--fg")
	require.Len(t, defs, 1)
	assert.Equal(t, "#333", defs[0].Value)

	uses := ix.Usages("--fg")
	require.Len(t, uses, 1)
	assert.Equal(t, "file:///theme.css", uses[0].FileURI)
}

func TestIndexFileAtomicReplacement(t *testing.T) {
	ix := vars.NewIndex()
	uri := "file:///theme.css"

	indexCSS(ix, uri, ":root { --old: 1; --kept: 2; }")
	require.True(t, ix.IsDefined("--old"))

	indexCSS(ix, uri, ":root { --kept: 3; --new: 4; }")

	assert.False(t, ix.IsDefined("--old"), "replaced scans drop stale names")
	assert.True(t, ix.IsDefined("--new"))

	kept := ix.Definitions("--kept")
	require.Len(t, kept, 1, "no duplicate entries after re-index")
	assert.Equal(t, "3", kept[0].Value)
}

func TestIndexMultipleFiles(t *testing.T) {
	ix := vars.NewIndex()
	indexCSS(ix, "file:///a.css", ":root { --fg: red; }")
	indexCSS(ix, "file:///b.css", ":root { --fg: blue; }")

	assert.Len(t, ix.Definitions("--fg"), 2)

	ix.RemoveFile("file:///a.css")
	defs := ix.Definitions("--fg")
	require.Len(t, defs, 1)
	assert.Equal(t, "file:///b.css", defs[0].FileURI)

	ix.RemoveFile("file:///b.css")
	assert.False(t, ix.IsDefined("--fg"))
	assert.Empty(t, ix.Names())
}

func TestRemoveFileUnknownIsNoop(t *testing.T) {
	ix := vars.NewIndex()
	ix.RemoveFile("file:///never-indexed.css")
	assert.Empty(t, ix.Names())
}

func TestWinnerFor(t *testing.T) {
	t.Run("undefined name has no winner", func(t *testing.T) {
		ix := vars.NewIndex()
		assert.Nil(t, ix.WinnerFor("--nope", false))
	})

	t.Run("cascade picks the most specific definition", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", ":root { --fg: red; }\n#app { --fg: blue; }")

		w := ix.WinnerFor("--fg", false)
		require.NotNil(t, w)
		assert.Equal(t, "blue", w.Value)
	})

	t.Run("later definition wins equal specificity", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", ":root { --fg: red; }\n:root { --fg: blue; }")

		w := ix.WinnerFor("--fg", false)
		require.NotNil(t, w)
		assert.Equal(t, "blue", w.Value)
	})

	t.Run("important wins from anywhere", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", ":root { --fg: red !important; }\n#app.x.y { --fg: blue; }")

		w := ix.WinnerFor("--fg", false)
		require.NotNil(t, w)
		assert.Equal(t, "red", w.Value)
	})

	t.Run("inline context prefers inline definitions", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", "#app { --fg: blue; }")
		defs, uses := scanner.ScanHTML("file:///a.html", `<div style="--fg: green"></div>`)
		ix.IndexFile("file:///a.html", defs, uses)

		w := ix.WinnerFor("--fg", true)
		require.NotNil(t, w)
		assert.Equal(t, "green", w.Value)

		// Stylesheet context still sees the inline definition outrank
		// the selector via its specificity tuple
		w = ix.WinnerFor("--fg", false)
		require.NotNil(t, w)
		assert.Equal(t, "green", w.Value)
	})

	t.Run("inline context falls back to stylesheet definitions", func(t *testing.T) {
		ix := vars.NewIndex()
		indexCSS(ix, "file:///a.css", ":root { --fg: blue; }")

		w := ix.WinnerFor("--fg", true)
		require.NotNil(t, w)
		assert.Equal(t, "blue", w.Value)
	})

	t.Run("winner is independent of indexing order", func(t *testing.T) {
		forward := vars.NewIndex()
		indexCSS(forward, "file:///a.css", ":root { --fg: red; }")
		indexCSS(forward, "file:///b.css", ":root { --fg: blue; }")

		backward := vars.NewIndex()
		indexCSS(backward, "file:///b.css", ":root { --fg: blue; }")
		indexCSS(backward, "file:///a.css", ":root { --fg: red; }")

		wf := forward.WinnerFor("--fg", false)
		wb := backward.WinnerFor("--fg", false)
		require.NotNil(t, wf)
		require.NotNil(t, wb)
		assert.Equal(t, wf.Value, wb.Value)
		assert.Equal(t, "blue", wf.Value, "greater file URI breaks the tie")
	})
}

func TestIndexFileVersionRejectsStaleWrites(t *testing.T) {
	ix := vars.NewIndex()
	uri := "file:///theme.css"

	seqOld := ix.NextSeq(uri)
	seqNew := ix.NextSeq(uri)

	newDefs, newUses := scanner.ScanCSS(uri, ":root { --fg: new; }")
	require.True(t, ix.IndexFileVersion(uri, seqNew, newDefs, newUses))

	oldDefs, oldUses := scanner.ScanCSS(uri, ":root { --fg: old; }")
	assert.False(t, ix.IndexFileVersion(uri, seqOld, oldDefs, oldUses),
		"a scan that finished late must not clobber a newer one")

	w := ix.WinnerFor("--fg", false)
	require.NotNil(t, w)
	assert.Equal(t, "new", w.Value)
}

func TestIndexFileAfterVersionedWrite(t *testing.T) {
	ix := vars.NewIndex()
	uri := "file:///theme.css"

	seq := ix.NextSeq(uri)
	defs, uses := scanner.ScanCSS(uri, ":root { --fg: scanned; }")
	require.True(t, ix.IndexFileVersion(uri, seq, defs, uses))

	// A plain IndexFile afterwards allocates past the applied sequence
	defs, uses = scanner.ScanCSS(uri, ":root { --fg: edited; }")
	ix.IndexFile(uri, defs, uses)

	w := ix.WinnerFor("--fg", false)
	require.NotNil(t, w)
	assert.Equal(t, "edited", w.Value)
}

func TestGenerationAdvancesOnMutation(t *testing.T) {
	ix := vars.NewIndex()
	g0 := ix.Generation()

	indexCSS(ix, "file:///a.css", ":root { --fg: red; }")
	g1 := ix.Generation()
	assert.Greater(t, g1, g0)

	ix.RemoveFile("file:///a.css")
	assert.Greater(t, ix.Generation(), g1)
}

func TestFileDefinitionsAndUsages(t *testing.T) {
	ix := vars.NewIndex()
	indexCSS(ix, "file:///a.css", ":root { --a: 1; --b: 2; }\nx { color: var(--b); background: var(--a); }")
	indexCSS(ix, "file:///b.css", ":root { --a: 9; }")

	defs := ix.FileDefinitions("file:///a.css")
	require.Len(t, defs, 2)
	assert.Equal(t, "--a", defs[0].Name, "source order")
	assert.Equal(t, "--b", defs[1].Name)

	uses := ix.FileUsages("file:///a.css")
	require.Len(t, uses, 2)
	assert.Equal(t, "--b", uses[0].Name, "document order")
	assert.Equal(t, "--a", uses[1].Name)

	assert.Empty(t, ix.FileUsages("file:///b.css"))
}

func TestIndexConcurrentAccess(t *testing.T) {
	ix := vars.NewIndex()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			uri := fmt.Sprintf("file:///f%d.css", n)
			for j := 0; j < 50; j++ {
				indexCSS(ix, uri, fmt.Sprintf(":root { --v%d: %d; }", n, j))
				ix.WinnerFor(fmt.Sprintf("--v%d", n), false)
				ix.Names()
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		w := ix.WinnerFor(fmt.Sprintf("--v%d", i), false)
		require.NotNil(t, w)
		assert.Equal(t, "49", w.Value)
	}
}

func TestIndexCopiesAreIsolated(t *testing.T) {
	ix := vars.NewIndex()
	indexCSS(ix, "file:///a.css", ":root { --fg: red; }")

	defs := ix.Definitions("--fg")
	require.Len(t, defs, 1)
	defs[0].Value = "mutated"

	fresh := ix.Definitions("--fg")
	require.Len(t, fresh, 1)
	assert.Equal(t, "red", fresh[0].Value, "callers get copies, not index internals")
}
