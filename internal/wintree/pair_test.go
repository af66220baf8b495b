package wintree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeOpenFirstWindowBecomesRoot(t *testing.T) {
	tree := NewTree(nil)
	tree.SetMetrics(Metrics{Width: 80, Height: 24, GridCharWidth: 1, GridCharHeight: 1, BufferCharWidth: 1, BufferCharHeight: 1})

	win, err := tree.Open(nil, 0, 0, TypeTextBuffer, 1)
	require.NoError(t, err)
	assert.Same(t, win, tree.Root)
	assert.Equal(t, Rect{0, 0, 80, 24}, win.BBox)
}

func TestTreeOpenSplitCreatesPair(t *testing.T) {
	tree := NewTree(nil)
	tree.SetMetrics(Metrics{Width: 80, Height: 24, GridCharWidth: 1, GridCharHeight: 1, BufferCharWidth: 1, BufferCharHeight: 1})

	root, err := tree.Open(nil, 0, 0, TypeTextBuffer, 1)
	require.NoError(t, err)

	grid, err := tree.Open(root, DirAbove|DivFixed, 3, TypeTextGrid, 2)
	require.NoError(t, err)

	require.NotNil(t, tree.Root.Pair)
	assert.Equal(t, TypePair, tree.Root.Type)
	assert.Equal(t, int32(3), grid.BBox.Height())
	assert.Equal(t, int32(0), grid.BBox.Top)
	assert.Equal(t, root.BBox.Top, grid.BBox.Bottom)
}

func TestTreeCloseCollapsesPair(t *testing.T) {
	tree := NewTree(nil)
	tree.SetMetrics(Metrics{Width: 80, Height: 24, GridCharWidth: 1, GridCharHeight: 1, BufferCharWidth: 1, BufferCharHeight: 1})

	root, _ := tree.Open(nil, 0, 0, TypeTextBuffer, 1)
	grid, _ := tree.Open(root, DirAbove|DivFixed, 3, TypeTextGrid, 2)

	tree.Close(grid)
	assert.Same(t, root, tree.Root)
	assert.Equal(t, Rect{0, 0, 80, 24}, root.BBox)
}

func TestGridPutCharWrapsAndMarksDirty(t *testing.T) {
	g := NewGrid()
	g.Resize(2, 3)
	require.NoError(t, g.PutRune('a', "normal"))
	require.NoError(t, g.PutRune('b', "normal"))
	require.NoError(t, g.PutRune('c', "normal"))
	require.NoError(t, g.PutRune('d', "normal"))

	assert.Equal(t, []rune{'a', 'b', 'c'}, g.Lines[0].Chars)
	assert.Equal(t, byte('d'), byte(g.Lines[1].Chars[0]))

	lines := g.TakeDirtyLines()
	require.Len(t, lines, 2)
}

func TestBufferTakeUpdateSplitsOnNewlines(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, b.PutString("hello\nworld", "normal"))

	paras, clear := b.TakeUpdate()
	assert.False(t, clear)
	require.Len(t, paras, 2)
	assert.Equal(t, "hello", string(paras[0].Text))
	assert.Equal(t, "world", string(paras[1].Text))
	assert.False(t, paras[0].Append)
}

func TestBufferTakeUpdateAppendsToOpenParagraph(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, b.PutString("partial", "normal"))
	b.TakeUpdate()

	require.NoError(t, b.PutString(" more", "normal"))
	paras, _ := b.TakeUpdate()
	require.Len(t, paras, 1)
	assert.True(t, paras[0].Append)
	assert.Equal(t, " more", string(paras[0].Text))
}

func TestBufferClearResetsEmissionState(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, b.PutString("text", "normal"))
	b.TakeUpdate()
	b.Clear()

	require.NoError(t, b.PutString("fresh", "normal"))
	paras, clear := b.TakeUpdate()
	assert.True(t, clear)
	require.Len(t, paras, 1)
	assert.False(t, paras[0].Append)
}
