package autosave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rglk/remglk/internal/objreg"
	"github.com/rglk/remglk/internal/streamio"
	"github.com/rglk/remglk/internal/wintree"
	"github.com/rglk/remglk/internal/wire"
	"github.com/rglk/remglk/pkg/dispatch"
)

// testWindowWriter stands in for pkg/glk's Window facade, which cannot
// be imported here without a cycle back into this package: it forwards
// streamio.WindowWriter to the leaf content and exposes Tag() the way
// autosave.Build's window-owner lookup expects.
type testWindowWriter struct{ w *wintree.Window }

func (t testWindowWriter) Tag() uint32 { return t.w.Tag }

func (t testWindowWriter) PutRune(r rune, style string) error {
	if t.w.Grid != nil {
		return t.w.Grid.PutRune(r, style)
	}
	return t.w.Buffer.PutRune(r, style)
}

func (t testWindowWriter) LineRequestPending() bool {
	if t.w.Grid != nil {
		return t.w.Grid.LineRequestPending()
	}
	return t.w.Buffer.LineRequestPending()
}

func TestBuildLoadRoundTripGridStyles(t *testing.T) {
	reg := objreg.New(dispatch.Hooks{})
	tree := wintree.NewTree(reg)
	tree.SetMetrics(wintree.Metrics{Width: 40, Height: 10, GridCharWidth: 1, GridCharHeight: 1, BufferCharWidth: 1, BufferCharHeight: 1})

	win, err := tree.Open(nil, 0, 0, wintree.TypeTextGrid, 1)
	require.NoError(t, err)
	require.NoError(t, win.Grid.PutRune('h', "normal"))
	require.NoError(t, win.Grid.PutRune('i', "emphasized"))
	require.NoError(t, win.Grid.PutRune('!', "emphasized"))

	metrics := &wire.Metrics{Width: 40, Height: 10, GridCharWidth: 1, GridCharHeight: 1, BufferCharWidth: 1, BufferCharHeight: 1}
	doc := Build(tree, nil, nil, 0, 0, metrics, &wire.SupportCaps{})
	val := doc.ToValue()

	loaded, err := Load(val)
	require.NoError(t, err)
	require.Len(t, loaded.Windows, 1)

	ws := loaded.Windows[0]
	require.NotEmpty(t, ws.GridLines)
	line := ws.GridLines[0]
	require.GreaterOrEqual(t, len(line.Style), 3)
	assert.Equal(t, "normal", line.Style[0])
	assert.Equal(t, "emphasized", line.Style[1])
	assert.Equal(t, "emphasized", line.Style[2])
	assert.Equal(t, 'h', line.Chars[0])
	assert.Equal(t, 'i', line.Chars[1])
}

func TestBuildLoadRoundTripBufferAndStream(t *testing.T) {
	reg := objreg.New(dispatch.Hooks{})
	tree := wintree.NewTree(reg)
	tree.SetMetrics(wintree.Metrics{Width: 40, Height: 10, GridCharWidth: 1, GridCharHeight: 1, BufferCharWidth: 1, BufferCharHeight: 1})

	win, err := tree.Open(nil, 0, 0, wintree.TypeTextBuffer, 7)
	require.NoError(t, err)
	require.NoError(t, win.Buffer.PutString("hello\n", "normal"))

	str := streamio.OpenWindow(reg, testWindowWriter{win}, 0)
	streams := []*streamio.Stream{str}

	metrics := &wire.Metrics{Width: 40, Height: 10, GridCharWidth: 1, GridCharHeight: 1, BufferCharWidth: 1, BufferCharHeight: 1}
	doc := Build(tree, streams, nil, str.Tag, 5, metrics, &wire.SupportCaps{})
	val := doc.ToValue()

	loaded, err := Load(val)
	require.NoError(t, err)
	require.Len(t, loaded.Windows, 1)
	require.Len(t, loaded.Streams, 1)

	assert.Equal(t, "hello\n", loaded.Windows[0].BufferChars)
	assert.Equal(t, win.Tag, loaded.RootWindow)
	assert.Equal(t, str.Tag, loaded.CurrentStream)
	assert.Equal(t, uint32(5), loaded.LastEventType)
	assert.Equal(t, str.Tag, loaded.Windows[0].StreamTag)
	assert.Equal(t, "window", loaded.Streams[0].Kind)
}

// arrayLocatorFunc is a minimal dispatch.ArrayLocator that resolves every
// rock to a single fixed array, standing in for an embedding program's
// real rock table.
type arrayLocatorFunc func(dispRock any) (any, bool)

func (f arrayLocatorFunc) LocateArray(dispRock any) (any, bool) { return f(dispRock) }

type passthroughArrayRegistrar struct{}

func (passthroughArrayRegistrar) RegisterArray(arr any, class dispatch.ArrayClass) any { return arr }
func (passthroughArrayRegistrar) UnregisterArray(arr any, class dispatch.ArrayClass, dispRock any) {}

func TestBuildLoadRoundTripMemoryStreamAndFileref(t *testing.T) {
	hooks := dispatch.Hooks{Arrays: passthroughArrayRegistrar{}}
	hooks.Locator = arrayLocatorFunc(func(dispRock any) (any, bool) {
		arr, ok := dispRock.([]byte)
		return arr, ok
	})
	reg := objreg.New(hooks)
	tree := wintree.NewTree(reg)
	tree.SetMetrics(wintree.Metrics{Width: 40, Height: 10, GridCharWidth: 1, GridCharHeight: 1, BufferCharWidth: 1, BufferCharHeight: 1})

	buf := make([]byte, 16)
	mem, err := streamio.OpenMemory(reg, buf, streamio.ModeWrite, 3)
	require.NoError(t, err)
	require.NoError(t, mem.PutString("saved", "normal"))

	filerefs := []FilerefState{{Tag: 42, Rock: 9, Filename: "game.glksave", TextMode: false, Usage: 1}}

	metrics := &wire.Metrics{Width: 40, Height: 10, GridCharWidth: 1, GridCharHeight: 1, BufferCharWidth: 1, BufferCharHeight: 1}
	doc := Build(tree, []*streamio.Stream{mem}, filerefs, 0, 0, metrics, &wire.SupportCaps{})
	val := doc.ToValue()

	loaded, err := Load(val)
	require.NoError(t, err)
	require.Len(t, loaded.Streams, 1)
	assert.True(t, loaded.Streams[0].HasMemory)
	assert.Equal(t, "saved", loaded.Streams[0].MemoryContent)

	require.Len(t, loaded.Filerefs, 1)
	assert.Equal(t, uint32(42), loaded.Filerefs[0].Tag)
	assert.Equal(t, "game.glksave", loaded.Filerefs[0].Filename)
	assert.Equal(t, uint32(1), loaded.Filerefs[0].Usage)
}

func TestLoadRejectsWrongType(t *testing.T) {
	o := wire.NewObject()
	o.SetString("type", "somethingelse")
	_, err := Load(o)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	o := wire.NewObject()
	o.SetString("type", "autosave")
	o.SetInt("version", 999)
	_, err := Load(o)
	assert.Error(t, err)
}

func TestLoadRejectsDanglingPairReference(t *testing.T) {
	o := wire.NewObject()
	o.SetString("type", "autosave")
	o.SetInt("version", int64(SerialVersion))
	pair := wire.NewObject()
	pair.SetInt("id", 1)
	pair.SetString("type", "pair")
	pair.SetInt("key", 99)
	pair.SetInt("child1", 99)
	pair.SetInt("child2", 99)
	o.Set("windows", wire.List{pair})
	_, err := Load(o)
	assert.Error(t, err)
}
