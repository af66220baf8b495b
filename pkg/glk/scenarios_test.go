package glk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rglk/remglk/internal/evloop"
	"github.com/rglk/remglk/internal/keycode"
	"github.com/rglk/remglk/internal/wintree"
	"github.com/rglk/remglk/internal/wire"
)

// These drive Library end to end over in-memory buffers standing in for
// stdin/stdout, one per canonical scenario.

func encodeWireEvent(o *wire.Object) []byte {
	var buf bytes.Buffer
	enc := wire.NewEncoder(&buf)
	_ = enc.Encode(o)
	return buf.Bytes()
}

func initEventBytes(width, height, gridCW, gridCH, bufCW, bufCH int32) []byte {
	m := wire.NewObject()
	m.SetInt("width", int64(width)).SetInt("height", int64(height))
	m.SetInt("gridcharwidth", int64(gridCW)).SetInt("gridcharheight", int64(gridCH))
	m.SetInt("buffercharwidth", int64(bufCW)).SetInt("buffercharheight", int64(bufCH))
	o := wire.NewObject()
	o.SetString("type", "init")
	o.SetInt("gen", 0)
	o.Set("metrics", m)
	return encodeWireEvent(o)
}

func charEventBytes(window uint32, gen int32, value string) []byte {
	o := wire.NewObject()
	o.SetString("type", "char")
	o.SetInt("window", int64(window))
	o.SetInt("gen", int64(gen))
	o.SetString("value", value)
	return encodeWireEvent(o)
}

func lineEventBytes(window uint32, gen int32, value, terminator string) []byte {
	o := wire.NewObject()
	o.SetString("type", "line")
	o.SetInt("window", int64(window))
	o.SetInt("gen", int64(gen))
	o.SetString("value", value)
	if terminator != "" {
		o.SetString("terminator", terminator)
	}
	return encodeWireEvent(o)
}

// decodeNext reads one update object off buf and fails the test if the
// stream holds nothing parseable.
func decodeNext(t *testing.T, buf *bytes.Buffer) *wire.Object {
	t.Helper()
	dec := wire.NewDecoder(bytes.NewReader(buf.Bytes()))
	v, err := dec.Decode()
	require.NoError(t, err)
	o, ok := v.(*wire.Object)
	require.True(t, ok, "update is not a JSON object")
	return o
}

func firstContentText(t *testing.T, upd *wire.Object, windowID uint32) []wire.Value {
	t.Helper()
	content, ok := upd.GetList("content")
	require.True(t, ok)
	for _, item := range content {
		co, ok := item.(*wire.Object)
		if !ok {
			continue
		}
		id, _ := co.GetInt("id")
		if uint32(id) != windowID {
			continue
		}
		if text, ok := co.GetList("text"); ok {
			return []wire.Value{wire.NewString("buffer"), text}
		}
		if lines, ok := co.GetList("lines"); ok {
			return []wire.Value{wire.NewString("grid"), lines}
		}
	}
	t.Fatalf("no content entry for window %d", windowID)
	return nil
}

// S1: open a text-buffer window, print "hi", request a char event; the
// client answers with "a" and the game must see it as 0x61.
func TestScenarioHelloAndCharInput(t *testing.T) {
	in := &bytes.Buffer{}
	in.Write(initEventBytes(80, 24, 1, 1, 1, 1))
	out := &bytes.Buffer{}
	lib := New(in, out, Config{})

	require.NoError(t, lib.Init())
	win, err := lib.OpenWindow(nil, 0, 0, wintree.TypeTextBuffer, 0)
	require.NoError(t, err)
	require.NoError(t, win.Print("hi", "normal"))
	require.NoError(t, win.RequestCharEvent(false))

	// Select()'s first BuildUpdate bumps generation from 0 to 1 before it
	// ever reads an event, so the queued reply must already carry gen 1.
	in.Write(charEventBytes(win.Tag(), 1, "a"))

	ev, err := lib.Select()
	require.NoError(t, err)
	assert.Equal(t, evloop.EvtCharInput, ev.Type)
	assert.Equal(t, win.Tag(), ev.Window)
	assert.Equal(t, uint32('a'), ev.Val1)

	upd := decodeNext(t, out)
	gen, _ := upd.GetInt("gen")
	assert.Equal(t, int64(1), gen)

	wins, ok := upd.GetList("windows")
	require.True(t, ok, "first update must carry the window tree")
	require.Len(t, wins, 1)

	kindVal := firstContentText(t, upd, win.Tag())
	assert.Equal(t, "buffer", kindVal[0].(wire.Str).String())
	paras := kindVal[1].(wire.List)
	require.NotEmpty(t, paras)
	po := paras[0].(*wire.Object)
	runs, ok := po.GetList("content")
	require.True(t, ok)
	require.Len(t, runs, 1)
	run := runs[0].(*wire.Object)
	style, _ := run.GetString("style")
	text, _ := run.GetString("text")
	assert.Equal(t, "normal", style)
	assert.Equal(t, "hi", text)

	input, ok := upd.GetList("input")
	require.True(t, ok)
	require.Len(t, input, 1)
	in0 := input[0].(*wire.Object)
	typ, _ := in0.GetString("type")
	inGen, _ := in0.GetInt("gen")
	assert.Equal(t, "char", typ)
	assert.Equal(t, int64(1), inGen)
}

// S2: splitting the root buffer window below with a fixed 5-row TextGrid
// key shrinks the buffer's box and gives the grid window the requested
// cols/rows; a later metrics change re-lays out both. Asserted directly
// against window-tree state after calling ApplyMetrics, rather than
// through a wire-level arrange event.
func TestScenarioSplitAndResize(t *testing.T) {
	in := &bytes.Buffer{}
	in.Write(initEventBytes(80, 24, 1, 1, 1, 1))
	out := &bytes.Buffer{}
	lib := New(in, out, Config{})
	require.NoError(t, lib.Init())

	buf, err := lib.OpenWindow(nil, 0, 0, wintree.TypeTextBuffer, 0)
	require.NoError(t, err)
	grid, err := lib.OpenWindow(buf, wintree.DirBelow|wintree.DivFixed, 5, wintree.TypeTextGrid, 0)
	require.NoError(t, err)

	assert.Equal(t, int32(0), buf.w.BBox.Left)
	assert.Equal(t, int32(80), buf.w.BBox.Right)
	assert.Equal(t, int32(0), buf.w.BBox.Top)
	assert.Equal(t, int32(19), buf.w.BBox.Bottom)

	assert.Equal(t, int32(19), grid.w.BBox.Top)
	assert.Equal(t, int32(24), grid.w.BBox.Bottom)
	assert.Equal(t, 80, grid.w.Grid.Width)
	assert.Equal(t, 5, grid.w.Grid.Height)

	lib.ApplyMetrics(&wire.Metrics{Width: 40, Height: 24, GridCharWidth: 1, GridCharHeight: 1, BufferCharWidth: 1, BufferCharHeight: 1})

	assert.Equal(t, int32(0), buf.w.BBox.Top)
	assert.Equal(t, int32(19), buf.w.BBox.Bottom)
	assert.Equal(t, int32(19), grid.w.BBox.Top)
	assert.Equal(t, int32(24), grid.w.BBox.Bottom)
	assert.Equal(t, 40, grid.w.Grid.Width)
}

// S3: a line request with a max length of 10 terminated by Escape; the
// game must see the typed length and the pinned Escape keycode, and the
// window content must carry the echoed line.
func TestScenarioLineInputWithTerminator(t *testing.T) {
	in := &bytes.Buffer{}
	in.Write(initEventBytes(80, 24, 1, 1, 1, 1))
	out := &bytes.Buffer{}
	lib := New(in, out, Config{})
	require.NoError(t, lib.Init())

	win, err := lib.OpenWindow(nil, 0, 0, wintree.TypeTextBuffer, 0)
	require.NoError(t, err)
	lineBuf := make([]rune, 10)
	require.NoError(t, win.RequestLineEvent(lineBuf, nil, false))

	in.Write(lineEventBytes(win.Tag(), 1, "abc", "escape"))

	ev, err := lib.Select()
	require.NoError(t, err)
	assert.Equal(t, evloop.EvtLineInput, ev.Type)
	assert.Equal(t, uint32(3), ev.Val1)
	assert.Equal(t, uint32(0xFFFFFFEC), keycode.FromName("escape"))
	assert.Equal(t, keycode.Escape, ev.Val2)

	assert.Contains(t, string(win.w.Buffer.Chars), "abc")
}

// S4: consecutive writes under different styles must compact into
// distinct runs rather than merging across a style change.
func TestScenarioStyleRunCompaction(t *testing.T) {
	in := &bytes.Buffer{}
	in.Write(initEventBytes(80, 24, 1, 1, 1, 1))
	out := &bytes.Buffer{}
	lib := New(in, out, Config{})
	require.NoError(t, lib.Init())

	win, err := lib.OpenWindow(nil, 0, 0, wintree.TypeTextBuffer, 0)
	require.NoError(t, err)
	require.NoError(t, win.Print("A", "normal"))
	require.NoError(t, win.Print("B", "emphasized"))
	require.NoError(t, win.Print("C", "normal"))

	upd := lib.BuildUpdate(nil)
	require.Len(t, upd.Content, 1)
	require.Len(t, upd.Content[0].Paragraphs, 1)
	runs := upd.Content[0].Paragraphs[0].Content
	require.Len(t, runs, 3)
	assert.Equal(t, "normal", runs[0].Style)
	assert.Equal(t, "A", string(runs[0].Text))
	assert.Equal(t, "emphasized", runs[1].Style)
	assert.Equal(t, "B", string(runs[1].Text))
	assert.Equal(t, "normal", runs[2].Style)
	assert.Equal(t, "C", string(runs[2].Text))
}

// S5: autosave/autorestore round trip at the library facade. Windows,
// streams and filerefs keep their tags, and LastEventType becomes the
// autorestored sentinel so the following Select doesn't emit an extra
// update first.
func TestScenarioAutosaveRoundTrip(t *testing.T) {
	in := &bytes.Buffer{}
	in.Write(initEventBytes(80, 24, 1, 1, 1, 1))
	out := &bytes.Buffer{}
	lib := New(in, out, Config{})
	require.NoError(t, lib.Init())

	win, err := lib.OpenWindow(nil, 0, 0, wintree.TypeTextBuffer, 0)
	require.NoError(t, err)
	require.NoError(t, win.Print("saved state\n", "normal"))
	fref := lib.FileRefCreateByName(FileUsageSavedGame, "adventure", 5)

	var saveBuf bytes.Buffer
	require.NoError(t, lib.Autosave(&saveBuf))

	restored := New(&bytes.Buffer{}, &bytes.Buffer{}, Config{})
	require.NoError(t, restored.LoadAutosave(bytes.NewReader(saveBuf.Bytes())))

	rw := restored.tree.FindByTag(win.Tag())
	require.NotNil(t, rw)
	assert.Equal(t, "saved state\n", string(rw.Buffer.Chars))

	restoredRef, ok := restored.filerefs[fref.Tag()]
	require.True(t, ok)
	assert.Equal(t, fref.Filename(), restoredRef.Filename())
	assert.Equal(t, evloop.JustAutorestored, restored.loop.LastEventType())
}

// S6: a resource stream over fixed bytes reads narrow (byte-for-byte) or
// wide (UTF-8 decoded) depending on how it was opened.
func TestScenarioResourceStreamRead(t *testing.T) {
	lib := New(&bytes.Buffer{}, &bytes.Buffer{}, Config{})
	data := []byte("hello")

	narrow := lib.OpenResourceStream(data, false, 0)
	var got []byte
	for {
		r, err := narrow.GetRune(false)
		if err != nil {
			break
		}
		got = append(got, byte(r))
	}
	assert.Equal(t, "hello", string(got))

	wide := lib.OpenResourceStream(data, true, 0)
	r, err := wide.GetRune(true)
	require.NoError(t, err)
	assert.Equal(t, 'h', r)
}
