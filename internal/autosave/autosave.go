// Package autosave serialises and restores a full session as one JSON
// document, grounded on rgauto.c's glkunix_save_library_state/
// glkunix_load_library_state/glkunix_update_from_library_state triad:
// building a document is a straight walk of the live window/stream
// tree; loading is a three-pass process (allocate shells keyed by
// update tag, populate them, resolve cross-references), and activating
// a loaded document is a separate step that tears down any live state
// first, matching the original's "close everything, assert nothing
// remains, then splice in the loaded chains" sequence.
package autosave

import (
	"fmt"

	"github.com/rglk/remglk/internal/streamio"
	"github.com/rglk/remglk/internal/wintree"
	"github.com/rglk/remglk/internal/wire"
)

// SerialVersion is the document format version, matching rgauto.c's
// SERIAL_VERSION.
const SerialVersion = 1

// Document is the full parsed/pre-serialisation shape of an autosave
// file: type:"autosave", version 1, plus the window tree, streams, and
// session-level fields it takes to resume exactly where play left off.
type Document struct {
	Version       int
	RootWindow    uint32
	CurrentStream uint32
	LastEventType uint32
	TimerInterval int32
	Metrics       *wire.Metrics
	SupportCaps   *wire.SupportCaps
	Windows       []WindowState
	Streams       []StreamState
	Filerefs      []FilerefState
}

// FilerefState is one fileref's serialised shape, per rgauto.c's
// fileref-chain dump (filename, usage, and the rock that lets an
// embedding program find it again after restore).
type FilerefState struct {
	Tag      uint32
	Rock     uint32
	Filename string
	TextMode bool
	Usage    uint32
}

// WindowState is one window's serialised shape.
type WindowState struct {
	Tag    uint32
	Type   string
	Rock   uint32
	Parent uint32 // 0 if root

	// pair
	Method Method
	Size   int32
	KeyTag uint32
	Child1Tag, Child2Tag uint32

	// grid
	GridWidth, GridHeight int
	GridLines             []GridLineState

	// buffer
	BufferChars    string
	BufferRuns     []RunState
	LineRequest    bool
	LineMaxLen     int

	// graphics
	GraphicsWidth, GraphicsHeight int32

	StreamTag uint32 // the window's output stream, 0 if none
}

// Method mirrors wintree.Method without importing it for the wire
// encoding (kept as a plain int so the document package has no
// dependency on window-tree internals beyond what it needs to rebuild
// one).
type Method int32

// GridLineState is one row of a saved text-grid window.
type GridLineState struct {
	Chars []rune
	Style []string
}

// RunState is one style run of a saved text-buffer window.
type RunState struct {
	Pos   int
	Style string
}

// StreamState is one stream's serialised shape.
type StreamState struct {
	Tag      uint32
	Kind     string
	Rock     uint32
	Readable bool
	Writable bool
	Unicode  bool
	IsBinary bool
	Filename string
	Position int64

	// memory stream contents, as written so far (only meaningful if
	// the backing array could be located via the dispatch layer)
	MemoryContent string
	HasMemory     bool
}

// Build walks the live window tree and stream set into a Document ready
// for ToValue, per glkunix_save_library_state.
func Build(tree *wintree.Tree, streams []*streamio.Stream, filerefs []FilerefState, currentStreamTag uint32, lastEventType uint32, metrics *wire.Metrics, caps *wire.SupportCaps) *Document {
	doc := &Document{
		Version:       SerialVersion,
		CurrentStream: currentStreamTag,
		LastEventType: lastEventType,
		Metrics:       metrics,
		SupportCaps:   caps,
		Filerefs:      filerefs,
	}
	if tree.Root != nil {
		doc.RootWindow = tree.Root.Tag
	}

	streamTagByWindow := make(map[uint32]uint32, len(streams))
	for _, s := range streams {
		if owner := s.WindowOwner(); owner != nil {
			if t, ok := owner.(interface{ Tag() uint32 }); ok {
				streamTagByWindow[t.Tag()] = s.Tag
			}
		}
	}

	var walk func(w *wintree.Window, parent uint32)
	walk = func(w *wintree.Window, parent uint32) {
		if w == nil {
			return
		}
		ws := windowState(w, parent)
		ws.StreamTag = streamTagByWindow[w.Tag]
		doc.Windows = append(doc.Windows, ws)
		if w.Type == wintree.TypePair {
			walk(w.Pair.Child1, w.Tag)
			walk(w.Pair.Child2, w.Tag)
		}
	}
	walk(tree.Root, 0)

	for _, s := range streams {
		doc.Streams = append(doc.Streams, streamState(s))
	}

	return doc
}

func windowState(w *wintree.Window, parent uint32) WindowState {
	ws := WindowState{Tag: w.Tag, Type: w.Type.String(), Rock: w.Rock, Parent: parent}
	switch w.Type {
	case wintree.TypePair:
		ws.Method = Method(w.Pair.Dir | w.Pair.Division)
		ws.Size = w.Pair.Size
		if w.Pair.Key != nil {
			ws.KeyTag = w.Pair.Key.Tag
		}
		ws.Child1Tag, ws.Child2Tag = w.Pair.Child1.Tag, w.Pair.Child2.Tag
	case wintree.TypeTextGrid:
		ws.GridWidth, ws.GridHeight = w.Grid.Width, w.Grid.Height
		for _, l := range w.Grid.Lines {
			ws.GridLines = append(ws.GridLines, GridLineState{
				Chars: append([]rune(nil), l.Chars...),
				Style: append([]string(nil), l.Style...),
			})
		}
		ws.LineRequest = w.Grid.LineRequest
		ws.LineMaxLen = w.Grid.LineMaxLen
	case wintree.TypeTextBuffer:
		ws.BufferChars = string(w.Buffer.Chars)
		for _, r := range w.Buffer.Runs {
			ws.BufferRuns = append(ws.BufferRuns, RunState{Pos: r.Pos, Style: r.Style})
		}
		ws.LineRequest = w.Buffer.LineRequest
		ws.LineMaxLen = w.Buffer.LineMaxLen
	case wintree.TypeGraphics:
		ws.GraphicsWidth, ws.GraphicsHeight = w.Graphics.Width, w.Graphics.Height
	}
	return ws
}

func streamState(s *streamio.Stream) StreamState {
	ss := StreamState{
		Tag: s.Tag, Rock: s.Rock, Readable: s.Readable, Writable: s.Writable,
		Unicode: s.Unicode, IsBinary: s.IsBinary, Filename: s.Filename,
		Position: s.Position(), Kind: kindName(s.Kind),
	}
	ss.MemoryContent, ss.HasMemory = s.MemoryContent()
	return ss
}

func kindName(k streamio.Kind) string {
	switch k {
	case streamio.KindMemory:
		return "memory"
	case streamio.KindFile:
		return "file"
	case streamio.KindWindow:
		return "window"
	case streamio.KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// ToValue serialises the document to the wire JSON shape.
func (d *Document) ToValue() wire.Value {
	o := wire.NewObject()
	o.SetString("type", "autosave")
	o.SetInt("version", int64(d.Version))
	o.SetInt("rootwin", int64(d.RootWindow))
	o.SetInt("currentstr", int64(d.CurrentStream))
	o.SetInt("lasteventtype", int64(d.LastEventType))
	o.SetInt("timerinterval", int64(d.TimerInterval))
	if d.Metrics != nil {
		o.Set("metrics", d.Metrics.ToValue())
	}
	if d.SupportCaps != nil {
		o.Set("support", d.SupportCaps.ToValue())
	}

	wins := wire.List{}
	for _, w := range d.Windows {
		wins = append(wins, windowToValue(w))
	}
	o.Set("windows", wins)

	strs := wire.List{}
	for _, s := range d.Streams {
		strs = append(strs, streamToValue(s))
	}
	o.Set("streams", strs)

	frefs := wire.List{}
	for _, f := range d.Filerefs {
		frefs = append(frefs, filerefToValue(f))
	}
	o.Set("filerefs", frefs)

	return o
}

func filerefToValue(f FilerefState) wire.Value {
	o := wire.NewObject()
	o.SetInt("id", int64(f.Tag))
	o.SetInt("rock", int64(f.Rock))
	o.SetString("filename", f.Filename)
	o.SetBool("textmode", f.TextMode)
	o.SetInt("usage", int64(f.Usage))
	return o
}

func windowToValue(w WindowState) wire.Value {
	o := wire.NewObject()
	o.SetInt("id", int64(w.Tag))
	o.SetString("type", w.Type)
	o.SetInt("rock", int64(w.Rock))
	o.SetInt("parent", int64(w.Parent))
	if w.StreamTag != 0 {
		o.SetInt("streamtag", int64(w.StreamTag))
	}

	switch w.Type {
	case "pair":
		o.SetInt("method", int64(w.Method))
		o.SetInt("size", int64(w.Size))
		o.SetInt("key", int64(w.KeyTag))
		o.SetInt("child1", int64(w.Child1Tag))
		o.SetInt("child2", int64(w.Child2Tag))
	case "grid":
		o.SetInt("width", int64(w.GridWidth))
		o.SetInt("height", int64(w.GridHeight))
		lines := wire.List{}
		for _, l := range w.GridLines {
			lo := wire.NewObject()
			lo.SetString("chars", string(l.Chars))
			lo.Set("styleruns", styleRunsToValue(l.Style))
			lines = append(lines, lo)
		}
		o.Set("lines", lines)
	case "buffer":
		o.SetString("chars", w.BufferChars)
		runs := wire.List{}
		for _, r := range w.BufferRuns {
			ro := wire.NewObject()
			ro.SetInt("pos", int64(r.Pos)).SetString("style", r.Style)
			runs = append(runs, ro)
		}
		o.Set("runs", runs)
	case "graphics":
		o.SetInt("width", int64(w.GraphicsWidth))
		o.SetInt("height", int64(w.GraphicsHeight))
	}

	if w.LineRequest {
		o.SetBool("linerequest", true)
		o.SetInt("linemaxlen", int64(w.LineMaxLen))
	}
	return o
}

// styleRunsToValue run-length-encodes a per-cell style slice into a list
// of {pos, style} objects, the same shape text-buffer runs use.
func styleRunsToValue(styles []string) wire.Value {
	runs := wire.List{}
	var last string
	for i, s := range styles {
		if i == 0 || s != last {
			ro := wire.NewObject()
			ro.SetInt("pos", int64(i)).SetString("style", s)
			runs = append(runs, ro)
			last = s
		}
	}
	return runs
}

func streamToValue(s StreamState) wire.Value {
	o := wire.NewObject()
	o.SetInt("id", int64(s.Tag))
	o.SetString("type", s.Kind)
	o.SetInt("rock", int64(s.Rock))
	o.SetBool("readable", s.Readable)
	o.SetBool("writable", s.Writable)
	o.SetBool("unicode", s.Unicode)
	o.SetBool("binary", s.IsBinary)
	if s.Filename != "" {
		o.SetString("filename", s.Filename)
	}
	o.SetInt("pos", s.Position)
	if s.HasMemory {
		o.SetString("content", s.MemoryContent)
	}
	return o
}

// LoadError reports a malformed autosave document, distinct from a
// wire.MalformedInputError since the document may be syntactically
// valid JSON with an invalid session shape.
type LoadError struct {
	Reason string
}

func (e *LoadError) Error() string { return fmt.Sprintf("autosave: %s", e.Reason) }
