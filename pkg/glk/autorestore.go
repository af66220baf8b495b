package glk

import (
	"fmt"
	"os"

	"github.com/rglk/remglk/internal/autosave"
	"github.com/rglk/remglk/internal/evloop"
	"github.com/rglk/remglk/internal/streamio"
	"github.com/rglk/remglk/internal/wintree"
	"github.com/rglk/remglk/pkg/dispatch"
)

// osFlagForMode picks the os.OpenFile flags matching a streamio.FileMode,
// for reopening a file stream recorded by an autosave document.
func osFlagForMode(mode streamio.FileMode) int {
	switch mode {
	case streamio.ModeWrite:
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC
	case streamio.ModeReadWrite:
		return os.O_RDWR | os.O_CREATE
	case streamio.ModeWriteAppend:
		return os.O_RDWR | os.O_CREATE | os.O_APPEND
	default:
		return os.O_RDONLY
	}
}

// Autorestore splices a loaded autosave document (see autosave.Load)
// into the Library, mirroring glkunix_load_library_state followed by
// glkunix_update_from_library_state: close anything already open,
// assert the session is empty, then rebuild the window tree and
// stream set directly from the saved tags rather than through the normal
// open calls, so the client's existing window references keep working.
func (l *Library) Autorestore(doc *autosave.Document) error {
	if err := l.closeEverything(); err != nil {
		return fmt.Errorf("glk: autorestore: %w", err)
	}

	byTag := make(map[uint32]*wintree.Window, len(doc.Windows))
	for _, ws := range doc.Windows {
		w, err := l.rebuildWindow(ws)
		if err != nil {
			return fmt.Errorf("glk: autorestore: window %d: %w", ws.Tag, err)
		}
		byTag[ws.Tag] = w
		l.reg.AdvancePast(ws.Tag)
	}

	for _, ws := range doc.Windows {
		w := byTag[ws.Tag]
		if ws.Type != "pair" {
			continue
		}
		child1, ok1 := byTag[ws.Child1Tag]
		child2, ok2 := byTag[ws.Child2Tag]
		if !ok1 || !ok2 {
			return fmt.Errorf("glk: autorestore: pair window %d has an unresolved child", ws.Tag)
		}
		w.Pair.Child1, w.Pair.Child2 = child1, child2
		child1.Parent, child2.Parent = w, w
		if key, ok := byTag[ws.KeyTag]; ok {
			w.Pair.Key = key
		}
	}
	for _, ws := range doc.Windows {
		if ws.Parent == 0 {
			continue
		}
		if parent, ok := byTag[ws.Parent]; ok {
			byTag[ws.Tag].Parent = parent
		}
	}

	if doc.RootWindow != 0 {
		root, ok := byTag[doc.RootWindow]
		if !ok {
			return fmt.Errorf("glk: autorestore: root window %d not found among restored windows", doc.RootWindow)
		}
		l.tree.AdoptWindow(root)
		for _, w := range byTag {
			if w != root {
				l.tree.AdoptWindow(w)
			}
		}
		l.tree.SetRoot(root)
	}

	for _, ss := range doc.Streams {
		s, err := l.rebuildStream(ss, byTag, doc)
		if err != nil {
			return fmt.Errorf("glk: autorestore: stream %d: %w", ss.Tag, err)
		}
		l.streams[s.Tag] = s
		l.reg.AdvancePast(s.Tag)
		if ss.Tag == doc.CurrentStream {
			l.current = s
		}
	}

	for _, fs := range doc.Filerefs {
		f := l.rebuildFileRef(fs)
		l.filerefs[f.tag] = f
		l.reg.AdvancePast(f.tag)
	}

	l.metrics = doc.Metrics
	l.caps = doc.SupportCaps
	if l.metrics != nil {
		l.tree.SetMetrics(toTreeMetrics(l.metrics))
	}
	l.treeChanged = true
	l.loop.SetLastEventType(evloop.JustAutorestored)
	l.log.Info("session autorestored", "windows", len(doc.Windows), "streams", len(doc.Streams), "filerefs", len(doc.Filerefs))
	return nil
}

// closeEverything tears down any live windows, streams and filerefs
// before a restore, then reports an error if anything is still open.
func (l *Library) closeEverything() error {
	if l.tree.Root != nil {
		l.tree.Close(l.tree.Root)
	}
	for tag, s := range l.streams {
		s.Close()
		delete(l.streams, tag)
	}
	for tag, f := range l.filerefs {
		l.reg.UnregisterObject(f, dispatch.ClassFileRef, f.dispRock)
		delete(l.filerefs, tag)
	}
	l.current = nil
	if l.tree.Root != nil {
		return fmt.Errorf("cannot autorestore: a window is still open")
	}
	return nil
}

// rebuildFileRef recreates a FileRef with its saved tag, rock, filename
// and usage, registering it with the dispatch layer the same way
// newFileRef does for a freshly created one.
func (l *Library) rebuildFileRef(fs autosave.FilerefState) *FileRef {
	f := &FileRef{
		lib: l, tag: fs.Tag, rock: fs.Rock,
		filename: fs.Filename, usage: FileUsage(fs.Usage),
		textMode: fs.TextMode,
	}
	f.dispRock = l.reg.RegisterObject(f, dispatch.ClassFileRef)
	return f
}

func (l *Library) rebuildWindow(ws autosave.WindowState) (*wintree.Window, error) {
	w := &wintree.Window{Tag: ws.Tag, Rock: ws.Rock}
	switch ws.Type {
	case "pair":
		w.Type = wintree.TypePair
		w.Pair = &wintree.PairData{
			Dir:      wintree.Method(ws.Method) & wintree.DirMask,
			Division: wintree.Method(ws.Method) & wintree.DivisionMask,
			Size:     ws.Size,
		}
		dir := w.Pair.Dir
		w.Pair.Vertical = dir == wintree.DirLeft || dir == wintree.DirRight
		w.Pair.Backward = dir == wintree.DirLeft || dir == wintree.DirAbove
	case "grid":
		w.Type = wintree.TypeTextGrid
		g := wintree.NewGrid()
		g.Resize(ws.GridHeight, ws.GridWidth)
		for y, line := range ws.GridLines {
			if y >= len(g.Lines) {
				break
			}
			copy(g.Lines[y].Chars, line.Chars)
			copy(g.Lines[y].Style, line.Style)
		}
		g.LineRequest = ws.LineRequest
		g.LineMaxLen = ws.LineMaxLen
		w.Grid = g
	case "buffer":
		w.Type = wintree.TypeTextBuffer
		b := wintree.NewBuffer()
		b.Chars = []rune(ws.BufferChars)
		for _, r := range ws.BufferRuns {
			b.Runs = append(b.Runs, wintree.BufRun{Pos: r.Pos, Style: r.Style})
		}
		b.LineRequest = ws.LineRequest
		b.LineMaxLen = ws.LineMaxLen
		b.MarkAllDirty()
		w.Buffer = b
	case "graphics":
		w.Type = wintree.TypeGraphics
		gr := wintree.NewGraphics()
		gr.Width, gr.Height = ws.GraphicsWidth, ws.GraphicsHeight
		w.Graphics = gr
	case "blank":
		w.Type = wintree.TypeBlank
	default:
		return nil, fmt.Errorf("unknown window type %q", ws.Type)
	}
	return w, nil
}

func (l *Library) rebuildStream(ss autosave.StreamState, windows map[uint32]*wintree.Window, doc *autosave.Document) (*streamio.Stream, error) {
	var s *streamio.Stream
	var err error
	switch ss.Kind {
	case "memory":
		if ss.Unicode {
			s, err = streamio.OpenMemoryUni(l.reg, []rune(ss.MemoryContent), streamio.ModeReadWrite, ss.Rock)
		} else {
			s, err = streamio.OpenMemory(l.reg, []byte(ss.MemoryContent), streamio.ModeReadWrite, ss.Rock)
		}
		if err != nil {
			return nil, err
		}
	case "window":
		owner := windowForStream(windows, doc, ss.Tag)
		if owner == nil {
			return nil, fmt.Errorf("no window owns this output stream")
		}
		s = streamio.OpenWindow(l.reg, &Window{lib: l, w: owner}, ss.Rock)
	case "resource":
		s = streamio.OpenResource(l.reg, nil, ss.Unicode, ss.Rock)
	case "file":
		if ss.Filename == "" {
			return nil, fmt.Errorf("file stream has no recorded path")
		}
		mode := streamio.ModeReadWrite
		if !ss.Readable {
			mode = streamio.ModeWrite
		} else if !ss.Writable {
			mode = streamio.ModeRead
		}
		file, ferr := os.OpenFile(ss.Filename, osFlagForMode(mode), 0644)
		if ferr != nil {
			return nil, fmt.Errorf("reopening %q: %w", ss.Filename, ferr)
		}
		s = streamio.OpenFile(l.reg, file, mode, ss.Unicode, ss.IsBinary, ss.Filename, ss.Rock)
	default:
		return nil, fmt.Errorf("unknown stream kind %q", ss.Kind)
	}
	s.Tag = ss.Tag
	s.Readable, s.Writable = ss.Readable, ss.Writable
	if err := s.SetPosition(ss.Position, streamio.SeekStart); err != nil {
		return nil, err
	}
	return s, nil
}

// windowForStream finds the window whose output stream this is, by
// scanning the saved document for the window whose recorded StreamTag
// equals streamTag (every leaf window owns exactly one stream, created
// alongside it).
func windowForStream(windows map[uint32]*wintree.Window, doc *autosave.Document, streamTag uint32) *wintree.Window {
	for _, ws := range doc.Windows {
		if ws.StreamTag == streamTag {
			return windows[ws.Tag]
		}
	}
	return nil
}
