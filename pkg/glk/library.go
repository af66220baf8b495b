// Package glk is the public facade: it wires the wire codec, object
// registry, stream engine, window tree and event loop into the small
// set of entry points an embedding program needs (Init, Select, window
// and stream constructors, autosave). Grounded on the teacher's
// streaming.Manager as a thin orchestration layer over lower packages,
// and on remglk.h's top-level gli_* function set.
package glk

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rglk/remglk/internal/autosave"
	"github.com/rglk/remglk/internal/evloop"
	"github.com/rglk/remglk/internal/objreg"
	"github.com/rglk/remglk/internal/streamio"
	"github.com/rglk/remglk/internal/wintree"
	"github.com/rglk/remglk/internal/wire"
	"github.com/rglk/remglk/pkg/debugcmd"
	"github.com/rglk/remglk/pkg/dispatch"
)

// Library is one running Glk session: the window tree, the open
// streams, and the event loop reading/writing the wire protocol.
type Library struct {
	log *slog.Logger

	reg  *objreg.Registry
	tree *wintree.Tree
	loop *evloop.Loop

	streams  map[uint32]*streamio.Stream
	current  *streamio.Stream
	filerefs map[uint32]*FileRef

	metrics *wire.Metrics
	caps    *wire.SupportCaps

	workingDir string

	nextRock    uint32
	generation  int32
	treeChanged bool
}

// Config bundles the optional caller hooks and logger.
type Config struct {
	Hooks      dispatch.Hooks
	Logger     *slog.Logger
	WorkingDir string // base directory for by_name/by_prompt filerefs, default "."
}

// New constructs a Library reading events from r and writing updates to
// w (normally os.Stdin/os.Stdout).
func New(r io.Reader, w io.Writer, cfg Config) *Library {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := objreg.New(cfg.Hooks)
	workingDir := cfg.WorkingDir
	if workingDir == "" {
		workingDir = "."
	}
	lib := &Library{
		log:        logger,
		reg:        reg,
		tree:       wintree.NewTree(reg),
		streams:    make(map[uint32]*streamio.Stream),
		filerefs:   make(map[uint32]*FileRef),
		workingDir: workingDir,
	}
	dec := wire.NewDecoder(r)
	enc := wire.NewEncoder(w)
	lib.loop = evloop.New(dec, enc, lib)
	return lib
}

// SetDebugHandler installs the hook for "debuginput" events, enabled by
// the hosting program's -D flag.
func (l *Library) SetDebugHandler(h debugcmd.Handler) { l.loop.SetDebugHandler(h) }

// Init blocks for the mandatory init event and applies the initial
// metrics, per gli_select_metrics.
func (l *Library) Init() error {
	m, caps, err := l.loop.SelectMetrics()
	if err != nil {
		return Fatal("init", err)
	}
	l.metrics = m
	l.caps = caps
	l.tree.SetMetrics(toTreeMetrics(m))
	l.log.Info("session initialized", "width", m.Width, "height", m.Height)
	return nil
}

// SelectImaginary installs caller-supplied fixed metrics instead of
// waiting for the client's init event to carry them, per
// gli_select_imaginary: used when the hosting program was started with
// -autometrics no and already knows the screen size from its own flags.
// The next real Select behaves as though an arrange had already
// happened.
func (l *Library) SelectImaginary(m *wire.Metrics, caps *wire.SupportCaps) {
	l.metrics = m
	if caps == nil {
		caps = &wire.SupportCaps{}
	}
	l.caps = caps
	l.tree.SetMetrics(toTreeMetrics(m))
	l.loop.SetLastEventType(uint32(evloop.EvtArrange))
	l.log.Info("session initialized with fixed metrics", "width", m.Width, "height", m.Height)
}

func toTreeMetrics(m *wire.Metrics) wintree.Metrics {
	return wintree.Metrics{
		Width: m.Width, Height: m.Height,
		GridCharWidth: m.GridCharWidth, GridCharHeight: m.GridCharHeight,
		BufferCharWidth: m.BufferCharWidth, BufferCharHeight: m.BufferCharHeight,
	}
}

// Select blocks until a real Glk event arrives.
func (l *Library) Select() (*evloop.Event, error) {
	return l.loop.Select()
}

// --- evloop.Callbacks ---

// CurrentGeneration returns the update-tag generation the client's next
// event must echo back. It starts at 0 and BuildUpdate increments it
// once per update emitted, matching the original's "increment once per
// update" rule.
func (l *Library) CurrentGeneration() int32 {
	return l.generation
}

func (l *Library) RefreshAll() {
	// Force every grid and buffer window's dirty range to span its full
	// content so the next BuildUpdate resends it (a buffer after a clear),
	// per gli_windows_refresh. A graphics window keeps no record of ops
	// already sent, so it is only marked cleared.
	l.forEachLeaf(func(w *wintree.Window) {
		switch w.Type {
		case wintree.TypeTextGrid:
			g := w.Grid
			g.DirtyBeg, g.DirtyEnd = 0, g.Height
			for i := range g.Lines {
				g.Lines[i].DirtyBeg, g.Lines[i].DirtyEnd = 0, g.Width
			}
		case wintree.TypeTextBuffer:
			w.Buffer.MarkAllDirty()
			w.Buffer.ClearPending = true
		case wintree.TypeGraphics:
			w.Graphics.Cleared = true
		}
	})
}

func (l *Library) ApplyMetrics(m *wire.Metrics) {
	l.metrics = m
	l.tree.SetMetrics(toTreeMetrics(m))
	l.treeChanged = true
}

func (l *Library) ApplySupportCaps(c *wire.SupportCaps) {
	l.caps = c
}

func (l *Library) TrimBuffers() {
	l.forEachLeaf(func(w *wintree.Window) {
		if w.Buffer != nil {
			w.Buffer.Trim()
		}
	})
}

func (l *Library) FindWindow(tag uint32) (evloop.Window, bool) {
	w := l.tree.FindByTag(tag)
	if w == nil {
		return nil, false
	}
	return &windowAdapter{w: w}, true
}

func (l *Library) forEachLeaf(fn func(*wintree.Window)) {
	var walk func(*wintree.Window)
	walk = func(w *wintree.Window) {
		if w == nil {
			return
		}
		if w.Type == wintree.TypePair {
			walk(w.Pair.Child1)
			walk(w.Pair.Child2)
			return
		}
		fn(w)
	}
	walk(l.tree.Root)
}

// Autosave serialises the full session, delegating field-level shape to
// internal/autosave.
func (l *Library) Autosave(w io.Writer) error {
	doc := autosave.Build(l.tree, l.streamSnapshots(), l.filerefSnapshots(), l.currentTag(), l.loop.LastEventType(), l.metrics, l.caps)
	enc := wire.NewEncoder(w)
	return enc.Encode(doc.ToValue())
}

// LoadAutosave reads an autosave document from r and activates it,
// replacing any live window/stream state. Call this instead of Init
// when the embedding program finds a prior autosave file on startup.
func (l *Library) LoadAutosave(r io.Reader) error {
	dec := wire.NewDecoder(r)
	v, err := dec.Decode()
	if err != nil {
		return fmt.Errorf("glk: reading autosave document: %w", err)
	}
	doc, err := autosave.Load(v)
	if err != nil {
		return fmt.Errorf("glk: parsing autosave document: %w", err)
	}
	return l.Autorestore(doc)
}

func (l *Library) currentTag() uint32 {
	if l.current == nil {
		return 0
	}
	return l.current.Tag
}

func (l *Library) streamSnapshots() []*streamio.Stream {
	out := make([]*streamio.Stream, 0, len(l.streams))
	for _, s := range l.streams {
		out = append(out, s)
	}
	return out
}

func (l *Library) filerefSnapshots() []autosave.FilerefState {
	out := make([]autosave.FilerefState, 0, len(l.filerefs))
	for _, f := range l.filerefs {
		out = append(out, autosave.FilerefState{
			Tag: f.Tag(), Rock: f.Rock(), Filename: f.Filename(),
			TextMode: f.TextMode(), Usage: f.UsageValue(),
		})
	}
	return out
}
