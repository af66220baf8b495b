// Package wintree implements the Glk window tree: pair-window split
// layout, and the four leaf window types (blank, text grid, text buffer,
// graphics). Grounded on rgwindow.c and rgwin_pair.c/rgwin_grid.c/
// rgwin_buf.c/rgwin_graph.c from the original implementation.
package wintree

import (
	"fmt"

	"github.com/rglk/remglk/internal/objreg"
	"github.com/rglk/remglk/pkg/dispatch"
)

// Type is a window's wintype_* value.
type Type int

const (
	TypeBlank Type = iota
	TypePair
	TypeTextGrid
	TypeTextBuffer
	TypeGraphics
)

func (t Type) String() string {
	switch t {
	case TypeBlank:
		return "blank"
	case TypePair:
		return "pair"
	case TypeTextGrid:
		return "grid"
	case TypeTextBuffer:
		return "buffer"
	case TypeGraphics:
		return "graphics"
	default:
		return "unknown"
	}
}

// Method encodes the division and direction bits passed to window_open,
// mirroring winmethod_*.
type Method int

const (
	DivisionMask Method = 0x0F
	DivFixed        Method = 0x02
	DivProportional Method = 0x03

	DirMask Method = 0xF0
	DirLeft  Method = 0x10
	DirRight Method = 0x20
	DirAbove Method = 0x30
	DirBelow Method = 0x40

	BorderMask Method = 0x100
	Border     Method = 0x100
	NoBorder   Method = 0x000
)

// Window is one node in the tree: either a pair window (Pair != nil) or
// a leaf window (exactly one of Grid/Buffer/Graphics/Blank is set).
type Window struct {
	Tag    uint32
	Type   Type
	Rock   uint32
	BBox   Rect
	Parent *Window

	Pair     *PairData
	Grid     *GridData
	Buffer   *BufferData
	Graphics *GraphicsData

	EchoStream any // *streamio.Stream, kept as any to avoid an import cycle

	registry *objreg.Registry
	dispRock any
}

// Tree owns the window hierarchy: the root pointer, lookup by tag, and
// the metrics used to rearrange on open/resize.
type Tree struct {
	Root     *Window
	byTag    map[uint32]*Window
	registry *objreg.Registry
	metrics  Metrics
}

// Metrics is the subset of wire.Metrics the layout code needs, decoupled
// from the wire package to keep wintree free of protocol concerns.
type Metrics struct {
	Width, Height                 int32
	GridCharWidth, GridCharHeight   int32
	BufferCharWidth, BufferCharHeight int32
}

// NewTree creates an empty window tree.
func NewTree(reg *objreg.Registry) *Tree {
	return &Tree{byTag: make(map[uint32]*Window), registry: reg}
}

// SetMetrics installs new screen metrics and, if a tree already exists,
// rearranges it (mirrors gli_windows_metrics_change).
func (t *Tree) SetMetrics(m Metrics) {
	t.metrics = m
	if t.Root != nil {
		t.Rearrange(t.Root, t.contentBox())
	}
}

func (t *Tree) contentBox() Rect {
	return Rect{Left: 0, Top: 0, Right: t.metrics.Width, Bottom: t.metrics.Height}
}

// FindByTag resolves a window by its update tag.
func (t *Tree) FindByTag(tag uint32) *Window {
	return t.byTag[tag]
}

// AdoptWindow inserts a window the caller assembled directly (autorestore
// rebuilding a saved tree, where tags must match the document rather
// than come from the registry's counter) into the tag table, registering
// it with the dispatch layer the same way Open does.
func (t *Tree) AdoptWindow(w *Window) {
	w.registry = t.registry
	if t.registry != nil {
		w.dispRock = t.registry.RegisterObject(w, dispatch.ClassWindow)
	}
	t.byTag[w.Tag] = w
}

// SetRoot installs w as the tree's root window and rearranges it to fill
// the current metrics box. Used by autorestore once the full saved tree
// has been adopted.
func (t *Tree) SetRoot(w *Window) {
	t.Root = w
	if w != nil {
		t.Rearrange(w, t.contentBox())
	}
}

func (t *Tree) newWindow(typ Type, rock uint32) *Window {
	w := &Window{Type: typ, Rock: rock, registry: t.registry}
	if t.registry != nil {
		w.Tag = t.registry.NextTag()
		w.dispRock = t.registry.RegisterObject(w, dispatch.ClassWindow)
	}
	t.byTag[w.Tag] = w
	return w
}

// Open implements glk_window_open: if split is nil, w becomes the sole
// root window; otherwise split is replaced by a new pair window whose
// children are split (child1) and the newly created window (child2,
// the key).
func (t *Tree) Open(split *Window, method Method, size int32, typ Type, rock uint32) (*Window, error) {
	if t.Root == nil {
		if split != nil {
			return nil, fmt.Errorf("wintree: split must be nil when opening the first window")
		}
	} else {
		if split == nil {
			return nil, fmt.Errorf("wintree: split must not be nil")
		}
		div := method & DivisionMask
		if div != DivFixed && div != DivProportional {
			return nil, fmt.Errorf("wintree: invalid division method")
		}
		dir := method & DirMask
		if dir != DirAbove && dir != DirBelow && dir != DirLeft && dir != DirRight {
			return nil, fmt.Errorf("wintree: invalid direction method")
		}
	}

	newwin := t.newWindow(typ, rock)
	switch typ {
	case TypeBlank:
		// blank windows carry no content state
	case TypeTextGrid:
		newwin.Grid = NewGrid()
	case TypeTextBuffer:
		newwin.Buffer = NewBuffer()
	case TypeGraphics:
		newwin.Graphics = NewGraphics()
	case TypePair:
		return nil, fmt.Errorf("wintree: cannot open a pair window directly")
	default:
		return nil, fmt.Errorf("wintree: unknown window type")
	}

	if t.Root == nil {
		t.Root = newwin
		t.Rearrange(newwin, t.contentBox())
		return newwin, nil
	}

	oldParent := split.Parent
	pairwin := t.newWindow(TypePair, 0)
	pairwin.Pair = NewPairData(method, newwin, size)
	pairwin.Pair.Child1 = split
	pairwin.Pair.Child2 = newwin

	split.Parent = pairwin
	newwin.Parent = pairwin
	pairwin.Parent = oldParent

	if oldParent != nil {
		if oldParent.Pair.Child1 == split {
			oldParent.Pair.Child1 = pairwin
		} else {
			oldParent.Pair.Child2 = pairwin
		}
		t.Rearrange(t.Root, t.contentBox())
	} else {
		t.Root = pairwin
		t.Rearrange(pairwin, split.BBox)
	}

	return newwin, nil
}

// Close removes win (and, if it's a pair, both its subtrees) from the
// tree, per glk_window_close.
func (t *Tree) Close(win *Window) {
	keyDamage := t.closeSubtree(win)

	parent := win.Parent
	if parent == nil {
		if t.Root == win {
			t.Root = nil
		}
		return
	}

	var sibling *Window
	if parent.Pair.Child1 == win {
		sibling = parent.Pair.Child2
	} else {
		sibling = parent.Pair.Child1
	}

	grandparent := parent.Parent
	sibling.Parent = grandparent
	delete(t.byTag, parent.Tag)
	if t.registry != nil {
		t.registry.UnregisterObject(parent, dispatch.ClassWindow, parent.dispRock)
	}

	if grandparent == nil {
		t.Root = sibling
		t.Rearrange(sibling, parent.BBox)
		return
	}
	if grandparent.Pair.Child1 == parent {
		grandparent.Pair.Child1 = sibling
	} else {
		grandparent.Pair.Child2 = sibling
	}
	if keyDamage {
		t.Rearrange(t.Root, t.contentBox())
	} else {
		t.Rearrange(grandparent, grandparent.BBox)
	}
}

// closeSubtree unregisters win (recursing into both children first if
// it's a pair) and, for every window actually removed, walks its pair
// ancestors clearing any key that pointed at it — the key may be any
// descendant of the pair, not just a direct child, per
// glk_window_set_arrangement's own ancestor walk. It reports whether any
// ancestor's key was damaged this way, which decides whether Close needs
// a whole-tree rearrange (some other pair may now be sized against a
// missing key) or can get away with jiggering just the immediate parent.
func (t *Tree) closeSubtree(win *Window) bool {
	damage := false
	if win.Type == TypePair {
		if t.closeSubtree(win.Pair.Child1) {
			damage = true
		}
		if t.closeSubtree(win.Pair.Child2) {
			damage = true
		}
	}

	delete(t.byTag, win.Tag)
	if t.registry != nil {
		t.registry.UnregisterObject(win, dispatch.ClassWindow, win.dispRock)
	}

	for p := win.Parent; p != nil; p = p.Parent {
		if p.Pair != nil && p.Pair.Key == win {
			p.Pair.Key = nil
			p.Pair.KeyDamage = true
			damage = true
		}
	}
	return damage
}

// Rearrange assigns win (and recursively its subtree) the given bbox,
// per gli_window_rearrange / win_pair_rearrange.
func (t *Tree) Rearrange(win *Window, box Rect) {
	win.BBox = box
	switch win.Type {
	case TypePair:
		win.Pair.Rearrange(win, box, t.Rearrange)
	case TypeTextGrid:
		cols := box.Width() / max1(t.metrics.GridCharWidth)
		rows := box.Height() / max1(t.metrics.GridCharHeight)
		win.Grid.Resize(int(rows), int(cols))
	case TypeTextBuffer:
		// Text buffers reflow at render time in the client; the engine
		// only needs to remember the box for layout math.
	case TypeGraphics:
		win.Graphics.Resize(box.Width(), box.Height())
	}
}

func max1(v int32) int32 {
	if v < 1 {
		return 1
	}
	return v
}
