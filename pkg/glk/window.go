package glk

import (
	"fmt"

	"github.com/rglk/remglk/internal/evloop"
	"github.com/rglk/remglk/internal/streamio"
	"github.com/rglk/remglk/internal/wintree"
)

// Window is the public handle an embedding program holds for an open
// Glk window.
type Window struct {
	lib *Library
	w   *wintree.Window
	str *streamio.Stream
}

// OpenWindow implements glk_window_open: split == nil opens the first
// (root) window.
func (l *Library) OpenWindow(split *Window, method wintree.Method, size int32, typ wintree.Type, rock uint32) (*Window, error) {
	var splitNode *wintree.Window
	if split != nil {
		splitNode = split.w
	}
	w, err := l.tree.Open(splitNode, method, size, typ, rock)
	if err != nil {
		return nil, err
	}
	l.treeChanged = true

	win := &Window{lib: l, w: w}
	win.str = streamio.OpenWindow(l.reg, win, rock)
	l.streams[win.str.Tag] = win.str
	return win, nil
}

// Close implements glk_window_close.
func (w *Window) Close() {
	w.lib.tree.Close(w.w)
	w.lib.treeChanged = true
	delete(w.lib.streams, w.str.Tag)
	if w.lib.current == w.str {
		w.lib.current = nil
	}
}

// PutRune and LineRequestPending implement streamio.WindowWriter, so a
// Window can back its own output stream directly.
func (w *Window) PutRune(r rune, style string) error {
	switch {
	case w.w.Grid != nil:
		return w.w.Grid.PutRune(r, style)
	case w.w.Buffer != nil:
		return w.w.Buffer.PutRune(r, style)
	default:
		return nil
	}
}

func (w *Window) LineRequestPending() bool {
	if w.w.Grid != nil {
		return w.w.Grid.LineRequest
	}
	if w.w.Buffer != nil {
		return w.w.Buffer.LineRequest
	}
	return false
}

// Tag returns the window's update tag.
func (w *Window) Tag() uint32 { return w.w.Tag }

// Stream returns the window's associated output stream.
func (w *Window) Stream() *Stream { return &Stream{lib: w.lib, s: w.str} }

// Print writes text to the window under the given style name.
func (w *Window) Print(text, style string) error {
	return w.str.PutString(text, style)
}

// SetEchoStream implements glk_window_set_echo_stream.
func (w *Window) SetEchoStream(s *Stream) {
	if s == nil {
		w.str.EchoTo = nil
		return
	}
	w.str.EchoTo = s.s
}

// MoveCursor implements glk_window_move_cursor (text-grid only).
func (w *Window) MoveCursor(x, y int) error {
	if w.w.Grid == nil {
		return fmt.Errorf("glk: move_cursor on a non-grid window")
	}
	w.w.Grid.MoveCursor(x, y)
	return nil
}

// Clear implements glk_window_clear.
func (w *Window) Clear() error {
	switch w.w.Type {
	case wintree.TypeTextGrid:
		w.w.Grid.Clear()
	case wintree.TypeTextBuffer:
		w.w.Buffer.Clear()
	case wintree.TypeGraphics:
		w.w.Graphics.Clear()
	}
	return nil
}

// RequestLineEvent implements glk_request_line_event: buf is the
// caller-owned line input buffer, initial pre-fills it. buf is not
// registered with the dispatch layer, so autosave records only that a
// line request is pending and its maximum length, not buf's contents.
func (w *Window) RequestLineEvent(buf []rune, initial []rune, unicode bool) error {
	n := copy(buf, initial)
	_ = n
	switch {
	case w.w.Grid != nil:
		w.w.Grid.LineRequest = true
		w.w.Grid.LineBuf = buf
		w.w.Grid.LineMaxLen = len(buf)
		w.w.Grid.LineUnicode = unicode
		w.w.Grid.BeginLineInput(initial)
	case w.w.Buffer != nil:
		w.w.Buffer.LineRequest = true
		w.w.Buffer.LineBuf = buf
		w.w.Buffer.LineMaxLen = len(buf)
		w.w.Buffer.BeginLineInput(initial)
	default:
		return fmt.Errorf("glk: line events not supported on this window type")
	}
	return nil
}

// RequestCharEvent implements glk_request_char_event[_uni].
func (w *Window) RequestCharEvent(unicode bool) error {
	switch {
	case w.w.Grid != nil:
		w.w.Grid.CharRequest, w.w.Grid.CharRequestUnicode = true, unicode
	case w.w.Buffer != nil:
		w.w.Buffer.CharRequest, w.w.Buffer.CharRequestUnicode = true, unicode
	default:
		return fmt.Errorf("glk: char events not supported on this window type")
	}
	return nil
}

// RequestHyperlinkEvent implements glk_request_hyperlink_event.
func (w *Window) RequestHyperlinkEvent() {
	if w.w.Grid != nil {
		w.w.Grid.HyperlinkRequest = true
	} else if w.w.Buffer != nil {
		w.w.Buffer.HyperlinkRequest = true
	}
}

// --- evloop.Window adapter ---

type windowAdapter struct{ w *wintree.Window }

func (a *windowAdapter) Tag() uint32 { return a.w.Tag }

func (a *windowAdapter) LineRequestPending() bool {
	if a.w.Grid != nil {
		return a.w.Grid.LineRequest
	}
	if a.w.Buffer != nil {
		return a.w.Buffer.LineRequest
	}
	return false
}

func (a *windowAdapter) CharRequestPending() bool {
	if a.w.Grid != nil {
		return a.w.Grid.CharRequest
	}
	if a.w.Buffer != nil {
		return a.w.Buffer.CharRequest
	}
	return false
}

func (a *windowAdapter) CharRequestUnicode() bool {
	if a.w.Grid != nil {
		return a.w.Grid.CharRequestUnicode
	}
	if a.w.Buffer != nil {
		return a.w.Buffer.CharRequestUnicode
	}
	return false
}

func (a *windowAdapter) HyperlinkRequestPending() bool {
	if a.w.Grid != nil {
		return a.w.Grid.HyperlinkRequest
	}
	if a.w.Buffer != nil {
		return a.w.Buffer.HyperlinkRequest
	}
	return false
}

func (a *windowAdapter) AcceptLine(value []rune, terminator string) {
	if a.w.Grid != nil {
		copy(a.w.Grid.LineBuf, value)
		a.w.Grid.EndLineInput(value)
		a.w.Grid.LineRequest = false
		a.w.Grid.LineBuf = nil
		return
	}
	if a.w.Buffer != nil {
		copy(a.w.Buffer.LineBuf, value)
		a.w.Buffer.EndLineInput(value)
		a.w.Buffer.LineRequest = false
		a.w.Buffer.LineBuf = nil
	}
}

func (a *windowAdapter) AcceptChar(value uint32) {
	if a.w.Grid != nil {
		a.w.Grid.CharRequest = false
		return
	}
	if a.w.Buffer != nil {
		a.w.Buffer.CharRequest = false
	}
}

func (a *windowAdapter) AcceptHyperlink(linkVal uint32) {
	if a.w.Grid != nil {
		a.w.Grid.HyperlinkRequest = false
		return
	}
	if a.w.Buffer != nil {
		a.w.Buffer.HyperlinkRequest = false
	}
}

var _ evloop.Window = (*windowAdapter)(nil)
