package glk

import (
	"github.com/rglk/remglk/internal/wintree"
	"github.com/rglk/remglk/internal/wire"
)

// BuildUpdate implements evloop.Callbacks: it bumps the generation
// counter once (matching the original's "gen increments once per
// update emission"), walks the window tree for content deltas, and
// reports any pending input requests.
func (l *Library) BuildUpdate(special *wire.SpecialInputDesc) *wire.Update {
	l.generation++

	u := &wire.Update{Gen: l.generation, SpecialInput: special}
	if l.treeChanged {
		u.Windows = l.windowDescs()
		l.treeChanged = false
	}

	l.forEachLeaf(func(w *wintree.Window) {
		if cd := contentForWindow(w); cd != nil {
			u.Content = append(u.Content, *cd)
		}
		if in := l.inputForWindow(w); in != nil {
			u.Input = append(u.Input, *in)
		}
	})

	return u
}

func (l *Library) windowDescs() []wire.WindowDesc {
	var out []wire.WindowDesc
	var walk func(*wintree.Window)
	walk = func(w *wintree.Window) {
		if w == nil {
			return
		}
		out = append(out, wire.WindowDesc{
			ID: w.Tag, Type: w.Type.String(), Rock: w.Rock,
			Left: w.BBox.Left, Top: w.BBox.Top,
			Width: w.BBox.Width(), Height: w.BBox.Height(),
		})
		if w.Type == wintree.TypePair {
			walk(w.Pair.Child1)
			walk(w.Pair.Child2)
		}
	}
	walk(l.tree.Root)
	return out
}

func contentForWindow(w *wintree.Window) *wire.ContentDesc {
	switch w.Type {
	case wintree.TypeTextGrid:
		lines := w.Grid.TakeDirtyLines()
		if len(lines) == 0 {
			return nil
		}
		cd := &wire.ContentDesc{ID: w.Tag}
		for _, l := range lines {
			cd.Lines = append(cd.Lines, gridLineToWire(l))
		}
		return cd

	case wintree.TypeTextBuffer:
		paras, clear := w.Buffer.TakeUpdate()
		if len(paras) == 0 && !clear {
			return nil
		}
		cd := &wire.ContentDesc{ID: w.Tag, Clear: clear}
		for _, p := range paras {
			cd.Paragraphs = append(cd.Paragraphs, paragraphToWire(p))
		}
		return cd

	case wintree.TypeGraphics:
		ops, cleared := w.Graphics.TakeOps()
		if len(ops) == 0 && !cleared {
			return nil
		}
		cd := &wire.ContentDesc{ID: w.Tag, Clear: cleared}
		for _, op := range ops {
			cd.Draw = append(cd.Draw, graphicsOpToWire(op))
		}
		return cd

	default:
		return nil
	}
}

func gridLineToWire(l wintree.GridUpdateLine) wire.GridLine {
	gl := wire.GridLine{Line: int32(l.Row)}
	if len(l.Chars) == 0 {
		return gl
	}
	style := l.Style[0]
	start := 0
	flush := func(end int) {
		gl.Content = append(gl.Content, wire.GridSpan{
			Style: style,
			Text:  append([]rune(nil), l.Chars[start:end]...),
			Link:  l.Link[start],
		})
	}
	for i := 1; i < len(l.Chars); i++ {
		if l.Style[i] != style || l.Link[i] != l.Link[start] {
			flush(i)
			style = l.Style[i]
			start = i
		}
	}
	flush(len(l.Chars))
	return gl
}

func paragraphToWire(p wintree.Paragraph) wire.TextBufParagraph {
	tp := wire.TextBufParagraph{Append: p.Append, Flowbreak: p.Flowbreak}
	pos := 0
	for i, r := range p.Runs {
		end := len(p.Text)
		if i+1 < len(p.Runs) {
			end = p.Runs[i+1].Pos
		}
		tp.Content = append(tp.Content, wire.TextRun{
			Style: r.Style,
			Text:  append([]rune(nil), p.Text[pos:end]...),
			Link:  r.Link,
		})
		pos = end
	}
	return tp
}

func graphicsOpToWire(op wintree.GraphicsOp) wire.SpecialSpan {
	switch op.Kind {
	case "image":
		return wire.SpecialSpan{Kind: "image", Image: op.Image, Width: op.Width, Height: op.Height, HasPos: true, X: op.X, Y: op.Y}
	default:
		return wire.SpecialSpan{Kind: "fill", Color: op.Color, HasPos: op.Width != 0 || op.Height != 0, X: op.X, Y: op.Y, Width: op.Width, Height: op.Height}
	}
}

// inputForWindow reports a window's pending input request, per
// gli_windows_update's input loop: char takes priority over line, and a
// hyperlink request attaches to whichever of those exists (or stands
// alone, with no "type", if neither does).
func (l *Library) inputForWindow(w *wintree.Window) *wire.InputDesc {
	var in *wire.InputDesc
	switch w.Type {
	case wintree.TypeTextGrid:
		g := w.Grid
		switch {
		case g.CharRequest:
			in = &wire.InputDesc{ID: w.Tag, Gen: l.generation, Type: "char", XPos: int32(g.CurX), YPos: int32(g.CurY)}
		case g.LineRequest:
			in = &wire.InputDesc{ID: w.Tag, Gen: l.generation, Type: "line", MaxLen: int32(g.LineMaxLen), XPos: int32(g.CurX), YPos: int32(g.CurY)}
		}
		if g.HyperlinkRequest {
			if in == nil {
				in = &wire.InputDesc{ID: w.Tag, Gen: l.generation}
			}
			in.Hyperlink = true
		}

	case wintree.TypeTextBuffer:
		b := w.Buffer
		switch {
		case b.CharRequest:
			in = &wire.InputDesc{ID: w.Tag, Gen: l.generation, Type: "char"}
		case b.LineRequest:
			in = &wire.InputDesc{ID: w.Tag, Gen: l.generation, Type: "line", MaxLen: int32(b.LineMaxLen)}
		}
		if b.HyperlinkRequest {
			if in == nil {
				in = &wire.InputDesc{ID: w.Tag, Gen: l.generation}
			}
			in.Hyperlink = true
		}
	}
	return in
}
