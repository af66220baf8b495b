package wire

// Update is the single JSON object the library emits after processing an
// event (spec §4.2, §6): the window tree (if it changed), per-window
// content deltas, and the input requests currently pending.
type Update struct {
	Gen         int32
	Windows     []WindowDesc // nil if the tree didn't change this turn
	Content     []ContentDesc
	Input       []InputDesc
	SpecialInput *SpecialInputDesc
}

// WindowDesc places one window in the tree, spec §4.4/§4.5.
type WindowDesc struct {
	ID     uint32
	Type   string // "grid", "buffer", "graphics", "pair"
	Rock   uint32
	Left   int32
	Top    int32
	Width  int32
	Height int32
}

// GridLine is one changed row of a text-grid window's content.
type GridLine struct {
	Line int32
	Content []GridSpan
}

// GridSpan is a run of same-style characters within a grid line.
type GridSpan struct {
	Style string
	Text  []rune
	Link  uint32 // 0 if none
}

// TextRun is a run of same-style text within a text-buffer paragraph.
type TextRun struct {
	Style string
	Text  []rune
	Link  uint32 // 0 if none
}

// SpecialSpan is a non-text element embedded in a text-buffer content
// stream, or a drawing primitive in a graphics window's content stream
// (spec §4.7/§4.9): an inline image, or a flow break.
type SpecialSpan struct {
	Kind string // "image", "flowbreak", "fill", "setcolor"
	// image
	Image  uint32
	Width  int32
	Height int32
	Align  string
	Link   uint32
	// fill / setcolor (graphics window)
	Color        uint32
	X, Y         int32
	HasPos       bool
}

// ContentDesc carries one window's content delta, spec §4.6/§4.7/§4.9.
type ContentDesc struct {
	ID    uint32
	Clear bool

	// grid
	Lines []GridLine

	// buffer
	Paragraphs []TextBufParagraph

	// graphics
	Draw []SpecialSpan
}

// TextBufParagraph is one paragraph-update entry in a text-buffer's
// content delta: either "append" (continues the last existing paragraph)
// or a brand new paragraph appended after it.
type TextBufParagraph struct {
	Append  bool
	Content []TextRun
	Flowbreak bool
}

// InputDesc is one pending input request, spec §4.2/§4.8.
type InputDesc struct {
	ID         uint32
	Type       string // "line" or "char"
	Gen        int32
	MaxLen     int32  // line only
	Initial    []rune // line only
	Hyperlink  bool
	TerminatorsSet []string // line only: which special keys end input
	// grid-window line input cursor position, absent (both zero) for buffer windows
	XPos, YPos int32
}

// SpecialInputDesc requests an out-of-band prompt (spec §4.2's
// "specialinput" request, e.g. a fileref-browser prompt) rather than a
// window input.
type SpecialInputDesc struct {
	Type string // "fileref_prompt"
	FileType string
	FileMode string
}

// ToValue serialises an Update to the wire JSON shape.
func (u *Update) ToValue() Value {
	o := NewObject()
	o.SetString("type", "update")
	o.SetInt("gen", int64(u.Gen))

	if u.Windows != nil {
		wins := List{}
		for _, w := range u.Windows {
			wins = append(wins, w.toValue())
		}
		o.Set("windows", wins)
	}

	content := List{}
	for _, c := range u.Content {
		content = append(content, c.toValue())
	}
	o.Set("content", content)

	input := List{}
	for _, in := range u.Input {
		input = append(input, in.toValue())
	}
	o.Set("input", input)

	if u.SpecialInput != nil {
		si := NewObject()
		si.SetString("type", u.SpecialInput.Type)
		if u.SpecialInput.FileType != "" {
			si.SetString("filetype", u.SpecialInput.FileType)
		}
		if u.SpecialInput.FileMode != "" {
			si.SetString("filemode", u.SpecialInput.FileMode)
		}
		o.Set("specialinput", si)
	}

	return o
}

func (w *WindowDesc) toValue() Value {
	o := NewObject()
	o.SetInt("id", int64(w.ID))
	o.SetString("type", w.Type)
	o.SetInt("rock", int64(w.Rock))
	o.SetInt("left", int64(w.Left))
	o.SetInt("top", int64(w.Top))
	o.SetInt("width", int64(w.Width))
	o.SetInt("height", int64(w.Height))
	return o
}

func (g *GridSpan) toValue() Value {
	o := NewObject()
	o.SetString("style", g.Style)
	o.SetString("text", string(g.Text))
	if g.Link != 0 {
		o.SetInt("hyperlink", int64(g.Link))
	}
	return o
}

func (t *TextRun) toValue() Value {
	o := NewObject()
	o.SetString("style", t.Style)
	o.SetString("text", string(t.Text))
	if t.Link != 0 {
		o.SetInt("hyperlink", int64(t.Link))
	}
	return o
}

func (s *SpecialSpan) toValue() Value {
	o := NewObject()
	o.SetString("special", s.Kind)
	switch s.Kind {
	case "image":
		o.SetInt("image", int64(s.Image))
		o.SetInt("width", int64(s.Width))
		o.SetInt("height", int64(s.Height))
		if s.Align != "" {
			o.SetString("alignment", s.Align)
		}
		if s.Link != 0 {
			o.SetInt("hyperlink", int64(s.Link))
		}
		if s.HasPos {
			o.SetInt("x", int64(s.X))
			o.SetInt("y", int64(s.Y))
		}
	case "fill":
		o.SetInt("color", int64(s.Color))
		if s.HasPos {
			o.SetInt("x", int64(s.X))
			o.SetInt("y", int64(s.Y))
			o.SetInt("width", int64(s.Width))
			o.SetInt("height", int64(s.Height))
		}
	case "setcolor":
		o.SetInt("color", int64(s.Color))
	}
	return o
}

func (c *ContentDesc) toValue() Value {
	o := NewObject()
	o.SetInt("id", int64(c.ID))
	if c.Clear {
		o.SetBool("clear", true)
	}

	if c.Lines != nil {
		lines := List{}
		for _, l := range c.Lines {
			lo := NewObject()
			lo.SetInt("line", int64(l.Line))
			spans := List{}
			for i := range l.Content {
				spans = append(spans, l.Content[i].toValue())
			}
			lo.Set("content", spans)
			lines = append(lines, lo)
		}
		o.Set("lines", lines)
	}

	if c.Paragraphs != nil {
		text := List{}
		for _, p := range c.Paragraphs {
			po := NewObject()
			if p.Append {
				po.SetBool("append", true)
			}
			if p.Flowbreak {
				po.SetBool("flowbreak", true)
			}
			spans := List{}
			for i := range p.Content {
				spans = append(spans, p.Content[i].toValue())
			}
			po.Set("content", spans)
			text = append(text, po)
		}
		o.Set("text", text)
	}

	if c.Draw != nil {
		draw := List{}
		for i := range c.Draw {
			draw = append(draw, c.Draw[i].toValue())
		}
		o.Set("draw", draw)
	}

	return o
}

func (in *InputDesc) toValue() Value {
	o := NewObject()
	o.SetInt("id", int64(in.ID))
	if in.Type != "" {
		o.SetString("type", in.Type)
	}
	o.SetInt("gen", int64(in.Gen))
	if in.Type == "line" {
		o.SetInt("maxlen", int64(in.MaxLen))
		if len(in.Initial) > 0 {
			o.SetString("initial", string(in.Initial))
		}
		if len(in.TerminatorsSet) > 0 {
			terms := List{}
			for _, t := range in.TerminatorsSet {
				terms = append(terms, NewString(t))
			}
			o.Set("terminators", terms)
		}
	}
	if in.XPos != 0 || in.YPos != 0 {
		o.SetInt("xpos", int64(in.XPos))
		o.SetInt("ypos", int64(in.YPos))
	}
	if in.Hyperlink {
		o.SetBool("hyperlink", true)
	}
	return o
}
