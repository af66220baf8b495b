package wintree

// GridLine is one row of a text-grid window's dense character buffer.
type GridLine struct {
	Chars []rune
	Style []string
	Link  []uint32
	DirtyBeg, DirtyEnd int // DirtyEnd == 0 means clean
}

// GridData is a text-grid window's content: a fixed-size dense grid of
// character cells plus cursor and line-input state, mirroring
// window_textgrid_t from rgwin_grid.c.
type GridData struct {
	Width, Height int
	CurX, CurY    int
	Lines         []GridLine

	DirtyBeg, DirtyEnd int // row range touched since the last update, -1/0 if clean

	LineRequest  bool
	LineBuf      []rune
	LineMaxLen   int
	LineUnicode  bool
	CurStyle     string

	lineFenceX, lineFenceY int
	linePriorStyle         string
	lineEchoLen            int

	CharRequest       bool
	CharRequestUnicode bool
	HyperlinkRequest  bool
}

// NewGrid creates an empty grid (0x0 until the first Resize).
func NewGrid() *GridData {
	return &GridData{DirtyBeg: -1, CurStyle: "normal"}
}

// Resize changes the grid's dimensions, preserving existing content
// where rows/columns overlap (per win_textgrid_rearrange).
func (g *GridData) Resize(rows, cols int) {
	if rows == g.Height && cols == g.Width {
		return
	}
	newLines := make([]GridLine, rows)
	for i := range newLines {
		newLines[i] = newGridLine(cols)
		if i < len(g.Lines) {
			copy(newLines[i].Chars, g.Lines[i].Chars)
			copy(newLines[i].Style, g.Lines[i].Style)
			copy(newLines[i].Link, g.Lines[i].Link)
		}
	}
	g.Lines = newLines
	g.Width, g.Height = cols, rows
	if g.CurX >= cols {
		g.CurX = 0
		g.CurY++
	}
	if g.CurY >= rows {
		g.CurY = rows - 1
	}
	g.markAllDirty()
}

func newGridLine(width int) GridLine {
	l := GridLine{
		Chars: make([]rune, width),
		Style: make([]string, width),
		Link:  make([]uint32, width),
	}
	for i := range l.Chars {
		l.Chars[i] = ' '
		l.Style[i] = "normal"
	}
	l.DirtyEnd = 0
	return l
}

func (g *GridData) markAllDirty() {
	g.DirtyBeg, g.DirtyEnd = 0, g.Height
	for i := range g.Lines {
		g.Lines[i].DirtyBeg, g.Lines[i].DirtyEnd = 0, g.Width
	}
}

func (g *GridData) markDirty(x, y int) {
	if g.DirtyBeg == -1 || y < g.DirtyBeg {
		g.DirtyBeg = y
	}
	if y+1 > g.DirtyEnd {
		g.DirtyEnd = y + 1
	}
	ln := &g.Lines[y]
	if ln.DirtyEnd == 0 || x < ln.DirtyBeg {
		ln.DirtyBeg = x
	}
	if x+1 > ln.DirtyEnd {
		ln.DirtyEnd = x + 1
	}
}

// PutRune writes one character at the cursor and advances it, wrapping
// to the next line (but not scrolling — grid windows never scroll).
func (g *GridData) PutRune(r rune, style string) error {
	if g.CurY < 0 || g.CurY >= g.Height {
		return nil
	}
	if r == '\n' {
		g.CurX = 0
		g.CurY++
		return nil
	}
	if g.CurX >= 0 && g.CurX < g.Width {
		ln := &g.Lines[g.CurY]
		ln.Chars[g.CurX] = r
		ln.Style[g.CurX] = style
		ln.Link[g.CurX] = 0
		g.markDirty(g.CurX, g.CurY)
		g.CurX++
	}
	if g.CurX >= g.Width {
		g.CurX = 0
		g.CurY++
	}
	return nil
}

// LineRequestPending implements streamio.WindowWriter.
func (g *GridData) LineRequestPending() bool { return g.LineRequest }

// BeginLineInput imports the initial text at the cursor under the input
// style and remembers where it started and what style preceded it, per
// win_textbuffer_init_line's infence/style_Input switch (grid windows
// apply the same cursor-position fence instead of a character offset).
func (g *GridData) BeginLineInput(initial []rune) {
	g.linePriorStyle = g.CurStyle
	g.lineFenceX, g.lineFenceY = g.CurX, g.CurY
	g.lineEchoLen = len(initial)
	g.CurStyle = "input"
	for _, r := range initial {
		g.PutRune(r, "input")
	}
}

// EndLineInput replaces whatever was echoed from the fence onward with
// the final accepted text, blanking any leftover cells if the accepted
// text is shorter than what was displayed, and restores the style in
// effect before the request, per win_textbuffer_cancel_line.
func (g *GridData) EndLineInput(value []rune) {
	g.CurX, g.CurY = g.lineFenceX, g.lineFenceY
	for _, r := range value {
		g.PutRune(r, "input")
	}
	for i := len(value); i < g.lineEchoLen; i++ {
		g.PutRune(' ', g.linePriorStyle)
	}
	g.CurStyle = g.linePriorStyle
}

// Clear blanks the whole grid and marks it fully dirty.
func (g *GridData) Clear() {
	for y := range g.Lines {
		for x := range g.Lines[y].Chars {
			g.Lines[y].Chars[x] = ' '
			g.Lines[y].Style[x] = "normal"
			g.Lines[y].Link[x] = 0
		}
	}
	g.CurX, g.CurY = 0, 0
	g.markAllDirty()
}

// MoveCursor repositions the cursor, clamping out-of-range coordinates
// to "off the grid" (further output is discarded) per glk_window_move_cursor.
func (g *GridData) MoveCursor(x, y int) {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		g.CurX, g.CurY = 0, g.Height
		return
	}
	g.CurX, g.CurY = x, y
}

// TakeDirtyLines returns the changed-line content since the last call
// and clears the dirty range, for building a content update.
func (g *GridData) TakeDirtyLines() []GridUpdateLine {
	if g.DirtyEnd <= g.DirtyBeg {
		return nil
	}
	var out []GridUpdateLine
	for y := g.DirtyBeg; y < g.DirtyEnd; y++ {
		ln := &g.Lines[y]
		if ln.DirtyEnd <= ln.DirtyBeg {
			continue
		}
		out = append(out, GridUpdateLine{
			Row:   y,
			Chars: append([]rune(nil), ln.Chars...),
			Style: append([]string(nil), ln.Style...),
			Link:  append([]uint32(nil), ln.Link...),
		})
		ln.DirtyBeg, ln.DirtyEnd = 0, 0
	}
	g.DirtyBeg, g.DirtyEnd = -1, 0
	return out
}

// GridUpdateLine is a snapshot of one row's content for emission.
type GridUpdateLine struct {
	Row   int
	Chars []rune
	Style []string
	Link  []uint32
}
