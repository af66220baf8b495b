package wintree

// BufferSize and BufferSlack bound how much text a text-buffer window
// keeps before trimming, matching rgwin_buf.c's BUFFER_SIZE/BUFFER_SLACK.
const (
	BufferSize  = 5000
	BufferSlack = 1000
)

// BufRun is a style run within the append-only character sequence: it
// applies from Pos up to (not including) the next run's Pos, or end of
// text for the last run.
type BufRun struct {
	Pos   int
	Style string
	Link  uint32
}

// BufSpecial is a non-text element (image, flow break) anchored at a
// position in the character sequence, per the sparse special-span list
// the original keeps alongside the run list.
type BufSpecial struct {
	Pos  int
	Span BufSpecialSpan
}

// BufSpecialSpan mirrors wire.SpecialSpan but lives in this package to
// avoid an import cycle; pkg/glk converts between the two.
type BufSpecialSpan struct {
	Kind          string
	Image         uint32
	Width, Height int32
	Align         string
	Link          uint32
}

// BufferData is a text-buffer window's content: an append-only rune
// sequence, its style runs, a sparse special-span list, and the
// bookkeeping needed to emit paragraph-shaped updates incrementally.
type BufferData struct {
	Chars    []rune
	Runs     []BufRun
	Specials []BufSpecial

	CurStyle string
	CurLink  uint32

	// dirty range: characters appended/changed since the last TakeUpdate
	dirtyBeg int // -1 if clean

	// emission bookkeeping: emittedUpTo is how much of Chars the client
	// has already seen; emittedOpenParagraph is true if the most recent
	// paragraph sent to the client did not end in '\n', so the next
	// batch of text for that paragraph must be an "append" rather than
	// a new paragraph entry.
	emittedUpTo          int
	emittedOpenParagraph bool

	ClearPending bool

	LineRequest bool
	LineBuf     []rune
	LineMaxLen  int

	lineFence      int
	linePriorStyle string

	CharRequest        bool
	CharRequestUnicode bool
	HyperlinkRequest   bool
}

// NewBuffer creates an empty text-buffer content.
func NewBuffer() *BufferData {
	return &BufferData{dirtyBeg: -1, CurStyle: "normal"}
}

// PutRune appends one character under the current style/link, per
// win_textbuffer_putchar.
func (b *BufferData) PutRune(r rune, style string) error {
	if len(b.Runs) == 0 || b.Runs[len(b.Runs)-1].Style != style {
		b.setLastRun(style)
	}
	pos := len(b.Chars)
	b.Chars = append(b.Chars, r)
	if b.dirtyBeg == -1 || pos < b.dirtyBeg {
		b.dirtyBeg = pos
	}
	return nil
}

// PutString appends each rune of s under style, a convenience wrapper
// for callers writing whole strings (glk_put_string and friends).
func (b *BufferData) PutString(s string, style string) error {
	for _, r := range s {
		if err := b.PutRune(r, style); err != nil {
			return err
		}
	}
	return nil
}

func (b *BufferData) setLastRun(style string) {
	pos := len(b.Chars)
	if len(b.Runs) > 0 && b.Runs[len(b.Runs)-1].Pos == pos {
		b.Runs[len(b.Runs)-1].Style = style
		b.Runs[len(b.Runs)-1].Link = b.CurLink
		return
	}
	b.Runs = append(b.Runs, BufRun{Pos: pos, Style: style, Link: b.CurLink})
}

// MarkAllDirty forces the next TakeUpdate to resend the whole buffer
// from the start, used when autorestore repopulates Chars/Runs directly
// without going through PutRune.
func (b *BufferData) MarkAllDirty() {
	if len(b.Chars) > 0 {
		b.dirtyBeg = 0
	}
	b.emittedUpTo = 0
	b.emittedOpenParagraph = false
}

// LineRequestPending implements streamio.WindowWriter.
func (b *BufferData) LineRequestPending() bool { return b.LineRequest }

// BeginLineInput imports initial text into the character sequence under
// the input style and records the fence position, per
// win_textbuffer_init_line.
func (b *BufferData) BeginLineInput(initial []rune) {
	b.linePriorStyle = b.CurStyle
	b.lineFence = len(b.Chars)
	b.CurStyle = "input"
	for _, r := range initial {
		b.PutRune(r, "input")
	}
}

// EndLineInput discards whatever was echoed from the fence onward,
// appends the final accepted text in its place, and restores the style
// in effect before the request — gli_stream_echo_line's echo-then-
// restore sequence from win_textbuffer_cancel_line.
func (b *BufferData) EndLineInput(value []rune) {
	b.Chars = b.Chars[:b.lineFence]
	if b.emittedUpTo > len(b.Chars) {
		b.emittedUpTo = len(b.Chars)
		b.emittedOpenParagraph = false
	}
	if b.dirtyBeg == -1 || b.lineFence < b.dirtyBeg {
		b.dirtyBeg = b.lineFence
	}
	b.truncateRunsAfter(b.lineFence)
	b.truncateSpecialsAfter(b.lineFence)
	for _, r := range value {
		b.PutRune(r, "input")
	}
	b.CurStyle = b.linePriorStyle
	b.setLastRun(b.linePriorStyle)
}

// truncateRunsAfter drops any style run that started inside content just
// discarded by EndLineInput; Runs is kept in increasing Pos order.
func (b *BufferData) truncateRunsAfter(pos int) {
	n := 0
	for _, r := range b.Runs {
		if r.Pos > pos {
			break
		}
		n++
	}
	b.Runs = b.Runs[:n]
}

func (b *BufferData) truncateSpecialsAfter(pos int) {
	n := 0
	for _, s := range b.Specials {
		if s.Pos >= pos {
			break
		}
		n++
	}
	b.Specials = b.Specials[:n]
}

// PutSpecial inserts a non-text element at the current write position.
func (b *BufferData) PutSpecial(span BufSpecialSpan) {
	pos := len(b.Chars)
	b.Specials = append(b.Specials, BufSpecial{Pos: pos, Span: span})
	if b.dirtyBeg == -1 || pos < b.dirtyBeg {
		b.dirtyBeg = pos
	}
}

// Clear empties the buffer, per win_textbuffer_clear. The client is
// expected to discard its own display and start fresh; ClearPending
// signals that to the update builder.
func (b *BufferData) Clear() {
	b.Chars = nil
	b.Runs = []BufRun{{Pos: 0, Style: b.CurStyle}}
	b.Specials = nil
	b.dirtyBeg = -1
	b.emittedUpTo = 0
	b.emittedOpenParagraph = false
	b.ClearPending = true
}

// Paragraph is one unit of emitted content: a run of styled text runs
// (and/or specials, carried in Specials) that either
// appends to the previously emitted open paragraph or starts a new one.
type Paragraph struct {
	Append    bool
	Flowbreak bool
	Runs      []BufRun // relative text runs with .Pos as an offset into Text
	Text      []rune
	Specials  []BufSpecial // positions relative to this paragraph's start
}

// TakeUpdate returns the paragraphs to send for the dirty region since
// the last call, plus whether the window should be cleared first, then
// resets dirty tracking. Grounded on updatetext's newline-boundary
// backup/advance logic, simplified to the JSON-paragraph delivery model:
// a paragraph is a run of characters with no embedded '\n'.
func (b *BufferData) TakeUpdate() (paragraphs []Paragraph, clear bool) {
	clear = b.ClearPending
	b.ClearPending = false

	if b.dirtyBeg == -1 {
		return nil, clear
	}

	start := b.emittedUpTo
	if clear {
		start = 0
	}
	if b.dirtyBeg < start {
		start = b.dirtyBeg
	}

	text := b.Chars[start:]
	pos := start
	first := true
	for len(text) > 0 {
		nl := indexRune(text, '\n')
		var chunk []rune
		if nl < 0 {
			chunk = text
			text = nil
		} else {
			chunk = text[:nl]
			text = text[nl+1:]
		}

		p := Paragraph{
			Append: first && !clear && b.emittedOpenParagraph,
			Text:   append([]rune(nil), chunk...),
		}
		p.Runs = b.runsInRange(pos, pos+len(chunk))
		p.Specials = b.specialsInRange(pos, pos+len(chunk))
		paragraphs = append(paragraphs, p)

		pos += len(chunk)
		if nl >= 0 {
			pos++ // consume the newline
			b.emittedOpenParagraph = false
		} else {
			b.emittedOpenParagraph = true
		}
		first = false
	}

	b.emittedUpTo = len(b.Chars)
	b.dirtyBeg = -1
	return paragraphs, clear
}

func indexRune(rs []rune, target rune) int {
	for i, r := range rs {
		if r == target {
			return i
		}
	}
	return -1
}

func (b *BufferData) runsInRange(beg, end int) []BufRun {
	var out []BufRun
	style := b.styleAt(beg)
	out = append(out, BufRun{Pos: 0, Style: style})
	for _, r := range b.Runs {
		if r.Pos > beg && r.Pos < end {
			out = append(out, BufRun{Pos: r.Pos - beg, Style: r.Style, Link: r.Link})
		}
	}
	return out
}

func (b *BufferData) styleAt(pos int) string {
	style := "normal"
	for _, r := range b.Runs {
		if r.Pos > pos {
			break
		}
		style = r.Style
	}
	return style
}

func (b *BufferData) specialsInRange(beg, end int) []BufSpecial {
	var out []BufSpecial
	for _, s := range b.Specials {
		if s.Pos >= beg && s.Pos < end {
			out = append(out, BufSpecial{Pos: s.Pos - beg, Span: s.Span})
		}
	}
	return out
}

// Trim drops the oldest characters once the buffer grows past
// BufferSize+BufferSlack, per win_textbuffer_trim_buffer. It never
// trims past what's already been emitted or is still dirty, so no
// pending update is corrupted.
func (b *BufferData) Trim() {
	if len(b.Chars) <= BufferSize+BufferSlack {
		return
	}
	trim := len(b.Chars) - BufferSize
	if b.dirtyBeg != -1 && trim > b.dirtyBeg {
		trim = b.dirtyBeg
	}
	if trim > b.emittedUpTo {
		trim = b.emittedUpTo
	}
	if trim <= 0 {
		return
	}

	b.Chars = append([]rune(nil), b.Chars[trim:]...)
	for i := range b.Runs {
		b.Runs[i].Pos -= trim
	}
	b.Runs = dropNegative(b.Runs)
	for i := range b.Specials {
		b.Specials[i].Pos -= trim
	}
	b.Specials = dropNegativeSpecials(b.Specials)

	if b.dirtyBeg != -1 {
		b.dirtyBeg -= trim
	}
	b.emittedUpTo -= trim
}

func dropNegative(runs []BufRun) []BufRun {
	out := runs[:0]
	for _, r := range runs {
		if r.Pos < 0 {
			r.Pos = 0
		}
		out = append(out, r)
	}
	return out
}

func dropNegativeSpecials(specials []BufSpecial) []BufSpecial {
	var out []BufSpecial
	for _, s := range specials {
		if s.Pos < 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}
