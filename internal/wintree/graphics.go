package wintree

// GraphicsOp is one queued drawing operation: fill, image draw, or
// erase, mirroring the draw-list the original accumulates between
// updates in rgwin_graph.c.
type GraphicsOp struct {
	Kind   string // "fill", "image", "setcolor"
	Color  uint32
	X, Y, Width, Height int32
	Image  uint32
	Align  string
}

// GraphicsData is a graphics window's content: current pixel
// dimensions and the ops queued since the last update.
type GraphicsData struct {
	Width, Height int32
	Ops           []GraphicsOp
	Cleared       bool
	BackgroundColor uint32
}

// NewGraphics creates an empty graphics window content.
func NewGraphics() *GraphicsData {
	return &GraphicsData{}
}

// Resize records new pixel dimensions and forces a clear, matching the
// original's behaviour of erasing a graphics window on resize.
func (g *GraphicsData) Resize(w, h int32) {
	if w == g.Width && h == g.Height {
		return
	}
	g.Width, g.Height = w, h
	g.Clear()
}

// Clear erases the window and discards any queued ops, per
// glk_window_clear on a graphics window.
func (g *GraphicsData) Clear() {
	g.Ops = nil
	g.Cleared = true
}

// FillRect queues a filled-rectangle op. A zero-size rect (width==0 &&
// height==0) means "the whole window", per glk_window_fill_rect.
func (g *GraphicsData) FillRect(color uint32, x, y, w, h int32) {
	g.Ops = append(g.Ops, GraphicsOp{Kind: "fill", Color: color, X: x, Y: y, Width: w, Height: h})
}

// SetBackgroundColor records the background colour for future clears.
func (g *GraphicsData) SetBackgroundColor(color uint32) {
	g.BackgroundColor = color
}

// DrawImage queues an image-draw op at the given position and size.
func (g *GraphicsData) DrawImage(image uint32, x, y, w, h int32) {
	g.Ops = append(g.Ops, GraphicsOp{Kind: "image", Image: image, X: x, Y: y, Width: w, Height: h})
}

// TakeOps returns and clears the queued ops plus whether a clear
// happened since the last call.
func (g *GraphicsData) TakeOps() (ops []GraphicsOp, cleared bool) {
	ops, cleared = g.Ops, g.Cleared
	g.Ops, g.Cleared = nil, false
	return ops, cleared
}
