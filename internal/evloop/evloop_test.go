package evloop

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rglk/remglk/internal/wire"
)

type fakeWindow struct {
	tag         uint32
	lineReq     bool
	accepted    []rune
	terminator  string
}

func (w *fakeWindow) Tag() uint32                   { return w.tag }
func (w *fakeWindow) LineRequestPending() bool       { return w.lineReq }
func (w *fakeWindow) CharRequestPending() bool       { return false }
func (w *fakeWindow) CharRequestUnicode() bool       { return false }
func (w *fakeWindow) HyperlinkRequestPending() bool  { return false }
func (w *fakeWindow) AcceptLine(value []rune, terminator string) {
	w.lineReq = false
	w.accepted = value
	w.terminator = terminator
}
func (w *fakeWindow) AcceptChar(value uint32)      {}
func (w *fakeWindow) AcceptHyperlink(linkVal uint32) {}

type fakeCallbacks struct {
	gen     int32
	win     *fakeWindow
	updates int
}

func (c *fakeCallbacks) CurrentGeneration() int32 { return c.gen }
func (c *fakeCallbacks) BuildUpdate(special *wire.SpecialInputDesc) *wire.Update {
	c.updates++
	return &wire.Update{Gen: c.gen}
}
func (c *fakeCallbacks) RefreshAll()                        {}
func (c *fakeCallbacks) ApplyMetrics(m *wire.Metrics)       {}
func (c *fakeCallbacks) ApplySupportCaps(cp *wire.SupportCaps) {}
func (c *fakeCallbacks) TrimBuffers()                       {}
func (c *fakeCallbacks) FindWindow(tag uint32) (Window, bool) {
	if c.win != nil && c.win.tag == tag {
		return c.win, true
	}
	return nil, false
}

func newTestLoop(cb Callbacks, eventsIn []byte) (*Loop, *bytes.Buffer) {
	var out bytes.Buffer
	dec := wire.NewDecoder(bytes.NewReader(eventsIn))
	enc := wire.NewEncoder(&out)
	return New(dec, enc, cb), &out
}

func encodeEvent(o *wire.Object) []byte {
	var buf bytes.Buffer
	enc := wire.NewEncoder(&buf)
	_ = enc.Encode(o)
	return buf.Bytes()
}

func lineEvent(window uint32, gen int32, value string) []byte {
	o := wire.NewObject()
	o.SetString("type", "line")
	o.SetInt("window", int64(window))
	o.SetInt("gen", int64(gen))
	o.SetString("value", value)
	return encodeEvent(o)
}

func TestSelectDeliversLineEvent(t *testing.T) {
	win := &fakeWindow{tag: 1, lineReq: true}
	cb := &fakeCallbacks{gen: 3, win: win}
	in := lineEvent(1, 3, "look")
	loop, out := newTestLoop(cb, in)

	ev, err := loop.Select()
	require.NoError(t, err)
	assert.Equal(t, EvtLineInput, ev.Type)
	assert.Equal(t, uint32(1), ev.Window)
	assert.Equal(t, []rune("look"), win.accepted)
	assert.Equal(t, 1, cb.updates, "Select must emit exactly one update before waiting")
	assert.NotZero(t, out.Len())
}

func TestSelectSkipsUpdateAfterAutorestore(t *testing.T) {
	win := &fakeWindow{tag: 1, lineReq: true}
	cb := &fakeCallbacks{gen: 1, win: win}
	in := lineEvent(1, 1, "x")
	loop, _ := newTestLoop(cb, in)
	loop.SetLastEventType(JustAutorestored)

	_, err := loop.Select()
	require.NoError(t, err)
	assert.Equal(t, 0, cb.updates, "the pre-wait update must be suppressed right after autorestore")
}

func TestSelectRejectsStaleGeneration(t *testing.T) {
	win := &fakeWindow{tag: 1, lineReq: true}
	cb := &fakeCallbacks{gen: 5, win: win}
	in := lineEvent(1, 2, "x")
	loop, _ := newTestLoop(cb, in)

	_, err := loop.Select()
	assert.Error(t, err)
}

func TestSelectIgnoresLineEventForWindowNotWaiting(t *testing.T) {
	win := &fakeWindow{tag: 1, lineReq: false}
	cb := &fakeCallbacks{gen: 1, win: win}

	var in bytes.Buffer
	in.Write(lineEvent(1, 1, "ignored"))
	in.Write(lineEvent(1, 1, "second"))

	loop, _ := newTestLoop(cb, in.Bytes())
	_, err := loop.Select()
	assert.Error(t, err, "both line events are dropped with no pending request, and Select keeps reading until the stream runs out")
}

func TestSelectMetricsRequiresInitFirst(t *testing.T) {
	cb := &fakeCallbacks{gen: 0}
	o := wire.NewObject()
	o.SetString("type", "line")
	o.SetInt("gen", 0)
	loop, _ := newTestLoop(cb, encodeEvent(o))

	_, _, err := loop.SelectMetrics()
	assert.Error(t, err)
}

func TestSelectMetricsParsesInit(t *testing.T) {
	cb := &fakeCallbacks{gen: 0}
	o := wire.NewObject()
	o.SetString("type", "init")
	o.SetInt("gen", 0)
	m := wire.NewObject()
	m.SetInt("width", 80)
	m.SetInt("height", 24)
	m.SetInt("gridcharwidth", 1)
	m.SetInt("gridcharheight", 1)
	m.SetInt("buffercharwidth", 1)
	m.SetInt("buffercharheight", 1)
	o.Set("metrics", m)
	loop, _ := newTestLoop(cb, encodeEvent(o))

	metrics, caps, err := loop.SelectMetrics()
	require.NoError(t, err)
	require.NotNil(t, metrics)
	assert.Equal(t, int32(80), metrics.Width)
	assert.NotNil(t, caps)
	assert.Equal(t, uint32(EvtArrange), loop.LastEventType())
}
