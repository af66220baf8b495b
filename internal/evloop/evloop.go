// Package evloop implements the glk_select state machine: it writes an
// update after every turn (except right after an autorestore), reads
// client events until one resolves to a real Glk event, and arbitrates
// the generation counter. Grounded on rgevent.c's glk_select/
// glk_select_poll/gli_select_metrics/gli_select_specialrequest.
package evloop

import (
	"fmt"
	"time"

	"github.com/rglk/remglk/internal/keycode"
	"github.com/rglk/remglk/internal/wire"
	"github.com/rglk/remglk/pkg/debugcmd"
)

// EventType is the Glk event type returned from Select, matching
// evtype_* constants.
type EventType uint32

const (
	EvtNone EventType = iota
	EvtTimer
	EvtCharInput
	EvtLineInput
	EvtMouseInput
	EvtArrange
	EvtRedraw
	EvtHyperlink
	EvtSoundNotify
	EvtVolumeNotify
)

// Sentinel last-event-type values, mirroring glkunix_get_last_event_type's
// documented 0xFFFFFFFF/0xFFFFFFFE special returns.
const (
	NeverStarted     uint32 = 0xFFFFFFFF
	JustAutorestored uint32 = 0xFFFFFFFE
)

// Event is one resolved Glk event.
type Event struct {
	Type   EventType
	Window uint32
	Val1   uint32
	Val2   uint32
}

// Window is the subset of window behavior the event loop needs to
// dispatch input to, implemented by pkg/glk's window wrapper.
type Window interface {
	Tag() uint32
	LineRequestPending() bool
	CharRequestPending() bool
	CharRequestUnicode() bool
	HyperlinkRequestPending() bool
	AcceptLine(value []rune, terminator string)
	AcceptChar(value uint32)
	AcceptHyperlink(linkVal uint32)
}

// Callbacks lets the event loop drive the rest of the library without
// depending on its concrete types.
type Callbacks interface {
	CurrentGeneration() int32
	BuildUpdate(special *wire.SpecialInputDesc) *wire.Update
	RefreshAll()
	ApplyMetrics(m *wire.Metrics)
	ApplySupportCaps(c *wire.SupportCaps)
	TrimBuffers()
	FindWindow(tag uint32) (Window, bool)
}

// Loop owns the decode/encode streams and timing state for one session.
type Loop struct {
	dec *wire.Decoder
	enc *wire.Encoder
	cb  Callbacks

	lastEventType uint32

	timingMsec     int32
	lastTimingMsec int32
	timingStart    time.Time

	debug debugcmd.Handler
}

// SetDebugHandler installs the handler for "debuginput" events. Without
// one, debug-console lines are silently ignored, matching the original's
// fall-through to default handling when no debugger is compiled in.
func (l *Loop) SetDebugHandler(h debugcmd.Handler) { l.debug = h }

// New builds a Loop. dec/enc should be wrapped around the process's
// stdin/stdout (or a pipe, for tests).
func New(dec *wire.Decoder, enc *wire.Encoder, cb Callbacks) *Loop {
	return &Loop{dec: dec, enc: enc, cb: cb, lastEventType: NeverStarted}
}

// SelectMetrics blocks for the mandatory first "init" event, per
// gli_select_metrics, and returns the metrics/support caps it carried.
func (l *Loop) SelectMetrics() (*wire.Metrics, *wire.SupportCaps, error) {
	v, err := l.dec.Decode()
	if err != nil {
		return nil, nil, err
	}
	ev, err := wire.ParseEvent(v)
	if err != nil {
		return nil, nil, err
	}
	if ev.Kind != wire.EvInit {
		return nil, nil, fmt.Errorf("evloop: first input event must be 'init', got %q", ev.Kind)
	}
	l.lastEventType = uint32(EvtArrange)
	caps := ev.SupportCaps
	if caps == nil {
		caps = &wire.SupportCaps{}
	}
	return ev.Metrics, caps, nil
}

// MarkJustAutorestored sets the sentinel that suppresses the next
// pre-select update emission, per the original's autorestore flow.
func (l *Loop) MarkJustAutorestored() {
	l.lastEventType = JustAutorestored
}

// Select runs the full wait-for-a-real-event loop.
func (l *Loop) Select() (*Event, error) {
	if l.lastEventType != JustAutorestored {
		if err := l.enc.Encode(l.cb.BuildUpdate(nil).ToValue()); err != nil {
			return nil, err
		}
	}

	for {
		v, err := l.dec.Decode()
		if err != nil {
			return nil, err
		}
		ev, err := wire.ParseEvent(v)
		if err != nil {
			return nil, err
		}

		if ev.Kind != wire.EvRefresh && ev.Gen != l.cb.CurrentGeneration() {
			return nil, fmt.Errorf("evloop: input generation number does not match (got %d, want %d)", ev.Gen, l.cb.CurrentGeneration())
		}

		result, handled, err := l.dispatch(ev)
		if err != nil {
			return nil, err
		}
		if handled {
			l.cb.TrimBuffers()
			l.lastEventType = uint32(result.Type)
			return result, nil
		}
	}
}

// dispatch processes one client event. handled is true if it resolved
// glk_select (a real event occurred); otherwise the loop keeps reading.
func (l *Loop) dispatch(ev *wire.InEvent) (*Event, bool, error) {
	switch ev.Kind {
	case wire.EvRefresh:
		l.cb.RefreshAll()
		if err := l.enc.Encode(l.cb.BuildUpdate(nil).ToValue()); err != nil {
			return nil, false, err
		}
		return nil, false, nil

	case wire.EvArrange:
		l.cb.ApplyMetrics(ev.Metrics)
		return &Event{Type: EvtArrange}, true, nil

	case wire.EvRedraw:
		return &Event{Type: EvtRedraw, Window: ev.Window}, true, nil

	case wire.EvLine:
		win, ok := l.cb.FindWindow(ev.Window)
		if !ok || !win.LineRequestPending() {
			return nil, false, nil
		}
		win.AcceptLine(ev.LineValue, ev.Terminator)
		var term uint32
		if ev.Terminator != "" {
			term = keycode.FromName(ev.Terminator)
		}
		return &Event{Type: EvtLineInput, Window: ev.Window, Val1: uint32(len(ev.LineValue)), Val2: term}, true, nil

	case wire.EvChar:
		win, ok := l.cb.FindWindow(ev.Window)
		if !ok || !win.CharRequestPending() {
			return nil, false, nil
		}
		val := ev.CharValue
		if !win.CharRequestUnicode() {
			if val >= 256 && !isSpecialKeycode(val) {
				val = '?'
			}
		}
		win.AcceptChar(val)
		return &Event{Type: EvtCharInput, Window: ev.Window, Val1: val}, true, nil

	case wire.EvHyperlink:
		win, ok := l.cb.FindWindow(ev.Window)
		if !ok || !win.HyperlinkRequestPending() {
			return nil, false, nil
		}
		win.AcceptHyperlink(ev.LinkValue)
		return &Event{Type: EvtHyperlink, Window: ev.Window, Val1: ev.LinkValue}, true, nil

	case wire.EvTimer:
		l.timingStart = time.Now()
		return &Event{Type: EvtTimer}, true, nil

	case wire.EvDebugInput:
		if l.debug == nil {
			return nil, false, nil
		}
		l.debug.PerformCommand(string(ev.LineValue))
		if err := l.enc.Encode(l.cb.BuildUpdate(nil).ToValue()); err != nil {
			return nil, false, err
		}
		return nil, false, nil

	default:
		return &Event{Type: EvtNone}, true, nil
	}
}

func isSpecialKeycode(val uint32) bool {
	return val >= 0xFFFFFFFF-30
}

// SelectSpecialRequest blocks for a specialresponse event (a fileref
// prompt answer), per gli_select_specialrequest. It returns the typed
// string (possibly empty) and whether the user cancelled.
func (l *Loop) SelectSpecialRequest(req *wire.SpecialInputDesc) (value string, cancelled bool, err error) {
	if l.lastEventType != JustAutorestored {
		if err := l.enc.Encode(l.cb.BuildUpdate(req).ToValue()); err != nil {
			return "", false, err
		}
	}

	for {
		v, err := l.dec.Decode()
		if err != nil {
			return "", false, err
		}
		ev, err := wire.ParseEvent(v)
		if err != nil {
			return "", false, err
		}
		if ev.Gen != l.cb.CurrentGeneration() {
			return "", false, fmt.Errorf("evloop: input generation number does not match")
		}
		if ev.Kind != wire.EvSpecialResponse {
			continue
		}
		l.lastEventType = uint32(EvtNone)
		if !ev.SpecialWasObj && ev.SpecialValue == "" {
			return "", true, nil
		}
		return ev.SpecialValue, false, nil
	}
}

// RequestTimerEvents implements glk_request_timer_events: it only takes
// effect if the client declared timer support.
func (l *Loop) RequestTimerEvents(msec int32, timerSupported bool) {
	if !timerSupported {
		return
	}
	l.timingMsec = msec
	l.timingStart = time.Now()
}

// TimerNeedsUpdate reports whether the timer request changed since the
// last call (used to decide whether to include a "timer" field in the
// next update), per gli_timer_need_update.
func (l *Loop) TimerNeedsUpdate() (msec int32, changed bool) {
	if l.lastTimingMsec != l.timingMsec {
		l.lastTimingMsec = l.timingMsec
		return l.timingMsec, true
	}
	return 0, false
}

// LastEventType exposes the sentinel for autosave (which must record
// whether the session never started / just restored).
func (l *Loop) LastEventType() uint32 { return l.lastEventType }

// SetLastEventType is used by autorestore to reinstall a saved sentinel.
func (l *Loop) SetLastEventType(t uint32) { l.lastEventType = t }

// Pause blocks, accepting only debuginput events, until the debug
// handler signals resume. Mirrors gidebug_pause's dedicated debug-only
// wait loop, used at a breakpoint rather than at glk_select.
func (l *Loop) Pause() error {
	if l.debug == nil {
		return nil
	}
	for {
		if err := l.enc.Encode(l.cb.BuildUpdate(nil).ToValue()); err != nil {
			return err
		}
		v, err := l.dec.Decode()
		if err != nil {
			return err
		}
		ev, err := wire.ParseEvent(v)
		if err != nil {
			return err
		}
		if ev.Kind != wire.EvDebugInput {
			continue
		}
		if l.debug.PerformCommand(string(ev.LineValue)) {
			return nil
		}
	}
}
