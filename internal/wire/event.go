package wire

import (
	"fmt"

	"github.com/rglk/remglk/internal/keycode"
)

// EventKind is the closed set of event types the client may send (spec §4.2).
type EventKind string

const (
	EvInit            EventKind = "init"
	EvRefresh         EventKind = "refresh"
	EvArrange         EventKind = "arrange"
	EvRedraw          EventKind = "redraw"
	EvLine            EventKind = "line"
	EvChar            EventKind = "char"
	EvHyperlink       EventKind = "hyperlink"
	EvMouse           EventKind = "mouse"
	EvTimer           EventKind = "timer"
	EvSpecialResponse EventKind = "specialresponse"
	EvDebugInput      EventKind = "debuginput"
	EvUnknown         EventKind = ""
)

// InEvent is a parsed client->library event.
type InEvent struct {
	Kind   EventKind
	Gen    int32
	Window uint32 // update-tag, 0 if absent

	Metrics     *Metrics     // init, arrange
	SupportCaps *SupportCaps // init

	LineValue      []rune // line, debuginput: the typed text
	Terminator     string // line: terminator key name, if any
	CharValue      uint32 // char: code point or special keycode
	LinkValue      uint32 // hyperlink: link id
	MouseX, MouseY int32  // mouse

	SpecialKind  string // specialresponse: "fileref_prompt"
	SpecialValue string // specialresponse: the typed filename, "" if cancelled
	SpecialWasObj bool  // specialresponse: value arrived as {filename:...} not a bare string
}

// ParseEvent converts a parsed JSON object into an InEvent. It validates
// only shape, not protocol-state preconditions (gen arbitration, "init
// must be first") — those are the event loop's job.
func ParseEvent(v Value) (*InEvent, error) {
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("event is not a JSON object")
	}
	typeStr, _ := obj.GetString("type")
	ev := &InEvent{Kind: EventKind(typeStr)}

	if gen, ok := obj.GetInt("gen"); ok {
		ev.Gen = int32(gen)
	} else if ev.Kind != EvRefresh {
		return nil, fmt.Errorf("event missing mandatory 'gen' field")
	}

	if w, ok := obj.GetInt("window"); ok {
		ev.Window = uint32(w)
	}

	switch ev.Kind {
	case EvInit:
		mobj, ok := obj.GetObject("metrics")
		if !ok {
			return nil, fmt.Errorf("init event missing 'metrics'")
		}
		m, err := ParseMetrics(mobj)
		if err != nil {
			return nil, err
		}
		ev.Metrics = m
		if supp, ok := obj.GetList("support"); ok {
			ev.SupportCaps = ParseSupportCaps(supp)
		} else {
			ev.SupportCaps = &SupportCaps{}
		}

	case EvArrange:
		mobj, ok := obj.GetObject("metrics")
		if !ok {
			return nil, fmt.Errorf("arrange event missing 'metrics'")
		}
		m, err := ParseMetrics(mobj)
		if err != nil {
			return nil, err
		}
		ev.Metrics = m

	case EvLine:
		if s, ok := obj.GetString("value"); ok {
			ev.LineValue = []rune(s)
		}
		if t, ok := obj.GetString("terminator"); ok {
			ev.Terminator = t
		}

	case EvChar:
		if s, ok := obj.GetString("value"); ok {
			ev.CharValue = decodeCharValue(s)
		}

	case EvHyperlink:
		if n, ok := obj.GetInt("value"); ok {
			ev.LinkValue = uint32(n)
		}

	case EvMouse:
		if n, ok := obj.GetInt("x"); ok {
			ev.MouseX = int32(n)
		}
		if n, ok := obj.GetInt("y"); ok {
			ev.MouseY = int32(n)
		}

	case EvSpecialResponse:
		if k, ok := obj.GetString("response"); ok {
			ev.SpecialKind = k
		}
		val, hasVal := obj.Get("value")
		if hasVal {
			switch vv := val.(type) {
			case Str:
				ev.SpecialValue = vv.String()
			case *Object:
				ev.SpecialWasObj = true
				if fn, ok := vv.GetString("filename"); ok {
					ev.SpecialValue = fn
				}
			}
		}

	case EvDebugInput:
		if s, ok := obj.GetString("value"); ok {
			ev.LineValue = []rune(s)
		}
	}

	return ev, nil
}

// decodeCharValue accepts either a one-character string (a printable code
// point) or a special-key name, per spec §4.2's char event shape.
func decodeCharValue(s string) uint32 {
	runes := []rune(s)
	if len(runes) == 1 {
		return uint32(runes[0])
	}
	return keycode.FromName(s)
}
