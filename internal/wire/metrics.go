package wire

import "fmt"

// Metrics mirrors data_metrics_struct (spec §4.2): screen dimensions, a
// character cell size and margin per pane type, and inter-pane spacings.
type Metrics struct {
	Width, Height               int32
	OutSpacingX, OutSpacingY     int32
	InSpacingX, InSpacingY       int32
	GridCharWidth, GridCharHeight     int32
	GridMarginX, GridMarginY     int32
	BufferCharWidth, BufferCharHeight int32
	BufferMarginX, BufferMarginY int32
}

// ParseMetrics builds a Metrics from a JSON object, applying the alias
// collapsing rules spec §4.2 describes: "charwidth"/"charheight" fill both
// grid and buffer fields, "margin" fills all four margin fields, "spacing"
// fills all four inter-pane spacings, and any more specific key overrides
// whatever the aliases set. A non-positive character width or height is
// fatal, matching the original implementation's gli_fatal_error on bad
// metrics.
func ParseMetrics(obj *Object) (*Metrics, error) {
	m := &Metrics{}

	intField := func(key string) (int32, bool) {
		n, ok := obj.GetInt(key)
		if !ok {
			return 0, false
		}
		return int32(n), true
	}

	if v, ok := intField("charwidth"); ok {
		m.GridCharWidth, m.BufferCharWidth = v, v
	}
	if v, ok := intField("charheight"); ok {
		m.GridCharHeight, m.BufferCharHeight = v, v
	}
	if v, ok := intField("margin"); ok {
		m.GridMarginX, m.GridMarginY = v, v
		m.BufferMarginX, m.BufferMarginY = v, v
	}
	if v, ok := intField("spacing"); ok {
		m.OutSpacingX, m.OutSpacingY = v, v
		m.InSpacingX, m.InSpacingY = v, v
	}

	overrides := []struct {
		key string
		dst *int32
	}{
		{"width", &m.Width}, {"height", &m.Height},
		{"outspacingx", &m.OutSpacingX}, {"outspacingy", &m.OutSpacingY},
		{"inspacingx", &m.InSpacingX}, {"inspacingy", &m.InSpacingY},
		{"gridcharwidth", &m.GridCharWidth}, {"gridcharheight", &m.GridCharHeight},
		{"gridmarginx", &m.GridMarginX}, {"gridmarginy", &m.GridMarginY},
		{"buffercharwidth", &m.BufferCharWidth}, {"buffercharheight", &m.BufferCharHeight},
		{"buffermarginx", &m.BufferMarginX}, {"buffermarginy", &m.BufferMarginY},
	}
	for _, o := range overrides {
		if v, ok := intField(o.key); ok {
			*o.dst = v
		}
	}

	if m.GridCharWidth <= 0 || m.GridCharHeight <= 0 {
		return nil, fmt.Errorf("metrics: grid character size must be positive, got %dx%d", m.GridCharWidth, m.GridCharHeight)
	}
	if m.BufferCharWidth <= 0 || m.BufferCharHeight <= 0 {
		return nil, fmt.Errorf("metrics: buffer character size must be positive, got %dx%d", m.BufferCharWidth, m.BufferCharHeight)
	}
	return m, nil
}

// ToValue serialises Metrics back to a JSON object (used by autosave).
func (m *Metrics) ToValue() Value {
	o := NewObject()
	o.SetInt("width", int64(m.Width)).SetInt("height", int64(m.Height))
	o.SetInt("outspacingx", int64(m.OutSpacingX)).SetInt("outspacingy", int64(m.OutSpacingY))
	o.SetInt("inspacingx", int64(m.InSpacingX)).SetInt("inspacingy", int64(m.InSpacingY))
	o.SetInt("gridcharwidth", int64(m.GridCharWidth)).SetInt("gridcharheight", int64(m.GridCharHeight))
	o.SetInt("gridmarginx", int64(m.GridMarginX)).SetInt("gridmarginy", int64(m.GridMarginY))
	o.SetInt("buffercharwidth", int64(m.BufferCharWidth)).SetInt("buffercharheight", int64(m.BufferCharHeight))
	o.SetInt("buffermarginx", int64(m.BufferMarginX)).SetInt("buffermarginy", int64(m.BufferMarginY))
	return o
}

// SupportCaps is the set-of-flags describing what the client declared it
// supports in its init event (spec §4.2).
type SupportCaps struct {
	Timer       bool
	Hyperlinks  bool
	Graphics    bool
	GraphicsWin bool
	GraphicsExt bool
	Sound       bool
}

// ParseSupportCaps reads a "support" array of strings; unknown values are
// ignored per spec §7 tier 3.
func ParseSupportCaps(list List) *SupportCaps {
	caps := &SupportCaps{}
	for _, v := range list {
		s, ok := v.(Str)
		if !ok {
			continue
		}
		switch s.String() {
		case "timer":
			caps.Timer = true
		case "hyperlinks":
			caps.Hyperlinks = true
		case "graphics":
			caps.Graphics = true
		case "graphicswin":
			caps.GraphicsWin = true
		case "graphicsext":
			caps.GraphicsExt = true
		case "sound":
			caps.Sound = true
		}
	}
	return caps
}

// ToValue serialises SupportCaps back to a JSON array of flag names.
func (c *SupportCaps) ToValue() Value {
	l := List{}
	add := func(flag bool, name string) {
		if flag {
			l = append(l, NewString(name))
		}
	}
	add(c.Timer, "timer")
	add(c.Hyperlinks, "hyperlinks")
	add(c.Graphics, "graphics")
	add(c.GraphicsWin, "graphicswin")
	add(c.GraphicsExt, "graphicsext")
	add(c.Sound, "sound")
	return l
}
