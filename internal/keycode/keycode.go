// Package keycode maps the special-key names the wire protocol sends
// (terminators on a line event, values on a char event for non-printable
// keys) to the glui32 special-keycode range. Grounded in the shape of
// internal/session/terminal/input.go's KeyCode enum from the teacher
// repo, adapted from an SSH channel's raw byte reading to the wire
// protocol's named-key JSON strings.
package keycode

// MaxVal bounds the special keycode range: any value in
// [Unknown-MaxVal, Unknown] is a special key, not a printable code point.
const MaxVal = 30

// Unknown is returned for a terminator/char name the library doesn't
// recognise; callers should treat it as "no special code".
const Unknown uint32 = 0xFFFFFFFF

const (
	Left     uint32 = 0xFFFFFFFE
	Right    uint32 = 0xFFFFFFFD
	Up       uint32 = 0xFFFFFFFC
	Down     uint32 = 0xFFFFFFFB
	Return   uint32 = 0xFFFFFFFA
	Delete   uint32 = 0xFFFFFFF9
	Tab      uint32 = 0xFFFFFFF8
	PageUp   uint32 = 0xFFFFFFF7
	PageDown uint32 = 0xFFFFFFF6
	Home     uint32 = 0xFFFFFFF5
	End      uint32 = 0xFFFFFFF4
	Func1    uint32 = 0xFFFFFFF3
	Func2    uint32 = 0xFFFFFFF2
	Func3    uint32 = 0xFFFFFFF1
	Func4    uint32 = 0xFFFFFFF0
	Func5    uint32 = 0xFFFFFFEF
	Func6    uint32 = 0xFFFFFFEE
	Func7    uint32 = 0xFFFFFFED
	// Escape is pinned to this exact value by spec.md's S3 scenario
	// ("value 0xFFFFFFEC (keycode for Escape)"); it is intentionally out
	// of sequence with the Func1-Func7 run above it.
	Escape uint32 = 0xFFFFFFEC
	Func8  uint32 = 0xFFFFFFEB
	Func9  uint32 = 0xFFFFFFEA
	Func10 uint32 = 0xFFFFFFE9
	Func11 uint32 = 0xFFFFFFE8
	Func12 uint32 = 0xFFFFFFE7
)

var byName = map[string]uint32{
	"left": Left, "right": Right, "up": Up, "down": Down,
	"return": Return, "delete": Delete, "escape": Escape, "tab": Tab,
	"pageup": PageUp, "pagedown": PageDown, "home": Home, "end": End,
	"func1": Func1, "func2": Func2, "func3": Func3, "func4": Func4,
	"func5": Func5, "func6": Func6, "func7": Func7, "func8": Func8,
	"func9": Func9, "func10": Func10, "func11": Func11, "func12": Func12,
}

var byCode = func() map[uint32]string {
	m := make(map[uint32]string, len(byName))
	for name, code := range byName {
		m[code] = name
	}
	return m
}()

// FromName resolves a wire-protocol special-key name (e.g. "escape") to
// its keycode, or Unknown if the name isn't recognised.
func FromName(name string) uint32 {
	if c, ok := byName[name]; ok {
		return c
	}
	return Unknown
}

// Name renders a keycode back to its wire-protocol name, or "" if code
// isn't a recognised special key.
func Name(code uint32) string {
	return byCode[code]
}

// IsSpecial reports whether code falls in the special-keycode range
// (arrow keys, function keys, etc.) rather than being a Unicode code
// point.
func IsSpecial(code uint32) bool {
	return code >= Unknown-MaxVal && code <= Unknown
}
