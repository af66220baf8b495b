// Package wire implements the restricted JSON codec and tagged data-value
// model that make up the update/event wire protocol (spec §4.1, §4.2).
// Strings carry Unicode text as 32-bit code-point slices rather than Go
// strings so that callers reading and writing raw glui32 arrays never pay
// for a UTF-8 round trip they didn't ask for; NewString/String convert
// at the boundary.
package wire

import "strconv"

// Value is the closed set of parsed-JSON shapes: nil, Bool, Number, Str,
// List, or *Object. Only the boundary parsers (event reader, metrics
// parser, autosave parser) should hold a Value for long; everything else
// converts to a typed descriptor immediately.
type Value interface {
	isValue()
}

// Bool is a JSON true/false.
type Bool bool

// Number is a JSON number, keeping track of whether it arrived as an
// integer literal (no '.' or exponent) so re-emission doesn't invent a
// decimal point the input never had.
type Number struct {
	IsInt bool
	Int   int64
	Real  float64
}

// Str is a JSON string decoded to Unicode code points.
type Str struct {
	Runes []rune
}

// List is a JSON array.
type List []Value

// Object is a JSON object. Key order is preserved for deterministic
// re-emission (useful for golden-file tests), unlike a bare map.
type Object struct {
	keys   []string
	values map[string]Value
}

func (Bool) isValue()    {}
func (Number) isValue()  {}
func (Str) isValue()     {}
func (List) isValue()    {}
func (*Object) isValue() {}

// Null is the single representation of a JSON null value.
var Null Value = nullValue{}

type nullValue struct{}

func (nullValue) isValue() {}

// IsNull reports whether v is the JSON null value (or a nil interface,
// which the codec never produces but callers sometimes pass around).
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(nullValue)
	return ok
}

// NewString converts a Go string to a Str, decoding UTF-8 to code points.
func NewString(s string) Str {
	return Str{Runes: []rune(s)}
}

// String renders a Str back to a Go string.
func (s Str) String() string {
	return string(s.Runes)
}

// Int returns a Number holding an integer literal.
func Int(n int64) Number { return Number{IsInt: true, Int: n} }

// Float returns a Number holding a real literal.
func Float(f float64) Number { return Number{IsInt: false, Real: f} }

// AsInt64 returns the number as an int64, truncating a real value.
func (n Number) AsInt64() int64 {
	if n.IsInt {
		return n.Int
	}
	return int64(n.Real)
}

// AsFloat64 returns the number as a float64.
func (n Number) AsFloat64() float64 {
	if n.IsInt {
		return float64(n.Int)
	}
	return n.Real
}

func (n Number) String() string {
	if n.IsInt {
		return strconv.FormatInt(n.Int, 10)
	}
	return strconv.FormatFloat(n.Real, 'g', -1, 64)
}

// NewObject returns an empty Object ready for Set calls.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set inserts or overwrites key, preserving first-insertion order.
func (o *Object) Set(key string, v Value) *Object {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
	return o
}

// SetString is shorthand for Set(key, NewString(s)).
func (o *Object) SetString(key, s string) *Object { return o.Set(key, NewString(s)) }

// SetInt is shorthand for Set(key, Int(n)).
func (o *Object) SetInt(key string, n int64) *Object { return o.Set(key, Int(n)) }

// SetBool is shorthand for Set(key, Bool(b)).
func (o *Object) SetBool(key string, b bool) *Object { return o.Set(key, Bool(b)) }

// Get returns the value at key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Len reports the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// GetString returns a string field, with ok false if absent or not a string.
func (o *Object) GetString(key string) (string, bool) {
	v, ok := o.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(Str)
	if !ok {
		return "", false
	}
	return s.String(), true
}

// GetInt returns an integer field, with ok false if absent or not a number.
func (o *Object) GetInt(key string) (int64, bool) {
	v, ok := o.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(Number)
	if !ok {
		return 0, false
	}
	return n.AsInt64(), true
}

// GetBool returns a bool field, with ok false if absent or not a bool.
func (o *Object) GetBool(key string) (bool, bool) {
	v, ok := o.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(Bool)
	return bool(b), ok
}

// GetList returns a list field, with ok false if absent or not a list.
func (o *Object) GetList(key string) (List, bool) {
	v, ok := o.Get(key)
	if !ok {
		return nil, false
	}
	l, ok := v.(List)
	return l, ok
}

// GetObject returns an object field, with ok false if absent or not an object.
func (o *Object) GetObject(key string) (*Object, bool) {
	v, ok := o.Get(key)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*Object)
	return sub, ok
}
