// Package dispatch defines the callback interfaces a caller implements to
// hook object and array registration into the library, mirroring the
// dispatch layer's extern function-pointer slots in the original
// implementation (gli_register_obj, gli_register_arr, and friends). A
// caller that doesn't need dispatch (no glk_gestalt_autosave support, no
// object-ID-stable autosave) may leave any of these nil; the registry
// degrades to an in-memory-only tag counter.
//
// Modelled on the teacher's streaming.Manager: a thin struct the caller
// configures once, holding no behaviour of its own beyond delegating to
// whatever the embedding application wired in.
package dispatch

// ObjectClass identifies which kind of Glk object is being
// registered/unregistered, matching the original's gidisp_Class_* enum.
type ObjectClass int

const (
	ClassWindow ObjectClass = iota
	ClassStream
	ClassFileRef
)

func (c ObjectClass) String() string {
	switch c {
	case ClassWindow:
		return "window"
	case ClassStream:
		return "stream"
	case ClassFileRef:
		return "fileref"
	default:
		return "unknown"
	}
}

// ObjectRegistrar lets the caller track object lifetimes (e.g. to keep a
// stable opaque ID across an autosave/autorestore cycle). Register
// returns a dispatch rock the library stores and passes back on
// Unregister; it may be nil.
type ObjectRegistrar interface {
	RegisterObject(obj any, class ObjectClass) any
	UnregisterObject(obj any, class ObjectClass, dispRock any)
}

// ArrayClass distinguishes character arrays from generic arrays, per the
// original's gidisp_Class_Array vs gidisp_Class_Array_Unichar (which
// determined element size on restore).
type ArrayClass int

const (
	ArrayClassBytes ArrayClass = iota
	ArrayClassUnichars
)

// ArrayRegistrar lets the caller track the buffers passed into window
// operations and stream reads (rock arrays), so an autosave can later
// locate and repopulate them. Array is a Go slice header; the caller is
// expected to type-switch on it ([]byte or []rune).
type ArrayRegistrar interface {
	RegisterArray(arr any, class ArrayClass) any
	UnregisterArray(arr any, class ArrayClass, dispRock any)
}

// ArrayLocator resolves a dispatch rock back to the live array it was
// registered against, so autosave can serialise its current contents
// (mirrors gidispatch_get_objrock-style address recovery plus the
// original's locate_array hook).
type ArrayLocator interface {
	LocateArray(dispRock any) (arr any, ok bool)
}

// ArrayRestorer hands a freshly-allocated array back to the caller during
// autorestore, so the caller's own line-input or memory-stream buffer
// (which the library does not own) gets repopulated in place rather than
// replaced (mirrors the original's restore_array callback, invoked once
// per in-flight array after the three-pass document load completes).
type ArrayRestorer interface {
	RestoreArray(token string, class ArrayClass, data []byte) (arr any, err error)
}

// Hooks bundles the optional caller callbacks. A nil field disables that
// piece of functionality; the library checks before calling.
type Hooks struct {
	Objects ObjectRegistrar
	Arrays  ArrayRegistrar
	Locator ArrayLocator
	Restorer ArrayRestorer
}
