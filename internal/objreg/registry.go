// Package objreg is the object registry: it hands out update tags (the
// small integers the wire protocol uses to name windows/streams/filerefs
// across update/event pairs) and forwards object and array lifetime
// events to the caller-supplied dispatch.Hooks, if any are configured.
//
// Grounded on the original implementation's gli_register_obj/
// gli_unregister_obj/gli_register_arr family: tags are assigned from a
// monotonically increasing counter, seeded with a small random offset
// (16 to 30) at startup.
package objreg

import (
	"fmt"
	"math/rand/v2"

	"github.com/rglk/remglk/pkg/dispatch"
)

// Registry assigns update tags and relays object/array registration to
// the configured dispatch.Hooks. The zero value is unusable; use New.
type Registry struct {
	hooks   dispatch.Hooks
	counter uint32
}

// New builds a Registry. hooks may be a zero-value dispatch.Hooks if the
// caller doesn't need object/array dispatch.
func New(hooks dispatch.Hooks) *Registry {
	return &Registry{
		hooks:   hooks,
		counter: 16 + uint32(rand.IntN(15)),
	}
}

// NextTag returns the next update tag in sequence. Tag 0 is reserved
// (meaning "no object") so the counter skips it if it ever wraps around
// to 0.
func (r *Registry) NextTag() uint32 {
	r.counter++
	if r.counter == 0 {
		r.counter = 1
	}
	return r.counter
}

// AdvancePast bumps the counter so that future NextTag calls never
// reissue a tag at or below the given value. Used when autorestoring a
// saved session, whose windows and streams carry the tags they had when
// the document was written.
func (r *Registry) AdvancePast(tag uint32) {
	if tag > r.counter {
		r.counter = tag
	}
}

// RegisterObject records obj's creation and returns the dispatch rock to
// store alongside it, or nil if no ObjectRegistrar is configured.
func (r *Registry) RegisterObject(obj any, class dispatch.ObjectClass) any {
	if r.hooks.Objects == nil {
		return nil
	}
	return r.hooks.Objects.RegisterObject(obj, class)
}

// UnregisterObject reports obj's destruction.
func (r *Registry) UnregisterObject(obj any, class dispatch.ObjectClass, dispRock any) {
	if r.hooks.Objects == nil {
		return
	}
	r.hooks.Objects.UnregisterObject(obj, class, dispRock)
}

// RegisterArray records a caller-owned buffer (line input buffer, memory
// stream backing array) coming under the library's management.
func (r *Registry) RegisterArray(arr any, class dispatch.ArrayClass) any {
	if r.hooks.Arrays == nil {
		return nil
	}
	return r.hooks.Arrays.RegisterArray(arr, class)
}

// UnregisterArray reports the buffer leaving the library's management.
func (r *Registry) UnregisterArray(arr any, class dispatch.ArrayClass, dispRock any) {
	if r.hooks.Arrays == nil {
		return
	}
	r.hooks.Arrays.UnregisterArray(arr, class, dispRock)
}

// LocateArray resolves a dispatch rock to its live backing array, for
// autosave serialisation. Fails if no ArrayLocator is configured or the
// rock is unknown to the caller.
func (r *Registry) LocateArray(dispRock any) (any, error) {
	if r.hooks.Locator == nil {
		return nil, fmt.Errorf("objreg: no array locator configured")
	}
	arr, ok := r.hooks.Locator.LocateArray(dispRock)
	if !ok {
		return nil, fmt.Errorf("objreg: dispatch rock not found")
	}
	return arr, nil
}

// RestoreArray hands a loaded array's serialised bytes back to the
// caller so it can repopulate its own buffer in place, for autorestore.
func (r *Registry) RestoreArray(token string, class dispatch.ArrayClass, data []byte) (any, error) {
	if r.hooks.Restorer == nil {
		return nil, fmt.Errorf("objreg: no array restorer configured")
	}
	return r.hooks.Restorer.RestoreArray(token, class, data)
}
