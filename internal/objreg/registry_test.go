package objreg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rglk/remglk/pkg/dispatch"
)

func TestNextTagNeverReturnsZero(t *testing.T) {
	r := &Registry{counter: 0xFFFFFFFF}
	tag := r.NextTag()
	assert.NotZero(t, tag)
	assert.Equal(t, uint32(1), tag)
}

func TestNextTagIsMonotone(t *testing.T) {
	r := New(dispatch.Hooks{})
	a := r.NextTag()
	b := r.NextTag()
	assert.Greater(t, b, a)
}

func TestAdvancePastOnlyMovesForward(t *testing.T) {
	r := New(dispatch.Hooks{})
	r.counter = 10
	r.AdvancePast(5)
	assert.Equal(t, uint32(10), r.counter)
	r.AdvancePast(50)
	assert.Equal(t, uint32(50), r.counter)
	next := r.NextTag()
	assert.Equal(t, uint32(51), next)
}

type recordingHooks struct {
	registered   []any
	unregistered []any
}

func (h *recordingHooks) RegisterObject(obj any, class dispatch.ObjectClass) any {
	h.registered = append(h.registered, obj)
	return "rock"
}
func (h *recordingHooks) UnregisterObject(obj any, class dispatch.ObjectClass, rock any) {
	h.unregistered = append(h.unregistered, obj)
}

func TestRegisterObjectNoOpsWithoutHooks(t *testing.T) {
	r := New(dispatch.Hooks{})
	rock := r.RegisterObject("obj", dispatch.ClassWindow)
	assert.Nil(t, rock)
}

func TestRegisterObjectForwardsToHooks(t *testing.T) {
	h := &recordingHooks{}
	r := New(dispatch.Hooks{Objects: h})
	rock := r.RegisterObject("obj", dispatch.ClassWindow)
	assert.Equal(t, "rock", rock)
	require.Len(t, h.registered, 1)
	r.UnregisterObject("obj", dispatch.ClassWindow, rock)
	require.Len(t, h.unregistered, 1)
}

func TestLocateArrayFailsWithoutLocator(t *testing.T) {
	r := New(dispatch.Hooks{})
	_, err := r.LocateArray("rock")
	assert.Error(t, err)
}

func TestRestoreArrayFailsWithoutRestorer(t *testing.T) {
	r := New(dispatch.Hooks{})
	_, err := r.RestoreArray("token", dispatch.ArrayClassBytes, nil)
	assert.Error(t, err)
}
