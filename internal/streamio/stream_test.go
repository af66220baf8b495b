package streamio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStreamWriteRead(t *testing.T) {
	buf := make([]byte, 16)
	s, err := OpenMemory(nil, buf, ModeWrite, 0)
	require.NoError(t, err)

	require.NoError(t, s.PutString("hi", ""))
	assert.Equal(t, int64(2), s.WriteCount)
	assert.Equal(t, []byte("hi"), buf[:2])

	require.NoError(t, s.SetPosition(0, SeekStart))
	s.Readable = true
	r, err := s.GetRune(true)
	require.NoError(t, err)
	assert.Equal(t, 'h', r)
}

func TestMemoryStreamReadPastEOFMaxed(t *testing.T) {
	buf := []byte("ab")
	s, err := OpenMemory(nil, buf, ModeRead, 0)
	require.NoError(t, err)

	r, err := s.GetRune(true)
	require.NoError(t, err)
	assert.Equal(t, 'a', r)
	r, err = s.GetRune(true)
	require.NoError(t, err)
	assert.Equal(t, 'b', r)
	_, err = s.GetRune(true)
	assert.Error(t, err)
}

func TestMemoryStreamNarrowClampsNonLatin1(t *testing.T) {
	buf := make([]byte, 4)
	s, err := OpenMemory(nil, buf, ModeWrite, 0)
	require.NoError(t, err)
	require.NoError(t, s.PutRune('€', ""))
	assert.Equal(t, byte('?'), buf[0])
}

func TestMemoryStreamUniHoldsAstral(t *testing.T) {
	ubuf := make([]rune, 4)
	s, err := OpenMemoryUni(nil, ubuf, ModeWrite, 0)
	require.NoError(t, err)
	require.NoError(t, s.PutRune('😀', ""))
	assert.Equal(t, '😀', ubuf[0])
}

type fakeWindow struct {
	runes []rune
	lineReq bool
}

func (w *fakeWindow) PutRune(r rune, style string) error {
	w.runes = append(w.runes, r)
	return nil
}

func (w *fakeWindow) LineRequestPending() bool { return w.lineReq }

func TestWindowStreamRejectsWriteDuringLineRequest(t *testing.T) {
	fw := &fakeWindow{lineReq: true}
	s := OpenWindow(nil, fw, 0)
	err := s.PutRune('a', "")
	assert.Error(t, err)
}

func TestWindowStreamEchoesToSecondStream(t *testing.T) {
	fw := &fakeWindow{}
	buf := make([]byte, 8)
	echo, err := OpenMemory(nil, buf, ModeWrite, 0)
	require.NoError(t, err)

	s := OpenWindow(nil, fw, 0)
	s.EchoTo = echo
	require.NoError(t, s.PutString("go", ""))
	assert.Equal(t, []rune("go"), fw.runes)
	assert.Equal(t, []byte("go"), buf[:2])
}
