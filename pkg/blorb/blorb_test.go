package blorb

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBlorb assembles a minimal one-resource Blorb archive by hand: a
// FORM/IFRS header, an RIdx chunk pointing at a single Data chunk, and
// the Data chunk itself.
func buildBlorb(t *testing.T, payload []byte) []byte {
	t.Helper()

	dataChunk := chunk("Data", payload)

	ridxBody := make([]byte, 4+12)
	binary.BigEndian.PutUint32(ridxBody[0:4], 1)
	copy(ridxBody[4:8], "Data")
	binary.BigEndian.PutUint32(ridxBody[8:12], 1)
	binary.BigEndian.PutUint32(ridxBody[12:16], uint32(12)) // offset of the data chunk header
	ridxChunk := chunk("RIdx", ridxBody)

	var body bytes.Buffer
	body.Write(dataChunk)
	body.Write(ridxChunk)

	var form bytes.Buffer
	form.WriteString("FORM")
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(4+body.Len()))
	form.Write(lenBuf[:])
	form.WriteString("IFRS")
	form.Write(body.Bytes())
	return form.Bytes()
}

func chunk(ctype string, data []byte) []byte {
	var b bytes.Buffer
	b.WriteString(ctype)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	b.Write(lenBuf[:])
	b.Write(data)
	if len(data)%2 != 0 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

func TestOpenFindsResourceIndex(t *testing.T) {
	raw := buildBlorb(t, []byte("hello world"))
	archive, err := Open(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, archive.Resources, 1)

	res, ok := archive.Find(UsageData, 1)
	require.True(t, ok)
	assert.Equal(t, [4]byte{'D', 'a', 't', 'a'}, res.ChunkType)

	data, err := archive.ReadData(res)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestOpenRejectsBadHeader(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("not a blorb file at all....")))
	assert.Error(t, err)
}

func TestFindMissingResource(t *testing.T) {
	raw := buildBlorb(t, []byte("x"))
	archive, err := Open(bytes.NewReader(raw))
	require.NoError(t, err)
	_, ok := archive.Find(UsagePict, 99)
	assert.False(t, ok)
}
