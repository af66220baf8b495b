package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) Value {
	t.Helper()
	v, err := NewDecoder(strings.NewReader(s)).Decode()
	require.NoError(t, err)
	return v
}

func TestDecodeScalars(t *testing.T) {
	assert.Equal(t, Bool(true), decode(t, "true"))
	assert.Equal(t, Bool(false), decode(t, "false"))
	assert.True(t, IsNull(decode(t, "null")))

	n := decode(t, "42").(Number)
	assert.True(t, n.IsInt)
	assert.Equal(t, int64(42), n.AsInt64())

	f := decode(t, "-3.5e2").(Number)
	assert.False(t, f.IsInt)
	assert.Equal(t, -350.0, f.AsFloat64())
}

func TestDecodeString(t *testing.T) {
	s := decode(t, `"hello\nworld"`).(Str)
	assert.Equal(t, "hello\nworld", s.String())
}

func TestDecodeStringUnicodeEscape(t *testing.T) {
	s := decode(t, "\"\\u00e9\"").(Str)
	assert.Equal(t, "é", s.String())
}

func TestDecodeStringSurrogatePair(t *testing.T) {
	s := decode(t, "\"\\ud83d\\ude00\"").(Str)
	assert.Equal(t, "😀", s.String())
}

func TestDecodeListAndObject(t *testing.T) {
	v := decode(t, `{"a":1,"b":[true,false,null]}`)
	obj, ok := v.(*Object)
	require.True(t, ok)
	n, _ := obj.GetInt("a")
	assert.Equal(t, int64(1), n)
	list, ok := obj.GetList("b")
	require.True(t, ok)
	assert.Len(t, list, 3)
}

func TestDecodeObjectPreservesKeyOrder(t *testing.T) {
	obj := decode(t, `{"z":1,"a":2,"m":3}`).(*Object)
	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())
}

func TestMalformedUnterminatedString(t *testing.T) {
	_, err := NewDecoder(strings.NewReader(`"abc`)).Decode()
	require.Error(t, err)
	var merr *MalformedInputError
	require.ErrorAs(t, err, &merr)
}

func TestMalformedUnknownEscape(t *testing.T) {
	_, err := NewDecoder(strings.NewReader(`"\q"`)).Decode()
	assert.Error(t, err)
}

func TestMalformedBareControlChar(t *testing.T) {
	_, err := NewDecoder(strings.NewReader("\"a\x01b\"")).Decode()
	assert.Error(t, err)
}

func TestMalformedMismatchedBrackets(t *testing.T) {
	_, err := NewDecoder(strings.NewReader(`[1,2}`)).Decode()
	assert.Error(t, err)
}

func TestMalformedMissingColon(t *testing.T) {
	_, err := NewDecoder(strings.NewReader(`{"a" 1}`)).Decode()
	assert.Error(t, err)
}

func TestMalformedTrailingComma(t *testing.T) {
	_, err := NewDecoder(strings.NewReader(`[1,2,]`)).Decode()
	assert.Error(t, err)
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	obj := NewObject()
	obj.SetString("type", "update").SetInt("gen", 3).SetBool("ok", true)
	data, err := Marshal(obj)
	require.NoError(t, err)

	back, err := NewDecoder(strings.NewReader(string(data))).Decode()
	require.NoError(t, err)
	assert.True(t, Equal(obj, back))
}

func TestEqualIntVsFloat(t *testing.T) {
	assert.True(t, Equal(Int(1), Float(1.0)))
	assert.False(t, Equal(Int(1), Float(1.5)))
}

func TestEqualObjectKeyOrderIndependent(t *testing.T) {
	a := decode(t, `{"x":1,"y":2}`)
	b := decode(t, `{"y":2,"x":1}`)
	assert.True(t, Equal(a, b))
}
