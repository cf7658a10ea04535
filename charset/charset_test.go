package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestECILookup(t *testing.T) {
	cases := []struct {
		value int
		want  *ECI
	}{
		{0, Cp437},
		{2, Cp437},
		{1, ISO8859_1},
		{3, ISO8859_1},
		{20, ShiftJIS},
		{26, UTF8},
		{170, ASCII},
		{29, GB18030},
	}
	for _, tc := range cases {
		got, err := ECIForValue(tc.value)
		require.NoError(t, err)
		assert.Same(t, tc.want, got, "value %d", tc.value)
	}

	got, err := ECIForValue(899)
	require.NoError(t, err)
	assert.Nil(t, got)
	_, err = ECIForValue(-1)
	assert.Error(t, err)
	_, err = ECIForValue(1000000)
	assert.Error(t, err)

	assert.Same(t, ShiftJIS, ECIForName("sjis"))
	assert.Same(t, UTF8, ECIForName("utf-8"))
	assert.Same(t, GB18030, ECIForName("GB2312"))
	assert.Nil(t, ECIForName("klingon"))
	assert.Equal(t, 26, UTF8.Value())
}

func TestDecodeAndEncode(t *testing.T) {
	s, err := Decode([]byte{0x48, 0xE9}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hé", s)

	s, err = Decode([]byte{0x82, 0xa0}, ShiftJIS)
	require.NoError(t, err)
	assert.Equal(t, "あ", s)

	b, err := Encode("茗荷", ShiftJIS)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xe4, 0xaa, 0x89, 0xd7}, b)

	s, err = Decode([]byte{0x00, 0x41, 0x00, 0xe9}, UTF16BE)
	require.NoError(t, err)
	assert.Equal(t, "Aé", s)

	assert.True(t, CanEncode("café", ISO8859_1))
	assert.False(t, CanEncode("茗荷", ISO8859_1))
}

func TestGuessEncoding(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want *ECI
	}{
		{"ascii", []byte("Hello world!"), ISO8859_1},
		{"utf8", []byte("naïve café"), UTF8},
		{"latin1", []byte{'c', 'a', 'f', 0xE9}, ISO8859_1},
		{"shift_jis", []byte{0x82, 0xa0, 0x82, 0xa2, 0x82, 0xa4}, ShiftJIS},
		{"utf16 bom", []byte{0xFE, 0xFF, 0x00, 0x41}, UTF16BE},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Same(t, tc.want, GuessEncoding(tc.data, nil))
		})
	}
	assert.Same(t, Big5, GuessEncoding([]byte("abc"), Big5))
}
