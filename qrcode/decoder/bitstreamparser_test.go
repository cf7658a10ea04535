package decoder

import (
	"testing"

	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/bitutil"
	"github.com/ericlevine/qrcodec/charset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stream struct {
	bits *bitutil.BitArray
}

func newStream() *stream {
	return &stream{bits: bitutil.NewBitArray(0)}
}

func (s *stream) put(value, numBits int) *stream {
	s.bits.AppendBits(uint32(value), numBits)
	return s
}

func (s *stream) bytes() []byte {
	return s.bits.Bytes()
}

func decodeStream(t *testing.T, s *stream, versionNumber int) *DecoderResult {
	t.Helper()
	v, err := VersionForNumber(versionNumber)
	require.NoError(t, err)
	result, err := DecodeBitStream(s.bytes(), v, ECLevelM, nil)
	require.NoError(t, err)
	return result
}

func TestDecodeNumeric(t *testing.T) {
	s := newStream().put(0x1, 4).put(8, 10).put(12, 10).put(345, 10).put(67, 7).put(0, 4)
	r := decodeStream(t, s, 1)
	assert.Equal(t, "01234567", r.Text)
	require.Len(t, r.Segments, 1)
	assert.Equal(t, ModeNumeric, r.Segments[0].Mode)
	assert.Equal(t, 8, r.Segments[0].Count)
	assert.Equal(t, 1, r.SymbologyModifier)
	assert.False(t, r.HasStructuredAppend())
}

func TestDecodeAlphanumeric(t *testing.T) {
	// "AC-42": (A,C) (-,4) (2)
	s := newStream().put(0x2, 4).put(5, 9).put(10*45+12, 11).put(41*45+4, 11).put(2, 6)
	r := decodeStream(t, s, 1)
	assert.Equal(t, "AC-42", r.Text)
	assert.Equal(t, ModeAlphanumeric, r.Segments[0].Mode)
}

func TestDecodeMixedSegments(t *testing.T) {
	s := newStream().
		put(0x4, 4).put(3, 8).put('a', 8).put('b', 8).put('c', 8).
		put(0x1, 4).put(3, 10).put(123, 10).
		put(0x0, 4)
	r := decodeStream(t, s, 1)
	assert.Equal(t, "abc123", r.Text)
	require.Len(t, r.Segments, 2)
	assert.Equal(t, ModeByte, r.Segments[0].Mode)
	assert.Equal(t, []byte("abc"), r.Segments[0].Bytes)
	assert.Equal(t, ModeNumeric, r.Segments[1].Mode)
	assert.Equal(t, [][]byte{[]byte("abc")}, r.ByteSegments)
}

func TestDecodeByteCountWidthByVersion(t *testing.T) {
	s := newStream().put(0x4, 4).put(2, 16).put('h', 8).put('i', 8)
	r := decodeStream(t, s, 10)
	assert.Equal(t, "hi", r.Text)
}

func TestDecodeKanji(t *testing.T) {
	// 茗 is 0xE4AA and 荷 is 0x89D7 in Shift_JIS.
	s := newStream().put(0x8, 4).put(2, 8).put(0x23*0xC0+0x6A, 13).put(0x08*0xC0+0x97, 13)
	r := decodeStream(t, s, 1)
	assert.Equal(t, "茗荷", r.Text)
	assert.Equal(t, ModeKanji, r.Segments[0].Mode)
	assert.Equal(t, []byte{0xE4, 0xAA, 0x89, 0xD7}, r.Segments[0].Bytes)
}

func TestDecodeHanzi(t *testing.T) {
	// 中 is 0xD6D0 in GB2312.
	s := newStream().put(0xD, 4).put(gb2312Subset, 4).put(1, 8).put(0x30*0x60+0x2F, 13)
	r := decodeStream(t, s, 1)
	assert.Equal(t, "中", r.Text)
	assert.Equal(t, ModeHanzi, r.Segments[0].Mode)
}

func TestDecodeECI(t *testing.T) {
	text := "héllo"
	s := newStream().put(0x7, 4).put(26, 8).put(0x4, 4).put(len(text), 8)
	for i := 0; i < len(text); i++ {
		s.put(int(text[i]), 8)
	}
	r := decodeStream(t, s, 1)
	assert.Equal(t, text, r.Text)
	assert.Equal(t, "UTF-8", r.Segments[0].Charset)
	assert.Equal(t, 2, r.SymbologyModifier)
}

func TestDecodeByteCharsetHint(t *testing.T) {
	s := newStream().put(0x4, 4).put(2, 8).put(0x82, 8).put(0xA0, 8)
	v, _ := VersionForNumber(1)
	r, err := DecodeBitStream(s.bytes(), v, ECLevelL, charset.ShiftJIS)
	require.NoError(t, err)
	assert.Equal(t, "あ", r.Text)
}

func TestDecodeStructuredAppend(t *testing.T) {
	s := newStream().put(0x3, 4).put(0x21, 8).put(0x5A, 8).put(0x1, 4).put(1, 10).put(7, 4)
	r := decodeStream(t, s, 1)
	assert.True(t, r.HasStructuredAppend())
	assert.Equal(t, 0x21, r.StructuredAppendSequence)
	assert.Equal(t, 0x5A, r.StructuredAppendParity)
	assert.Equal(t, "7", r.Text)
}

func TestDecodeFNC1(t *testing.T) {
	// A % B % %
	s := newStream().put(0x5, 4).put(0x2, 4).put(5, 9).
		put(10*45+38, 11).put(11*45+38, 11).put(38, 6)
	r := decodeStream(t, s, 1)
	assert.Equal(t, "A\x1dB%", r.Text)
	assert.Equal(t, 3, r.SymbologyModifier)
}

func TestDecodeBitStreamErrors(t *testing.T) {
	tests := []struct {
		name string
		s    *stream
	}{
		{"unknown mode", newStream().put(0x6, 4)},
		{"byte count overrun", newStream().put(0x4, 4).put(10, 8).put('a', 8)},
		{"numeric triple out of range", newStream().put(0x1, 4).put(3, 10).put(1000, 10)},
		{"numeric digit out of range", newStream().put(0x1, 4).put(1, 10).put(12, 4)},
		{"alphanumeric value out of range", newStream().put(0x2, 4).put(2, 9).put(2047, 11)},
		{"bad ECI designator", newStream().put(0x7, 4).put(0xE0, 8)},
		{"unassigned ECI", newStream().put(0x7, 4).put(99, 8)},
		{"unknown hanzi subset", newStream().put(0xD, 4).put(2, 4).put(1, 8).put(0, 13)},
		{"kanji overrun", newStream().put(0x8, 4).put(4, 8).put(1, 13)},
		{"truncated count", newStream().put(0x4, 4).put(1, 3)},
	}
	v, _ := VersionForNumber(1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBitStream(tt.s.bytes(), v, ECLevelL, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, qrcodec.ErrData)
			assert.Equal(t, qrcodec.StageBitstream, qrcodec.StageOf(err))
		})
	}
}
