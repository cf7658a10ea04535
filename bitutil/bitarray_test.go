package bitutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitArrayGetSet(t *testing.T) {
	ba := NewBitArray(33)
	for i := 0; i < 33; i++ {
		require.False(t, ba.Get(i), "bit %d", i)
	}
	ba.Set(0)
	ba.Set(31)
	ba.Set(32)
	assert.True(t, ba.Get(0))
	assert.True(t, ba.Get(31))
	assert.True(t, ba.Get(32))
	assert.False(t, ba.Get(30))
	ba.Flip(32)
	assert.False(t, ba.Get(32))
}

func TestBitArrayAppendBits(t *testing.T) {
	ba := NewBitArray(0)
	ba.AppendBits(0x1, 4)
	ba.AppendBits(0xA5, 8)
	ba.AppendBit(true)
	require.Equal(t, 13, ba.Size())
	assert.Equal(t, 2, ba.SizeInBytes())
	assert.Equal(t, []byte{0x1A, 0x58}, ba.Bytes())
	assert.Equal(t, " ...XX.X. .X.XX", ba.String())
	assert.Panics(t, func() { ba.AppendBits(0, 33) })
}

func TestBitArrayAppendBitArray(t *testing.T) {
	a := NewBitArray(0)
	a.AppendBits(0x3, 2)
	b := NewBitArray(0)
	b.AppendBits(0x1, 2)
	a.AppendBitArray(b)
	assert.Equal(t, []byte{0xD0}, a.Bytes())

	// Crossing a word boundary.
	a.AppendBits(0xFFFFFFFF, 32)
	assert.Equal(t, 36, a.Size())
	assert.True(t, a.Get(35))
	a.Flip(35)
	assert.False(t, a.Get(35))
	assert.Equal(t, []byte{0xDF, 0xFF, 0xFF, 0xFF, 0xE0}, a.Bytes())
}

func TestBitSource(t *testing.T) {
	bs := NewBitSource([]byte{1, 2, 3, 4, 5})
	read := func(n int) int {
		t.Helper()
		v, err := bs.ReadBits(n)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, 40, bs.Available())
	assert.Equal(t, 0, read(1))
	assert.Equal(t, 39, bs.Available())
	assert.Equal(t, 0, read(6))
	assert.Equal(t, 2, read(2))
	assert.Equal(t, 1, bs.ByteOffset())
	assert.Equal(t, 1, bs.BitOffset())
	assert.Equal(t, 0, read(5))
	assert.Equal(t, 26, bs.Available())
	assert.Equal(t, 0x203, read(10))
	assert.Equal(t, 3, bs.ByteOffset())
	assert.Equal(t, 0, bs.BitOffset())
	assert.Equal(t, 4, read(8))
	assert.Equal(t, 5, read(8))
	assert.Equal(t, 0, bs.Available())

	_, err := bs.ReadBits(1)
	var bse *BitSourceError
	require.ErrorAs(t, err, &bse)
	assert.Equal(t, 1, bse.NumBits)
	assert.Equal(t, 0, bse.Available)
}
