package bittest

import (
	"testing"

	"github.com/ericlevine/qrcodec/bitutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	bm := bitutil.NewBitMatrixWithSize(3, 2)
	bm.Set(0, 0)
	bm.Set(2, 1)

	parsed, err := Parse(bm.StringWithChars("X", "."), "X", ".")
	require.NoError(t, err)
	assert.True(t, parsed.Equals(bm))

	_, err = Parse("X.\nX..\n", "X", ".")
	assert.Error(t, err)
	_, err = Parse("X?\n", "X", ".")
	assert.Error(t, err)
	_, err = Parse("\n", "X", ".")
	assert.Error(t, err)
}

func TestRotate(t *testing.T) {
	bm := bitutil.NewBitMatrixWithSize(4, 3)
	bm.Set(3, 0)
	rotated := Rotate90(bm)
	require.Equal(t, 3, rotated.Width())
	require.Equal(t, 4, rotated.Height())
	assert.True(t, rotated.Get(0, 0))
	assert.True(t, bm.Get(3, 0), "input untouched")

	sq := bitutil.NewBitMatrix(4)
	sq.Set(0, 0)
	turned := Rotate180(sq)
	assert.True(t, turned.Get(3, 3))
	assert.False(t, turned.Get(0, 0))
	assert.True(t, Rotate90(Rotate90(sq)).Equals(turned))
}

func TestFlipHorizontal(t *testing.T) {
	bm := bitutil.NewBitMatrix(5)
	bm.Set(0, 1)
	bm.Set(4, 3)

	flipped := FlipHorizontal(bm)
	assert.True(t, flipped.Get(4, 1))
	assert.True(t, flipped.Get(0, 3))
	assert.True(t, FlipHorizontal(flipped).Equals(bm))
}
