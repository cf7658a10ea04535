package decoder

import (
	"testing"

	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataBlocksAllVersions(t *testing.T) {
	for n := 1; n <= 40; n++ {
		v, _ := VersionForNumber(n)
		raw := make([]byte, v.TotalCodewords)
		for i := range raw {
			raw[i] = byte(i * 7)
		}
		for _, level := range ErrorCorrectionLevels {
			ecb := v.ECBlocksForLevel(level)
			blocks, err := DataBlocks(raw, v, level)
			require.NoError(t, err)
			require.Len(t, blocks, ecb.NumBlocks())

			data := 0
			for i, b := range blocks {
				assert.Equal(t, ecb.ECCodewordsPerBlock, len(b.Codewords)-b.NumDataCodewords)
				if i > 0 {
					assert.GreaterOrEqual(t, b.NumDataCodewords, blocks[i-1].NumDataCodewords)
				}
				data += b.NumDataCodewords
			}
			assert.Equal(t, ecb.TotalDataCodewords(), data)
			assert.Equal(t, raw, InterleaveBlocks(blocks), "version %d level %s", n, level)
		}
	}
}

func TestDataBlocksVersion5Q(t *testing.T) {
	// 5-Q: two blocks of 15 and two of 16 data codewords, 18 EC each.
	v, _ := VersionForNumber(5)
	raw := make([]byte, v.TotalCodewords)
	for i := range raw {
		raw[i] = byte(i)
	}
	blocks, err := DataBlocks(raw, v, ECLevelQ)
	require.NoError(t, err)
	require.Len(t, blocks, 4)
	assert.Equal(t, []byte{0, 4, 8}, blocks[0].Codewords[:3])
	assert.Equal(t, byte(60), blocks[2].Codewords[15])
	assert.Equal(t, byte(61), blocks[3].Codewords[15])
	assert.Equal(t, byte(62), blocks[0].Codewords[15], "first EC codeword of a short block")
	assert.Equal(t, byte(64), blocks[2].Codewords[16], "first EC codeword of a long block")
}

func TestDataBlocksWrongLength(t *testing.T) {
	v, _ := VersionForNumber(2)
	_, err := DataBlocks(make([]byte, 10), v, ECLevelM)
	assert.ErrorIs(t, err, qrcodec.ErrFormat)
	assert.Equal(t, qrcodec.StageCodewords, qrcodec.StageOf(err))
}
