package decoder

import qrcodec "github.com/ericlevine/qrcodec"

// DataBlock is one Reed-Solomon block: its data codewords followed by its
// error correction codewords.
type DataBlock struct {
	NumDataCodewords int
	Codewords        []byte
}

// DataBlocks splits the interleaved codewords of a symbol into its
// blocks. Data codewords are interleaved one per block across all blocks,
// with the extra codeword of the longer blocks coming after the shorter
// blocks run out. Error correction codewords follow, interleaved the
// same way.
func DataBlocks(rawCodewords []byte, version *Version, ecLevel ErrorCorrectionLevel) ([]DataBlock, error) {
	if len(rawCodewords) != version.TotalCodewords {
		return nil, formatError(qrcodec.StageCodewords, len(rawCodewords),
			"version %d holds %d codewords", version.Number, version.TotalCodewords)
	}
	ecBlocks := version.ECBlocksForLevel(ecLevel)

	result := make([]DataBlock, 0, ecBlocks.NumBlocks())
	for _, block := range ecBlocks.Blocks {
		for i := 0; i < block.Count; i++ {
			result = append(result, DataBlock{
				NumDataCodewords: block.DataCodewords,
				Codewords:        make([]byte, ecBlocks.ECCodewordsPerBlock+block.DataCodewords),
			})
		}
	}
	numResultBlocks := len(result)

	// Longer blocks come last.
	shorterBlocksTotalCodewords := len(result[0].Codewords)
	longerBlocksStartAt := numResultBlocks - 1
	for longerBlocksStartAt >= 0 {
		if len(result[longerBlocksStartAt].Codewords) == shorterBlocksTotalCodewords {
			break
		}
		longerBlocksStartAt--
	}
	longerBlocksStartAt++

	shorterBlocksNumDataCodewords := shorterBlocksTotalCodewords - ecBlocks.ECCodewordsPerBlock

	offset := 0
	for i := 0; i < shorterBlocksNumDataCodewords; i++ {
		for j := 0; j < numResultBlocks; j++ {
			result[j].Codewords[i] = rawCodewords[offset]
			offset++
		}
	}
	for j := longerBlocksStartAt; j < numResultBlocks; j++ {
		result[j].Codewords[shorterBlocksNumDataCodewords] = rawCodewords[offset]
		offset++
	}
	n := len(result[0].Codewords)
	for i := shorterBlocksNumDataCodewords; i < n; i++ {
		for j := 0; j < numResultBlocks; j++ {
			iOffset := i
			if j >= longerBlocksStartAt {
				iOffset++
			}
			result[j].Codewords[iOffset] = rawCodewords[offset]
			offset++
		}
	}
	if offset != len(rawCodewords) {
		return nil, formatError(qrcodec.StageCodewords, offset, "block structure consumed %d of %d codewords", offset, len(rawCodewords))
	}
	return result, nil
}

// InterleaveBlocks is the inverse of DataBlocks: it emits the i-th data
// codeword of every block that has one, for increasing i, then the
// error correction codewords the same way.
func InterleaveBlocks(blocks []DataBlock) []byte {
	maxData, maxEC, total := 0, 0, 0
	for _, b := range blocks {
		maxData = max(maxData, b.NumDataCodewords)
		maxEC = max(maxEC, len(b.Codewords)-b.NumDataCodewords)
		total += len(b.Codewords)
	}
	out := make([]byte, 0, total)
	for i := 0; i < maxData; i++ {
		for _, b := range blocks {
			if i < b.NumDataCodewords {
				out = append(out, b.Codewords[i])
			}
		}
	}
	for i := 0; i < maxEC; i++ {
		for _, b := range blocks {
			if j := b.NumDataCodewords + i; j < len(b.Codewords) {
				out = append(out, b.Codewords[j])
			}
		}
	}
	return out
}
