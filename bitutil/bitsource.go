package bitutil

import "fmt"

// BitSource reads bits from a byte sequence, most significant bit of the
// first byte first. Reads need not be byte aligned.
type BitSource struct {
	bytes []byte
	pos   int // next bit, counted from the start of bytes
}

// NewBitSource returns a reader positioned at the first bit of bytes.
func NewBitSource(bytes []byte) *BitSource {
	return &BitSource{bytes: bytes}
}

// BitOffset returns the index of the next bit within the current byte.
func (bs *BitSource) BitOffset() int {
	return bs.pos & 7
}

// ByteOffset returns the index of the next byte to be read.
func (bs *BitSource) ByteOffset() int {
	return bs.pos >> 3
}

// ReadBits consumes numBits (1..32) bits and returns them as the low bits
// of an int. Nothing is consumed on error.
func (bs *BitSource) ReadBits(numBits int) (int, error) {
	if numBits < 1 || numBits > 32 || numBits > bs.Available() {
		return 0, &BitSourceError{NumBits: numBits, Available: bs.Available()}
	}
	result := 0
	for end := bs.pos + numBits; bs.pos < end; bs.pos++ {
		bit := bs.bytes[bs.pos>>3] >> uint(7-bs.pos&7) & 1
		result = result<<1 | int(bit)
	}
	return result, nil
}

// Available returns the number of bits that can still be read.
func (bs *BitSource) Available() int {
	return 8*len(bs.bytes) - bs.pos
}

// BitSourceError is returned when a read asks for more bits than remain or
// for a width outside 1..32.
type BitSourceError struct {
	NumBits   int
	Available int
}

func (e *BitSourceError) Error() string {
	return fmt.Sprintf("bitsource: cannot read %d bits, %d available", e.NumBits, e.Available)
}
