// Package bitutil provides the bit containers shared by the reader and the
// writer: a growable bit array, a 2D bit matrix and an MSB-first bit reader.
package bitutil

import "strings"

// BitArray is a growable array of bits packed into uint32 words, bit i
// living at position i%32 of word i/32. The encoder appends to it most
// significant bit first.
type BitArray struct {
	words []uint32
	size  int
}

// NewBitArray returns an array of size unset bits.
func NewBitArray(size int) *BitArray {
	if size <= 0 {
		return &BitArray{}
	}
	return &BitArray{words: make([]uint32, wordsFor(size)), size: size}
}

func wordsFor(bits int) int {
	return (bits + 31) >> 5
}

func bitMask(i int) uint32 {
	return 1 << uint(i&31)
}

// Size returns the number of bits in the array.
func (ba *BitArray) Size() int {
	return ba.size
}

// SizeInBytes returns the number of bytes needed to hold the bits.
func (ba *BitArray) SizeInBytes() int {
	return (ba.size + 7) >> 3
}

// grow makes room for n more bits.
func (ba *BitArray) grow(n int) {
	for need := wordsFor(ba.size + n); len(ba.words) < need; {
		ba.words = append(ba.words, 0)
	}
}

// Get reports whether bit i is set.
func (ba *BitArray) Get(i int) bool {
	return ba.words[i>>5]&bitMask(i) != 0
}

// Set sets bit i.
func (ba *BitArray) Set(i int) {
	ba.words[i>>5] |= bitMask(i)
}

// Flip inverts bit i.
func (ba *BitArray) Flip(i int) {
	ba.words[i>>5] ^= bitMask(i)
}

// AppendBit adds one bit at the end.
func (ba *BitArray) AppendBit(bit bool) {
	ba.grow(1)
	if bit {
		ba.Set(ba.size)
	}
	ba.size++
}

// AppendBits appends the low numBits bits of value, most significant
// first. numBits must be within 0..32.
func (ba *BitArray) AppendBits(value uint32, numBits int) {
	if numBits < 0 || numBits > 32 {
		panic("bitutil: numBits must be between 0 and 32")
	}
	ba.grow(numBits)
	for shift := numBits - 1; shift >= 0; shift-- {
		if value>>uint(shift)&1 == 1 {
			ba.Set(ba.size)
		}
		ba.size++
	}
}

// AppendBitArray appends every bit of other.
func (ba *BitArray) AppendBitArray(other *BitArray) {
	ba.grow(other.size)
	for i := 0; i < other.size; i++ {
		ba.AppendBit(other.Get(i))
	}
}

// Bytes returns the array packed into bytes, the last byte zero padded.
func (ba *BitArray) Bytes() []byte {
	out := make([]byte, ba.SizeInBytes())
	for i := 0; i < ba.size; i++ {
		if ba.Get(i) {
			out[i>>3] |= 0x80 >> uint(i&7)
		}
	}
	return out
}

// String draws set bits as 'X' and unset bits as '.', with a space
// before every byte.
func (ba *BitArray) String() string {
	var sb strings.Builder
	sb.Grow(ba.size + ba.size/8 + 1)
	for i := 0; i < ba.size; i++ {
		if i&7 == 0 {
			sb.WriteByte(' ')
		}
		if ba.Get(i) {
			sb.WriteByte('X')
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
