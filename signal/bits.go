// Package signal provides fixed-width bit vectors for sampling and driving
// multi-bit device lines such as interrupt sources and per-target outputs.
//
// Bit i of a vector corresponds to line i. Accessors panic on out-of-range
// indices, the same way a slice index would.
package signal

import (
	"fmt"
	"math/bits"
	"strings"
)

// Bits is a fixed-width vector of lines.
type Bits struct {
	width int
	words []uint64
}

// NewBits creates an all-zero vector with the given number of lines.
func NewBits(width int) *Bits {
	if width < 0 {
		panic(fmt.Sprintf("signal: negative width %d", width))
	}
	return &Bits{
		width: width,
		words: make([]uint64, (width+63)/64),
	}
}

// Width returns the number of lines.
func (b *Bits) Width() int {
	return b.width
}

func (b *Bits) check(i int) {
	if i < 0 || i >= b.width {
		panic(fmt.Sprintf("signal: line %d out of range [0, %d)", i, b.width))
	}
}

// Get returns the level of line i.
func (b *Bits) Get(i int) bool {
	b.check(i)
	return b.words[i/64]&(1<<(uint(i)%64)) != 0
}

// Set drives line i to v.
func (b *Bits) Set(i int, v bool) {
	b.check(i)
	mask := uint64(1) << (uint(i) % 64)
	if v {
		b.words[i/64] |= mask
	} else {
		b.words[i/64] &^= mask
	}
}

// Toggle inverts line i.
func (b *Bits) Toggle(i int) {
	b.check(i)
	b.words[i/64] ^= 1 << (uint(i) % 64)
}

// Word32 returns lines [32*w, 32*w+32) packed into a register-sized word.
// Lines past the width read as zero.
func (b *Bits) Word32(w int) uint32 {
	if w < 0 || w*32 >= b.width {
		return 0
	}
	v := uint32(b.words[w/2] >> (uint(w%2) * 32))
	if rem := b.width - w*32; rem < 32 {
		v &= 1<<uint(rem) - 1
	}
	return v
}

// SetWord32 drives lines [32*w, 32*w+32) from v. Bits past the width are
// ignored.
func (b *Bits) SetWord32(w int, v uint32) {
	for i := 0; i < 32; i++ {
		line := w*32 + i
		if line >= b.width {
			break
		}
		b.Set(line, v&(1<<uint(i)) != 0)
	}
}

// Any reports whether at least one line is high.
func (b *Bits) Any() bool {
	for _, w := range b.words {
		if w != 0 {
			return true
		}
	}
	return false
}

// OnesCount returns the number of high lines.
func (b *Bits) OnesCount() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Clear drives every line low.
func (b *Bits) Clear() {
	for i := range b.words {
		b.words[i] = 0
	}
}

// Clone returns an independent copy.
func (b *Bits) Clone() *Bits {
	c := &Bits{width: b.width, words: make([]uint64, len(b.words))}
	copy(c.words, b.words)
	return c
}

// CopyFrom overwrites b with the lines of o. Both must have the same width.
func (b *Bits) CopyFrom(o *Bits) {
	if o.width != b.width {
		panic(fmt.Sprintf("signal: width mismatch %d != %d", b.width, o.width))
	}
	copy(b.words, o.words)
}

// Equal reports whether both vectors have the same width and levels.
func (b *Bits) Equal(o *Bits) bool {
	if b.width != o.width {
		return false
	}
	for i := range b.words {
		if b.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// String renders the vector as hex, most significant word first.
func (b *Bits) String() string {
	if b.width == 0 {
		return "0x0"
	}
	var sb strings.Builder
	sb.WriteString("0x")
	for i := len(b.words) - 1; i >= 0; i-- {
		if i == len(b.words)-1 {
			fmt.Fprintf(&sb, "%x", b.words[i])
		} else {
			fmt.Fprintf(&sb, "_%016x", b.words[i])
		}
	}
	return sb.String()
}
