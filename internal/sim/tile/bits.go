package tile

import "fmt"

// GetBits extracts width bits of x starting at offset.
// offset+width beyond 16 is a schema authoring bug, not a data error.
func GetBits(x uint16, offset, width uint) uint16 {
	checkRange(offset, width, 16)
	return (x >> offset) & (1<<width - 1)
}

// SetBits returns x with width bits at offset replaced by v.
// Bits outside [offset, offset+width) are preserved.
func SetBits(x uint16, offset, width uint, v uint16) uint16 {
	checkRange(offset, width, 16)
	mask := uint16(1<<width-1) << offset
	return x&^mask | (v << offset & mask)
}

// GetBits8 and SetBits8 are the byte-field variants.

func GetBits8(x uint8, offset, width uint) uint8 {
	checkRange(offset, width, 8)
	return (x >> offset) & (1<<width - 1)
}

func SetBits8(x uint8, offset, width uint, v uint8) uint8 {
	checkRange(offset, width, 8)
	mask := uint8(1<<width-1) << offset
	return x&^mask | (v << offset & mask)
}

func checkRange(offset, width, fieldBits uint) {
	if width == 0 || offset+width > fieldBits {
		panic(fmt.Sprintf("tile: bit range [%d,%d) outside %d-bit field", offset, offset+width, fieldBits))
	}
}
