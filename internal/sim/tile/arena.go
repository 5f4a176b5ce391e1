// Package tile stores the map as a flat arena of fixed-size packed records.
//
// Each cell is 10 bytes split across two co-located arrays: a 7-byte base
// record and a 3-byte extension record. The bytes carry no intrinsic meaning;
// interpretation is assigned by the kind tag in the top nibble of kindHeight
// and enforced only by the typed views in this package, never by the storage.
package tile

import "fmt"

// Kind is the cell type tag. It selects which typed view may touch the cell.
type Kind uint8

const (
	KindVoid Kind = iota
	KindClear
	KindWater
)

// Index addresses one cell within an arena.
type Index uint32

type baseCell struct {
	kindHeight uint8 // kind tag high nibble, height low nibble
	f1         uint8
	f2         uint16
	f3, f4, f5 uint8
}

type extCell struct {
	e6 uint8
	e7 uint16
}

// Arena is the backing store for one map. Accessors take an arena plus index
// explicitly so tests can run against small synthetic arenas.
type Arena struct {
	width, height int
	base          []baseCell
	ext           []extCell
}

func NewArena(width, height int) *Arena {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("tile: arena size %dx%d", width, height))
	}
	n := width * height
	return &Arena{
		width:  width,
		height: height,
		base:   make([]baseCell, n),
		ext:    make([]extCell, n),
	}
}

func (a *Arena) Width() int  { return a.width }
func (a *Arena) Height() int { return a.height }
func (a *Arena) Size() int   { return len(a.base) }

func (a *Arena) XY(x, y int) Index { return Index(y*a.width + x) }

func (a *Arena) Kind(i Index) Kind {
	return Kind(GetBits8(a.base[i].kindHeight, 4, 4))
}

func (a *Arena) Elevation(i Index) uint8 {
	return GetBits8(a.base[i].kindHeight, 0, 4)
}

func (a *Arena) SetElevation(i Index, h uint8) {
	a.base[i].kindHeight = SetBits8(a.base[i].kindHeight, 0, 4, h)
}

func (a *Arena) setKind(i Index, k Kind) {
	a.base[i].kindHeight = SetBits8(a.base[i].kindHeight, 4, 4, uint8(k))
}

// Raw plane accessors feed the per-plane save stream chunks. They expose the
// untyped bytes as-is; load handlers must not interpret them.

func (a *Arena) RawKindHeight(i Index) uint8       { return a.base[i].kindHeight }
func (a *Arena) SetRawKindHeight(i Index, v uint8) { a.base[i].kindHeight = v }

func (a *Arena) Raw1(i Index) uint8       { return a.base[i].f1 }
func (a *Arena) SetRaw1(i Index, v uint8) { a.base[i].f1 = v }

func (a *Arena) Raw2(i Index) uint16       { return a.base[i].f2 }
func (a *Arena) SetRaw2(i Index, v uint16) { a.base[i].f2 = v }

func (a *Arena) Raw3(i Index) uint8       { return a.base[i].f3 }
func (a *Arena) SetRaw3(i Index, v uint8) { a.base[i].f3 = v }

func (a *Arena) Raw4(i Index) uint8       { return a.base[i].f4 }
func (a *Arena) SetRaw4(i Index, v uint8) { a.base[i].f4 = v }

func (a *Arena) Raw5(i Index) uint8       { return a.base[i].f5 }
func (a *Arena) SetRaw5(i Index, v uint8) { a.base[i].f5 = v }

func (a *Arena) RawE6(i Index) uint8       { return a.ext[i].e6 }
func (a *Arena) SetRawE6(i Index, v uint8) { a.ext[i].e6 = v }

func (a *Arena) RawE7(i Index) uint16       { return a.ext[i].e7 }
func (a *Arena) SetRawE7(i Index, v uint16) { a.ext[i].e7 = v }
