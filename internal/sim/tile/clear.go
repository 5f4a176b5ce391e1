package tile

import (
	"fmt"

	"tilevault.dev/internal/sim/owner"
)

// Ground is the surface variant of a clear cell, stored in f5 bits 2..4.
type Ground uint8

const (
	GroundBare Ground = iota
	GroundGrass
	GroundRough
	GroundRocks
	GroundFields
	GroundSnow
)

// Edge names one compass edge of a cell for fence storage.
type Edge uint8

const (
	EdgeNE Edge = iota
	EdgeSE
	EdgeSW
	EdgeNW
)

// Fence is a 3-bit fence variant; zero means no fence.
type Fence uint8

// Clear bit layout, valid only while the kind tag is KindClear:
//
//	f1          owner
//	f2          producer id          (fields only)
//	f3 0..2     transition counter   (non-fields)
//	f3 0..3     crop stage           (fields only)
//	f4 0..2     fence SW, 3..5 fence SE
//	f5 0..1     density              (non-fields)
//	f5 2..4     ground
//	e6 0..2     fence NE, 3..5 fence NW
const (
	clearGroundOfs   = 2
	clearGroundBits  = 3
	clearDensityOfs  = 0
	clearDensityBits = 2
	clearCounterOfs  = 0
	clearCounterBits = 3
	clearStageOfs    = 0
	clearStageBits   = 4
	fenceBits        = 3
)

// ClearTile is a typed view over one clear cell. The checked constructor is
// the debug contract; ClearUnchecked keeps the hot path branch-free.
type ClearTile struct {
	a *Arena
	i Index
}

func Clear(a *Arena, i Index) ClearTile {
	if k := a.Kind(i); k != KindClear {
		panic(fmt.Sprintf("tile: clear view over kind %d at %d", k, i))
	}
	return ClearTile{a, i}
}

func ClearUnchecked(a *Arena, i Index) ClearTile { return ClearTile{a, i} }

func (t ClearTile) Index() Index { return t.i }

func (t ClearTile) Ground() Ground {
	return Ground(GetBits8(t.a.base[t.i].f5, clearGroundOfs, clearGroundBits))
}

func (t ClearTile) IsFields() bool { return t.Ground() == GroundFields }

func (t ClearTile) Owner() owner.Owner { return owner.Owner(t.a.base[t.i].f1) }

func (t ClearTile) SetOwner(o owner.Owner) { t.a.base[t.i].f1 = uint8(o) }

// Density is meaningless on fields; the crop stage reuses those bits.
func (t ClearTile) Density() uint8 {
	t.notFields("density")
	return GetBits8(t.a.base[t.i].f5, clearDensityOfs, clearDensityBits)
}

func (t ClearTile) SetDensity(d uint8) {
	t.notFields("density")
	t.a.base[t.i].f5 = SetBits8(t.a.base[t.i].f5, clearDensityOfs, clearDensityBits, d)
}

// Counter advances automatic ground transitions (grass regrowth and the like).
func (t ClearTile) Counter() uint8 {
	t.notFields("counter")
	return GetBits8(t.a.base[t.i].f3, clearCounterOfs, clearCounterBits)
}

func (t ClearTile) SetCounter(c uint8) {
	t.notFields("counter")
	t.a.base[t.i].f3 = SetBits8(t.a.base[t.i].f3, clearCounterOfs, clearCounterBits, c)
}

func (t ClearTile) CropStage() uint8 {
	t.fieldsOnly("crop stage")
	return GetBits8(t.a.base[t.i].f3, clearStageOfs, clearStageBits)
}

func (t ClearTile) SetCropStage(s uint8) {
	t.fieldsOnly("crop stage")
	t.a.base[t.i].f3 = SetBits8(t.a.base[t.i].f3, clearStageOfs, clearStageBits, s)
}

// ProducerID is the slot of the producer farming this cell.
func (t ClearTile) ProducerID() uint16 {
	t.fieldsOnly("producer")
	return t.a.base[t.i].f2
}

func (t ClearTile) SetProducerID(id uint16) {
	t.fieldsOnly("producer")
	t.a.base[t.i].f2 = id
}

// Fence reads the fence on one edge. The four edges live non-contiguously
// across f4 and e6; the switch is exhaustive.
func (t ClearTile) Fence(e Edge) Fence {
	t.fieldsOnly("fence")
	switch e {
	case EdgeSW:
		return Fence(GetBits8(t.a.base[t.i].f4, 0, fenceBits))
	case EdgeSE:
		return Fence(GetBits8(t.a.base[t.i].f4, 3, fenceBits))
	case EdgeNE:
		return Fence(GetBits8(t.a.ext[t.i].e6, 0, fenceBits))
	case EdgeNW:
		return Fence(GetBits8(t.a.ext[t.i].e6, 3, fenceBits))
	default:
		panic(fmt.Sprintf("tile: fence edge %d", e))
	}
}

func (t ClearTile) SetFence(e Edge, f Fence) {
	t.fieldsOnly("fence")
	switch e {
	case EdgeSW:
		t.a.base[t.i].f4 = SetBits8(t.a.base[t.i].f4, 0, fenceBits, uint8(f))
	case EdgeSE:
		t.a.base[t.i].f4 = SetBits8(t.a.base[t.i].f4, 3, fenceBits, uint8(f))
	case EdgeNE:
		t.a.ext[t.i].e6 = SetBits8(t.a.ext[t.i].e6, 0, fenceBits, uint8(f))
	case EdgeNW:
		t.a.ext[t.i].e6 = SetBits8(t.a.ext[t.i].e6, 3, fenceBits, uint8(f))
	default:
		panic(fmt.Sprintf("tile: fence edge %d", e))
	}
}

func (t ClearTile) notFields(what string) {
	if t.IsFields() {
		panic("tile: " + what + " read on fields cell")
	}
}

func (t ClearTile) fieldsOnly(what string) {
	if !t.IsFields() {
		panic("tile: " + what + " read on non-fields cell")
	}
}

// MakeClear rewrites the cell as plain clear ground. Every other
// interpretation of the shared bytes is zeroed first so stale bits from a
// previous kind cannot leak through.
func MakeClear(a *Arena, i Index, g Ground, density uint8, o owner.Owner) ClearTile {
	if g == GroundFields {
		panic("tile: MakeClear with fields ground, use MakeField")
	}
	wipe(a, i)
	a.setKind(i, KindClear)
	a.base[i].f1 = uint8(o)
	a.base[i].f5 = SetBits8(0, clearGroundOfs, clearGroundBits, uint8(g))
	t := ClearTile{a, i}
	t.SetDensity(density)
	return t
}

// MakeField rewrites the cell as farmland held by the given producer slot.
func MakeField(a *Arena, i Index, stage uint8, producer uint16, o owner.Owner) ClearTile {
	wipe(a, i)
	a.setKind(i, KindClear)
	a.base[i].f1 = uint8(o)
	a.base[i].f2 = producer
	a.base[i].f5 = SetBits8(0, clearGroundOfs, clearGroundBits, uint8(GroundFields))
	t := ClearTile{a, i}
	t.SetCropStage(stage)
	return t
}

// MakeWater rewrites the cell as open water held by nobody.
func MakeWater(a *Arena, i Index) {
	wipe(a, i)
	a.setKind(i, KindWater)
	a.base[i].f1 = uint8(owner.None)
}

func wipe(a *Arena, i Index) {
	h := a.Elevation(i)
	a.base[i] = baseCell{}
	a.ext[i] = extCell{}
	a.SetElevation(i, h)
}
