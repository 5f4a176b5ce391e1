package tile

import (
	"testing"

	"tilevault.dev/internal/sim/owner"
)

func TestMakeClear_ThenReinterpretAsField(t *testing.T) {
	a := NewArena(4, 4)
	i := a.XY(1, 2)

	c := MakeClear(a, i, GroundGrass, 2, owner.None)
	if c.Ground() != GroundGrass {
		t.Fatalf("ground=%d want grass", c.Ground())
	}
	if c.Density() != 2 {
		t.Fatalf("density=%d want 2", c.Density())
	}

	f := MakeField(a, i, 1, 5, owner.None)
	if f.Ground() != GroundFields {
		t.Fatalf("ground=%d want fields", f.Ground())
	}
	if f.CropStage() != 1 {
		t.Fatalf("stage=%d want 1", f.CropStage())
	}
	if f.ProducerID() != 5 {
		t.Fatalf("producer=%d want 5", f.ProducerID())
	}

	// Density is not a fields attribute; asking for it is a contract breach.
	defer func() {
		if recover() == nil {
			t.Fatalf("density read on fields did not panic")
		}
	}()
	f.Density()
}

func TestMake_ZeroesOtherInterpretations(t *testing.T) {
	a := NewArena(4, 4)
	i := a.XY(0, 0)

	// Saturate every farmland sub-field, then flip back to plain clear.
	f := MakeField(a, i, 9, 0xFFFF, owner.Owner(3))
	f.SetFence(EdgeNE, 7)
	f.SetFence(EdgeSE, 7)
	f.SetFence(EdgeSW, 7)
	f.SetFence(EdgeNW, 7)

	c := MakeClear(a, i, GroundRough, 0, owner.Owner(3))
	if c.Density() != 0 {
		t.Fatalf("stale bits leaked into density: %d", c.Density())
	}
	if c.Counter() != 0 {
		t.Fatalf("stale bits leaked into counter: %d", c.Counter())
	}
	if a.Raw2(i) != 0 {
		t.Fatalf("stale producer id survived: %#x", a.Raw2(i))
	}
	if a.Raw4(i) != 0 || a.RawE6(i) != 0 {
		t.Fatalf("stale fences survived: f4=%#x e6=%#x", a.Raw4(i), a.RawE6(i))
	}

	// And back to fields again: no clear-ground residue either.
	f = MakeField(a, i, 0, 1, owner.Owner(3))
	if f.CropStage() != 0 {
		t.Fatalf("stale stage: %d", f.CropStage())
	}
	for _, e := range []Edge{EdgeNE, EdgeSE, EdgeSW, EdgeNW} {
		if f.Fence(e) != 0 {
			t.Fatalf("stale fence on edge %d", e)
		}
	}
}

func TestMake_PreservesElevation(t *testing.T) {
	a := NewArena(2, 2)
	i := a.XY(1, 1)
	MakeClear(a, i, GroundGrass, 1, owner.None)
	a.SetElevation(i, 9)
	MakeField(a, i, 2, 0, owner.None)
	if a.Elevation(i) != 9 {
		t.Fatalf("elevation=%d want 9", a.Elevation(i))
	}
}

func TestFences_EdgesAreIndependent(t *testing.T) {
	a := NewArena(2, 2)
	f := MakeField(a, a.XY(0, 1), 0, 0, owner.None)

	f.SetFence(EdgeSW, 5)
	f.SetFence(EdgeNW, 3)
	want := map[Edge]Fence{EdgeNE: 0, EdgeSE: 0, EdgeSW: 5, EdgeNW: 3}
	for e, v := range want {
		if got := f.Fence(e); got != v {
			t.Fatalf("edge %d fence=%d want %d", e, got, v)
		}
	}

	f.SetFence(EdgeSE, 7)
	if f.Fence(EdgeSW) != 5 || f.Fence(EdgeNW) != 3 {
		t.Fatalf("setting SE perturbed other edges")
	}
}

func TestClear_ChecksKindTag(t *testing.T) {
	a := NewArena(2, 2)
	i := a.XY(0, 0)
	MakeWater(a, i)
	defer func() {
		if recover() == nil {
			t.Fatalf("clear view over water did not panic")
		}
	}()
	Clear(a, i)
}

func TestClear_OwnerAndCounter(t *testing.T) {
	a := NewArena(2, 2)
	c := MakeClear(a, a.XY(1, 0), GroundSnow, 3, owner.Owner(7))
	if c.Owner() != owner.Owner(7) {
		t.Fatalf("owner=%d", c.Owner())
	}
	c.SetCounter(5)
	if c.Counter() != 5 {
		t.Fatalf("counter=%d", c.Counter())
	}
	if c.Density() != 3 {
		t.Fatalf("counter write perturbed density: %d", c.Density())
	}
}
