package tile

import "testing"

func TestBits_RoundTrip(t *testing.T) {
	var x uint16
	x = SetBits(x, 3, 5, 0b10110)
	if got := GetBits(x, 3, 5); got != 0b10110 {
		t.Fatalf("GetBits=%b want 10110", got)
	}
}

func TestBits_DisjointRangesDoNotInterfere(t *testing.T) {
	var x uint8
	x = SetBits8(x, 0, 2, 0b11)
	x = SetBits8(x, 2, 3, 0b101)
	x = SetBits8(x, 5, 3, 0b010)

	if got := GetBits8(x, 0, 2); got != 0b11 {
		t.Fatalf("low bits perturbed: %b", got)
	}
	if got := GetBits8(x, 2, 3); got != 0b101 {
		t.Fatalf("mid bits perturbed: %b", got)
	}
	if got := GetBits8(x, 5, 3); got != 0b010 {
		t.Fatalf("high bits perturbed: %b", got)
	}

	// Overwriting one range leaves the others alone.
	x = SetBits8(x, 2, 3, 0b000)
	if got := GetBits8(x, 0, 2); got != 0b11 {
		t.Fatalf("low bits perturbed by overwrite: %b", got)
	}
	if got := GetBits8(x, 5, 3); got != 0b010 {
		t.Fatalf("high bits perturbed by overwrite: %b", got)
	}
}

func TestBits_OversizedValueMasked(t *testing.T) {
	x := SetBits8(0xFF, 2, 2, 0b1111)
	if got := GetBits8(x, 2, 2); got != 0b11 {
		t.Fatalf("masked value=%b", got)
	}
	if got := GetBits8(x, 4, 4); got != 0xF {
		t.Fatalf("neighbor bits perturbed: %b", got)
	}
}

func TestBits_OutOfRangePanics(t *testing.T) {
	for _, tc := range []struct {
		name          string
		offset, width uint
	}{
		{"past end", 7, 2},
		{"zero width", 3, 0},
		{"width too large", 0, 9},
	} {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("no panic for offset=%d width=%d", tc.offset, tc.width)
				}
			}()
			GetBits8(0, tc.offset, tc.width)
		})
	}
}
