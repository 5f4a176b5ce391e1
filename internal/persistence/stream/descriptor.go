package stream

import "fmt"

// Version is the global schema revision carried in the stream header.
// Readers accept any past revision; writers emit only the current one.
type Version uint16

// Purpose tags what the stream is for; migration rules may branch on it.
type Purpose uint8

const (
	PurposeGame Purpose = iota
	PurposeScenario
)

// Width is an integer encoding: byte count plus signedness. A descriptor
// pairs an on-disk width with an in-memory width; the transcoder narrows,
// widens, or sign-extends between them.
type Width uint8

const (
	U8 Width = iota
	I8
	U16
	I16
	U32
	I32
)

func (w Width) Bytes() int {
	switch w {
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	case U32, I32:
		return 4
	}
	panic(fmt.Sprintf("stream: width %d", w))
}

func (w Width) Signed() bool { return w == I8 || w == I16 || w == I32 }

// Fits reports whether v survives encoding at width w without loss.
func (w Width) Fits(v int64) bool {
	bits := uint(w.Bytes() * 8)
	if w.Signed() {
		return v >= -(1<<(bits-1)) && v < 1<<(bits-1)
	}
	return v >= 0 && v < 1<<bits
}

// Desc declares one field of entity type T: its on-disk and in-memory
// encodings, the version range [From,To) in which it appears in the stream,
// and an optional feature predicate. Descriptors are applied in declaration
// order; for any one version at most one descriptor per field name may be
// active (checked offline by ValidateTable, not by Resolve).
type Desc[T any] struct {
	Name     string
	File     Width
	Mem      Width
	From, To Version
	If       Pred

	// Lossy accepts silent truncation when the in-memory value does not fit
	// the on-disk width, matching legacy behavior. Without it an oversized
	// value is a fatal encoding error.
	Lossy bool

	Peek func(*T) int64
	Poke func(*T, int64)

	// String fields set Str/SetStr instead of Peek/Poke. FixedLen > 0 selects
	// the legacy NUL-padded fixed buffer encoding of that many bytes.
	Str      func(*T) string
	SetStr   func(*T, string)
	FixedLen int
}

// Forever leaves a descriptor active in all versions from From on.
const Forever Version = 0xFFFF

func (d Desc[T]) active(v Version, ft FeatureTable) bool {
	if v < d.From || v >= d.To {
		return false
	}
	if d.If != nil && !d.If.eval(ft) {
		return false
	}
	return true
}

// Resolve returns the descriptors active for one stream, declaration order
// preserved. Pure: same inputs, same answer.
func Resolve[T any](descs []Desc[T], v Version, ft FeatureTable) []Desc[T] {
	out := make([]Desc[T], 0, len(descs))
	for _, d := range descs {
		if d.active(v, ft) {
			out = append(out, d)
		}
	}
	return out
}

// ValidateTable is the offline schema consistency check: no two descriptors
// for the same field may be active at the same version unless their feature
// predicates are provably exclusive. A failure is an authoring bug.
func ValidateTable[T any](table string, descs []Desc[T]) error {
	for i := 0; i < len(descs); i++ {
		for j := i + 1; j < len(descs); j++ {
			a, b := descs[i], descs[j]
			if a.Name != b.Name {
				continue
			}
			if a.To <= b.From || b.To <= a.From {
				continue
			}
			if exclusivePreds(a.If, b.If) {
				continue
			}
			return fmt.Errorf("table %s: field %q: descriptors %d and %d overlap in [%d,%d)x[%d,%d)",
				table, a.Name, i, j, a.From, a.To, b.From, b.To)
		}
	}
	return nil
}

// exclusivePreds recognizes the one mutually exclusive pair the schema uses:
// feature-absent against feature-at-least on the same id.
func exclusivePreds(a, b Pred) bool {
	ab, aok := a.(featureAbsent)
	bl, bok := b.(featureAtLeast)
	if aok && bok && ab.id == bl.id {
		return true
	}
	al, aok := a.(featureAtLeast)
	bb, bok := b.(featureAbsent)
	return aok && bok && al.id == bb.id
}
