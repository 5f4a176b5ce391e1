package world

import "tilevault.dev/internal/sim/owner"

// Sign is a free-standing map label. Its slot index in the pool is its
// stable identity across save files.
type Sign struct {
	Text  string
	X, Y  int32
	Z     int32
	Owner owner.Owner
	Style uint8
}

// SignPool is a slot array with holes. Load fabricates records at exact
// indices; save enumerates occupied slots, so compaction is never needed.
type SignPool struct {
	slots []*Sign
}

// GetOrCreate returns the sign at slot i, fabricating it first if needed.
// Fresh records start with the unset owner so legacy streams that never
// carried one are left for the migration pass to resolve.
func (p *SignPool) GetOrCreate(i int) *Sign {
	for len(p.slots) <= i {
		p.slots = append(p.slots, nil)
	}
	if p.slots[i] == nil {
		p.slots[i] = &Sign{Owner: owner.Invalid}
	}
	return p.slots[i]
}

// Add places a sign in the first free slot and returns its index.
func (p *SignPool) Add(s *Sign) int {
	for i, slot := range p.slots {
		if slot == nil {
			p.slots[i] = s
			return i
		}
	}
	p.slots = append(p.slots, s)
	return len(p.slots) - 1
}

func (p *SignPool) Get(i int) *Sign {
	if i < 0 || i >= len(p.slots) {
		return nil
	}
	return p.slots[i]
}

func (p *SignPool) Remove(i int) {
	if i >= 0 && i < len(p.slots) {
		p.slots[i] = nil
	}
}

// Each visits occupied slots in ascending index order.
func (p *SignPool) Each(fn func(i int, s *Sign)) {
	for i, s := range p.slots {
		if s != nil {
			fn(i, s)
		}
	}
}

func (p *SignPool) Len() int {
	n := 0
	for _, s := range p.slots {
		if s != nil {
			n++
		}
	}
	return n
}
