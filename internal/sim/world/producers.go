package world

import (
	"tilevault.dev/internal/sim/owner"
	"tilevault.dev/internal/sim/tile"
)

// Producer works the farmland cells that reference its slot.
type Producer struct {
	Home  tile.Index
	Stage uint8
	Owner owner.Owner

	// Rating is kept at full width in memory but the stream has always
	// stored it as a single signed byte; the narrowing is declared lossy.
	Rating int32
}

// ProducerPool mirrors SignPool: slot identity, holes allowed.
type ProducerPool struct {
	slots []*Producer
}

func (p *ProducerPool) GetOrCreate(i int) *Producer {
	for len(p.slots) <= i {
		p.slots = append(p.slots, nil)
	}
	if p.slots[i] == nil {
		p.slots[i] = &Producer{Owner: owner.Invalid}
	}
	return p.slots[i]
}

func (p *ProducerPool) Add(pr *Producer) int {
	for i, slot := range p.slots {
		if slot == nil {
			p.slots[i] = pr
			return i
		}
	}
	p.slots = append(p.slots, pr)
	return len(p.slots) - 1
}

func (p *ProducerPool) Get(i int) *Producer {
	if i < 0 || i >= len(p.slots) {
		return nil
	}
	return p.slots[i]
}

func (p *ProducerPool) Remove(i int) {
	if i >= 0 && i < len(p.slots) {
		p.slots[i] = nil
	}
}

func (p *ProducerPool) Each(fn func(i int, pr *Producer)) {
	for i, pr := range p.slots {
		if pr != nil {
			fn(i, pr)
		}
	}
}

func (p *ProducerPool) Len() int {
	n := 0
	for _, pr := range p.slots {
		if pr != nil {
			n++
		}
	}
	return n
}
