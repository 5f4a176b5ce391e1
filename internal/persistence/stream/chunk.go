package stream

import "fmt"

// ChunkID is the 4-byte tag naming one independently loadable section.
// The all-zero id is reserved as the end-of-stream marker.
type ChunkID [4]byte

func ID(s string) ChunkID {
	if len(s) != 4 {
		panic(fmt.Sprintf("stream: chunk id %q", s))
	}
	var id ChunkID
	copy(id[:], s)
	return id
}

func (id ChunkID) String() string { return string(id[:]) }

// Handlers is the load / post-load-fixup / save triple for one chunk.
// Legacy chunks are accepted on read and never written.
type Handlers struct {
	ID     ChunkID
	Load   func(*Reader) error
	Fixup  func() error
	Save   func(*Writer) error
	Legacy bool
}

// Registry dispatches chunk ids. Registration order is the save order and
// the fixup order; it is fixed once load or save begins.
type Registry struct {
	order []Handlers
	byID  map[ChunkID]int
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[ChunkID]int)}
}

func (g *Registry) Register(h Handlers) {
	if h.ID == (ChunkID{}) {
		panic("stream: zero chunk id is the stream terminator")
	}
	if _, dup := g.byID[h.ID]; dup {
		panic(fmt.Sprintf("stream: duplicate chunk id %s", h.ID))
	}
	if h.Legacy && h.Save != nil {
		panic(fmt.Sprintf("stream: legacy chunk %s with save handler", h.ID))
	}
	g.byID[h.ID] = len(g.order)
	g.order = append(g.order, h)
}

// SkippedChunk records a well-formed chunk whose id nobody registered.
type SkippedChunk struct {
	ID     ChunkID
	Length uint32
}

// LoadResult carries the non-fatal diagnostics of one load pass.
type LoadResult struct {
	Skipped []SkippedChunk
}

// LoadAll reads chunks until the end-of-stream marker. Unknown ids are
// skipped by their declared length and recorded; everything else that goes
// wrong aborts the whole pass.
func (g *Registry) LoadAll(r *Reader) (*LoadResult, error) {
	res := &LoadResult{}
	for {
		id, length, done, err := r.NextChunk()
		if err != nil {
			return res, err
		}
		if done {
			return res, nil
		}
		idx, known := g.byID[id]
		if !known {
			if err := r.Skip(); err != nil {
				return res, err
			}
			res.Skipped = append(res.Skipped, SkippedChunk{ID: id, Length: length})
			continue
		}
		h := g.order[idx]
		if h.Load == nil {
			if err := r.Skip(); err != nil {
				return res, err
			}
			continue
		}
		if err := h.Load(r); err != nil {
			return res, fmt.Errorf("chunk %s: %w", id, err)
		}
		if err := r.EndChunk(id); err != nil {
			return res, err
		}
	}
}

// FixupAll runs every fixup once, registration order, after all chunks are
// resident. Cross-chunk repairs belong here, never in a load handler.
func (g *Registry) FixupAll() error {
	for _, h := range g.order {
		if h.Fixup == nil {
			continue
		}
		if err := h.Fixup(); err != nil {
			return fmt.Errorf("fixup %s: %w", h.ID, err)
		}
	}
	return nil
}

// SaveAll writes every non-legacy chunk in registration order.
func (g *Registry) SaveAll(w *Writer) error {
	for _, h := range g.order {
		if h.Legacy || h.Save == nil {
			continue
		}
		w.BeginChunk(h.ID)
		if err := h.Save(w); err != nil {
			return fmt.Errorf("chunk %s: %w", h.ID, err)
		}
		if err := w.EndChunk(); err != nil {
			return fmt.Errorf("chunk %s: %w", h.ID, err)
		}
	}
	return nil
}
