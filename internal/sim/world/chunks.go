package world

import (
	"fmt"

	"tilevault.dev/internal/persistence/stream"
	"tilevault.dev/internal/sim/tile"
	"tilevault.dev/internal/sim/tuning"
)

// maxMapSide bounds the dimensions a stream may declare before we allocate.
const maxMapSide = 4096

// registry wires every chunk of the save stream to this world. Registration
// order is the save order: MAPS must precede the plane chunks because it
// allocates the arena they fill.
func (w *World) registry(rules tuning.Migrations) *stream.Registry {
	reg := stream.NewRegistry()

	reg.Register(stream.Handlers{
		ID:   stream.ID("MAPS"),
		Load: w.loadMapSize,
		Save: func(sw *stream.Writer) error {
			sw.WriteU32(uint32(w.Arena.Width()))
			sw.WriteU32(uint32(w.Arena.Height()))
			return nil
		},
	})

	reg.Register(w.bytePlane("MAPT", (*tile.Arena).RawKindHeight, (*tile.Arena).SetRawKindHeight))
	reg.Register(w.bytePlane("MAPO", (*tile.Arena).Raw1, (*tile.Arena).SetRaw1))
	reg.Register(w.wordPlane("MAPA", (*tile.Arena).Raw2, (*tile.Arena).SetRaw2))
	reg.Register(w.bytePlane("MAP3", (*tile.Arena).Raw3, (*tile.Arena).SetRaw3))
	reg.Register(w.bytePlane("MAP4", (*tile.Arena).Raw4, (*tile.Arena).SetRaw4))
	reg.Register(w.bytePlane("MAP5", (*tile.Arena).Raw5, (*tile.Arena).SetRaw5))
	reg.Register(w.bytePlane("MAPE", (*tile.Arena).RawE6, (*tile.Arena).SetRawE6))
	reg.Register(w.wordPlane("MAPX", (*tile.Arena).RawE7, (*tile.Arena).SetRawE7))

	reg.Register(stream.Handlers{
		ID:    stream.ID("SIGN"),
		Load:  w.loadSigns,
		Fixup: func() error { return w.fixupSignOwners(rules) },
		Save:  w.saveSigns,
	})

	// Pre-v5 writers tagged the sign array SGNS. Same record schema, the
	// version gate picks the old field encodings; accepted on read only.
	reg.Register(stream.Handlers{
		ID:     stream.ID("SGNS"),
		Load:   w.loadSigns,
		Legacy: true,
	})

	reg.Register(stream.Handlers{
		ID:    stream.ID("PROD"),
		Load:  w.loadProducers,
		Fixup: func() error { return w.fixupFarmland(rules) },
		Save:  w.saveProducers,
	})

	return reg
}

func (w *World) loadMapSize(r *stream.Reader) error {
	if w.Arena != nil {
		return fmt.Errorf("%w: MAPS repeated", stream.ErrCorrupt)
	}
	width, err := r.ReadU32()
	if err != nil {
		return err
	}
	height, err := r.ReadU32()
	if err != nil {
		return err
	}
	if width == 0 || height == 0 || width > maxMapSide || height > maxMapSide {
		return fmt.Errorf("implausible map size %dx%d", width, height)
	}
	w.Arena = tile.NewArena(int(width), int(height))
	return nil
}

// bytePlane serializes one untyped byte field of every cell, in cell order.
func (w *World) bytePlane(id string, get func(*tile.Arena, tile.Index) uint8, set func(*tile.Arena, tile.Index, uint8)) stream.Handlers {
	return stream.Handlers{
		ID: stream.ID(id),
		Load: func(r *stream.Reader) error {
			a, err := w.planeArena(id)
			if err != nil {
				return err
			}
			buf := make([]byte, a.Size())
			if err := r.ReadRaw(buf); err != nil {
				return err
			}
			for i, b := range buf {
				set(a, tile.Index(i), b)
			}
			return nil
		},
		Save: func(sw *stream.Writer) error {
			a := w.Arena
			buf := make([]byte, a.Size())
			for i := range buf {
				buf[i] = get(a, tile.Index(i))
			}
			sw.WriteRaw(buf)
			return nil
		},
	}
}

func (w *World) wordPlane(id string, get func(*tile.Arena, tile.Index) uint16, set func(*tile.Arena, tile.Index, uint16)) stream.Handlers {
	return stream.Handlers{
		ID: stream.ID(id),
		Load: func(r *stream.Reader) error {
			a, err := w.planeArena(id)
			if err != nil {
				return err
			}
			for i := 0; i < a.Size(); i++ {
				v, err := r.ReadU16()
				if err != nil {
					return err
				}
				set(a, tile.Index(i), v)
			}
			return nil
		},
		Save: func(sw *stream.Writer) error {
			a := w.Arena
			for i := 0; i < a.Size(); i++ {
				sw.WriteU16(get(a, tile.Index(i)))
			}
			return nil
		},
	}
}

func (w *World) planeArena(id string) (*tile.Arena, error) {
	if w.Arena == nil {
		return nil, fmt.Errorf("plane chunk %s before MAPS", id)
	}
	return w.Arena, nil
}

func (w *World) loadSigns(r *stream.Reader) error {
	for {
		i, err := r.NextIndex()
		if err != nil {
			return err
		}
		if i < 0 {
			return nil
		}
		if err := stream.LoadRecord(r, w.Signs.GetOrCreate(i), signDescs); err != nil {
			return err
		}
	}
}

func (w *World) saveSigns(sw *stream.Writer) error {
	var err error
	w.Signs.Each(func(i int, s *Sign) {
		if err != nil {
			return
		}
		sw.ArrayIndex(i)
		err = stream.SaveRecord(sw, s, signDescs)
	})
	if err != nil {
		return err
	}
	sw.EndArray()
	return nil
}

func (w *World) loadProducers(r *stream.Reader) error {
	for {
		i, err := r.NextIndex()
		if err != nil {
			return err
		}
		if i < 0 {
			return nil
		}
		if err := stream.LoadRecord(r, w.Producers.GetOrCreate(i), producerDescs); err != nil {
			return err
		}
	}
}

func (w *World) saveProducers(sw *stream.Writer) error {
	var err error
	w.Producers.Each(func(i int, p *Producer) {
		if err != nil {
			return
		}
		sw.ArrayIndex(i)
		err = stream.SaveRecord(sw, p, producerDescs)
	})
	if err != nil {
		return err
	}
	sw.EndArray()
	return nil
}
