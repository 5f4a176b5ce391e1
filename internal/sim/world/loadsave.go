package world

import (
	"fmt"
	"io"
	"sync"

	"tilevault.dev/internal/persistence/stream"
	"tilevault.dev/internal/sim/tuning"
)

// passMu makes load and save a single global critical section. Concurrent
// passes are unsupported; this is a safety net, not a concurrency feature.
var passMu sync.Mutex

// Load reads a complete save stream into a fresh World. The caller's current
// world is never touched: swap in the result only after Load succeeds, and on
// error discard the partial state entirely.
func Load(src io.Reader, rules tuning.Migrations) (*World, *stream.LoadResult, error) {
	passMu.Lock()
	defer passMu.Unlock()

	r := stream.NewReader(src)
	if err := r.ReadHeader(); err != nil {
		return nil, nil, err
	}
	if r.Version > CurrentVersion {
		return nil, nil, fmt.Errorf("save version %d newer than supported %d", r.Version, CurrentVersion)
	}

	staging := &World{
		Signs:         &SignPool{},
		Producers:     &ProducerPool{},
		Purpose:       r.Purpose,
		Features:      r.Features,
		loadedVersion: r.Version,
	}

	reg := staging.registry(rules)
	res, err := reg.LoadAll(r)
	if err != nil {
		return nil, res, err
	}
	if staging.Arena == nil {
		return nil, res, fmt.Errorf("%w: stream carries no MAPS chunk", stream.ErrCorrupt)
	}
	if err := reg.FixupAll(); err != nil {
		return nil, res, err
	}
	return staging, res, nil
}

// Save writes the world at the current version, current features, nothing
// else. Legacy chunks are skipped by the registry.
func (w *World) Save(dst io.Writer) error {
	passMu.Lock()
	defer passMu.Unlock()

	sw := stream.NewWriter(dst)
	if err := sw.WriteHeader(CurrentVersion, w.Purpose, CurrentFeatures()); err != nil {
		return err
	}
	if err := w.registry(tuning.Default()).SaveAll(sw); err != nil {
		return err
	}
	return sw.Finish()
}
