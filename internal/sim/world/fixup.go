package world

import (
	"fmt"

	"tilevault.dev/internal/persistence/stream"
	"tilevault.dev/internal/sim/owner"
	"tilevault.dev/internal/sim/tile"
	"tilevault.dev/internal/sim/tuning"
)

// The migration pass repairs semantics the loaded revision could not express.
// Rules run in fixed order, once per load; later rules observe earlier ones.
// Thresholds come from configuration (tuning.Migrations), not code.

func (w *World) fixupSignOwners(rules tuning.Migrations) error {
	v := w.loadedVersion

	// Rule 1: old streams never wrote sign owners, so the unset marker is
	// expected there and resolves to "nobody".
	if v < stream.Version(rules.OwnerRequiredVersion) {
		w.Signs.Each(func(_ int, s *Sign) {
			if s.Owner == owner.Invalid {
				s.Owner = owner.None
			}
		})
	}

	// Rule 2: scenario templates from before the steward existed promote
	// ownerless signs to the steward so editors keep full control.
	if v < stream.Version(rules.ScenarioOwnerVersion) && w.Purpose == stream.PurposeScenario {
		w.Signs.Each(func(_ int, s *Sign) {
			if s.Owner == owner.None {
				s.Owner = owner.Steward
			}
		})
	}

	// At or past the threshold the descriptor always carried an owner; an
	// unset one here is a schema logic error, not a bad file.
	if v >= stream.Version(rules.OwnerRequiredVersion) {
		var bad int = -1
		w.Signs.Each(func(i int, s *Sign) {
			if s.Owner == owner.Invalid && bad < 0 {
				bad = i
			}
		})
		if bad >= 0 {
			return fmt.Errorf("sign %d: unset owner in version %d stream", bad, v)
		}
	}
	return nil
}

// fixupFarmland recomputes farmland ownership: cells that still reference a
// vacant producer slot revert to plain grass. Cross-chunk by nature (arena
// plus producer pool), so it must run in the fixup phase.
func (w *World) fixupFarmland(rules tuning.Migrations) error {
	repair := w.loadedVersion < stream.Version(rules.FarmlandProducerVersion)
	a := w.Arena
	for i := 0; i < a.Size(); i++ {
		idx := tile.Index(i)
		if a.Kind(idx) != tile.KindClear {
			continue
		}
		t := tile.ClearUnchecked(a, idx)
		if !t.IsFields() {
			continue
		}
		pid := int(t.ProducerID())
		if w.Producers.Get(pid) != nil {
			continue
		}
		if !repair {
			return fmt.Errorf("cell %d: farmland references vacant producer %d in version %d stream", i, pid, w.loadedVersion)
		}
		o := t.Owner()
		tile.MakeClear(a, idx, tile.GroundGrass, 3, o)
	}
	return nil
}
