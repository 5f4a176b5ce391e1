// Package world owns the live map state and its save stream schema: the
// packed cell arena, the entity pools, the chunk handler registration, and
// the post-load migration pass.
package world

import (
	"tilevault.dev/internal/persistence/stream"
	"tilevault.dev/internal/sim/tile"
)

// CurrentVersion is the only revision the writer emits. Readers accept
// everything from 0 up to and including it.
const CurrentVersion stream.Version = 170

// Schema revisions that changed entity encodings. Descriptor ranges are
// schema facts and stay hard-coded; migration thresholds are config.
const (
	versionWideSignCoords    stream.Version = 5   // sign x/y i16 -> i32
	versionSignOwner         stream.Version = 7   // signs carry an owner byte
	versionVarSignText       stream.Version = 84  // fixed 32-byte text buffer -> string
	versionSignStyle         stream.Version = 120 // optional style byte (feature-gated)
	versionWideSignElevation stream.Version = 164 // sign z u8 -> i32
)

// CurrentFeatures is the optional-capability table advertised by new saves.
func CurrentFeatures() stream.FeatureTable {
	return stream.FeatureTable{featureSignStyle: 1}
}

const featureSignStyle = "sign_style"

// World is one fully resident map. Load builds a fresh World and the caller
// swaps it in only on success, so a corrupt file can never leave a
// half-applied state behind.
type World struct {
	Arena     *tile.Arena
	Signs     *SignPool
	Producers *ProducerPool

	// Purpose and Features describe the stream this world came from, or the
	// current defaults for a freshly generated world.
	Purpose  stream.Purpose
	Features stream.FeatureTable

	// loadedVersion is the revision of the stream this world was read from;
	// the migration pass keys its rules to it.
	loadedVersion stream.Version
}

// LoadedVersion is the stream revision this world was read from, or
// CurrentVersion for a freshly generated world.
func (w *World) LoadedVersion() stream.Version { return w.loadedVersion }

func New(width, height int) *World {
	return &World{
		Arena:         tile.NewArena(width, height),
		Signs:         &SignPool{},
		Producers:     &ProducerPool{},
		Purpose:       stream.PurposeGame,
		Features:      CurrentFeatures(),
		loadedVersion: CurrentVersion,
	}
}
