package world

import (
	"tilevault.dev/internal/persistence/stream"
	"tilevault.dev/internal/sim/owner"
	"tilevault.dev/internal/sim/tile"
)

// Descriptor tables are process-wide constant schema data. Declaration order
// is the wire order; version ranges select which encoding a given stream
// uses. Consistency (no overlapping active ranges) is asserted by
// ValidateTables, run from tests and `savetool check`.

var signDescs = []stream.Desc[Sign]{
	{
		Name: "text", From: 0, To: versionVarSignText, FixedLen: 32,
		Str:    func(s *Sign) string { return s.Text },
		SetStr: func(s *Sign, v string) { s.Text = v },
	},
	{
		Name: "text", From: versionVarSignText, To: stream.Forever,
		Str:    func(s *Sign) string { return s.Text },
		SetStr: func(s *Sign, v string) { s.Text = v },
	},
	{
		Name: "x", File: stream.I16, Mem: stream.I32, From: 0, To: versionWideSignCoords,
		Peek: func(s *Sign) int64 { return int64(s.X) },
		Poke: func(s *Sign, v int64) { s.X = int32(v) },
	},
	{
		Name: "x", File: stream.I32, Mem: stream.I32, From: versionWideSignCoords, To: stream.Forever,
		Peek: func(s *Sign) int64 { return int64(s.X) },
		Poke: func(s *Sign, v int64) { s.X = int32(v) },
	},
	{
		Name: "y", File: stream.I16, Mem: stream.I32, From: 0, To: versionWideSignCoords,
		Peek: func(s *Sign) int64 { return int64(s.Y) },
		Poke: func(s *Sign, v int64) { s.Y = int32(v) },
	},
	{
		Name: "y", File: stream.I32, Mem: stream.I32, From: versionWideSignCoords, To: stream.Forever,
		Peek: func(s *Sign) int64 { return int64(s.Y) },
		Poke: func(s *Sign, v int64) { s.Y = int32(v) },
	},
	{
		// The legacy byte elevation silently truncated tall terrain.
		Name: "z", File: stream.U8, Mem: stream.I32, From: 0, To: versionWideSignElevation, Lossy: true,
		Peek: func(s *Sign) int64 { return int64(s.Z) },
		Poke: func(s *Sign, v int64) { s.Z = int32(v) },
	},
	{
		Name: "z", File: stream.I32, Mem: stream.I32, From: versionWideSignElevation, To: stream.Forever,
		Peek: func(s *Sign) int64 { return int64(s.Z) },
		Poke: func(s *Sign, v int64) { s.Z = int32(v) },
	},
	{
		Name: "owner", File: stream.U8, Mem: stream.U8, From: versionSignOwner, To: stream.Forever,
		Peek: func(s *Sign) int64 { return int64(s.Owner) },
		Poke: func(s *Sign, v int64) { s.Owner = owner.Owner(v) },
	},
	{
		Name: "style", File: stream.U8, Mem: stream.U8, From: versionSignStyle, To: stream.Forever,
		If:   stream.FeatureAtLeast(featureSignStyle, 1),
		Peek: func(s *Sign) int64 { return int64(s.Style) },
		Poke: func(s *Sign, v int64) { s.Style = uint8(v) },
	},
}

var producerDescs = []stream.Desc[Producer]{
	{
		Name: "home", File: stream.U32, Mem: stream.U32, From: 0, To: stream.Forever,
		Peek: func(p *Producer) int64 { return int64(p.Home) },
		Poke: func(p *Producer, v int64) { p.Home = tile.Index(v) },
	},
	{
		Name: "stage", File: stream.U8, Mem: stream.U8, From: 0, To: stream.Forever,
		Peek: func(p *Producer) int64 { return int64(p.Stage) },
		Poke: func(p *Producer, v int64) { p.Stage = uint8(v) },
	},
	{
		Name: "owner", File: stream.U8, Mem: stream.U8, From: versionSignOwner, To: stream.Forever,
		Peek: func(p *Producer) int64 { return int64(p.Owner) },
		Poke: func(p *Producer, v int64) { p.Owner = owner.Owner(v) },
	},
	{
		// Ratings have always been squeezed into one signed byte on disk.
		Name: "rating", File: stream.I8, Mem: stream.I32, From: 0, To: stream.Forever, Lossy: true,
		Peek: func(p *Producer) int64 { return int64(p.Rating) },
		Poke: func(p *Producer, v int64) { p.Rating = int32(v) },
	},
}

// ValidateTables is the offline schema consistency check over every
// descriptor table the registry uses.
func ValidateTables() error {
	if err := stream.ValidateTable[Sign]("signs", signDescs); err != nil {
		return err
	}
	return stream.ValidateTable[Producer]("producers", producerDescs)
}
