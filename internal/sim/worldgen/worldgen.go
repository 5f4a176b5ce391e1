// Package worldgen builds demo worlds from layered simplex noise so the
// save tooling has something real to serialize.
package worldgen

import (
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"tilevault.dev/internal/persistence/stream"
	"tilevault.dev/internal/sim/owner"
	"tilevault.dev/internal/sim/tile"
	"tilevault.dev/internal/sim/world"
)

type Config struct {
	Width, Height int
	Seed          int64 // 0 = random
	Scenario      bool
	Farms         int
}

func DefaultConfig() Config {
	return Config{Width: 64, Height: 64, Seed: 1337, Farms: 3}
}

// Generate derives terrain from two independent noise layers: elevation
// picks water and ground bands, moisture picks vegetation density.
func Generate(cfg Config) (*world.World, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("worldgen: size %dx%d", cfg.Width, cfg.Height)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	elevNoise := opensimplex.NewNormalized(seed)
	moistNoise := opensimplex.NewNormalized(seed + 1)

	w := world.New(cfg.Width, cfg.Height)
	if cfg.Scenario {
		w.Purpose = stream.PurposeScenario
	}
	a := w.Arena

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			i := a.XY(x, y)
			elev := elevNoise.Eval2(float64(x)/18, float64(y)/18)
			moist := moistNoise.Eval2(float64(x)/11, float64(y)/11)

			if elev < 0.28 {
				tile.MakeWater(a, i)
				continue
			}
			g := tile.GroundGrass
			switch {
			case elev > 0.88:
				g = tile.GroundSnow
			case elev > 0.78:
				g = tile.GroundRocks
			case elev > 0.66:
				g = tile.GroundRough
			case moist < 0.18:
				g = tile.GroundBare
			}
			density := uint8(moist * 4)
			if density > 3 {
				density = 3
			}
			tile.MakeClear(a, i, g, density, owner.None)
			a.SetElevation(i, uint8(elev*15))
		}
	}

	plantFarms(w, cfg, seed)
	placeSigns(w, cfg)
	return w, nil
}

// plantFarms drops producers with a fenced 3x3 field patch each.
func plantFarms(w *world.World, cfg Config, seed int64) {
	rng := rand.New(rand.NewSource(seed + 2))
	a := w.Arena
	for f := 0; f < cfg.Farms; f++ {
		cx := 2 + rng.Intn(cfg.Width-4)
		cy := 2 + rng.Intn(cfg.Height-4)
		home := a.XY(cx, cy)
		if a.Kind(home) != tile.KindClear {
			continue
		}
		pid := w.Producers.Add(&world.Producer{
			Home:   home,
			Stage:  uint8(rng.Intn(8)),
			Owner:  owner.Owner(f % owner.MaxCompanies),
			Rating: int32(rng.Intn(200) - 100),
		})
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				i := a.XY(cx+dx, cy+dy)
				if a.Kind(i) != tile.KindClear {
					continue
				}
				t := tile.MakeField(a, i, uint8(rng.Intn(10)), uint16(pid), owner.Owner(f%owner.MaxCompanies))
				if dy == -1 {
					t.SetFence(tile.EdgeNE, 1)
				}
				if dy == 1 {
					t.SetFence(tile.EdgeSW, 1)
				}
				if dx == -1 {
					t.SetFence(tile.EdgeNW, 1)
				}
				if dx == 1 {
					t.SetFence(tile.EdgeSE, 1)
				}
			}
		}
	}
}

func placeSigns(w *world.World, cfg Config) {
	o := owner.None
	if cfg.Scenario {
		o = owner.Steward
	}
	w.Signs.Add(&world.Sign{
		Text:  "spawn",
		X:     int32(cfg.Width / 2),
		Y:     int32(cfg.Height / 2),
		Z:     int32(w.Arena.Elevation(w.Arena.XY(cfg.Width/2, cfg.Height/2))),
		Owner: o,
	})
	w.Producers.Each(func(i int, p *world.Producer) {
		w.Signs.Add(&world.Sign{
			Text:  fmt.Sprintf("farm %d", i),
			X:     int32(int(p.Home) % cfg.Width),
			Y:     int32(int(p.Home) / cfg.Width),
			Owner: p.Owner,
			Style: 1,
		})
	})
}
