package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"tilevault.dev/internal/persistence/archive"
	"tilevault.dev/internal/persistence/indexdb"
	"tilevault.dev/internal/persistence/stream"
	"tilevault.dev/internal/sim/tuning"
	"tilevault.dev/internal/sim/world"
	"tilevault.dev/internal/sim/worldgen"
)

func main() {
	logger := log.New(os.Stdout, "[savetool] ", log.LstdFlags|log.Lmicroseconds)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "generate":
		err = cmdGenerate(logger, args)
	case "info":
		err = cmdInfo(logger, args)
	case "resave":
		err = cmdResave(logger, args)
	case "check":
		err = cmdCheck(logger, args)
	case "index":
		err = cmdIndex(logger, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatalf("%s: %v", cmd, err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: savetool <command> [flags]

commands:
  generate   build a demo world and save it
  info       print save file header, counts and diagnostics
  resave     load any supported save and rewrite it at the current version
  check      validate descriptor tables and the migrations config
  index      record or list save files in the SQLite catalogue`)
}

func cmdGenerate(logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		out      = fs.String("out", "world.sav", "output save path")
		width    = fs.Int("width", 64, "map width")
		height   = fs.Int("height", 64, "map height")
		seed     = fs.Int64("seed", 1337, "noise seed (0 = random)")
		farms    = fs.Int("farms", 3, "farm count")
		scenario = fs.Bool("scenario", false, "write a scenario template")
	)
	fs.Parse(args)

	w, err := worldgen.Generate(worldgen.Config{
		Width: *width, Height: *height, Seed: *seed, Farms: *farms, Scenario: *scenario,
	})
	if err != nil {
		return err
	}
	if err := writeSave(w, *out); err != nil {
		return err
	}
	logger.Printf("generated %dx%d world with %d signs, %d producers -> %s",
		*width, *height, w.Signs.Len(), w.Producers.Len(), *out)
	return nil
}

func cmdInfo(logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	var (
		in        = fs.String("in", "", "save path")
		rulesPath = fs.String("migrations", "", "migrations.yaml (default: built-in thresholds)")
	)
	fs.Parse(args)
	if *in == "" {
		return fmt.Errorf("missing -in")
	}

	w, res, err := loadSave(*in, *rulesPath)
	if err != nil {
		return err
	}
	logger.Printf("%s: %dx%d map, %d signs, %d producers, purpose=%d",
		*in, w.Arena.Width(), w.Arena.Height(), w.Signs.Len(), w.Producers.Len(), w.Purpose)
	for _, sk := range res.Skipped {
		logger.Printf("  ignored unknown chunk %s (%d bytes)", sk.ID, sk.Length)
	}
	return nil
}

func cmdResave(logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("resave", flag.ExitOnError)
	var (
		in        = fs.String("in", "", "input save path")
		out       = fs.String("out", "", "output save path (default: overwrite input)")
		dataDir   = fs.String("data", ".", "directory for backups")
		rulesPath = fs.String("migrations", "", "migrations.yaml (default: built-in thresholds)")
	)
	fs.Parse(args)
	if *in == "" {
		return fmt.Errorf("missing -in")
	}
	dst := *out
	if dst == "" {
		dst = *in
	}

	w, res, err := loadSave(*in, *rulesPath)
	if err != nil {
		return err
	}
	for _, sk := range res.Skipped {
		logger.Printf("dropping unknown chunk %s (%d bytes)", sk.ID, sk.Length)
	}

	if _, err := os.Stat(dst); err == nil {
		backup, err := archive.Backup(*dataDir, dst)
		if err != nil {
			return fmt.Errorf("backup: %w", err)
		}
		logger.Printf("backed up %s -> %s", dst, backup)
	}
	if err := writeSave(w, dst); err != nil {
		return err
	}
	logger.Printf("resaved %s at version %d", dst, world.CurrentVersion)
	return nil
}

func cmdCheck(logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	var (
		schemaPath = fs.String("schema", "schemas/migrations.schema.json", "migrations schema path")
		rulesPath  = fs.String("migrations", "configs/migrations.yaml", "migrations.yaml path")
	)
	fs.Parse(args)

	if err := world.ValidateTables(); err != nil {
		return err
	}
	logger.Printf("descriptor tables consistent")

	if err := validateMigrations(*schemaPath, *rulesPath); err != nil {
		return err
	}
	if _, err := tuning.Load(*rulesPath); err != nil {
		return err
	}
	logger.Printf("%s valid", *rulesPath)
	return nil
}

// validateMigrations checks the YAML config against its JSON schema; yaml is
// round-tripped through encoding/json so the validator sees JSON-typed values.
func validateMigrations(schemaPath, rulesPath string) error {
	s, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	raw, err := os.ReadFile(rulesPath)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", rulesPath, err)
	}
	jb, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(jb, &doc); err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("validate %s: %w", rulesPath, err)
	}
	return nil
}

func cmdIndex(logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	var (
		dbPath    = fs.String("db", "saves.db", "index database path")
		add       = fs.String("add", "", "save file to record")
		list      = fs.Bool("list", false, "list indexed saves")
		rulesPath = fs.String("migrations", "", "migrations.yaml (default: built-in thresholds)")
	)
	fs.Parse(args)

	idx, err := indexdb.Open(*dbPath)
	if err != nil {
		return err
	}
	defer idx.Close()

	if *add != "" {
		w, _, err := loadSave(*add, *rulesPath)
		if err != nil {
			return err
		}
		purpose := "game"
		if w.Purpose == stream.PurposeScenario {
			purpose = "scenario"
		}
		row, err := idx.Record(indexdb.SaveRow{
			Path:      *add,
			Version:   int(w.LoadedVersion()),
			Purpose:   purpose,
			Width:     w.Arena.Width(),
			Height:    w.Arena.Height(),
			Signs:     w.Signs.Len(),
			Producers: w.Producers.Len(),
		})
		if err != nil {
			return err
		}
		logger.Printf("recorded %s as %s", *add, row.ID)
	}
	if *list {
		rows, err := idx.List()
		if err != nil {
			return err
		}
		for _, r := range rows {
			logger.Printf("%s v%d %s %dx%d signs=%d producers=%d %s",
				r.Path, r.Version, r.Purpose, r.Width, r.Height, r.Signs, r.Producers, r.ID)
		}
	}
	return nil
}

func loadSave(path, rulesPath string) (*world.World, *stream.LoadResult, error) {
	rules := tuning.Default()
	if rulesPath != "" {
		var err error
		if rules, err = tuning.Load(rulesPath); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return world.Load(f, rules)
}

func writeSave(w *world.World, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := w.Save(f); err != nil {
		return err
	}
	return f.Close()
}
