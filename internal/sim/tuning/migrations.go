// Package tuning loads the migration thresholds applied after a legacy
// stream is read. Exact threshold values are configuration validated against
// real legacy saves, not code.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Migrations struct {
	// Streams older than this may carry unset sign owners.
	OwnerRequiredVersion int `yaml:"owner_required_version"`
	// Streams older than this leave scenario-template land ownerless
	// instead of assigning it to the steward.
	ScenarioOwnerVersion int `yaml:"scenario_owner_version"`
	// Streams older than this may reference producers that no longer exist
	// from farmland cells.
	FarmlandProducerVersion int `yaml:"farmland_producer_version"`
}

func Default() Migrations {
	return Migrations{
		OwnerRequiredVersion:    7,
		ScenarioOwnerVersion:    14,
		FarmlandProducerVersion: 32,
	}
}

func Load(path string) (Migrations, error) {
	m := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("migrations.yaml: %w", err)
	}
	if err := m.Check(); err != nil {
		return m, err
	}
	return m, nil
}

func (m Migrations) Check() error {
	if m.OwnerRequiredVersion < 0 || m.ScenarioOwnerVersion < 0 || m.FarmlandProducerVersion < 0 {
		return fmt.Errorf("migrations.yaml: negative version threshold")
	}
	if m.ScenarioOwnerVersion < m.OwnerRequiredVersion {
		return fmt.Errorf("migrations.yaml: scenario_owner_version %d below owner_required_version %d",
			m.ScenarioOwnerVersion, m.OwnerRequiredVersion)
	}
	return nil
}
