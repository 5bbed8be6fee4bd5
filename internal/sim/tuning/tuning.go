package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" json:"protocol_version"`

	UIScale          float64  `yaml:"ui_scale" json:"ui_scale"`
	StarterInventory []string `yaml:"starter_inventory" json:"starter_inventory"`
	// InitialSelection is a slot index, or -1 to start with nothing selected.
	InitialSelection int  `yaml:"initial_selection" json:"initial_selection"`
	IdleTimeoutSec   int  `yaml:"idle_timeout_sec" json:"idle_timeout_sec"`
	SnapshotOnLeave  bool `yaml:"snapshot_on_leave" json:"snapshot_on_leave"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:  "1.0",
		UIScale:          3,
		StarterInventory: []string{"WOOD", "PLANKS"},
		InitialSelection: 0,
		IdleTimeoutSec:   120,
		SnapshotOnLeave:  true,
	}
}

// Load reads path over Defaults, so omitted keys keep their default.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.InitialSelection != -1 && (t.InitialSelection < 0 || t.InitialSelection >= len(t.StarterInventory)) {
		return fmt.Errorf("initial_selection %d out of range for %d starter items", t.InitialSelection, len(t.StarterInventory))
	}
	if t.IdleTimeoutSec <= 0 {
		return fmt.Errorf("idle_timeout_sec must be positive, got %d", t.IdleTimeoutSec)
	}
	if t.UIScale <= 0 {
		return fmt.Errorf("ui_scale must be positive, got %v", t.UIScale)
	}
	return nil
}
