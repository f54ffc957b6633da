package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickDurationMs     int `yaml:"tick_duration_ms"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`

	StartingMoney int `yaml:"starting_money"`

	ClientQueueDepth int `yaml:"client_queue_depth"`
}

// Defaults are the values a fresh deployment runs with when no tuning.yaml
// is present.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickDurationMs:     200,
		SnapshotEveryTicks: 3000,
		StartingMoney:      500,
		ClientQueueDepth:   16,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
