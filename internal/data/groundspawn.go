package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GroundSpawn is a world point that keeps an item lying on the floor,
// re-seeding it after a cooldown whenever the tile is empty of that item.
type GroundSpawn struct {
	ItemID     string `yaml:"item_id"`
	Quantity   int    `yaml:"quantity"`
	X          int    `yaml:"x"`
	Y          int    `yaml:"y"`
	CooldownMs int    `yaml:"cooldown_ms"`
}

// Cooldown returns the re-seed delay as a duration.
func (s *GroundSpawn) Cooldown() time.Duration {
	return time.Duration(s.CooldownMs) * time.Millisecond
}

type groundSpawnFile struct {
	Spawns []GroundSpawn `yaml:"spawns"`
}

// LoadGroundSpawns loads item ground-spawn points from a YAML file.
func LoadGroundSpawns(path string) ([]GroundSpawn, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ground_spawns: %w", err)
	}
	var f groundSpawnFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse ground_spawns: %w", err)
	}
	for i := range f.Spawns {
		if f.Spawns[i].Quantity <= 0 {
			f.Spawns[i].Quantity = 1
		}
	}
	return f.Spawns, nil
}
