package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NpcTemplate is the immutable definition one or more NPC instances are
// stamped from.
type NpcTemplate struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	WanderRadius int     `yaml:"wander_radius"`
	MoveMinMs    int     `yaml:"move_min_ms"`
	MoveMaxMs    int     `yaml:"move_max_ms"`
	StopMinMs    int     `yaml:"stop_min_ms"`
	StopMaxMs    int     `yaml:"stop_max_ms"`
	StopChance   float64 `yaml:"stop_chance"`
}

// NpcTable holds all NPC templates indexed by id.
type NpcTable struct {
	templates map[string]*NpcTemplate
}

// Get returns a template by id, or nil.
func (t *NpcTable) Get(id string) *NpcTemplate { return t.templates[id] }

// Count returns the number of templates loaded.
func (t *NpcTable) Count() int { return len(t.templates) }

type npcListFile struct {
	Npcs []NpcTemplate `yaml:"npcs"`
}

// LoadNpcTable loads NPC templates from a YAML file.
func LoadNpcTable(path string) (*NpcTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read npc_list: %w", err)
	}
	var f npcListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse npc_list: %w", err)
	}

	t := &NpcTable{templates: make(map[string]*NpcTemplate, len(f.Npcs))}
	for i := range f.Npcs {
		tpl := f.Npcs[i]
		if tpl.ID == "" {
			return nil, fmt.Errorf("npc_list entry %d: missing id", i)
		}
		if tpl.MoveMaxMs < tpl.MoveMinMs {
			tpl.MoveMaxMs = tpl.MoveMinMs
		}
		if tpl.StopMaxMs < tpl.StopMinMs {
			tpl.StopMaxMs = tpl.StopMinMs
		}
		t.templates[tpl.ID] = &tpl
	}
	return t, nil
}

// NpcSpawn places count instances of a template at a spawn tile.
type NpcSpawn struct {
	NpcID string `yaml:"npc_id"`
	X     int    `yaml:"x"`
	Y     int    `yaml:"y"`
	Count int    `yaml:"count"`
}

type spawnListFile struct {
	Spawns []NpcSpawn `yaml:"spawns"`
}

// LoadSpawnList loads NPC spawn placements from a YAML file.
func LoadSpawnList(path string) ([]NpcSpawn, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	for i := range f.Spawns {
		if f.Spawns[i].Count <= 0 {
			f.Spawns[i].Count = 1
		}
	}
	return f.Spawns, nil
}
