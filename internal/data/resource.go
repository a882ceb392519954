package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ResourceTemplate defines a kind of gatherable world resource.
type ResourceTemplate struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Action    string `yaml:"action"`
	RespawnMs int    `yaml:"respawn_ms"`
	YieldItem string `yaml:"yield_item"`
	YieldQty  int    `yaml:"yield_qty"`
}

// Respawn returns the respawn delay as a duration.
func (t *ResourceTemplate) Respawn() time.Duration {
	return time.Duration(t.RespawnMs) * time.Millisecond
}

// ResourceTable holds all resource templates indexed by id.
type ResourceTable struct {
	templates map[string]*ResourceTemplate
}

// Get returns a resource template by id, or nil.
func (t *ResourceTable) Get(id string) *ResourceTemplate { return t.templates[id] }

// Count returns the number of templates loaded.
func (t *ResourceTable) Count() int { return len(t.templates) }

type resourceListFile struct {
	Resources []ResourceTemplate `yaml:"resources"`
}

// LoadResourceTable loads resource templates from a YAML file.
func LoadResourceTable(path string) (*ResourceTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resource_list: %w", err)
	}
	var f resourceListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse resource_list: %w", err)
	}

	t := &ResourceTable{templates: make(map[string]*ResourceTemplate, len(f.Resources))}
	for i := range f.Resources {
		tpl := f.Resources[i]
		if tpl.ID == "" {
			return nil, fmt.Errorf("resource_list entry %d: missing id", i)
		}
		if tpl.RespawnMs <= 0 {
			return nil, fmt.Errorf("resource %s: respawn_ms must be positive", tpl.ID)
		}
		if tpl.YieldQty <= 0 {
			tpl.YieldQty = 1
		}
		t.templates[tpl.ID] = &tpl
	}
	return t, nil
}

// ResourceSpawn places a resource node of a given type at a tile.
type ResourceSpawn struct {
	ResourceID string `yaml:"resource_id"`
	X          int    `yaml:"x"`
	Y          int    `yaml:"y"`
}

type resourceSpawnFile struct {
	Spawns []ResourceSpawn `yaml:"spawns"`
}

// LoadResourceSpawns loads resource node placements from a YAML file.
func LoadResourceSpawns(path string) ([]ResourceSpawn, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resource_spawns: %w", err)
	}
	var f resourceSpawnFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse resource_spawns: %w", err)
	}
	return f.Spawns, nil
}
