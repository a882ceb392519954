package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItemTemplate is the static definition of an item kind.
type ItemTemplate struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	BaseValue int64  `yaml:"base_value"`
	Stackable bool   `yaml:"stackable"`
}

// ItemTable holds all item templates indexed by id.
type ItemTable struct {
	templates map[string]*ItemTemplate
}

// Get returns an item template by id, or nil.
func (t *ItemTable) Get(id string) *ItemTemplate { return t.templates[id] }

// Count returns the number of templates loaded.
func (t *ItemTable) Count() int { return len(t.templates) }

// Stackable reports whether the given item id stacks. Unknown ids do not.
func (t *ItemTable) Stackable(id string) bool {
	tpl := t.templates[id]
	return tpl != nil && tpl.Stackable
}

type itemListFile struct {
	Items []ItemTemplate `yaml:"items"`
}

// LoadItemTable loads item templates from a YAML file.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item_list: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item_list: %w", err)
	}

	t := &ItemTable{templates: make(map[string]*ItemTemplate, len(f.Items))}
	for i := range f.Items {
		tpl := f.Items[i]
		if tpl.ID == "" {
			return nil, fmt.Errorf("item_list entry %d: missing id", i)
		}
		if tpl.BaseValue < 0 {
			return nil, fmt.Errorf("item %s: negative base_value", tpl.ID)
		}
		t.templates[tpl.ID] = &tpl
	}
	return t, nil
}
