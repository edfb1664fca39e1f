package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpeciesEntry is one shape template of a factory.
type SpeciesEntry struct {
	Name  string `yaml:"name"`
	Parts int    `yaml:"parts"` // separately coloured parts, at least 1
}

// FactoryEntry defines one shape factory. Factories are registered in file
// order, which fixes the ids written into save records.
type FactoryEntry struct {
	Name     string         `yaml:"name"`
	Recycle  bool           `yaml:"recycle"`
	Species  []SpeciesEntry `yaml:"species"`
	Variants []string       `yaml:"variants"`
}

type factoryFile struct {
	Factories []FactoryEntry `yaml:"factories"`
}

// FactoryTable holds the factory definitions in registration order.
type FactoryTable struct {
	entries []FactoryEntry
	byName  map[string]int
}

// LoadFactoryTable loads factories.yaml.
func LoadFactoryTable(path string) (*FactoryTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read factory list: %w", err)
	}
	var f factoryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse factory list: %w", err)
	}
	t := &FactoryTable{
		entries: f.Factories,
		byName:  make(map[string]int, len(f.Factories)),
	}
	for i, e := range f.Factories {
		if e.Name == "" {
			return nil, fmt.Errorf("factory %d: missing name", i)
		}
		if _, dup := t.byName[e.Name]; dup {
			return nil, fmt.Errorf("factory %q defined twice", e.Name)
		}
		if len(e.Species) == 0 || len(e.Variants) == 0 {
			return nil, fmt.Errorf("factory %q needs at least one species and one variant", e.Name)
		}
		t.byName[e.Name] = i
	}
	return t, nil
}

// Entries returns the factories in file order.
func (t *FactoryTable) Entries() []FactoryEntry {
	return t.entries
}

// Get returns the factory with the given name, or nil if none.
func (t *FactoryTable) Get(name string) *FactoryEntry {
	i, ok := t.byName[name]
	if !ok {
		return nil
	}
	return &t.entries[i]
}

// Count returns the total number of factories loaded.
func (t *FactoryTable) Count() int {
	return len(t.entries)
}
