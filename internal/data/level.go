package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Range is an inclusive float range. A zero Range always yields 0.
type Range struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// ZoneEntry describes a spawn zone. Kind is "sphere", "cube" or
// "composite"; composite zones nest their children under Zones.
type ZoneEntry struct {
	Kind        string      `yaml:"kind"`
	Center      [3]float32  `yaml:"center"`
	Rotation    [3]float32  `yaml:"rotation"` // euler degrees
	Radius      float32     `yaml:"radius"`
	Size        [3]float32  `yaml:"size"`
	SurfaceOnly bool        `yaml:"surface_only"`
	Sequential  bool        `yaml:"sequential"`
	Zones       []ZoneEntry `yaml:"zones"`
}

type ColorEntry struct {
	Hue        Range `yaml:"hue"` // 0..1
	Saturation Range `yaml:"saturation"`
	Value      Range `yaml:"value"`
	Alpha      Range `yaml:"alpha"`
}

type OscillationEntry struct {
	Direction string `yaml:"direction"`
	Amplitude Range  `yaml:"amplitude"`
	Frequency Range  `yaml:"frequency"`
}

type SatelliteEntry struct {
	Amount            IntRange `yaml:"amount"`
	RelativeScale     Range    `yaml:"relative_scale"`
	OrbitRadius       Range    `yaml:"orbit_radius"`
	OrbitFrequency    Range    `yaml:"orbit_frequency"`
	UniformLifecycles bool     `yaml:"uniform_lifecycles"`
}

type LifecycleEntry struct {
	Growing Range `yaml:"growing"`
	Adult   Range `yaml:"adult"`
	Dying   Range `yaml:"dying"`
}

type SpawnEntry struct {
	Factories    []string         `yaml:"factories"`
	Movement     string           `yaml:"movement"` // forward, upward, outward, random
	Speed        Range            `yaml:"speed"`
	AngularSpeed Range            `yaml:"angular_speed"` // degrees per second
	Scale        Range            `yaml:"scale"`
	Color        ColorEntry       `yaml:"color"`
	UniformColor bool             `yaml:"uniform_color"`
	Oscillation  OscillationEntry `yaml:"oscillation"`
	Satellite    SatelliteEntry   `yaml:"satellite"`
	Lifecycle    LifecycleEntry   `yaml:"lifecycle"`
}

// ObjectEntry is a persistent level object that spins in place.
type ObjectEntry struct {
	Name            string     `yaml:"name"`
	Rotation        [3]float32 `yaml:"rotation"`         // initial euler degrees
	AngularVelocity [3]float32 `yaml:"angular_velocity"` // degrees per second
}

// LevelEntry defines one level (scene).
type LevelEntry struct {
	ID              int32         `yaml:"id"`
	Name            string        `yaml:"name"`
	PopulationLimit int           `yaml:"population_limit"` // 0 = unlimited
	Zone            ZoneEntry     `yaml:"zone"`
	Spawn           SpawnEntry    `yaml:"spawn"`
	Objects         []ObjectEntry `yaml:"objects"`
}

type levelFile struct {
	Levels []LevelEntry `yaml:"levels"`
}

// LevelTable provides lookup of level definitions by id.
type LevelTable struct {
	levels map[int32]*LevelEntry
}

// LoadLevelTable loads levels.yaml.
func LoadLevelTable(path string) (*LevelTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level list: %w", err)
	}
	var f levelFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse level list: %w", err)
	}
	t := &LevelTable{levels: make(map[int32]*LevelEntry, len(f.Levels))}
	for i := range f.Levels {
		e := &f.Levels[i]
		if _, dup := t.levels[e.ID]; dup {
			return nil, fmt.Errorf("level %d defined twice", e.ID)
		}
		if err := checkZone(e.Zone); err != nil {
			return nil, fmt.Errorf("level %d: %w", e.ID, err)
		}
		if len(e.Spawn.Factories) == 0 {
			return nil, fmt.Errorf("level %d: spawn needs at least one factory", e.ID)
		}
		t.levels[e.ID] = e
	}
	return t, nil
}

func checkZone(z ZoneEntry) error {
	switch z.Kind {
	case "sphere", "cube":
		return nil
	case "composite":
		if len(z.Zones) == 0 {
			return fmt.Errorf("composite zone without children")
		}
		for _, c := range z.Zones {
			if err := checkZone(c); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown zone kind %q", z.Kind)
}

// Get returns the level with the given id, or nil if none.
func (t *LevelTable) Get(id int32) *LevelEntry {
	return t.levels[id]
}

// IDs returns every level id in ascending order.
func (t *LevelTable) IDs() []int32 {
	ids := make([]int32, 0, len(t.levels))
	for id := range t.levels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the total number of levels loaded.
func (t *LevelTable) Count() int {
	return len(t.levels)
}
