package level

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/shapelab/engine/internal/data"
	"github.com/shapelab/engine/internal/world"
	"go.uber.org/zap"
)

// TableLoader builds levels from the YAML level table. Every call returns a
// fresh level with its zone cursor and objects in their initial state.
type TableLoader struct {
	table    *data.LevelTable
	registry *world.Registry
	log      *zap.Logger
}

func NewTableLoader(table *data.LevelTable, registry *world.Registry, log *zap.Logger) *TableLoader {
	return &TableLoader{table: table, registry: registry, log: log}
}

func (l *TableLoader) LoadLevel(ctx context.Context, id int32) (*Level, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e := l.table.Get(id)
	if e == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, id)
	}
	zone := buildZone(e.Zone)
	spawn, err := l.buildSpawn(e.Spawn)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", id, err)
	}
	lvl := &Level{
		ID:              e.ID,
		Name:            e.Name,
		PopulationLimit: e.PopulationLimit,
		Zone:            zone,
		Spawn:           spawn,
		Objects:         make([]*Object, 0, len(e.Objects)),
	}
	for _, o := range e.Objects {
		lvl.Objects = append(lvl.Objects, &Object{
			Name:            o.Name,
			Rotation:        world.EulerQuat(mgl32.Vec3(o.Rotation)),
			AngularVelocity: mgl32.Vec3(o.AngularVelocity),
		})
	}
	l.log.Debug("level built",
		zap.Int32("id", id),
		zap.String("name", e.Name),
		zap.Int("objects", len(lvl.Objects)),
	)
	return lvl, nil
}

func buildZone(e data.ZoneEntry) Zone {
	frame := Frame{
		Center:   mgl32.Vec3(e.Center),
		Rotation: world.EulerQuat(mgl32.Vec3(e.Rotation)),
	}
	switch e.Kind {
	case "cube":
		size := mgl32.Vec3(e.Size)
		if size == (mgl32.Vec3{}) {
			size = mgl32.Vec3{1, 1, 1}
		}
		return NewCubeZone(frame, size, e.SurfaceOnly)
	case "composite":
		children := make([]Zone, 0, len(e.Zones))
		for _, c := range e.Zones {
			children = append(children, buildZone(c))
		}
		return NewCompositeZone(frame, children, e.Sequential)
	}
	return NewSphereZone(frame, e.Radius, e.SurfaceOnly)
}

func (l *TableLoader) buildSpawn(e data.SpawnEntry) (SpawnConfig, error) {
	cfg := SpawnConfig{
		Speed:        floatRange(e.Speed),
		AngularSpeed: floatRange(e.AngularSpeed),
		Scale:        floatRange(e.Scale),
		Color: ColorRange{
			Hue:        floatRange(e.Color.Hue),
			Saturation: floatRange(e.Color.Saturation),
			Value:      floatRange(e.Color.Value),
			Alpha:      floatRange(e.Color.Alpha),
		},
		UniformColor: e.UniformColor,
		Oscillation: OscillationConfig{
			Amplitude: floatRange(e.Oscillation.Amplitude),
			Frequency: floatRange(e.Oscillation.Frequency),
		},
		Satellite: SatelliteConfig{
			Amount:            IntRange{Min: e.Satellite.Amount.Min, Max: e.Satellite.Amount.Max},
			RelativeScale:     floatRange(e.Satellite.RelativeScale),
			OrbitRadius:       floatRange(e.Satellite.OrbitRadius),
			OrbitFrequency:    floatRange(e.Satellite.OrbitFrequency),
			UniformLifecycles: e.Satellite.UniformLifecycles,
		},
		Lifecycle: LifecycleRange{
			Growing: floatRange(e.Lifecycle.Growing),
			Adult:   floatRange(e.Lifecycle.Adult),
			Dying:   floatRange(e.Lifecycle.Dying),
		},
	}
	if cfg.Scale == (FloatRange{}) {
		cfg.Scale = FloatRange{Min: 1, Max: 1}
	}

	var err error
	if cfg.Movement, err = ParseDirection(e.Movement); err != nil {
		return SpawnConfig{}, fmt.Errorf("movement: %w", err)
	}
	if cfg.Oscillation.Direction, err = ParseDirection(e.Oscillation.Direction); err != nil {
		return SpawnConfig{}, fmt.Errorf("oscillation: %w", err)
	}
	for _, name := range e.Factories {
		f := l.registry.ByName(name)
		if f == nil {
			return SpawnConfig{}, fmt.Errorf("%w: %q", world.ErrUnknownFactory, name)
		}
		cfg.Factories = append(cfg.Factories, f)
	}
	return cfg, nil
}

func floatRange(r data.Range) FloatRange {
	return FloatRange{Min: r.Min, Max: r.Max}
}
