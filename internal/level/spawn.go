package level

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/shapelab/engine/internal/world"
	"go.uber.org/zap"
)

// Direction selects how a spawned shape's movement is oriented.
type Direction int

const (
	DirForward Direction = iota // zone frame +z
	DirUpward                   // zone frame +y
	DirOutward                  // away from the zone centre
	DirRandom
)

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "forward":
		return DirForward, nil
	case "upward":
		return DirUpward, nil
	case "outward":
		return DirOutward, nil
	case "random":
		return DirRandom, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// FloatRange is an inclusive range sampled uniformly.
type FloatRange struct {
	Min, Max float32
}

func (r FloatRange) Random(rng *rand.Rand) float32 {
	return r.Min + (r.Max-r.Min)*rng.Float32()
}

// IntRange is an inclusive integer range sampled uniformly.
type IntRange struct {
	Min, Max int
}

func (r IntRange) Random(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.IntN(r.Max-r.Min+1)
}

// ColorRange samples colours in HSV space. Hue is in [0, 1]. An unset
// alpha range yields opaque colours.
type ColorRange struct {
	Hue, Saturation, Value, Alpha FloatRange
}

func (c ColorRange) Random(rng *rand.Rand) world.Color {
	hsv := colorful.Hsv(
		float64(c.Hue.Random(rng))*360,
		float64(c.Saturation.Random(rng)),
		float64(c.Value.Random(rng)),
	).Clamped()
	alpha := float32(1)
	if c.Alpha != (FloatRange{}) {
		alpha = c.Alpha.Random(rng)
	}
	return world.Color{float32(hsv.R), float32(hsv.G), float32(hsv.B), alpha}
}

type Lifecycle struct {
	Growing, Adult, Dying float32
}

type LifecycleRange struct {
	Growing, Adult, Dying FloatRange
}

func (l LifecycleRange) Random(rng *rand.Rand) Lifecycle {
	return Lifecycle{
		Growing: l.Growing.Random(rng),
		Adult:   l.Adult.Random(rng),
		Dying:   l.Dying.Random(rng),
	}
}

type OscillationConfig struct {
	Direction Direction
	Amplitude FloatRange
	Frequency FloatRange
}

type SatelliteConfig struct {
	Amount            IntRange
	RelativeScale     FloatRange
	OrbitRadius       FloatRange
	OrbitFrequency    FloatRange
	UniformLifecycles bool // satellites share their focal shape's lifecycle
}

// SpawnConfig describes the shapes a level creates.
type SpawnConfig struct {
	Factories    []*world.Factory
	Movement     Direction
	Speed        FloatRange
	AngularSpeed FloatRange // degrees per second
	Scale        FloatRange
	Color        ColorRange
	UniformColor bool
	Oscillation  OscillationConfig
	Satellite    SatelliteConfig
	Lifecycle    LifecycleRange
}

// SpawnParams are the per-spawn values a SpawnHook may adjust.
type SpawnParams struct {
	Level        int32
	Population   int // live shapes before this spawn
	Limit        int // 0 = unlimited
	Speed        float32
	AngularSpeed float32
	Scale        float32
	Satellites   int
}

// SpawnHook adjusts spawn parameters before a shape is configured.
type SpawnHook interface {
	AdjustSpawn(p SpawnParams) SpawnParams
}

var errNoFactories = errors.New("spawn config has no factories")

// Spawner creates configured shapes for a level.
type Spawner struct {
	hook SpawnHook
	log  *zap.Logger
}

// NewSpawner returns a spawner. hook may be nil.
func NewSpawner(hook SpawnHook, log *zap.Logger) *Spawner {
	return &Spawner{hook: hook, log: log}
}

// Spawn creates one shape at a point of the level's zone, together with
// its satellites.
func (s *Spawner) Spawn(l *Level, population int, rng *rand.Rand) (*world.Shape, error) {
	cfg := &l.Spawn
	sh, err := randomShape(cfg, rng)
	if err != nil {
		return nil, err
	}
	sh.Position = l.Zone.SpawnPoint(rng)
	sh.Rotation = world.RandomRotation(rng)

	p := SpawnParams{
		Level:        l.ID,
		Population:   population,
		Limit:        l.PopulationLimit,
		Speed:        cfg.Speed.Random(rng),
		AngularSpeed: cfg.AngularSpeed.Random(rng),
		Scale:        cfg.Scale.Random(rng),
		Satellites:   cfg.Satellite.Amount.Random(rng),
	}
	if s.hook != nil {
		p = s.hook.AdjustSpawn(p)
	}

	sh.Scale = mgl32.Vec3{p.Scale, p.Scale, p.Scale}
	setupColor(sh, cfg, rng)
	if p.AngularSpeed != 0 {
		sh.AddRotation(world.RandomOnUnitSphere(rng).Mul(p.AngularSpeed))
	}
	if p.Speed != 0 {
		sh.AddMovement(direction(cfg.Movement, l.Zone.Frame(), sh, rng).Mul(p.Speed))
	}
	setupOscillation(sh, cfg, l.Zone.Frame(), rng)

	life := cfg.Lifecycle.Random(rng)
	for i := 0; i < p.Satellites; i++ {
		satLife := life
		if !cfg.Satellite.UniformLifecycles {
			satLife = cfg.Lifecycle.Random(rng)
		}
		if err := spawnSatellite(sh, cfg, satLife, rng); err != nil {
			return sh, fmt.Errorf("satellite %d: %w", i, err)
		}
	}
	setupLifecycle(sh, life)

	s.log.Debug("shape spawned",
		zap.String("factory", sh.Factory().Name()),
		zap.Int32("species", sh.SpeciesID()),
		zap.Int("satellites", p.Satellites),
	)
	return sh, nil
}

func randomShape(cfg *SpawnConfig, rng *rand.Rand) (*world.Shape, error) {
	if len(cfg.Factories) == 0 {
		return nil, errNoFactories
	}
	return cfg.Factories[rng.IntN(len(cfg.Factories))].GetRandom(rng)
}

func spawnSatellite(focal *world.Shape, cfg *SpawnConfig, life Lifecycle, rng *rand.Rand) error {
	sat, err := randomShape(cfg, rng)
	if err != nil {
		return err
	}
	sat.Rotation = world.RandomRotation(rng)
	scale := focal.Scale[0] * cfg.Satellite.RelativeScale.Random(rng)
	sat.Scale = mgl32.Vec3{scale, scale, scale}
	setupColor(sat, cfg, rng)
	sat.AddSatellite(focal,
		cfg.Satellite.OrbitRadius.Random(rng),
		cfg.Satellite.OrbitFrequency.Random(rng),
		rng,
	)
	setupLifecycle(sat, life)
	return nil
}

func setupColor(sh *world.Shape, cfg *SpawnConfig, rng *rand.Rand) {
	if cfg.UniformColor {
		sh.SetColor(cfg.Color.Random(rng))
		return
	}
	for i := range sh.Colors() {
		sh.SetColorAt(i, cfg.Color.Random(rng))
	}
}

func setupOscillation(sh *world.Shape, cfg *SpawnConfig, frame Frame, rng *rand.Rand) {
	amplitude := cfg.Oscillation.Amplitude.Random(rng)
	frequency := cfg.Oscillation.Frequency.Random(rng)
	if amplitude == 0 || frequency == 0 {
		return
	}
	dir := direction(cfg.Oscillation.Direction, frame, sh, rng)
	sh.AddOscillation(dir.Mul(amplitude), frequency)
}

// setupLifecycle attaches the behaviors matching the non-zero phases.
func setupLifecycle(sh *world.Shape, life Lifecycle) {
	switch {
	case life.Growing > 0:
		if life.Adult > 0 || life.Dying > 0 {
			sh.AddLifecycle(life.Growing, life.Adult, life.Dying)
		} else {
			sh.AddGrowing(life.Growing)
		}
	case life.Adult > 0:
		sh.AddLifecycle(life.Growing, life.Adult, life.Dying)
	case life.Dying > 0:
		sh.AddDying(life.Dying)
	}
}

func direction(d Direction, frame Frame, sh *world.Shape, rng *rand.Rand) mgl32.Vec3 {
	switch d {
	case DirUpward:
		return frame.Up()
	case DirOutward:
		out := sh.Position.Sub(frame.Center)
		if out.Len() == 0 {
			return frame.Forward()
		}
		return out.Normalize()
	case DirRandom:
		return world.RandomOnUnitSphere(rng)
	}
	return frame.Forward()
}
