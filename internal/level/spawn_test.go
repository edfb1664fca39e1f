package level

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shapelab/engine/internal/world"
)

type testWorld struct {
	store    *world.Store
	registry *world.Registry
	factory  *world.Factory
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	log := zap.NewNop()
	store := world.NewStore(log)
	reg := world.NewRegistry(store, log)
	f := world.NewFactory("shapes",
		[]world.Species{{Name: "cube", Parts: 1}, {Name: "cross", Parts: 3}},
		[]string{"standard", "metal"},
		true, log)
	reg.Register(f)
	return &testWorld{store: store, registry: reg, factory: f}
}

func (w *testWorld) level(cfg SpawnConfig) *Level {
	cfg.Factories = []*world.Factory{w.factory}
	return &Level{
		ID:    1,
		Zone:  NewSphereZone(identity(mgl32.Vec3{}), 5, false),
		Spawn: cfg,
	}
}

func kinds(sh *world.Shape) []world.BehaviorKind {
	var out []world.BehaviorKind
	for _, b := range sh.Behaviors() {
		out = append(out, b.Kind())
	}
	return out
}

func fixed(v float32) FloatRange { return FloatRange{Min: v, Max: v} }

func TestSpawnBasic(t *testing.T) {
	w := newTestWorld(t)
	rng := rand.New(rand.NewPCG(1, 2))
	lvl := w.level(SpawnConfig{
		Movement:     DirOutward,
		Speed:        fixed(2),
		AngularSpeed: fixed(45),
		Scale:        fixed(1.5),
		Color: ColorRange{
			Hue:        fixed(0),
			Saturation: fixed(1),
			Value:      fixed(1),
		},
	})

	sh, err := NewSpawner(nil, zap.NewNop()).Spawn(lvl, 0, rng)
	require.NoError(t, err)
	assert.Equal(t, 1, w.store.Len())
	assert.Equal(t, mgl32.Vec3{1.5, 1.5, 1.5}, sh.Scale)
	assert.LessOrEqual(t, sh.Position.Len(), float32(5.0001))
	assert.Equal(t, []world.BehaviorKind{world.KindRotation, world.KindMovement}, kinds(sh))
	assert.InDelta(t, 45, sh.AngularVelocity().Len(), 1e-3)
	assert.InDelta(t, 2, sh.Velocity().Len(), 1e-4)
	assert.Greater(t, sh.Velocity().Dot(sh.Position), float32(0), "outward movement points away from the centre")
	for _, c := range sh.Colors() {
		assert.InDelta(t, 1, c[0], 1e-6, "pure red")
		assert.InDelta(t, 0, c[1], 1e-6)
		assert.InDelta(t, 0, c[2], 1e-6)
		assert.Equal(t, float32(1), c[3], "unset alpha is opaque")
	}
}

func TestSpawnStaticShapeHasNoBehaviors(t *testing.T) {
	w := newTestWorld(t)
	rng := rand.New(rand.NewPCG(3, 4))
	sh, err := NewSpawner(nil, zap.NewNop()).Spawn(w.level(SpawnConfig{Scale: fixed(1)}), 0, rng)
	require.NoError(t, err)
	assert.Empty(t, sh.Behaviors())
}

func TestSpawnUniformColor(t *testing.T) {
	w := newTestWorld(t)
	rng := rand.New(rand.NewPCG(5, 6))
	lvl := w.level(SpawnConfig{
		Scale:        fixed(1),
		UniformColor: true,
		Color: ColorRange{
			Hue:        FloatRange{Min: 0, Max: 1},
			Saturation: fixed(1),
			Value:      fixed(1),
		},
	})
	sp := NewSpawner(nil, zap.NewNop())
	for i := 0; i < 20; i++ {
		sh, err := sp.Spawn(lvl, i, rng)
		require.NoError(t, err)
		for _, c := range sh.Colors() {
			assert.Equal(t, sh.Colors()[0], c)
		}
	}
}

func TestSpawnLifecycleVariants(t *testing.T) {
	for name, tc := range map[string]struct {
		life LifecycleRange
		want []world.BehaviorKind
	}{
		"growing only":    {LifecycleRange{Growing: fixed(1)}, []world.BehaviorKind{world.KindGrowing}},
		"full":            {LifecycleRange{Growing: fixed(1), Adult: fixed(2), Dying: fixed(1)}, []world.BehaviorKind{world.KindLifecycle, world.KindGrowing}},
		"adult and dying": {LifecycleRange{Adult: fixed(2), Dying: fixed(1)}, []world.BehaviorKind{world.KindLifecycle}},
		"dying only":      {LifecycleRange{Dying: fixed(1)}, []world.BehaviorKind{world.KindDying}},
		"none":            {LifecycleRange{}, nil},
	} {
		t.Run(name, func(t *testing.T) {
			w := newTestWorld(t)
			rng := rand.New(rand.NewPCG(7, 8))
			sh, err := NewSpawner(nil, zap.NewNop()).Spawn(w.level(SpawnConfig{Scale: fixed(1), Lifecycle: tc.life}), 0, rng)
			require.NoError(t, err)
			assert.Equal(t, tc.want, kinds(sh))
		})
	}
}

func TestSpawnDyingOnlyMarksShapeDying(t *testing.T) {
	w := newTestWorld(t)
	rng := rand.New(rand.NewPCG(9, 9))
	sh, err := NewSpawner(nil, zap.NewNop()).Spawn(w.level(SpawnConfig{
		Scale:     fixed(1),
		Lifecycle: LifecycleRange{Dying: fixed(1)},
	}), 0, rng)
	require.NoError(t, err)
	assert.True(t, sh.IsMarkedAsDying())
	assert.Equal(t, 1, w.store.DyingCount())
}

func TestSpawnSatellites(t *testing.T) {
	w := newTestWorld(t)
	rng := rand.New(rand.NewPCG(10, 11))
	lvl := w.level(SpawnConfig{
		Scale: fixed(2),
		Satellite: SatelliteConfig{
			Amount:            IntRange{Min: 2, Max: 2},
			RelativeScale:     fixed(0.25),
			OrbitRadius:       fixed(3),
			OrbitFrequency:    fixed(0.5),
			UniformLifecycles: true,
		},
		Lifecycle: LifecycleRange{Adult: fixed(5), Dying: fixed(1)},
	})

	focal, err := NewSpawner(nil, zap.NewNop()).Spawn(lvl, 0, rng)
	require.NoError(t, err)
	require.Equal(t, 3, w.store.Len())

	satellites := 0
	w.store.Each(func(sh *world.Shape) {
		if sh == focal {
			return
		}
		satellites++
		assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, sh.Scale)
		require.Len(t, sh.Behaviors(), 3)
		sat, ok := sh.Behaviors()[0].(*world.SatelliteBehavior)
		require.True(t, ok)
		assert.Same(t, focal, sat.Focal().Shape())
		assert.InDelta(t, 3, sh.Position.Sub(focal.Position).Len(), 1e-4)
		lc, ok := sh.Behaviors()[2].(*world.LifecycleBehavior)
		require.True(t, ok)
		assert.Equal(t, float32(5), lc.AdultDuration(), "uniform lifecycles copy the focal durations")
	})
	assert.Equal(t, 2, satellites)
}

type fakeHook struct {
	seen SpawnParams
}

func (h *fakeHook) AdjustSpawn(p SpawnParams) SpawnParams {
	h.seen = p
	p.Scale = 3
	p.Speed = 0
	p.Satellites = 1
	return p
}

func TestSpawnHookOverridesParams(t *testing.T) {
	w := newTestWorld(t)
	rng := rand.New(rand.NewPCG(12, 13))
	lvl := w.level(SpawnConfig{
		Speed: fixed(4),
		Scale: fixed(1),
		Satellite: SatelliteConfig{
			RelativeScale: fixed(0.5),
			OrbitRadius:   fixed(1),
		},
	})
	lvl.PopulationLimit = 10
	hook := &fakeHook{}

	sh, err := NewSpawner(hook, zap.NewNop()).Spawn(lvl, 7, rng)
	require.NoError(t, err)
	assert.Equal(t, SpawnParams{Level: 1, Population: 7, Limit: 10, Speed: 4, Scale: 1}, hook.seen)
	assert.Equal(t, mgl32.Vec3{3, 3, 3}, sh.Scale)
	assert.Equal(t, mgl32.Vec3{}, sh.Velocity())
	assert.Equal(t, 2, w.store.Len(), "hook added one satellite")
}

func TestSpawnWithoutFactories(t *testing.T) {
	lvl := &Level{Zone: NewSphereZone(identity(mgl32.Vec3{}), 1, false)}
	_, err := NewSpawner(nil, zap.NewNop()).Spawn(lvl, 0, rand.New(rand.NewPCG(1, 1)))
	assert.Error(t, err)
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"":        DirForward,
		"forward": DirForward,
		"upward":  DirUpward,
		"outward": DirOutward,
		"random":  DirRandom,
	} {
		got, err := ParseDirection(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDirection("sideways")
	assert.Error(t, err)
}

func TestIntRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(14, 15))
	assert.Equal(t, 3, IntRange{Min: 3, Max: 1}.Random(rng))
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		v := IntRange{Min: 1, Max: 3}.Random(rng)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 3)
		seen[v] = true
	}
	assert.Len(t, seen, 3)
}
