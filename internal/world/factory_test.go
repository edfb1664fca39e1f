package world_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shapelab/engine/internal/world"
)

func TestFactoryGet(t *testing.T) {
	w := newTestWorld(t)
	sh, err := w.factory.Get(1, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), sh.SpeciesID())
	assert.Equal(t, int32(1), sh.VariantID())
	assert.Same(t, w.factory, sh.Factory())
	assert.Len(t, sh.Colors(), 3)
	for _, c := range sh.Colors() {
		assert.Equal(t, world.White, c)
	}
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, sh.Scale)
	assert.Equal(t, mgl32.QuatIdent(), sh.Rotation)
}

func TestFactoryRejectsUnknownIDs(t *testing.T) {
	w := newTestWorld(t)
	_, err := w.factory.Get(9, 0)
	assert.True(t, errors.Is(err, world.ErrUnknownSpecies))
	_, err = w.factory.Get(0, -1)
	assert.True(t, errors.Is(err, world.ErrUnknownVariant))
	_, err = w.registry.Get(3)
	assert.True(t, errors.Is(err, world.ErrUnknownFactory))
}

func TestFactoryRecyclesPerSpecies(t *testing.T) {
	w := newTestWorld(t)
	a, err := w.factory.Get(1, 0)
	require.NoError(t, err)
	a.SetColorAt(2, world.Color{1, 0, 0, 1})
	a.AddMovement(mgl32.Vec3{1, 0, 0})
	gen := a.Generation()

	w.store.Remove(a)
	assert.Equal(t, 1, w.factory.Pooled())
	assert.Equal(t, gen+1, a.Generation())

	// A different species does not take from that pool.
	b, err := w.factory.Get(0, 0)
	require.NoError(t, err)
	assert.NotSame(t, a, b)

	c, err := w.factory.Get(1, 1)
	require.NoError(t, err)
	assert.Same(t, a, c)
	assert.Equal(t, int32(1), c.VariantID())
	assert.Empty(t, c.Behaviors())
	assert.Equal(t, world.White, c.Colors()[2])
	assert.Equal(t, float32(0), c.Age)
}

func TestFactoryWithoutRecycling(t *testing.T) {
	log := zap.NewNop()
	store := world.NewStore(log)
	reg := world.NewRegistry(store, log)
	f := world.NewFactory("plain", []world.Species{{Name: "cube", Parts: 1}}, []string{"a"}, false, log)
	reg.Register(f)

	a, err := f.Get(0, 0)
	require.NoError(t, err)
	store.Remove(a)
	assert.Equal(t, 0, f.Pooled())
	b, err := f.Get(0, 0)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestFactoryIDIsWriteOnce(t *testing.T) {
	w := newTestWorld(t)
	other := world.NewRegistry(w.store, zap.NewNop())
	assert.Panics(t, func() { other.Register(w.factory) })
	assert.Equal(t, int32(0), w.factory.ID())
}

func TestUnregisteredFactory(t *testing.T) {
	f := world.NewFactory("loose", []world.Species{{Name: "cube", Parts: 1}}, []string{"a"}, true, zap.NewNop())
	_, err := f.Get(0, 0)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	w := newTestWorld(t)
	second := world.NewFactory("extra", []world.Species{{Name: "torus", Parts: 2}}, []string{"glass"}, true, zap.NewNop())
	id := w.registry.Register(second)
	assert.Equal(t, int32(1), id)
	assert.Equal(t, 2, w.registry.Len())
	got, err := w.registry.Get(1)
	require.NoError(t, err)
	assert.Same(t, second, got)
	assert.Same(t, second, w.registry.ByName("extra"))
	assert.Nil(t, w.registry.ByName("missing"))
}

func TestGetRandom(t *testing.T) {
	w := newTestWorld(t)
	rng := rand.New(rand.NewPCG(1, 1))
	seen := map[int32]bool{}
	for i := 0; i < 50; i++ {
		sh, err := w.factory.GetRandom(rng)
		require.NoError(t, err)
		seen[sh.SpeciesID()] = true
	}
	assert.Len(t, seen, 2)
}
