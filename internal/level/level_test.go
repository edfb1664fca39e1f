package level

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shapelab/engine/internal/codec"
	"github.com/shapelab/engine/internal/data"
	"github.com/shapelab/engine/internal/world"
)

func TestObjectUpdate(t *testing.T) {
	o := &Object{Rotation: mgl32.QuatIdent(), AngularVelocity: mgl32.Vec3{0, 90, 0}}
	o.Update(1)
	got := o.Rotation.Rotate(mgl32.Vec3{0, 0, 1})
	assert.InDelta(t, 1, got[0], 1e-5)
	assert.InDelta(t, 0, got[2], 1e-5)

	still := &Object{Rotation: mgl32.QuatIdent()}
	still.Update(1)
	assert.Equal(t, mgl32.QuatIdent(), still.Rotation)
}

func newLevel() *Level {
	return &Level{
		ID: 4,
		Zone: NewCompositeZone(identity(mgl32.Vec3{}), []Zone{
			NewSphereZone(identity(mgl32.Vec3{}), 1, false),
			NewCubeZone(identity(mgl32.Vec3{}), mgl32.Vec3{1, 1, 1}, false),
		}, true),
		Objects: []*Object{
			{Name: "a", Rotation: mgl32.QuatIdent(), AngularVelocity: mgl32.Vec3{0, 30, 0}},
			{Name: "b", Rotation: mgl32.QuatIdent(), AngularVelocity: mgl32.Vec3{10, 0, 0}},
		},
	}
}

func TestLevelPayloadRoundTrip(t *testing.T) {
	lvl := newLevel()
	lvl.Update(0.5)
	lvl.Zone.SpawnPoint(rand.New(rand.NewPCG(1, 1)))
	w := codec.NewWriter()
	lvl.Save(w)

	restored := newLevel()
	r := codec.NewReader(w.Bytes())
	require.NoError(t, restored.Load(r))
	assert.Equal(t, 0, r.Remaining())
	assert.Equal(t, lvl.Objects[0].Rotation, restored.Objects[0].Rotation)
	assert.Equal(t, lvl.Objects[1].Rotation, restored.Objects[1].Rotation)
	assert.Equal(t, 1, restored.Zone.(*CompositeZone).Next())
}

func TestLevelPayloadWithTooManyObjects(t *testing.T) {
	lvl := newLevel()
	w := codec.NewWriter()
	lvl.Save(w)

	smaller := newLevel()
	smaller.Objects = smaller.Objects[:1]
	assert.ErrorIs(t, smaller.Load(codec.NewReader(w.Bytes())), ErrPayloadMismatch)
}

func TestLevelPayloadTruncated(t *testing.T) {
	lvl := newLevel()
	w := codec.NewWriter()
	lvl.Save(w)
	raw := w.Bytes()
	assert.Error(t, newLevel().Load(codec.NewReader(raw[:len(raw)-2])))
}

const levelsYAML = `
levels:
  - id: 1
    name: field
    population_limit: 20
    zone: { kind: cube, center: [1, 2, 3], size: [2, 2, 2] }
    spawn:
      factories: [shapes]
      movement: upward
      oscillation: { direction: random }
    objects:
      - { name: spinner, rotation: [0, 90, 0], angular_velocity: [0, 15, 0] }
  - id: 2
    zone:
      kind: composite
      zones:
        - { kind: sphere, radius: 2 }
        - { kind: cube }
    spawn: { factories: [missing] }
  - id: 3
    zone: { kind: sphere }
    spawn: { factories: [shapes], movement: sideways }
`

func newLoader(t *testing.T) (*TableLoader, *testWorld) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "levels.yaml")
	require.NoError(t, os.WriteFile(path, []byte(levelsYAML), 0o644))
	table, err := data.LoadLevelTable(path)
	require.NoError(t, err)
	w := newTestWorld(t)
	return NewTableLoader(table, w.registry, zap.NewNop()), w
}

func TestTableLoaderBuildsLevel(t *testing.T) {
	loader, w := newLoader(t)
	lvl, err := loader.LoadLevel(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int32(1), lvl.ID)
	assert.Equal(t, "field", lvl.Name)
	assert.Equal(t, 20, lvl.PopulationLimit)
	cube, ok := lvl.Zone.(*CubeZone)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, cube.Frame().Center)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, cube.Size)
	assert.Equal(t, []*world.Factory{w.factory}, lvl.Spawn.Factories)
	assert.Equal(t, DirUpward, lvl.Spawn.Movement)
	assert.Equal(t, DirRandom, lvl.Spawn.Oscillation.Direction)
	assert.Equal(t, FloatRange{Min: 1, Max: 1}, lvl.Spawn.Scale, "unset scale defaults to 1")
	require.Len(t, lvl.Objects, 1)
	assert.Equal(t, "spinner", lvl.Objects[0].Name)
	assert.Equal(t, mgl32.Vec3{0, 15, 0}, lvl.Objects[0].AngularVelocity)

	again, err := loader.LoadLevel(context.Background(), 1)
	require.NoError(t, err)
	assert.NotSame(t, lvl, again, "every load builds a fresh level")
	assert.NotSame(t, lvl.Objects[0], again.Objects[0])
}

func TestTableLoaderErrors(t *testing.T) {
	loader, _ := newLoader(t)
	ctx := context.Background()

	_, err := loader.LoadLevel(ctx, 9)
	assert.ErrorIs(t, err, ErrUnknownLevel)

	_, err = loader.LoadLevel(ctx, 2)
	assert.ErrorIs(t, err, world.ErrUnknownFactory)

	_, err = loader.LoadLevel(ctx, 3)
	assert.ErrorContains(t, err, "sideways")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = loader.LoadLevel(cancelled, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildCompositeZone(t *testing.T) {
	z := buildZone(data.ZoneEntry{
		Kind:       "composite",
		Sequential: true,
		Zones: []data.ZoneEntry{
			{Kind: "sphere", Radius: 2},
			{Kind: "cube"},
		},
	})
	c, ok := z.(*CompositeZone)
	require.True(t, ok)
	require.Len(t, c.zones, 2)
	assert.IsType(t, &SphereZone{}, c.zones[0])
	cube, ok := c.zones[1].(*CubeZone)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, cube.Size, "unset cube size defaults to 1")
	assert.True(t, c.sequential)
}
