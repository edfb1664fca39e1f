package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shapelab/engine/internal/world"
)

func TestZeroRefIsInvalid(t *testing.T) {
	var r world.ShapeRef
	assert.False(t, r.IsValid())
	assert.False(t, r.Pending())
	assert.Nil(t, r.Shape())
	assert.Equal(t, int32(-1), r.SaveIndex())
}

func TestRefToTracksIndex(t *testing.T) {
	w := newTestWorld(t)
	a, b := w.spawn(t), w.spawn(t)
	r := world.RefTo(b)
	assert.Equal(t, int32(1), r.SaveIndex())
	w.store.Remove(a)
	assert.True(t, r.IsValid())
	assert.Equal(t, int32(0), r.SaveIndex())
	w.store.Remove(b)
	assert.False(t, r.IsValid())
	assert.Equal(t, int32(-1), r.SaveIndex())
}

func TestResolve(t *testing.T) {
	w := newTestWorld(t)
	w.spawn(t)
	b := w.spawn(t)

	r := world.PendingRef(1)
	assert.True(t, r.Pending())
	assert.False(t, r.IsValid())
	r.Resolve(w.store)
	assert.False(t, r.Pending())
	assert.Same(t, b, r.Shape())

	out := world.PendingRef(7)
	out.Resolve(w.store)
	assert.False(t, out.IsValid())
	assert.False(t, out.Pending())

	none := world.PendingRef(-1)
	assert.False(t, none.Pending())
	none.Resolve(w.store)
	assert.False(t, none.IsValid())
}

func TestRefToNil(t *testing.T) {
	assert.False(t, world.RefTo(nil).IsValid())
}
