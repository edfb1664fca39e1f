package world_test

import (
	"testing"

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
		[]world.Species{{Name: "cube", Parts: 1}, {Name: "composite", Parts: 3}},
		[]string{"standard", "metal"},
		true, log)
	reg.Register(f)
	return &testWorld{store: store, registry: reg, factory: f}
}

func (w *testWorld) spawn(t *testing.T) *world.Shape {
	t.Helper()
	sh, err := w.factory.Get(0, 0)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	return sh
}

// order returns the shapes in storage order.
func (w *testWorld) order() []*world.Shape {
	out := make([]*world.Shape, 0, w.store.Len())
	w.store.Each(func(sh *world.Shape) { out = append(out, sh) })
	return out
}
