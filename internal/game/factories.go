package game

import (
	"github.com/shapelab/engine/internal/data"
	"github.com/shapelab/engine/internal/world"
	"go.uber.org/zap"
)

// RegisterFactories registers one factory per table entry, in table order.
// Factory ids end up in save records, so the order must not change between
// builds that share saves.
func RegisterFactories(reg *world.Registry, table *data.FactoryTable, log *zap.Logger) {
	for _, e := range table.Entries() {
		species := make([]world.Species, len(e.Species))
		for i, s := range e.Species {
			parts := s.Parts
			if parts < 1 {
				parts = 1
			}
			species[i] = world.Species{Name: s.Name, Parts: parts}
		}
		reg.Register(world.NewFactory(e.Name, species, e.Variants, e.Recycle, log.Named(e.Name)))
	}
	log.Info("factories registered", zap.Int("count", reg.Len()))
}
