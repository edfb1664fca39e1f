package world

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"
)

var (
	ErrUnknownFactory = errors.New("unknown factory")
	ErrUnknownSpecies = errors.New("unknown species")
	ErrUnknownVariant = errors.New("unknown variant")
)

// Species describes one shape template. Parts is the number of separately
// coloured parts.
type Species struct {
	Name  string
	Parts int
}

// Factory builds shapes of its species and, when recycling is enabled,
// keeps removed shapes in per-species pools for reuse.
type Factory struct {
	name     string
	id       int32
	hasID    bool
	species  []Species
	variants []string
	recycle  bool

	store *Store
	pools [][]*Shape
	log   *zap.Logger
}

func NewFactory(name string, species []Species, variants []string, recycle bool, log *zap.Logger) *Factory {
	f := &Factory{
		name:     name,
		species:  species,
		variants: variants,
		recycle:  recycle,
		log:      log,
	}
	if recycle {
		f.pools = make([][]*Shape, len(species))
	}
	return f
}

func (f *Factory) Name() string             { return f.name }
func (f *Factory) SpeciesCount() int        { return len(f.species) }
func (f *Factory) VariantCount() int        { return len(f.variants) }
func (f *Factory) Species(id int32) Species { return f.species[id] }

// ID returns the registry id. It is write-once.
func (f *Factory) ID() int32 { return f.id }

func (f *Factory) setID(id int32) {
	if f.hasID {
		panic(fmt.Sprintf("world: factory %q already registered with id %d", f.name, f.id))
	}
	f.id = id
	f.hasID = true
}

// Pooled returns the number of recycled shapes waiting for reuse.
func (f *Factory) Pooled() int {
	n := 0
	for _, p := range f.pools {
		n += len(p)
	}
	return n
}

// Get returns a shape of the requested species and variant, appended to the
// store's non-dying partition with a default transform and white colours.
func (f *Factory) Get(speciesID, variantID int32) (*Shape, error) {
	if f.store == nil {
		return nil, fmt.Errorf("factory %q is not registered", f.name)
	}
	if speciesID < 0 || int(speciesID) >= len(f.species) {
		return nil, fmt.Errorf("%w: %d in factory %q", ErrUnknownSpecies, speciesID, f.name)
	}
	if variantID < 0 || int(variantID) >= len(f.variants) {
		return nil, fmt.Errorf("%w: %d in factory %q", ErrUnknownVariant, variantID, f.name)
	}

	var sh *Shape
	if f.recycle {
		if p := f.pools[speciesID]; len(p) > 0 {
			sh = p[len(p)-1]
			p[len(p)-1] = nil
			f.pools[speciesID] = p[:len(p)-1]
		}
	}
	if sh == nil {
		if f.recycle {
			f.log.Debug("recycle pool empty, allocating",
				zap.String("factory", f.name),
				zap.Int32("species", speciesID),
			)
		}
		parts := f.species[speciesID].Parts
		if parts < 1 {
			parts = 1
		}
		sh = &Shape{index: -1, colors: make([]Color, parts)}
		sh.setFactory(f)
		sh.setSpecies(speciesID)
	}
	sh.reset(variantID)
	f.store.Append(sh)
	return sh, nil
}

// GetRandom returns a shape of a random species and variant.
func (f *Factory) GetRandom(rng *rand.Rand) (*Shape, error) {
	if len(f.species) == 0 || len(f.variants) == 0 {
		return nil, fmt.Errorf("factory %q has no species or variants", f.name)
	}
	return f.Get(int32(rng.IntN(len(f.species))), int32(rng.IntN(len(f.variants))))
}

// Reclaim takes back a shape that left the store.
func (f *Factory) Reclaim(sh *Shape) {
	if sh.factory != f {
		panic(fmt.Sprintf("world: factory %q cannot reclaim a shape it did not build", f.name))
	}
	if f.recycle {
		f.pools[sh.speciesID] = append(f.pools[sh.speciesID], sh)
	}
}

// Registry resolves factories by id. Ids are assigned in registration order.
type Registry struct {
	factories []*Factory
	store     *Store
	log       *zap.Logger
}

func NewRegistry(store *Store, log *zap.Logger) *Registry {
	return &Registry{
		factories: make([]*Factory, 0, 4),
		store:     store,
		log:       log,
	}
}

// Register assigns f the next id and binds it to the registry's store.
func (r *Registry) Register(f *Factory) int32 {
	id := int32(len(r.factories))
	f.setID(id)
	f.store = r.store
	r.factories = append(r.factories, f)
	r.log.Debug("factory registered",
		zap.String("name", f.name),
		zap.Int32("id", id),
		zap.Int("species", len(f.species)),
		zap.Int("variants", len(f.variants)),
	)
	return id
}

// Get returns the factory with the given id.
func (r *Registry) Get(id int32) (*Factory, error) {
	if id < 0 || int(id) >= len(r.factories) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFactory, id)
	}
	return r.factories[id], nil
}

// ByName returns the factory registered under name, or nil.
func (r *Registry) ByName(name string) *Factory {
	for _, f := range r.factories {
		if f.name == name {
			return f
		}
	}
	return nil
}

// Len returns the number of registered factories.
func (r *Registry) Len() int { return len(r.factories) }

// Store returns the store shapes are appended to.
func (r *Registry) Store() *Store { return r.store }
