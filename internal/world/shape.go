package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Color is an RGBA colour with float32 channels.
type Color = mgl32.Vec4

// White is the neutral colour applied when a record carries none.
var White = Color{1, 1, 1, 1}

// Shape is one simulated object. Shapes are only created through a Factory
// and only destroyed through Store.Remove, which hands them back to the
// factory's recycle path.
// Accessed only from the game loop goroutine.
type Shape struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	Age      float32 // seconds since the shape was spawned

	speciesID  int32
	hasSpecies bool
	variantID  int32
	colors     []Color

	index      int    // position in Store.shapes, -1 when not stored
	generation uint32 // bumped on every recycle to invalidate ShapeRefs
	factory    *Factory
	store      *Store
	behaviors  []Behavior
}

// SpeciesID selects the shape template. It is write-once.
func (sh *Shape) SpeciesID() int32 { return sh.speciesID }

func (sh *Shape) setSpecies(id int32) {
	if sh.hasSpecies {
		panic(fmt.Sprintf("world: species id already set to %d, cannot change to %d", sh.speciesID, id))
	}
	sh.speciesID = id
	sh.hasSpecies = true
}

// VariantID selects the visual material variant.
func (sh *Shape) VariantID() int32 { return sh.variantID }

// SetVariant changes the visual material variant.
func (sh *Shape) SetVariant(id int32) { sh.variantID = id }

// Factory returns the factory that created the shape.
func (sh *Shape) Factory() *Factory { return sh.factory }

func (sh *Shape) setFactory(f *Factory) {
	if sh.factory != nil {
		panic(fmt.Sprintf("world: shape already owned by factory %q", sh.factory.name))
	}
	sh.factory = f
}

// Index returns the shape's current position in its store, or -1.
func (sh *Shape) Index() int { return sh.index }

// Generation increments every time the shape is recycled.
func (sh *Shape) Generation() uint32 { return sh.generation }

// Alive reports whether the shape is currently held by a store.
func (sh *Shape) Alive() bool { return sh.store != nil }

// Colors returns the per-part colours. The slice must not be modified.
func (sh *Shape) Colors() []Color { return sh.colors }

// SetColor applies c to every part.
func (sh *Shape) SetColor(c Color) {
	for i := range sh.colors {
		sh.colors[i] = c
	}
}

// SetColorAt applies c to part i.
func (sh *Shape) SetColorAt(i int, c Color) {
	sh.colors[i] = c
}

// Behaviors returns the attached behaviors in dispatch order.
// The slice must not be modified.
func (sh *Shape) Behaviors() []Behavior { return sh.behaviors }

// Velocity is the combined linear velocity of all Movement behaviors.
func (sh *Shape) Velocity() mgl32.Vec3 {
	var v mgl32.Vec3
	for _, b := range sh.behaviors {
		if m, ok := b.(*MovementBehavior); ok {
			v = v.Add(m.Velocity)
		}
	}
	return v
}

// AngularVelocity is the combined angular velocity (degrees per second)
// of all Rotation behaviors.
func (sh *Shape) AngularVelocity() mgl32.Vec3 {
	var v mgl32.Vec3
	for _, b := range sh.behaviors {
		if r, ok := b.(*RotationBehavior); ok {
			v = v.Add(r.AngularVelocity)
		}
	}
	return v
}

// Die removes the shape from its store. During a store update the removal
// is deferred until the iteration completes.
func (sh *Shape) Die() {
	sh.mustStore().Remove(sh)
}

// MarkAsDying moves the shape into the store's dying partition.
func (sh *Shape) MarkAsDying() {
	sh.mustStore().PromoteToDying(sh)
}

// IsMarkedAsDying reports whether the shape sits in the dying partition.
func (sh *Shape) IsMarkedAsDying() bool {
	return sh.store != nil && sh.store.IsDying(sh)
}

// hasDying also covers a Dying behavior attached during the current
// update, whose promotion is still queued.
func (sh *Shape) hasDying() bool {
	if sh.IsMarkedAsDying() {
		return true
	}
	for _, b := range sh.behaviors {
		if _, ok := b.(*DyingBehavior); ok {
			return true
		}
	}
	return false
}

func (sh *Shape) mustStore() *Store {
	if sh.store == nil {
		panic("world: shape is not held by a store")
	}
	return sh.store
}

// reset prepares a freshly built or recycled shape for reuse.
func (sh *Shape) reset(variantID int32) {
	sh.Position = mgl32.Vec3{}
	sh.Rotation = mgl32.QuatIdent()
	sh.Scale = mgl32.Vec3{1, 1, 1}
	sh.Age = 0
	sh.variantID = variantID
	sh.SetColor(White)
}

// update advances the shape by dt seconds and dispatches its behaviors in
// insertion order. Behaviors attached during dispatch are visited in the
// same pass because the loop re-reads the length on every step.
func (sh *Shape) update(dt float32) {
	sh.Age += dt
	gen := sh.generation
	for i := 0; i < len(sh.behaviors); i++ {
		b := sh.behaviors[i]
		out := updateBehavior(b, sh, dt)
		if sh.generation != gen {
			return
		}
		if out == FinishedDetach {
			sh.detachAt(i)
			i--
		}
	}
}

func (sh *Shape) attach(b Behavior) {
	sh.behaviors = append(sh.behaviors, b)
}

func (sh *Shape) detachAt(i int) {
	b := sh.behaviors[i]
	last := len(sh.behaviors) - 1
	copy(sh.behaviors[i:], sh.behaviors[i+1:])
	sh.behaviors[last] = nil
	sh.behaviors = sh.behaviors[:last]
	sh.store.pools.reclaim(b)
}

func (sh *Shape) resolveReferences(s *Store) {
	for _, b := range sh.behaviors {
		if sat, ok := b.(*SatelliteBehavior); ok {
			sat.focal.Resolve(s)
		}
	}
}

// recycle detaches every behavior, invalidates outstanding references and
// returns the shape to its factory.
func (sh *Shape) recycle() {
	for i, b := range sh.behaviors {
		sh.store.pools.reclaim(b)
		sh.behaviors[i] = nil
	}
	sh.behaviors = sh.behaviors[:0]
	sh.generation++
	sh.Age = 0
	sh.index = -1
	sh.store = nil
	if sh.factory != nil {
		sh.factory.Reclaim(sh)
	}
}
