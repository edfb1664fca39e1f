package world

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/shapelab/engine/internal/core/pool"
)

// BehaviorKind tags a behavior variant. The numeric values are part of the
// save format.
type BehaviorKind int32

const (
	KindMovement BehaviorKind = iota
	KindRotation
	KindOscillation
	KindSatellite
	KindGrowing
	KindDying
	KindLifecycle
)

func (k BehaviorKind) String() string {
	switch k {
	case KindMovement:
		return "Movement"
	case KindRotation:
		return "Rotation"
	case KindOscillation:
		return "Oscillation"
	case KindSatellite:
		return "Satellite"
	case KindGrowing:
		return "Growing"
	case KindDying:
		return "Dying"
	case KindLifecycle:
		return "Lifecycle"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(k))
	}
}

// Outcome is what a behavior reports after one update.
type Outcome int

const (
	Continue       Outcome = iota // keep attached
	FinishedNoop                  // behavior handled its own exit (e.g. killed the shape)
	FinishedDetach                // remove from the set and return to the pool
)

// Behavior is one of the fixed set of per-tick shape behaviors. The set is
// closed: only the variants declared in this package implement it.
type Behavior interface {
	Kind() BehaviorKind
	behavior()
}

// MovementBehavior moves the shape at a constant velocity.
type MovementBehavior struct {
	Velocity mgl32.Vec3
}

// RotationBehavior spins the shape; AngularVelocity is in degrees per second
// around the local axes.
type RotationBehavior struct {
	AngularVelocity mgl32.Vec3
}

// OscillationBehavior offsets the shape along Offset by sin(2π·f·age).
type OscillationBehavior struct {
	Offset    mgl32.Vec3
	Frequency float32
	previous  float32
}

// GrowingBehavior scales the shape up from zero over a duration.
type GrowingBehavior struct {
	originalScale mgl32.Vec3
	duration      float32
}

// DyingBehavior scales the shape down to zero, then kills it.
type DyingBehavior struct {
	originalScale mgl32.Vec3
	duration      float32
	dyingAge      float32
}

// LifecycleBehavior sequences growing, adult and dying phases.
type LifecycleBehavior struct {
	adultDuration float32
	dyingDuration float32
	dyingAge      float32
}

// SatelliteBehavior orbits a focal shape.
type SatelliteBehavior struct {
	focal            ShapeRef
	frequency        float32
	cosOffset        mgl32.Vec3
	sinOffset        mgl32.Vec3
	previousPosition mgl32.Vec3
}

func (*MovementBehavior) Kind() BehaviorKind    { return KindMovement }
func (*RotationBehavior) Kind() BehaviorKind    { return KindRotation }
func (*OscillationBehavior) Kind() BehaviorKind { return KindOscillation }
func (*GrowingBehavior) Kind() BehaviorKind     { return KindGrowing }
func (*DyingBehavior) Kind() BehaviorKind       { return KindDying }
func (*LifecycleBehavior) Kind() BehaviorKind   { return KindLifecycle }
func (*SatelliteBehavior) Kind() BehaviorKind   { return KindSatellite }

func (*MovementBehavior) behavior()    {}
func (*RotationBehavior) behavior()    {}
func (*OscillationBehavior) behavior() {}
func (*GrowingBehavior) behavior()     {}
func (*DyingBehavior) behavior()       {}
func (*LifecycleBehavior) behavior()   {}
func (*SatelliteBehavior) behavior()   {}

func (b *GrowingBehavior) OriginalScale() mgl32.Vec3 { return b.originalScale }
func (b *GrowingBehavior) Duration() float32         { return b.duration }

func (b *DyingBehavior) OriginalScale() mgl32.Vec3 { return b.originalScale }
func (b *DyingBehavior) Duration() float32         { return b.duration }
func (b *DyingBehavior) DyingAge() float32         { return b.dyingAge }

func (b *LifecycleBehavior) AdultDuration() float32 { return b.adultDuration }
func (b *LifecycleBehavior) DyingDuration() float32 { return b.dyingDuration }
func (b *LifecycleBehavior) DyingAge() float32      { return b.dyingAge }

func (b *SatelliteBehavior) Focal() ShapeRef                { return b.focal }
func (b *SatelliteBehavior) Frequency() float32             { return b.frequency }
func (b *SatelliteBehavior) Offsets() (cos, sin mgl32.Vec3) { return b.cosOffset, b.sinOffset }
func (b *SatelliteBehavior) PreviousPosition() mgl32.Vec3   { return b.previousPosition }

// BehaviorPools holds one free list per behavior variant.
type BehaviorPools struct {
	movement    *pool.Pool[MovementBehavior]
	rotation    *pool.Pool[RotationBehavior]
	oscillation *pool.Pool[OscillationBehavior]
	growing     *pool.Pool[GrowingBehavior]
	dying       *pool.Pool[DyingBehavior]
	lifecycle   *pool.Pool[LifecycleBehavior]
	satellite   *pool.Pool[SatelliteBehavior]
}

func NewBehaviorPools() *BehaviorPools {
	return &BehaviorPools{
		movement:    pool.New[MovementBehavior](),
		rotation:    pool.New[RotationBehavior](),
		oscillation: pool.New[OscillationBehavior](),
		growing:     pool.New[GrowingBehavior](),
		dying:       pool.New[DyingBehavior](),
		lifecycle:   pool.New[LifecycleBehavior](),
		satellite:   pool.New[SatelliteBehavior](),
	}
}

// get returns an uninitialized behavior of the given kind.
func (p *BehaviorPools) get(kind BehaviorKind) (Behavior, bool) {
	switch kind {
	case KindMovement:
		return p.movement.Get(), true
	case KindRotation:
		return p.rotation.Get(), true
	case KindOscillation:
		return p.oscillation.Get(), true
	case KindGrowing:
		return p.growing.Get(), true
	case KindDying:
		return p.dying.Get(), true
	case KindLifecycle:
		return p.lifecycle.Get(), true
	case KindSatellite:
		return p.satellite.Get(), true
	}
	return nil, false
}

func (p *BehaviorPools) reclaim(b Behavior) {
	switch b := b.(type) {
	case *MovementBehavior:
		p.movement.Reclaim(b)
	case *RotationBehavior:
		p.rotation.Reclaim(b)
	case *OscillationBehavior:
		p.oscillation.Reclaim(b)
	case *GrowingBehavior:
		p.growing.Reclaim(b)
	case *DyingBehavior:
		p.dying.Reclaim(b)
	case *LifecycleBehavior:
		p.lifecycle.Reclaim(b)
	case *SatelliteBehavior:
		b.focal = ShapeRef{}
		p.satellite.Reclaim(b)
	}
}

// Free returns how many recycled behaviors of kind wait for reuse.
func (p *BehaviorPools) Free(kind BehaviorKind) int {
	switch kind {
	case KindMovement:
		return p.movement.Free()
	case KindRotation:
		return p.rotation.Free()
	case KindOscillation:
		return p.oscillation.Free()
	case KindGrowing:
		return p.growing.Free()
	case KindDying:
		return p.dying.Free()
	case KindLifecycle:
		return p.lifecycle.Free()
	case KindSatellite:
		return p.satellite.Free()
	}
	return 0
}

// AddMovement attaches a Movement behavior.
func (sh *Shape) AddMovement(velocity mgl32.Vec3) *MovementBehavior {
	b := sh.mustStore().pools.movement.Get()
	b.Velocity = velocity
	sh.attach(b)
	return b
}

// AddRotation attaches a Rotation behavior.
func (sh *Shape) AddRotation(angularVelocity mgl32.Vec3) *RotationBehavior {
	b := sh.mustStore().pools.rotation.Get()
	b.AngularVelocity = angularVelocity
	sh.attach(b)
	return b
}

// AddOscillation attaches an Oscillation behavior.
func (sh *Shape) AddOscillation(offset mgl32.Vec3, frequency float32) *OscillationBehavior {
	b := sh.mustStore().pools.oscillation.Get()
	b.Offset = offset
	b.Frequency = frequency
	b.previous = 0
	sh.attach(b)
	return b
}

// AddGrowing attaches a Growing behavior. The current scale becomes the
// target and the shape starts at zero scale.
func (sh *Shape) AddGrowing(duration float32) *GrowingBehavior {
	b := sh.mustStore().pools.growing.Get()
	b.originalScale = sh.Scale
	b.duration = duration
	sh.Scale = mgl32.Vec3{}
	sh.attach(b)
	return b
}

// AddDying attaches a Dying behavior and marks the shape as dying.
func (sh *Shape) AddDying(duration float32) *DyingBehavior {
	b := sh.mustStore().pools.dying.Get()
	b.originalScale = sh.Scale
	b.duration = duration
	b.dyingAge = sh.Age
	sh.attach(b)
	sh.MarkAsDying()
	return b
}

// AddLifecycle attaches a Lifecycle behavior, plus a Growing behavior when
// growingDuration is positive.
func (sh *Shape) AddLifecycle(growingDuration, adultDuration, dyingDuration float32) *LifecycleBehavior {
	b := sh.mustStore().pools.lifecycle.Get()
	b.adultDuration = adultDuration
	b.dyingDuration = dyingDuration
	b.dyingAge = growingDuration + adultDuration
	sh.attach(b)
	if growingDuration > 0 {
		sh.AddGrowing(growingDuration)
	}
	return b
}

// AddSatellite makes the shape orbit focal at radius with the given
// frequency. The orbit plane is random; a Rotation behavior keeps the
// satellite facing its orbit axis.
func (sh *Shape) AddSatellite(focal *Shape, radius, frequency float32, rng *rand.Rand) *SatelliteBehavior {
	b := sh.mustStore().pools.satellite.Get()
	sh.attach(b)
	b.focal = RefTo(focal)
	b.frequency = frequency

	axis := RandomOnUnitSphere(rng)
	for {
		c := axis.Cross(RandomOnUnitSphere(rng))
		if c.Len() > 0.3 {
			b.cosOffset = c.Normalize()
			break
		}
	}
	b.sinOffset = b.cosOffset.Cross(axis)
	b.cosOffset = b.cosOffset.Mul(radius)
	b.sinOffset = b.sinOffset.Mul(radius)

	sh.AddRotation(sh.Rotation.Inverse().Rotate(axis).Mul(-360 * frequency))
	if focal != nil {
		b.orbit(sh, focal)
	}
	b.previousPosition = sh.Position
	return b
}

func (b *SatelliteBehavior) orbit(sh, focal *Shape) {
	t := 2 * math.Pi * float64(b.frequency) * float64(sh.Age)
	sh.Position = focal.Position.
		Add(b.cosOffset.Mul(float32(math.Cos(t)))).
		Add(b.sinOffset.Mul(float32(math.Sin(t))))
}

// updateBehavior dispatches one behavior update.
func updateBehavior(b Behavior, sh *Shape, dt float32) Outcome {
	switch b := b.(type) {
	case *MovementBehavior:
		sh.Position = sh.Position.Add(b.Velocity.Mul(dt))
		return Continue

	case *RotationBehavior:
		sh.Rotation = sh.Rotation.Mul(EulerQuat(b.AngularVelocity.Mul(dt))).Normalize()
		return Continue

	case *OscillationBehavior:
		osc := float32(math.Sin(2 * math.Pi * float64(b.Frequency) * float64(sh.Age)))
		sh.Position = sh.Position.Add(b.Offset.Mul(osc - b.previous))
		b.previous = osc
		return Continue

	case *GrowingBehavior:
		if sh.Age < b.duration {
			sh.Scale = b.originalScale.Mul(smoothstep(sh.Age / b.duration))
			return Continue
		}
		sh.Scale = b.originalScale
		return FinishedDetach

	case *DyingBehavior:
		elapsed := sh.Age - b.dyingAge
		if elapsed < b.duration {
			sh.Scale = b.originalScale.Mul(smoothstep(1 - elapsed/b.duration))
			return Continue
		}
		sh.Die()
		return FinishedNoop

	case *LifecycleBehavior:
		if sh.Age < b.dyingAge {
			return Continue
		}
		if b.dyingDuration <= 0 {
			sh.Die()
			return FinishedNoop
		}
		if !sh.hasDying() {
			sh.AddDying(b.dyingDuration + b.dyingAge - sh.Age)
		}
		return FinishedDetach

	case *SatelliteBehavior:
		if focal := b.focal.Shape(); focal != nil {
			b.previousPosition = sh.Position
			b.orbit(sh, focal)
			return Continue
		}
		var v mgl32.Vec3
		if dt > 0 {
			v = sh.Position.Sub(b.previousPosition).Mul(1 / dt)
		}
		sh.AddMovement(v)
		return FinishedDetach
	}
	panic(fmt.Sprintf("world: unknown behavior %T", b))
}
