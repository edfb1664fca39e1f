package level

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/shapelab/engine/internal/codec"
	"github.com/shapelab/engine/internal/world"
)

var (
	ErrUnknownLevel    = errors.New("unknown level")
	ErrPayloadMismatch = errors.New("scene payload does not match level")
)

// Object is a persistent level object spinning at a fixed rate. Its
// rotation is part of the scene payload.
type Object struct {
	Name            string
	Rotation        mgl32.Quat
	AngularVelocity mgl32.Vec3 // degrees per second
}

func (o *Object) Update(dt float32) {
	if o.AngularVelocity == (mgl32.Vec3{}) {
		return
	}
	o.Rotation = o.Rotation.Mul(world.EulerQuat(o.AngularVelocity.Mul(dt))).Normalize()
}

// Level is the active scene: where shapes spawn, how they are configured
// and how many may be alive at once.
type Level struct {
	ID              int32
	Name            string
	PopulationLimit int // 0 = unlimited
	Zone            Zone
	Spawn           SpawnConfig
	Objects         []*Object
}

// Update advances the level objects.
func (l *Level) Update(dt float32) {
	for _, o := range l.Objects {
		o.Update(dt)
	}
}

// Save writes the scene payload: zone state, then object rotations.
func (l *Level) Save(w *codec.Writer) {
	l.Zone.Save(w)
	w.WriteInt32(int32(len(l.Objects)))
	for _, o := range l.Objects {
		w.WriteQuat(o.Rotation)
	}
}

// Load restores a payload written by Save for the same level definition.
// A payload with fewer objects leaves the remaining ones untouched.
func (l *Level) Load(r *codec.Reader) error {
	if err := l.Zone.Load(r); err != nil {
		return fmt.Errorf("zone: %w", err)
	}
	n := r.ReadInt32()
	if err := r.Err(); err != nil {
		return err
	}
	if n < 0 || int(n) > len(l.Objects) {
		return fmt.Errorf("%w: %d saved objects, level %d has %d", ErrPayloadMismatch, n, l.ID, len(l.Objects))
	}
	for i := 0; i < int(n); i++ {
		l.Objects[i].Rotation = r.ReadQuat()
	}
	return r.Err()
}
