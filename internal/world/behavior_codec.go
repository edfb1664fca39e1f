package world

import (
	"errors"
	"fmt"

	"github.com/shapelab/engine/internal/codec"
)

// ErrUnknownBehavior is returned when a record carries an unknown behavior tag.
var ErrUnknownBehavior = errors.New("unknown behavior kind")

// maxBehaviors bounds the behavior count read from a record.
const maxBehaviors = 1024

// SaveBehaviors writes the behavior count followed by one (kind, payload)
// entry per behavior in dispatch order.
func (sh *Shape) SaveBehaviors(w *codec.Writer) {
	w.WriteInt32(int32(len(sh.behaviors)))
	for _, b := range sh.behaviors {
		w.WriteInt32(int32(b.Kind()))
		saveBehavior(w, b)
	}
}

func saveBehavior(w *codec.Writer, b Behavior) {
	switch b := b.(type) {
	case *MovementBehavior:
		w.WriteVec3(b.Velocity)
	case *RotationBehavior:
		w.WriteVec3(b.AngularVelocity)
	case *OscillationBehavior:
		w.WriteVec3(b.Offset)
		w.WriteFloat32(b.Frequency)
		w.WriteFloat32(b.previous)
	case *GrowingBehavior:
		w.WriteVec3(b.originalScale)
		w.WriteFloat32(b.duration)
	case *DyingBehavior:
		w.WriteVec3(b.originalScale)
		w.WriteFloat32(b.duration)
		w.WriteFloat32(b.dyingAge)
	case *LifecycleBehavior:
		w.WriteFloat32(b.adultDuration)
		w.WriteFloat32(b.dyingDuration)
		w.WriteFloat32(b.dyingAge)
	case *SatelliteBehavior:
		w.WriteInt32(b.focal.SaveIndex())
		w.WriteFloat32(b.frequency)
		w.WriteVec3(b.cosOffset)
		w.WriteVec3(b.sinOffset)
		w.WriteVec3(b.previousPosition)
	}
}

// LoadBehaviors appends the behaviors stored in r. References to other
// shapes stay pending until Store.ResolveReferences runs, and shapes with a
// Dying behavior stay outside the dying partition until
// Store.RestoreDyingPartition runs, so store indices keep matching the
// record order during the load.
func (sh *Shape) LoadBehaviors(r *codec.Reader) error {
	pools := sh.mustStore().pools
	n := r.ReadInt32()
	if err := r.Err(); err != nil {
		return err
	}
	if n < 0 || n > maxBehaviors {
		return fmt.Errorf("behavior count %d out of range", n)
	}
	for i := int32(0); i < n; i++ {
		kind := BehaviorKind(r.ReadInt32())
		if err := r.Err(); err != nil {
			return err
		}
		b, ok := pools.get(kind)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownBehavior, int32(kind))
		}
		loadBehavior(r, b)
		sh.attach(b)
	}
	return r.Err()
}

func loadBehavior(r *codec.Reader, b Behavior) {
	switch b := b.(type) {
	case *MovementBehavior:
		b.Velocity = r.ReadVec3()
	case *RotationBehavior:
		b.AngularVelocity = r.ReadVec3()
	case *OscillationBehavior:
		b.Offset = r.ReadVec3()
		b.Frequency = r.ReadFloat32()
		b.previous = r.ReadFloat32()
	case *GrowingBehavior:
		b.originalScale = r.ReadVec3()
		b.duration = r.ReadFloat32()
	case *DyingBehavior:
		b.originalScale = r.ReadVec3()
		b.duration = r.ReadFloat32()
		b.dyingAge = r.ReadFloat32()
	case *LifecycleBehavior:
		b.adultDuration = r.ReadFloat32()
		b.dyingDuration = r.ReadFloat32()
		b.dyingAge = r.ReadFloat32()
	case *SatelliteBehavior:
		b.focal = PendingRef(r.ReadInt32())
		b.frequency = r.ReadFloat32()
		b.cosOffset = r.ReadVec3()
		b.sinOffset = r.ReadVec3()
		b.previousPosition = r.ReadVec3()
	}
}
