package persist

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/shapelab/engine/internal/codec"
	"github.com/shapelab/engine/internal/world"
)

// maxColors bounds the colour count read from a record.
const maxColors = 1024

func writeShape(w *codec.Writer, sh *world.Shape) {
	w.WriteVec3(sh.Position)
	w.WriteQuat(sh.Rotation)
	w.WriteVec3(sh.Scale)

	colors := sh.Colors()
	w.WriteInt32(int32(len(colors)))
	for _, c := range colors {
		w.WriteColor(c)
	}

	w.WriteVec3(sh.AngularVelocity())
	w.WriteVec3(sh.Velocity())
	w.WriteFloat32(sh.Age)
	sh.SaveBehaviors(w)
}

func readShape(r *codec.Reader, sh *world.Shape, l layout) error {
	sh.Position = r.ReadVec3()
	sh.Rotation = r.ReadQuat()
	sh.Scale = r.ReadVec3()

	switch {
	case l.colorList:
		if err := readColors(r, sh); err != nil {
			return err
		}
	case l.singleColor:
		sh.SetColor(r.ReadColor())
	default:
		sh.SetColor(world.White)
	}

	var angular, linear mgl32.Vec3
	if l.velocities {
		angular = r.ReadVec3()
		linear = r.ReadVec3()
	}
	if l.age {
		sh.Age = r.ReadFloat32()
	}
	if err := r.Err(); err != nil {
		return err
	}

	if l.behaviorList {
		// Velocities are derived from the behaviors themselves.
		if err := sh.LoadBehaviors(r); err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptRecord, err)
		}
		return nil
	}
	if angular != (mgl32.Vec3{}) {
		sh.AddRotation(angular)
	}
	if linear != (mgl32.Vec3{}) {
		sh.AddMovement(linear)
	}
	return nil
}

// readColors applies a count-prefixed colour list. Extra colours are
// skipped and parts without a stored colour become white.
func readColors(r *codec.Reader, sh *world.Shape) error {
	n := r.ReadInt32()
	if err := r.Err(); err != nil {
		return err
	}
	if n < 0 || n > maxColors {
		return fmt.Errorf("%w: colour count %d", ErrCorruptRecord, n)
	}
	parts := len(sh.Colors())
	for i := 0; i < int(n); i++ {
		c := r.ReadColor()
		if i < parts {
			sh.SetColorAt(i, c)
		}
	}
	for i := int(n); i < parts; i++ {
		sh.SetColorAt(i, world.White)
	}
	return r.Err()
}
