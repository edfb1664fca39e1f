package level

import (
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/shapelab/engine/internal/codec"
	"github.com/shapelab/engine/internal/world"
)

// Frame places a zone in the scene.
type Frame struct {
	Center   mgl32.Vec3
	Rotation mgl32.Quat
}

// Forward is the frame's local +z axis.
func (f Frame) Forward() mgl32.Vec3 { return f.Rotation.Rotate(mgl32.Vec3{0, 0, 1}) }

// Up is the frame's local +y axis.
func (f Frame) Up() mgl32.Vec3 { return f.Rotation.Rotate(mgl32.Vec3{0, 1, 0}) }

// Zone picks spawn points. Zones with state write it into the level's
// scene payload through Save and Load.
type Zone interface {
	SpawnPoint(rng *rand.Rand) mgl32.Vec3
	Frame() Frame
	Save(w *codec.Writer)
	Load(r *codec.Reader) error
}

// SphereZone spawns inside a ball, or on its surface.
type SphereZone struct {
	frame       Frame
	Radius      float32
	SurfaceOnly bool
}

func NewSphereZone(frame Frame, radius float32, surfaceOnly bool) *SphereZone {
	return &SphereZone{frame: frame, Radius: radius, SurfaceOnly: surfaceOnly}
}

func (z *SphereZone) Frame() Frame { return z.frame }

func (z *SphereZone) SpawnPoint(rng *rand.Rand) mgl32.Vec3 {
	var p mgl32.Vec3
	if z.SurfaceOnly {
		p = world.RandomOnUnitSphere(rng)
	} else {
		p = world.RandomInsideUnitSphere(rng)
	}
	return z.frame.Center.Add(z.frame.Rotation.Rotate(p.Mul(z.Radius)))
}

func (z *SphereZone) Save(*codec.Writer)       {}
func (z *SphereZone) Load(*codec.Reader) error { return nil }

// CubeZone spawns inside a box of the given size, or on one of its faces.
type CubeZone struct {
	frame       Frame
	Size        mgl32.Vec3
	SurfaceOnly bool
}

func NewCubeZone(frame Frame, size mgl32.Vec3, surfaceOnly bool) *CubeZone {
	return &CubeZone{frame: frame, Size: size, SurfaceOnly: surfaceOnly}
}

func (z *CubeZone) Frame() Frame { return z.frame }

func (z *CubeZone) SpawnPoint(rng *rand.Rand) mgl32.Vec3 {
	p := mgl32.Vec3{rng.Float32() - 0.5, rng.Float32() - 0.5, rng.Float32() - 0.5}
	if z.SurfaceOnly {
		axis := rng.IntN(3)
		if rng.IntN(2) == 0 {
			p[axis] = -0.5
		} else {
			p[axis] = 0.5
		}
	}
	return z.frame.Center.Add(z.frame.Rotation.Rotate(mgl32.Vec3{
		p[0] * z.Size[0],
		p[1] * z.Size[1],
		p[2] * z.Size[2],
	}))
}

func (z *CubeZone) Save(*codec.Writer)       {}
func (z *CubeZone) Load(*codec.Reader) error { return nil }

// CompositeZone delegates to one of its child zones, either in round-robin
// order or at random. The round-robin cursor is saved with the level.
type CompositeZone struct {
	frame      Frame
	zones      []Zone
	sequential bool
	next       int
}

func NewCompositeZone(frame Frame, zones []Zone, sequential bool) *CompositeZone {
	if len(zones) == 0 {
		panic("level: composite zone needs at least one child")
	}
	return &CompositeZone{frame: frame, zones: zones, sequential: sequential}
}

func (z *CompositeZone) Frame() Frame { return z.frame }

// Next returns the index of the child used by the next sequential spawn.
func (z *CompositeZone) Next() int { return z.next }

func (z *CompositeZone) SpawnPoint(rng *rand.Rand) mgl32.Vec3 {
	var i int
	if z.sequential {
		i = z.next
		z.next = (z.next + 1) % len(z.zones)
	} else {
		i = rng.IntN(len(z.zones))
	}
	return z.zones[i].SpawnPoint(rng)
}

func (z *CompositeZone) Save(w *codec.Writer) {
	w.WriteInt32(int32(z.next))
	for _, c := range z.zones {
		c.Save(w)
	}
}

func (z *CompositeZone) Load(r *codec.Reader) error {
	next := r.ReadInt32()
	if err := r.Err(); err != nil {
		return err
	}
	if next < 0 || int(next) >= len(z.zones) {
		return fmt.Errorf("%w: zone cursor %d with %d zones", ErrPayloadMismatch, next, len(z.zones))
	}
	z.next = int(next)
	for i, c := range z.zones {
		if err := c.Load(r); err != nil {
			return fmt.Errorf("zone %d: %w", i, err)
		}
	}
	return r.Err()
}
