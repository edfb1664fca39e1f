package world

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// smoothstep returns 3t²−2t³.
func smoothstep(t float32) float32 {
	return (3 - 2*t) * t * t
}

// EulerQuat converts euler angles in degrees to a rotation that applies
// z, then x, then y.
func EulerQuat(deg mgl32.Vec3) mgl32.Quat {
	return mgl32.AnglesToQuat(
		mgl32.DegToRad(deg[1]),
		mgl32.DegToRad(deg[0]),
		mgl32.DegToRad(deg[2]),
		mgl32.YXZ,
	)
}

// RandomOnUnitSphere returns a uniformly distributed unit vector.
func RandomOnUnitSphere(rng *rand.Rand) mgl32.Vec3 {
	z := 2*rng.Float64() - 1
	a := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(1 - z*z)
	return mgl32.Vec3{float32(r * math.Cos(a)), float32(r * math.Sin(a)), float32(z)}
}

// RandomInsideUnitSphere returns a point uniformly distributed in the unit ball.
func RandomInsideUnitSphere(rng *rand.Rand) mgl32.Vec3 {
	return RandomOnUnitSphere(rng).Mul(float32(math.Cbrt(rng.Float64())))
}

// RandomRotation returns a uniformly distributed rotation.
func RandomRotation(rng *rand.Rand) mgl32.Quat {
	u1, u2, u3 := rng.Float64(), rng.Float64(), rng.Float64()
	a, b := math.Sqrt(1-u1), math.Sqrt(u1)
	return mgl32.Quat{
		W: float32(b * math.Cos(2*math.Pi*u3)),
		V: mgl32.Vec3{
			float32(a * math.Sin(2*math.Pi*u2)),
			float32(a * math.Cos(2*math.Pi*u2)),
			float32(b * math.Sin(2*math.Pi*u3)),
		},
	}
}
