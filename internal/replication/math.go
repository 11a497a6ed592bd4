// Package replication keeps networked entities in step: thresholded
// transform sampling on the sending side, exponential smoothing on the
// receiving side, and a registry that routes per-entity traffic.
package replication

import "math"

// Vec3 is a three-component vector in meters (or per-second for
// velocities).
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Distance(o Vec3) float64 {
	d := v.Sub(o)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// Lerp interpolates toward o by t, clamped to [0,1].
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	t = clamp01(t)
	return Vec3{
		v.X + (o.X-v.X)*t,
		v.Y + (o.Y-v.Y)*t,
		v.Z + (o.Z-v.Z)*t,
	}
}

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity is the no-rotation quaternion.
var QuatIdentity = Quat{W: 1}

func (q Quat) dot(o Quat) float64 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

func (q Quat) norm() Quat {
	n := math.Sqrt(q.dot(q))
	if n == 0 {
		return QuatIdentity
	}
	return Quat{q.X / n, q.Y / n, q.Z / n, q.W / n}
}

// AngleTo returns the angular difference to o in degrees.
func (q Quat) AngleTo(o Quat) float64 {
	d := math.Abs(q.norm().dot(o.norm()))
	if d > 1 {
		d = 1
	}
	return 2 * math.Acos(d) * 180 / math.Pi
}

// Slerp spherically interpolates toward o by t, clamped to [0,1], taking
// the shorter arc.
func (q Quat) Slerp(o Quat, t float64) Quat {
	t = clamp01(t)
	a, b := q.norm(), o.norm()
	d := a.dot(b)
	if d < 0 {
		b = Quat{-b.X, -b.Y, -b.Z, -b.W}
		d = -d
	}
	if d > 0.9995 {
		// Nearly parallel; linear blend avoids the degenerate sin.
		return Quat{
			a.X + (b.X-a.X)*t,
			a.Y + (b.Y-a.Y)*t,
			a.Z + (b.Z-a.Z)*t,
			a.W + (b.W-a.W)*t,
		}.norm()
	}
	theta := math.Acos(d)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return Quat{
		a.X*wa + b.X*wb,
		a.Y*wa + b.Y*wb,
		a.Z*wa + b.Z*wb,
		a.W*wa + b.W*wb,
	}
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// smoothingStep converts a decay rate and a frame delta into a blend
// factor. Frame-rate independent: chaining two half-steps lands where one
// full step would.
func smoothingStep(rate, dt float64) float64 {
	return 1 - math.Exp(-rate*dt)
}
