package replication

import (
	"time"

	"github.com/chronosync/chronosync-go/internal/wire"
)

// AnimatorState is the locomotion blend state mirrored across the wire.
type AnimatorState struct {
	Speed    float64
	Forward  float64
	OnGround bool
}

// AnimatorView replicates animator parameters as code-1001 custom events
// at a fixed cadence.
type AnimatorView struct {
	sendHz   float64
	nextSend time.Time
	state    AnimatorState
}

func NewAnimatorView(sendHz float64) *AnimatorView {
	if sendHz < 1 {
		sendHz = 1
	}
	return &AnimatorView{sendHz: sendHz}
}

func (a *AnimatorView) Set(s AnimatorState)  { a.state = s }
func (a *AnimatorView) State() AnimatorState { return a.state }

// MaybeSample returns the content payload when the send interval has
// elapsed, nil otherwise.
func (a *AnimatorView) MaybeSample(now time.Time) *wire.Object {
	if now.Before(a.nextSend) {
		return nil
	}
	a.nextSend = now.Add(time.Duration(float64(time.Second) / a.sendHz))
	return wire.NewObject().
		Set("speed", wire.Number(a.state.Speed)).
		Set("forward", wire.Number(a.state.Forward)).
		Set("onGround", wire.Boolean(a.state.OnGround))
}

// Apply ingests a remote content payload. Absent fields keep their
// current value.
func (a *AnimatorView) Apply(content *wire.Object) {
	if content == nil {
		return
	}
	if v, ok := content.Float64At("speed"); ok {
		a.state.Speed = v
	}
	if v, ok := content.Float64At("forward"); ok {
		a.state.Forward = v
	}
	if v, ok := content.BoolAt("onGround"); ok {
		a.state.OnGround = v
	}
}

// RigidbodyState mirrors a physics body's motion across the wire.
type RigidbodyState struct {
	Velocity        Vec3
	AngularVelocity Vec3
	Kinematic       bool
}

// RigidbodyView replicates physics state as code-1002 custom events.
// Velocities travel as three-element arrays to keep the payload short.
type RigidbodyView struct {
	sendHz   float64
	nextSend time.Time
	state    RigidbodyState
}

func NewRigidbodyView(sendHz float64) *RigidbodyView {
	if sendHz < 1 {
		sendHz = 1
	}
	return &RigidbodyView{sendHz: sendHz}
}

func (r *RigidbodyView) Set(s RigidbodyState)  { r.state = s }
func (r *RigidbodyView) State() RigidbodyState { return r.state }

func (r *RigidbodyView) MaybeSample(now time.Time) *wire.Object {
	if now.Before(r.nextSend) {
		return nil
	}
	r.nextSend = now.Add(time.Duration(float64(time.Second) / r.sendHz))
	return wire.NewObject().
		Set("vel", vecArray(r.state.Velocity)).
		Set("ang", vecArray(r.state.AngularVelocity)).
		Set("kin", wire.Boolean(r.state.Kinematic))
}

func (r *RigidbodyView) Apply(content *wire.Object) {
	if content == nil {
		return
	}
	if v, ok := vecFromArray(content, "vel"); ok {
		r.state.Velocity = v
	}
	if v, ok := vecFromArray(content, "ang"); ok {
		r.state.AngularVelocity = v
	}
	if v, ok := content.BoolAt("kin"); ok {
		r.state.Kinematic = v
	}
}

func vecArray(v Vec3) wire.Value {
	return wire.Array(wire.Number(v.X), wire.Number(v.Y), wire.Number(v.Z))
}

func vecFromArray(o *wire.Object, key string) (Vec3, bool) {
	arr, ok := o.ArrayAt(key)
	if !ok || len(arr) != 3 {
		return Vec3{}, false
	}
	var out [3]float64
	for i, v := range arr {
		f, ok := v.Float64()
		if !ok {
			return Vec3{}, false
		}
		out[i] = f
	}
	return Vec3{out[0], out[1], out[2]}, true
}
