package replication

import (
	"time"

	"github.com/chronosync/chronosync-go/internal/wire"
)

// Pose is a full spatial snapshot of an entity.
type Pose struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

// PoseIdentity is the rest pose: origin, no rotation, unit scale.
var PoseIdentity = Pose{Rotation: QuatIdentity, Scale: Vec3{1, 1, 1}}

// TransformParams tune sampling and smoothing for one synced transform.
type TransformParams struct {
	// SendHz caps outbound sample rate. Values below 1 are treated as 1.
	SendHz float64
	// Thresholds a pose change must clear before a sample goes out.
	MinPosDelta   float64 // meters
	MinRotDelta   float64 // degrees
	MinScaleDelta float64
	// Decay rates for approaching remote targets. Zero snaps instantly.
	PositionLerp float64
	RotationLerp float64
	ScaleLerp    float64
}

// DefaultTransformParams matches the tuning the protocol shipped with.
func DefaultTransformParams() TransformParams {
	return TransformParams{
		SendHz:        15,
		MinPosDelta:   0.005,
		MinRotDelta:   0.5,
		MinScaleDelta: 0.005,
		PositionLerp:  12,
		RotationLerp:  12,
		ScaleLerp:     12,
	}
}

// TransformSync replicates one entity's pose. In authority mode the app
// writes the local pose and MaybeSample decides when a state block goes
// out. In follower mode ApplyRemote records targets and Advance eases the
// visible pose toward them.
type TransformSync struct {
	params TransformParams

	local    Pose
	lastSent Pose
	nextSend time.Time

	visible   Pose
	target    Pose
	velocity  Vec3
	hasRemote bool
}

func NewTransformSync(params TransformParams) *TransformSync {
	if params.SendHz < 1 {
		params.SendHz = 1
	}
	return &TransformSync{
		params:   params,
		local:    PoseIdentity,
		lastSent: PoseIdentity,
		visible:  PoseIdentity,
		target:   PoseIdentity,
	}
}

// SetLocal records the authoritative local pose for the next sample.
func (t *TransformSync) SetLocal(p Pose) { t.local = p }

// Local returns the last pose written by the owner.
func (t *TransformSync) Local() Pose { return t.local }

// Visible returns the smoothed pose a renderer should draw.
func (t *TransformSync) Visible() Pose { return t.visible }

// Velocity returns the last velocity received from the remote side.
func (t *TransformSync) Velocity() Vec3 { return t.velocity }

// HasRemote reports whether any remote sample has arrived yet.
func (t *TransformSync) HasRemote() bool { return t.hasRemote }

// MaybeSample returns an encoded state block when the local pose has
// moved past a threshold and the send interval has elapsed. A nil return
// means nothing needs to go out this tick.
func (t *TransformSync) MaybeSample(now time.Time) *wire.Object {
	if now.Before(t.nextSend) {
		return nil
	}
	interval := time.Duration(float64(time.Second) / t.params.SendHz)

	pos, rot, scl := t.local.Position, t.local.Rotation, t.local.Scale
	changed := pos.Distance(t.lastSent.Position) >= t.params.MinPosDelta ||
		rot.AngleTo(t.lastSent.Rotation) >= t.params.MinRotDelta ||
		scl.Distance(t.lastSent.Scale) >= t.params.MinScaleDelta
	if !changed {
		return nil
	}

	// Finite-difference velocity over the nominal send interval.
	vel := pos.Sub(t.lastSent.Position).Scale(t.params.SendHz)

	t.lastSent = t.local
	t.nextSend = now.Add(interval)
	return stateBlock(pos, rot, scl, vel)
}

func stateBlock(pos Vec3, rot Quat, scl, vel Vec3) *wire.Object {
	return wire.NewObject().
		Set("position", wire.From(vecObject(pos))).
		Set("rotation", wire.From(wire.NewObject().
			Set("x", wire.Number(rot.X)).
			Set("y", wire.Number(rot.Y)).
			Set("z", wire.Number(rot.Z)).
			Set("w", wire.Number(rot.W)))).
		Set("scale", wire.From(vecObject(scl))).
		Set("velocity", wire.From(vecObject(vel))).
		Set("grounded", wire.Boolean(true))
}

func vecObject(v Vec3) *wire.Object {
	return wire.NewObject().
		Set("x", wire.Number(v.X)).
		Set("y", wire.Number(v.Y)).
		Set("z", wire.Number(v.Z))
}

// ApplyRemote ingests a decoded state block. Missing components leave the
// current target untouched, so partial updates are safe.
func (t *TransformSync) ApplyRemote(state *wire.Object) {
	if state == nil {
		return
	}
	if p, ok := vecFrom(state, "position"); ok {
		t.target.Position = p
	}
	if r, ok := state.ObjectAt("rotation"); ok {
		q := Quat{}
		q.X, _ = r.Float64At("x")
		q.Y, _ = r.Float64At("y")
		q.Z, _ = r.Float64At("z")
		q.W, _ = r.Float64At("w")
		t.target.Rotation = q
	}
	if s, ok := vecFrom(state, "scale"); ok {
		t.target.Scale = s
	}
	if v, ok := vecFrom(state, "velocity"); ok {
		t.velocity = v
	}
	if !t.hasRemote {
		// First sample snaps so the entity does not glide in from origin.
		t.visible = t.target
	}
	t.hasRemote = true
}

func vecFrom(o *wire.Object, key string) (Vec3, bool) {
	sub, ok := o.ObjectAt(key)
	if !ok {
		return Vec3{}, false
	}
	var v Vec3
	v.X, _ = sub.Float64At("x")
	v.Y, _ = sub.Float64At("y")
	v.Z, _ = sub.Float64At("z")
	return v, true
}

// Advance moves the visible pose toward the remote target over dt.
// A zero decay rate snaps that channel immediately.
func (t *TransformSync) Advance(dt time.Duration) {
	if !t.hasRemote {
		return
	}
	sec := dt.Seconds()
	if t.params.PositionLerp > 0 {
		t.visible.Position = t.visible.Position.Lerp(t.target.Position, smoothingStep(t.params.PositionLerp, sec))
	} else {
		t.visible.Position = t.target.Position
	}
	if t.params.RotationLerp > 0 {
		t.visible.Rotation = t.visible.Rotation.Slerp(t.target.Rotation, smoothingStep(t.params.RotationLerp, sec))
	} else {
		t.visible.Rotation = t.target.Rotation
	}
	if t.params.ScaleLerp > 0 {
		t.visible.Scale = t.visible.Scale.Lerp(t.target.Scale, smoothingStep(t.params.ScaleLerp, sec))
	} else {
		t.visible.Scale = t.target.Scale
	}
}
