package mesh

import (
	"slices"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

// Key is one keyframe of a track.
type Key[T any] struct {
	Time  float32
	Value T
}

// Transform holds the keyframe tracks of one node. Keys of every track are
// strictly increasing in time.
type Transform struct {
	translate []Key[math.Vec3]
	rotate    []Key[math.Quat]
	scale     []Key[math.Vec3]
	morph     []Key[math.Vec4]
}

// Translate returns the translation keys.
func (t *Transform) Translate() []Key[math.Vec3] { return t.translate }

// Rotate returns the rotation keys.
func (t *Transform) Rotate() []Key[math.Quat] { return t.rotate }

// Scale returns the scale keys.
func (t *Transform) Scale() []Key[math.Vec3] { return t.scale }

// Morph returns the morph weight keys.
func (t *Transform) Morph() []Key[math.Vec4] { return t.morph }

// SetTranslate inserts or replaces the translation key at time.
func (t *Transform) SetTranslate(time float32, v math.Vec3) {
	t.translate = insertKey(t.translate, time, v)
}

// SetRotate inserts or replaces the rotation key at time.
func (t *Transform) SetRotate(time float32, q math.Quat) {
	t.rotate = insertKey(t.rotate, time, q.Normalize())
}

// SetScale inserts or replaces the scale key at time.
func (t *Transform) SetScale(time float32, v math.Vec3) {
	t.scale = insertKey(t.scale, time, v)
}

// SetMorph inserts or replaces the morph weight key at time.
func (t *Transform) SetMorph(time float32, w math.Vec4) {
	t.morph = insertKey(t.morph, time, w)
}

// IsEmpty reports whether no track holds keys.
func (t *Transform) IsEmpty() bool {
	return len(t.translate)+len(t.rotate)+len(t.scale)+len(t.morph) == 0
}

// TimeRange returns the first and last key time over every track.
func (t *Transform) TimeRange() (minTime, maxTime float32, ok bool) {
	extend := func(first, last float32) {
		if !ok {
			minTime, maxTime, ok = first, last, true
			return
		}
		minTime = min(minTime, first)
		maxTime = max(maxTime, last)
	}
	if n := len(t.translate); n > 0 {
		extend(t.translate[0].Time, t.translate[n-1].Time)
	}
	if n := len(t.rotate); n > 0 {
		extend(t.rotate[0].Time, t.rotate[n-1].Time)
	}
	if n := len(t.scale); n > 0 {
		extend(t.scale[0].Time, t.scale[n-1].Time)
	}
	if n := len(t.morph); n > 0 {
		extend(t.morph[0].Time, t.morph[n-1].Time)
	}
	return minTime, maxTime, ok
}

// TranslateAt samples the translation, zero when the track is empty.
func (t *Transform) TranslateAt(time float32) math.Vec3 {
	return sampleKeys(t.translate, time, math.Vec3{}, math.Vec3.Lerp)
}

// RotateAt samples the rotation with slerp, identity when empty.
func (t *Transform) RotateAt(time float32) math.Quat {
	return sampleKeys(t.rotate, time, math.QuatIdentity(), math.Quat.Slerp)
}

// ScaleAt samples the scale, one when the track is empty.
func (t *Transform) ScaleAt(time float32) math.Vec3 {
	return sampleKeys(t.scale, time, math.Vec3{X: 1, Y: 1, Z: 1}, math.Vec3.Lerp)
}

// MorphAt samples the morph weights, zero when the track is empty.
func (t *Transform) MorphAt(time float32) math.Vec4 {
	return sampleKeys(t.morph, time, math.Vec4{}, math.Vec4.Lerp)
}

// Matrix returns translate * rotate * scale sampled at time.
func (t *Transform) Matrix(time float32) math.Mat4 {
	return math.Compose(t.TranslateAt(time), t.RotateAt(time), t.ScaleAt(time))
}

// Compress drops keys whose value lies within threshold of the
// interpolation of their kept neighbors. It returns the number of keys
// removed.
func (t *Transform) Compress(threshold float32) int {
	before := len(t.translate) + len(t.rotate) + len(t.scale) + len(t.morph)
	t.translate = compressKeys(t.translate, threshold, math.Vec3.Lerp, vec3Distance)
	t.rotate = compressKeys(t.rotate, threshold, math.Quat.Slerp, quatDistance)
	t.scale = compressKeys(t.scale, threshold, math.Vec3.Lerp, vec3Distance)
	t.morph = compressKeys(t.morph, threshold, math.Vec4.Lerp, vec4Distance)
	return before - len(t.translate) - len(t.rotate) - len(t.scale) - len(t.morph)
}

func vec3Distance(a, b math.Vec3) float32 { return a.Distance(b) }

func vec4Distance(a, b math.Vec4) float32 {
	d := a.Sub(b)
	return math.Vec3{X: d[0], Y: d[1], Z: d[2]}.Length() + abs32(d[3])
}

// quatDistance treats q and -q as the same rotation.
func quatDistance(a, b math.Quat) float32 {
	d := a.Dot(b)
	return 1 - min(abs32(d), 1)
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func insertKey[T any](keys []Key[T], time float32, v T) []Key[T] {
	i, found := slices.BinarySearchFunc(keys, time, func(k Key[T], t float32) int {
		return cmpFloat(k.Time, t)
	})
	if found {
		keys[i].Value = v
		return keys
	}
	return slices.Insert(keys, i, Key[T]{Time: time, Value: v})
}

func sampleKeys[T any](keys []Key[T], time float32, def T, lerp func(T, T, float32) T) T {
	switch {
	case len(keys) == 0:
		return def
	case time <= keys[0].Time:
		return keys[0].Value
	case time >= keys[len(keys)-1].Time:
		return keys[len(keys)-1].Value
	}

	// Find the first key after time
	next, _ := slices.BinarySearchFunc(keys, time, func(k Key[T], t float32) int {
		return cmpFloat(k.Time, t)
	})
	if keys[next].Time == time {
		return keys[next].Value
	}
	k0, k1 := keys[next-1], keys[next]
	return lerp(k0.Value, k1.Value, (time-k0.Time)/(k1.Time-k0.Time))
}

func compressKeys[T any](keys []Key[T], threshold float32, lerp func(T, T, float32) T, dist func(T, T) float32) []Key[T] {
	if len(keys) < 2 || threshold < 0 {
		return keys
	}
	out := []Key[T]{keys[0]}
	for i := 1; i+1 < len(keys); i++ {
		prev, cur, next := out[len(out)-1], keys[i], keys[i+1]
		k := (cur.Time - prev.Time) / (next.Time - prev.Time)
		if dist(lerp(prev.Value, next.Value, k), cur.Value) > threshold {
			out = append(out, cur)
		}
	}
	last := keys[len(keys)-1]
	if len(out) == 1 && dist(out[0].Value, last.Value) <= threshold {
		return out
	}
	return append(out, last)
}

// Animation is a named clip holding one Transform per mesh node, indexed by
// the node's position in the mesh.
type Animation struct {
	name       string
	mesh       *Mesh
	loop       bool
	transforms []*Transform
}

// NewAnimation creates an empty clip.
func NewAnimation(name string) *Animation {
	return &Animation{name: name}
}

// Name returns the clip name.
func (a *Animation) Name() string { return a.name }

// Mesh returns the owning mesh.
func (a *Animation) Mesh() *Mesh { return a.mesh }

// Loop reports whether sampling wraps around the time range.
func (a *Animation) Loop() bool { return a.loop }

// SetLoop sets whether sampling wraps around the time range.
func (a *Animation) SetLoop(loop bool) { a.loop = loop }

// Transforms returns the per-node tracks. Entries may be nil.
func (a *Animation) Transforms() []*Transform { return a.transforms }

// Transform returns the tracks of node index, creating them on demand.
func (a *Animation) Transform(node int) *Transform {
	if node < 0 {
		return nil
	}
	if node >= len(a.transforms) {
		a.transforms = append(a.transforms, make([]*Transform, node+1-len(a.transforms))...)
	}
	if a.transforms[node] == nil {
		a.transforms[node] = &Transform{}
	}
	return a.transforms[node]
}

// removeNode drops the tracks of node index, shifting later ones.
func (a *Animation) removeNode(node int) {
	if node < len(a.transforms) {
		a.transforms = slices.Delete(a.transforms, node, node+1)
	}
}

// TimeRange returns the clip's first and last key time.
func (a *Animation) TimeRange() (minTime, maxTime float32) {
	found := false
	for _, t := range a.transforms {
		if t == nil {
			continue
		}
		lo, hi, ok := t.TimeRange()
		if !ok {
			continue
		}
		if !found {
			minTime, maxTime, found = lo, hi, true
			continue
		}
		minTime = min(minTime, lo)
		maxTime = max(maxTime, hi)
	}
	return minTime, maxTime
}

// Time maps t into the clip's range, clamping or wrapping when looping.
func (a *Animation) Time(t float32) float32 {
	lo, hi := a.TimeRange()
	if hi <= lo {
		return lo
	}
	if !a.loop {
		return min(max(t, lo), hi)
	}
	d := hi - lo
	r := t - lo
	r -= d * float32(int64(r/d))
	if r < 0 {
		r += d
	}
	return lo + r
}

// Apply samples every track at t and writes the result to the local
// transforms and morph weights of the mesh nodes. Rotations and scales act
// around each node's pivot frame.
func (a *Animation) Apply(t float32) bool {
	if a.mesh == nil {
		return false
	}
	t = a.Time(t)
	for i, tr := range a.transforms {
		if tr == nil || tr.IsEmpty() || i >= len(a.mesh.nodes) {
			continue
		}
		node := a.mesh.nodes[i]
		if len(tr.translate)+len(tr.rotate)+len(tr.scale) > 0 {
			node.SetLocalTransform(node.pivot.Mul(tr.Matrix(t)).Mul(node.pivot.Inverse()))
		}
		if len(tr.morph) > 0 {
			node.SetMorphTransform(tr.MorphAt(t))
		}
	}
	return true
}

// Compress compresses every track and returns the number of keys removed.
func (a *Animation) Compress(threshold float32) int {
	removed := 0
	for _, t := range a.transforms {
		if t != nil {
			removed += t.Compress(threshold)
		}
	}
	return removed
}
