package anim

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/midgard-pose/pkg/math"
)

// Channel construction errors.
var (
	ErrKeyframeMismatch    = errors.New("keyframe times and values differ in length")
	ErrEmptyChannel        = errors.New("channel has no keyframes")
	ErrUnsupportedProperty = errors.New("unsupported channel property")
	ErrInvalidTime         = errors.New("keyframe time is not finite")
)

// Property is the node transform component a channel drives.
type Property int

// Channel properties.
const (
	Translation Property = iota
	Rotation
	Scale
)

// String returns the glTF path name of the property.
func (p Property) String() string {
	switch p {
	case Translation:
		return "translation"
	case Rotation:
		return "rotation"
	case Scale:
		return "scale"
	default:
		return fmt.Sprintf("Property(%d)", int(p))
	}
}

// ParseProperty maps a glTF target path to a Property.
func ParseProperty(path string) (Property, error) {
	switch path {
	case "translation":
		return Translation, nil
	case "rotation":
		return Rotation, nil
	case "scale":
		return Scale, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedProperty, path)
	}
}

// Interpolation selects how values between keyframes are produced.
type Interpolation int

// Interpolation modes.
const (
	Linear Interpolation = iota
	Step
)

// Channel animates one property of one node.
// Times are ascending; Vectors holds translation or scale values,
// Rotations holds unit quaternions.
type Channel struct {
	Node          int
	Property      Property
	Interpolation Interpolation
	Times         []float32
	Vectors       []math.Vec3
	Rotations     []math.Quat
}

// NewVectorChannel builds a translation or scale channel.
// Keyframes are sorted by time.
func NewVectorChannel(node int, prop Property, times []float32, values []math.Vec3) (Channel, error) {
	if prop != Translation && prop != Scale {
		return Channel{}, fmt.Errorf("%w: %s is not a vector property", ErrUnsupportedProperty, prop)
	}
	if err := checkKeys(len(times), len(values)); err != nil {
		return Channel{}, err
	}
	if err := checkTimes(times); err != nil {
		return Channel{}, err
	}

	ts := append([]float32(nil), times...)
	vs := append([]math.Vec3(nil), values...)
	sortKeys(ts, vs)
	return Channel{Node: node, Property: prop, Times: ts, Vectors: vs}, nil
}

// NewRotationChannel builds a rotation channel. Quaternions are normalized
// and keyframes sorted by time.
func NewRotationChannel(node int, times []float32, values []math.Quat) (Channel, error) {
	if err := checkKeys(len(times), len(values)); err != nil {
		return Channel{}, err
	}
	if err := checkTimes(times); err != nil {
		return Channel{}, err
	}

	ts := append([]float32(nil), times...)
	qs := make([]math.Quat, len(values))
	for i, q := range values {
		qs[i] = q.Normalize()
	}
	sortKeys(ts, qs)
	return Channel{Node: node, Property: Rotation, Times: ts, Rotations: qs}, nil
}

func checkKeys(times, values int) error {
	if times == 0 {
		return ErrEmptyChannel
	}
	if times != values {
		return fmt.Errorf("%w: %d times, %d values", ErrKeyframeMismatch, times, values)
	}
	return nil
}

func checkTimes(times []float32) error {
	for i, t := range times {
		if f := float64(t); gomath.IsNaN(f) || gomath.IsInf(f, 0) {
			return fmt.Errorf("%w: key %d", ErrInvalidTime, i)
		}
	}
	return nil
}

// sortKeys sorts times ascending and applies the same permutation to values.
func sortKeys[V any](times []float32, values []V) {
	if ascending(times) {
		return
	}
	order := sortedOrder(times)
	ts := make([]float32, len(times))
	vs := make([]V, len(values))
	for i, k := range order {
		ts[i] = times[k]
		vs[i] = values[k]
	}
	copy(times, ts)
	copy(values, vs)
}

// Len returns the number of keyframes.
func (c *Channel) Len() int {
	return len(c.Times)
}

// Start returns the first keyframe time.
func (c *Channel) Start() float32 {
	if len(c.Times) == 0 {
		return 0
	}
	return c.Times[0]
}

// End returns the last keyframe time.
func (c *Channel) End() float32 {
	if len(c.Times) == 0 {
		return 0
	}
	return c.Times[len(c.Times)-1]
}

// SampleVector samples a translation or scale channel.
func (c *Channel) SampleVector(t float32) (math.Vec3, bool) {
	if c.Interpolation == Step {
		return Sample(c.Times, c.Vectors, t, step[math.Vec3])
	}
	return SampleVec3(c.Times, c.Vectors, t)
}

// SampleRotation samples a rotation channel.
func (c *Channel) SampleRotation(t float32) (math.Quat, bool) {
	if c.Interpolation == Step {
		return Sample(c.Times, c.Rotations, t, step[math.Quat])
	}
	return SampleQuat(c.Times, c.Rotations, t)
}

// SampleMatrix returns the channel's contribution at t as a matrix:
// a translation, rotation or scale matrix depending on the property.
func (c *Channel) SampleMatrix(t float32) (math.Mat4, bool) {
	v, ok := c.Value(t)
	return v.Matrix(), ok
}

// SampleTRS writes the channel's value at t into the matching component of
// (tr, rot, sc). The other components are left untouched.
func (c *Channel) SampleTRS(t float32, tr *math.Vec3, rot *math.Quat, sc *math.Vec3) bool {
	v, ok := c.Value(t)
	if ok {
		v.Apply(tr, rot, sc)
	}
	return ok
}

// Value is one sampled channel output.
type Value struct {
	Node     int
	Property Property
	Vector   math.Vec3
	Rotation math.Quat
}

// Matrix returns the value as a translation, rotation or scale matrix.
func (v Value) Matrix() math.Mat4 {
	switch v.Property {
	case Translation:
		return math.TranslateVec3(v.Vector)
	case Rotation:
		return v.Rotation.ToMat4()
	case Scale:
		return math.ScaleVec3(v.Vector)
	}
	return math.Identity()
}

// Apply writes the value into the matching component of (tr, rot, sc).
func (v Value) Apply(tr *math.Vec3, rot *math.Quat, sc *math.Vec3) {
	switch v.Property {
	case Translation:
		*tr = v.Vector
	case Rotation:
		*rot = v.Rotation
	case Scale:
		*sc = v.Vector
	}
}

// Value samples the channel at t.
func (c *Channel) Value(t float32) (Value, bool) {
	v := Value{Node: c.Node, Property: c.Property}
	var ok bool
	if c.Property == Rotation {
		v.Rotation, ok = c.SampleRotation(t)
	} else {
		v.Vector, ok = c.SampleVector(t)
	}
	return v, ok
}
