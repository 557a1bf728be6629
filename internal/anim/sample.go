// Package anim samples keyframed node channels and groups them into clips.
package anim

import (
	"sort"

	"github.com/Faultbox/midgard-pose/pkg/math"
)

// Sample evaluates a keyframe track at time t.
//
// It brackets t between two keyframes and blends their values with lerp at
// ratio (t - t0) / (t1 - t0). A ratio of 0 returns the earlier value and a
// ratio of 1 the later one without calling lerp. Times before the first
// keyframe clamp to the first value. ok is false once t passes the last
// keyframe.
//
// A repeated keyframe time marks a discontinuity: at that exact time the
// later key wins, including at the last keyframe.
//
// times need not be ascending; unsorted input is bracketed through a sorted
// index permutation.
func Sample[V any](times []float32, values []V, t float32, lerp func(a, b V, r float32) V) (V, bool) {
	var zero V
	n := min(len(times), len(values))
	if n == 0 {
		return zero, false
	}

	var order []int
	if !ascending(times[:n]) {
		order = sortedOrder(times[:n])
	}
	at := func(k int) float32 {
		if order != nil {
			return times[order[k]]
		}
		return times[k]
	}
	val := func(k int) V {
		if order != nil {
			return values[order[k]]
		}
		return values[k]
	}

	if t > at(n-1) {
		return zero, false
	}
	if t == at(n-1) {
		return val(n - 1), true
	}
	if t <= at(0) || n == 1 {
		return val(0), true
	}

	// Last keyframe at or before t, kept one short of the end so i+1 exists.
	i := sort.Search(n, func(k int) bool { return at(k) > t }) - 1
	if i > n-2 {
		i = n - 2
	}

	t0, t1 := at(i), at(i+1)
	var ratio float32
	if span := t1 - t0; span > 0 {
		ratio = (t - t0) / span
	}

	switch ratio {
	case 0:
		return val(i), true
	case 1:
		return val(i + 1), true
	}
	return lerp(val(i), val(i+1), ratio), true
}

func ascending(times []float32) bool {
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			return false
		}
	}
	return true
}

// sortedOrder returns the indices of times in ascending time order.
func sortedOrder(times []float32) []int {
	order := make([]int, len(times))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return times[order[a]] < times[order[b]] })
	return order
}

func lerpQuat(a, b math.Quat, r float32) math.Quat {
	return a.Slerp(b, r)
}

func step[V any](a, _ V, _ float32) V {
	return a
}

// SampleVec3 samples a translation or scale track with linear interpolation.
func SampleVec3(times []float32, values []math.Vec3, t float32) (math.Vec3, bool) {
	return Sample(times, values, t, math.LerpVec3)
}

// SampleQuat samples a rotation track with spherical interpolation.
func SampleQuat(times []float32, values []math.Quat, t float32) (math.Quat, bool) {
	return Sample(times, values, t, lerpQuat)
}
