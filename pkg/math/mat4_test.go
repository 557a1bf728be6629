package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
	if !m.IsIdentity() {
		t.Error("IsIdentity should be true for Identity()")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)

	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
	if got := m.Translation(); got != (Vec3{5, 10, 15}) {
		t.Errorf("Translation() = %v, want (5, 10, 15)", got)
	}
}

func TestTranslateChain(t *testing.T) {
	got := Translate(1, 0, 0).Mul(Translate(0, 2, 0))
	if got != Translate(1, 2, 0) {
		t.Errorf("translate chain: got %v, want translate(1,2,0)", got)
	}
}

func TestScale(t *testing.T) {
	m := Scale(2, 3, 4)

	if m[0] != 2 || m[5] != 3 || m[10] != 4 {
		t.Errorf("Scale diagonal: got (%f, %f, %f), want (2, 3, 4)", m[0], m[5], m[10])
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	result := m.TransformPoint([3]float32{1, 2, 3})

	expected := [3]float32{11, 22, 33}
	if result != expected {
		t.Errorf("TransformPoint: got %v, want %v", result, expected)
	}
}

func TestTransformPointScale(t *testing.T) {
	m := Scale(2, 2, 2)
	result := m.TransformPoint([3]float32{1, 2, 3})

	expected := [3]float32{2, 4, 6}
	if result != expected {
		t.Errorf("TransformPoint with scale: got %v, want %v", result, expected)
	}
}

func TestRotateAxisY90(t *testing.T) {
	m := RotateAxis(Vec3{0, 1, 0}, float32(math.Pi/2))
	result := m.TransformPoint([3]float32{1, 0, 0})

	// (1,0,0) rotated 90 degrees around +Y lands on (0,0,-1)
	if abs(result[0]) > 0.001 || abs(result[1]) > 0.001 || abs(result[2]+1) > 0.001 {
		t.Errorf("RotateAxis Y 90: got %v, want (0, 0, -1)", result)
	}
}

func TestFromTRSMatchesProduct(t *testing.T) {
	tr := Vec3{1, 2, 3}
	rot := QuatFromAxisAngle(Vec3{0, 0, 1}, 0.7)
	sc := Vec3{2, 3, 4}

	want := TranslateVec3(tr).Mul(rot.ToMat4()).Mul(ScaleVec3(sc))
	got := FromTRS(tr, rot, sc)
	if !got.ApproxEqual(want, 1e-5) {
		t.Errorf("FromTRS = %v, want %v", got, want)
	}
}

func TestFromTRSIdentity(t *testing.T) {
	got := FromTRS(Vec3{}, QuatIdentity(), Vec3One())
	if !got.ApproxEqual(Identity(), 0) {
		t.Errorf("FromTRS of identity parts = %v, want identity", got)
	}
}

func TestInverse(t *testing.T) {
	m := FromTRS(Vec3{4, -2, 1}, QuatFromAxisAngle(Vec3{1, 0, 0}, 1.1), Vec3{2, 2, 2})
	got := m.Mul(m.Inverse())
	if !got.ApproxEqual(Identity(), 1e-5) {
		t.Errorf("M * M^-1 = %v, want identity", got)
	}
}

func TestInverseSingular(t *testing.T) {
	if got := (Mat4{}).Inverse(); got != Identity() {
		t.Errorf("inverse of zero matrix = %v, want identity fallback", got)
	}
}

func TestDecompose(t *testing.T) {
	tests := []struct {
		name string
		axis Vec3
		ang  float32
	}{
		{"identity rotation", Vec3{0, 1, 0}, 0},
		{"z quarter turn", Vec3{0, 0, 1}, 1.5707964},
		{"x half turn", Vec3{1, 0, 0}, 3.1415927},
		{"oblique", Vec3{1, 1, 0}.Normalize(), 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := Vec3{1, -2, 3}
			rot := QuatFromAxisAngle(tt.axis, tt.ang)
			sc := Vec3{2, 0.5, 3}

			gt, gr, gs := FromTRS(tr, rot, sc).Decompose()
			if gt.Distance(tr) > 1e-5 {
				t.Errorf("translation = %v, want %v", gt, tr)
			}
			if gs.Distance(sc) > 1e-4 {
				t.Errorf("scale = %v, want %v", gs, sc)
			}
			if !gr.SameRotation(rot, 1e-4) {
				t.Errorf("rotation = %v, want %v", gr, rot)
			}
		})
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
