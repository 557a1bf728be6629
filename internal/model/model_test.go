package model

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Faultbox/midgard-pose/internal/anim"
	"github.com/Faultbox/midgard-pose/internal/player"
	"github.com/Faultbox/midgard-pose/internal/scene"
	"github.com/Faultbox/midgard-pose/pkg/formats"
	pmath "github.com/Faultbox/midgard-pose/pkg/math"
)

// docBuilder assembles a glTF document whose single buffer is already resolved.
type docBuilder struct {
	doc formats.GLTF
	bin []byte
}

func (b *docBuilder) floats(typ string, values ...float32) int {
	view := formats.GLTFBufferView{Buffer: 0, ByteOffset: len(b.bin), ByteLength: 4 * len(values)}
	for _, v := range values {
		b.bin = binary.LittleEndian.AppendUint32(b.bin, math.Float32bits(v))
	}
	b.doc.BufferViews = append(b.doc.BufferViews, view)
	vi := len(b.doc.BufferViews) - 1

	per := map[string]int{formats.GLTFScalar: 1, formats.GLTFVec3: 3, formats.GLTFVec4: 4, formats.GLTFMat4: 16}[typ]
	b.doc.Accessors = append(b.doc.Accessors, formats.GLTFAccessor{
		BufferView:    &vi,
		ComponentType: formats.GLTFFloat,
		Count:         len(values) / per,
		Type:          typ,
	})
	return len(b.doc.Accessors) - 1
}

func (b *docBuilder) build() *formats.GLTF {
	b.doc.Buffers = []formats.GLTFBuffer{{ByteLength: len(b.bin), Data: b.bin}}
	return &b.doc
}

func ptr(i int) *int { return &i }

// leg builds root(0) -> hip(1) -> knee(2), plus body(3) under root carrying a
// skinned mesh bound to hip and knee, and a "walk" clip.
func leg() *docBuilder {
	b := &docBuilder{}
	b.doc.Asset.Version = "2.0"
	b.doc.Scene = ptr(0)
	b.doc.Scenes = []formats.GLTFScene{{Nodes: []int{0}}}
	b.doc.Nodes = []formats.GLTFNode{
		{Name: "root", Children: []int{1, 3}},
		{Name: "hip", Children: []int{2}, Translation: &[3]float32{0, 1, 0}},
		{Name: "knee", Translation: &[3]float32{0, 1, 0}},
		{Name: "body", Mesh: ptr(0), Skin: ptr(0)},
	}

	pos := b.floats(formats.GLTFVec3, -1, 0, -1, 1, 2, 1)
	b.doc.Meshes = []formats.GLTFMesh{{
		Name:       "body",
		Primitives: []formats.GLTFPrimitive{{Attributes: map[string]int{"POSITION": pos}}},
	}}

	ibm := b.floats(formats.GLTFMat4,
		1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, -1, 0, 1,
		1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, -2, 0, 1,
	)
	b.doc.Skins = []formats.GLTFSkin{{Name: "legs", Joints: []int{1, 2}, InverseBindMatrices: &ibm}}

	times := b.floats(formats.GLTFScalar, 0, 1)
	kneeT := b.floats(formats.GLTFVec3, 0, 1, 0, 1, 1, 0)
	hipR := b.floats(formats.GLTFVec4, 0, 0, 0, 1, 0, 0, 0.7071068, 0.7071068)
	weights := b.floats(formats.GLTFScalar, 0, 1)
	b.doc.Animations = []formats.GLTFAnimation{{
		Name: "walk",
		Channels: []formats.GLTFAnimChannel{
			{Sampler: 0, Target: formats.GLTFAnimTarget{Node: ptr(2), Path: "translation"}},
			{Sampler: 1, Target: formats.GLTFAnimTarget{Node: ptr(1), Path: "rotation"}},
			{Sampler: 2, Target: formats.GLTFAnimTarget{Node: ptr(3), Path: "weights"}},
		},
		Samplers: []formats.GLTFAnimSampler{
			{Input: times, Output: kneeT},
			{Input: times, Output: hipR, Interpolation: "STEP"},
			{Input: times, Output: weights},
		},
	}}
	return b
}

func TestLoad_Structure(t *testing.T) {
	m, err := Load(leg().build(), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if m.Graph.Root != 0 || m.Graph.Len() != 4 {
		t.Errorf("root %d, nodes %d", m.Graph.Root, m.Graph.Len())
	}
	if m.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 (weights)", m.Skipped)
	}
	if len(m.Clips) != 1 || len(m.Clips[0].Channels) != 2 {
		t.Fatalf("clips = %v", m.Clips)
	}

	walk, ok := m.ClipByName("walk")
	if !ok {
		t.Fatal("ClipByName(walk) not found")
	}
	if walk.Channels[1].Interpolation != anim.Step {
		t.Errorf("rotation channel interpolation = %v, want step", walk.Channels[1].Interpolation)
	}
	if _, ok := m.ClipByName("run"); ok {
		t.Error("ClipByName(run) found a clip")
	}

	hip := m.Graph.Nodes[1]
	if hip.Local.Translation != (pmath.Vec3{Y: 1}) || hip.Local.Scale != pmath.Vec3One() || hip.Local.Rotation != pmath.QuatIdentity() {
		t.Errorf("hip local = %+v", hip.Local)
	}

	if m.Bounds.Min() != (pmath.Vec3{X: -1, Y: 0, Z: -1}) || m.Bounds.Max() != (pmath.Vec3{X: 1, Y: 2, Z: 1}) {
		t.Errorf("bounds = %v", m.Bounds)
	}
}

func TestLoad_BindPoseJointsAreIdentity(t *testing.T) {
	m, err := Load(leg().build(), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := player.New(m.Graph, m.Clips, player.DefaultOptions())
	if err != nil {
		t.Fatalf("player.New: %v", err)
	}

	joints, ok := p.Resolver().JointMatrices(3, nil)
	if !ok {
		t.Fatal("body has no skin")
	}
	for i, j := range joints {
		if !j.ApproxEqual(pmath.Identity(), 1e-6) {
			t.Errorf("bind-pose joint %d = %v, want identity", i, j)
		}
	}
}

func TestLoad_PlaybackEndToEnd(t *testing.T) {
	m, err := Load(leg().build(), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := player.New(m.Graph, m.Clips, player.DefaultOptions())
	if err != nil {
		t.Fatalf("player.New: %v", err)
	}

	p.Advance(0.5)
	p.Evaluate()

	body, ok := p.Mesh(3)
	if !ok {
		t.Fatal("no cache for body")
	}
	// Hip rotation is STEP: still identity at t=0.5. Knee moved half way to x=1.
	knee := body.Joints[1].Translation()
	if knee.Distance(pmath.Vec3{X: 0.5}) > 1e-5 {
		t.Errorf("knee joint translation = %v, want (0.5,0,0)", knee)
	}
}

func TestLoad_CubicSplineUsesValues(t *testing.T) {
	b := leg()
	times := b.floats(formats.GLTFScalar, 0, 1)
	// (in-tangent, value, out-tangent) per key.
	out := b.floats(formats.GLTFVec3,
		9, 9, 9, 0, 0, 0, 9, 9, 9,
		9, 9, 9, 2, 0, 0, 9, 9, 9,
	)
	b.doc.Animations = append(b.doc.Animations, formats.GLTFAnimation{
		Channels: []formats.GLTFAnimChannel{{Sampler: 0, Target: formats.GLTFAnimTarget{Node: ptr(2), Path: "translation"}}},
		Samplers: []formats.GLTFAnimSampler{{Input: times, Output: out, Interpolation: "CUBICSPLINE"}},
	})

	m, err := Load(b.build(), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	clip, ok := m.ClipByName("animation_1")
	if !ok {
		t.Fatal("unnamed clip not found as animation_1")
	}
	v, _ := clip.Channels[0].SampleVector(0.5)
	if v != (pmath.Vec3{X: 1}) {
		t.Errorf("cubic spline sample = %v, want (1,0,0)", v)
	}
}

func TestLoad_DefaultInverseBind(t *testing.T) {
	b := leg()
	b.doc.Skins[0].InverseBindMatrices = nil

	m, err := Load(b.build(), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i, ib := range m.Graph.Skins[0].InverseBind {
		if !ib.IsIdentity() {
			t.Errorf("inverse bind %d = %v, want identity", i, ib)
		}
	}
}

func TestLoad_MatrixNode(t *testing.T) {
	b := leg()
	mat := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 5, 0, 0, 1}
	b.doc.Nodes[0].Matrix = &mat

	m, err := Load(b.build(), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Graph.Nodes[0].Local.HasTRS() {
		t.Error("matrix node reports TRS")
	}
	if m.Bounds.Min().X != 4 || m.Bounds.Max().X != 6 {
		t.Errorf("bounds X = %v..%v, want 4..6", m.Bounds.Min().X, m.Bounds.Max().X)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *docBuilder)
		wantErr error
	}{
		{
			name:    "no nodes",
			mutate:  func(b *docBuilder) { b.doc.Nodes = nil },
			wantErr: ErrNoNodes,
		},
		{
			name: "skin count mismatch",
			mutate: func(b *docBuilder) {
				b.doc.Skins[0].Joints = []int{1, 2, 0}
			},
			wantErr: scene.ErrSkinMismatch,
		},
		{
			name: "keyframe count mismatch",
			mutate: func(b *docBuilder) {
				times := b.floats(formats.GLTFScalar, 0, 1, 2)
				b.doc.Animations[0].Samplers[0].Input = times
			},
			wantErr: anim.ErrKeyframeMismatch,
		},
		{
			name: "unsupported path",
			mutate: func(b *docBuilder) {
				b.doc.Animations[0].Channels[0].Target.Path = "color"
			},
			wantErr: anim.ErrUnsupportedProperty,
		},
		{
			name: "target out of range",
			mutate: func(b *docBuilder) {
				b.doc.Animations[0].Channels[0].Target.Node = ptr(42)
			},
			wantErr: scene.ErrNodeIndex,
		},
		{
			name: "sparse accessor",
			mutate: func(b *docBuilder) {
				b.doc.Accessors[0].Sparse = &formats.GLTFSparse{Count: 1}
			},
			wantErr: formats.ErrSparseAccessor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := leg()
			tt.mutate(b)
			_, err := Load(b.build(), Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_SkipBrokenClips(t *testing.T) {
	b := leg()
	b.doc.Animations[0].Channels[0].Target.Path = "color"

	m, err := Load(b.build(), Options{SkipBrokenClips: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Clips) != 0 {
		t.Errorf("clips = %d, want broken clip dropped", len(m.Clips))
	}
}
