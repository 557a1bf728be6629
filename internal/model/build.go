package model

import (
	"fmt"

	"github.com/Faultbox/midgard-pose/internal/scene"
	"github.com/Faultbox/midgard-pose/pkg/formats"
	"github.com/Faultbox/midgard-pose/pkg/math"
)

// buildNodes converts glTF nodes. Missing TRS parts take the glTF defaults.
func buildNodes(doc *formats.GLTF) []scene.Node {
	nodes := make([]scene.Node, len(doc.Nodes))
	for i := range doc.Nodes {
		src := &doc.Nodes[i]
		n := scene.Node{
			Index:    i,
			Name:     doc.NodeName(i),
			Local:    scene.IdentityTransform(),
			Children: append([]int(nil), src.Children...),
			Mesh:     -1,
			Skin:     -1,
		}
		if src.Mesh != nil {
			n.Mesh = *src.Mesh
		}
		if src.Skin != nil {
			n.Skin = *src.Skin
		}

		if src.Matrix != nil {
			m := math.Mat4(*src.Matrix)
			n.Local.Matrix = &m
		} else {
			if src.Translation != nil {
				n.Local.Translation = math.Vec3FromArray(*src.Translation)
			}
			if src.Rotation != nil {
				n.Local.Rotation = math.QuatFromArray(*src.Rotation).Normalize()
			}
			if src.Scale != nil {
				n.Local.Scale = math.Vec3FromArray(*src.Scale)
			}
		}
		nodes[i] = n
	}
	return nodes
}

// buildMeshes reads every primitive's geometry.
func buildMeshes(doc *formats.GLTF) ([]scene.Mesh, error) {
	meshes := make([]scene.Mesh, len(doc.Meshes))
	for i := range doc.Meshes {
		src := &doc.Meshes[i]
		name := src.Name
		if name == "" {
			name = fmt.Sprintf("mesh_%d", i)
		}
		mesh := scene.Mesh{Name: name}

		for j := range src.Primitives {
			prim, err := buildPrimitive(doc, &src.Primitives[j])
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", name, j, err)
			}
			mesh.Primitives = append(mesh.Primitives, prim)
		}
		meshes[i] = mesh
	}
	return meshes, nil
}

func buildPrimitive(doc *formats.GLTF, src *formats.GLTFPrimitive) (scene.Primitive, error) {
	prim := scene.Primitive{Material: -1, Mode: formats.GLTFModeTriangles}
	if src.Material != nil {
		prim.Material = *src.Material
	}
	if src.Mode != nil {
		prim.Mode = *src.Mode
	}

	var err error
	if idx, ok := src.Attributes["POSITION"]; ok {
		if prim.Positions, err = doc.ReadVec3s(idx); err != nil {
			return prim, fmt.Errorf("POSITION: %w", err)
		}
	}
	if idx, ok := src.Attributes["TEXCOORD_0"]; ok {
		if prim.TexCoords, err = doc.ReadVec2s(idx); err != nil {
			return prim, fmt.Errorf("TEXCOORD_0: %w", err)
		}
	}
	if idx, ok := src.Attributes["JOINTS_0"]; ok {
		if prim.Joints, err = doc.ReadJoints(idx); err != nil {
			return prim, fmt.Errorf("JOINTS_0: %w", err)
		}
	}
	if idx, ok := src.Attributes["WEIGHTS_0"]; ok {
		if prim.Weights, err = doc.ReadWeights(idx); err != nil {
			return prim, fmt.Errorf("WEIGHTS_0: %w", err)
		}
	}
	if src.Indices != nil {
		if prim.Indices, err = doc.ReadIndices(*src.Indices); err != nil {
			return prim, fmt.Errorf("indices: %w", err)
		}
	}
	return prim, nil
}

// buildSkins reads joints and inverse bind matrices. A skin without
// inverse bind matrices gets identities, the glTF default.
func buildSkins(doc *formats.GLTF) ([]scene.Skin, error) {
	skins := make([]scene.Skin, len(doc.Skins))
	for i := range doc.Skins {
		src := &doc.Skins[i]
		name := src.Name
		if name == "" {
			name = fmt.Sprintf("skin_%d", i)
		}
		skin := scene.Skin{
			Name:     name,
			Joints:   append([]int(nil), src.Joints...),
			Skeleton: -1,
		}
		if src.Skeleton != nil {
			skin.Skeleton = *src.Skeleton
		}

		if src.InverseBindMatrices != nil {
			mats, err := doc.ReadMat4s(*src.InverseBindMatrices)
			if err != nil {
				return nil, fmt.Errorf("skin %q inverse bind matrices: %w", name, err)
			}
			skin.InverseBind = make([]math.Mat4, len(mats))
			for j, m := range mats {
				skin.InverseBind[j] = math.Mat4(m)
			}
		} else {
			skin.InverseBind = make([]math.Mat4, len(skin.Joints))
			for j := range skin.InverseBind {
				skin.InverseBind[j] = math.Identity()
			}
		}
		skins[i] = skin
	}
	return skins, nil
}
