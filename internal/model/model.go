// Package model turns a parsed glTF document into the scene graph, clips and
// bind-pose bounds the player works with.
package model

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-pose/internal/anim"
	"github.com/Faultbox/midgard-pose/internal/bounds"
	"github.com/Faultbox/midgard-pose/internal/logger"
	"github.com/Faultbox/midgard-pose/internal/pose"
	"github.com/Faultbox/midgard-pose/internal/scene"
	"github.com/Faultbox/midgard-pose/pkg/formats"
)

// ErrNoNodes is returned for documents without a node hierarchy.
var ErrNoNodes = errors.New("document has no nodes")

// Options controls loading.
type Options struct {
	// SkipBrokenClips drops clips whose channels fail validation instead of
	// failing the load.
	SkipBrokenClips bool
}

// Model is a loaded, validated model ready for playback.
type Model struct {
	Name   string
	Graph  *scene.Graph
	Clips  []*anim.Clip
	Bounds bounds.AABB

	// Skipped counts channels dropped during load (morph weights, missing targets).
	Skipped int
}

// LoadFile parses a .gltf or .glb file and loads it.
func LoadFile(path string, opts Options) (*Model, error) {
	doc, err := formats.ParseGLTF(path)
	if err != nil {
		return nil, err
	}
	m, err := Load(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	m.Name = filepath.Base(path)
	return m, nil
}

// Load builds a Model from a parsed document.
func Load(doc *formats.GLTF, opts Options) (*Model, error) {
	log := logger.Named("model")

	if len(doc.Nodes) == 0 {
		return nil, ErrNoNodes
	}

	nodes := buildNodes(doc)
	meshes, err := buildMeshes(doc)
	if err != nil {
		return nil, err
	}
	skins, err := buildSkins(doc)
	if err != nil {
		return nil, err
	}

	g, err := scene.NewGraph(nodes, skins, meshes, doc.RootNode())
	if err != nil {
		return nil, err
	}

	m := &Model{Graph: g}
	m.Clips, m.Skipped, err = buildClips(doc, g, opts, log)
	if err != nil {
		return nil, err
	}
	m.Bounds = bindPoseBounds(g)

	log.Info("model loaded",
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("meshes", len(g.Meshes)),
		zap.Int("skins", len(g.Skins)),
		zap.Int("clips", len(m.Clips)),
		zap.Int("root", g.Root),
		zap.Int("skipped_channels", m.Skipped),
		zap.Stringer("bounds", m.Bounds))
	return m, nil
}

// ClipByName returns the clip with the given name.
func (m *Model) ClipByName(name string) (*anim.Clip, bool) {
	for _, c := range m.Clips {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// bindPoseBounds folds every primitive position through its node's
// bind-pose world transform.
func bindPoseBounds(g *scene.Graph) bounds.AABB {
	r := pose.NewResolver(g)
	var box bounds.AABB
	for _, n := range g.MeshNodes() {
		world := r.Global(n, nil)
		mesh := &g.Meshes[g.Nodes[n].Mesh]
		for i := range mesh.Primitives {
			for _, p := range mesh.Primitives[i].Positions {
				w := world.TransformPoint(p)
				box.Update(w[0], w[1], w[2])
			}
		}
	}
	return box
}
