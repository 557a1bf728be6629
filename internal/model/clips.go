package model

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-pose/internal/anim"
	"github.com/Faultbox/midgard-pose/internal/scene"
	"github.com/Faultbox/midgard-pose/pkg/formats"
	"github.com/Faultbox/midgard-pose/pkg/math"
)

// buildClips converts every glTF animation into a clip. Morph weight
// channels and channels without a target node are skipped and counted.
func buildClips(doc *formats.GLTF, g *scene.Graph, opts Options, log *zap.Logger) ([]*anim.Clip, int, error) {
	var (
		clips   []*anim.Clip
		skipped int
	)

	for i := range doc.Animations {
		src := &doc.Animations[i]
		name := src.Name
		if name == "" {
			name = fmt.Sprintf("animation_%d", i)
		}

		var channels []anim.Channel
		var clipErr error
		for j := range src.Channels {
			ch, ok, err := buildChannel(doc, g, src, j, log)
			if err != nil {
				clipErr = fmt.Errorf("clip %q channel %d: %w", name, j, err)
				break
			}
			if !ok {
				skipped++
				continue
			}
			channels = append(channels, ch)
		}

		if clipErr == nil && len(channels) == 0 {
			log.Warn("clip has no playable channels", zap.String("clip", name))
			continue
		}

		var clip *anim.Clip
		if clipErr == nil {
			clip, clipErr = anim.NewClip(name, channels)
		}
		if clipErr != nil {
			if opts.SkipBrokenClips {
				log.Warn("skipping clip", zap.String("clip", name), zap.Error(clipErr))
				continue
			}
			return nil, skipped, clipErr
		}

		log.Debug("clip loaded", zap.Stringer("clip", clip))
		clips = append(clips, clip)
	}
	return clips, skipped, nil
}

// buildChannel reads one glTF channel. ok is false for channels that are
// skipped rather than rejected.
func buildChannel(doc *formats.GLTF, g *scene.Graph, src *formats.GLTFAnimation, j int, log *zap.Logger) (anim.Channel, bool, error) {
	ch := &src.Channels[j]
	if ch.Target.Node == nil {
		return anim.Channel{}, false, nil
	}
	node := *ch.Target.Node
	if node < 0 || node >= g.Len() {
		return anim.Channel{}, false, fmt.Errorf("%w: target %d", scene.ErrNodeIndex, node)
	}
	if ch.Target.Path == formats.GLTFPathWeights {
		log.Warn("morph weight channel skipped",
			zap.String("animation", src.Name),
			zap.String("node", g.Nodes[node].Name))
		return anim.Channel{}, false, nil
	}

	prop, err := anim.ParseProperty(ch.Target.Path)
	if err != nil {
		return anim.Channel{}, false, err
	}
	if ch.Sampler < 0 || ch.Sampler >= len(src.Samplers) {
		return anim.Channel{}, false, fmt.Errorf("invalid sampler index %d", ch.Sampler)
	}
	sampler := &src.Samplers[ch.Sampler]

	times, err := doc.ReadScalars(sampler.Input)
	if err != nil {
		return anim.Channel{}, false, fmt.Errorf("reading times: %w", err)
	}

	interp := anim.Linear
	cubic := false
	switch sampler.Interpolation {
	case "", formats.GLTFInterpolationLinear:
	case formats.GLTFInterpolationStep:
		interp = anim.Step
	case formats.GLTFInterpolationCubicSpline:
		// Keep the keyframe values and drop the tangents.
		cubic = true
		log.Warn("cubic spline sampler played as linear",
			zap.String("animation", src.Name),
			zap.String("node", g.Nodes[node].Name))
	default:
		return anim.Channel{}, false, fmt.Errorf("unknown interpolation %q", sampler.Interpolation)
	}

	var out anim.Channel
	if prop == anim.Rotation {
		raw, err := doc.ReadVec4s(sampler.Output)
		if err != nil {
			return anim.Channel{}, false, fmt.Errorf("reading rotations: %w", err)
		}
		if cubic {
			raw = splineValues(raw)
		}
		quats := make([]math.Quat, len(raw))
		for k, q := range raw {
			quats[k] = math.QuatFromArray(q)
		}
		out, err = anim.NewRotationChannel(node, times, quats)
		if err != nil {
			return anim.Channel{}, false, err
		}
	} else {
		raw, err := doc.ReadVec3s(sampler.Output)
		if err != nil {
			return anim.Channel{}, false, fmt.Errorf("reading %s values: %w", prop, err)
		}
		if cubic {
			raw = splineValues(raw)
		}
		vecs := make([]math.Vec3, len(raw))
		for k, v := range raw {
			vecs[k] = math.Vec3FromArray(v)
		}
		out, err = anim.NewVectorChannel(node, prop, times, vecs)
		if err != nil {
			return anim.Channel{}, false, err
		}
	}
	out.Interpolation = interp
	return out, true, nil
}

// splineValues picks the value out of each (in-tangent, value, out-tangent) triple.
func splineValues[V any](raw []V) []V {
	out := make([]V, len(raw)/3)
	for k := range out {
		out[k] = raw[k*3+1]
	}
	return out
}
