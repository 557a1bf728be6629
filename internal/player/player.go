// Package player advances clips over time and caches the resulting mesh transforms.
package player

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-pose/internal/anim"
	"github.com/Faultbox/midgard-pose/internal/logger"
	"github.com/Faultbox/midgard-pose/internal/pose"
	"github.com/Faultbox/midgard-pose/internal/scene"
	"github.com/Faultbox/midgard-pose/pkg/math"
)

var (
	// ErrUnknownClip is returned when Options.Clips names a clip the model lacks.
	ErrUnknownClip = errors.New("unknown clip")
	// ErrInvalidSpeed is returned for a negative or NaN Options.Speed.
	ErrInvalidSpeed = errors.New("playback speed must not be negative")
)

// Mode is the playback policy applied when a clip runs out of keyframes.
type Mode int

const (
	// Repeat restarts the clip from its start time.
	Repeat Mode = iota
	// Once holds the clip's final pose and finishes.
	Once
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case Repeat:
		return "repeat"
	case Once:
		return "once"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a config name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "repeat", "loop":
		return Repeat, nil
	case "once":
		return Once, nil
	default:
		return 0, fmt.Errorf("unknown play mode %q (want once or repeat)", s)
	}
}

// State is the player lifecycle state.
type State int

// Player states.
const (
	Idle State = iota
	Playing
	Finished
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a Player.
type Options struct {
	Mode        Mode
	Speed       float32
	Composition pose.Composition
	// Clips restricts playback to the named clips. Empty plays every clip.
	Clips []string
}

// DefaultOptions returns repeat playback at normal speed with decomposed composition.
func DefaultOptions() Options {
	return Options{
		Mode:        Repeat,
		Speed:       1,
		Composition: pose.ComposeDecomposed,
	}
}

// MeshState is the per-frame cache of one mesh-bearing node.
// Joints is nil when the node has no skin.
type MeshState struct {
	Node   int
	Mesh   int
	World  math.Mat4
	Joints []math.Mat4
}

// track is one clip's playback cursor.
type track struct {
	clip     *anim.Clip
	time     float32
	finished bool
	loops    int
	values   []anim.Value // contribution of the last evaluation
}

// Player evaluates clips against a shared scene graph. The graph and clips
// are read-only and may be shared; a Player itself is single-threaded.
type Player struct {
	id       string
	graph    *scene.Graph
	resolver *pose.Resolver
	builder  *pose.Builder
	opts     Options
	log      *zap.Logger

	tracks []track
	state  State
	meshes []MeshState
}

// New creates a player over g for the given clips.
func New(g *scene.Graph, clips []*anim.Clip, opts Options) (*Player, error) {
	selected, err := selectClips(clips, opts.Clips)
	if err != nil {
		return nil, err
	}
	if !(opts.Speed >= 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpeed, opts.Speed)
	}
	if opts.Speed == 0 {
		opts.Speed = 1
	}

	id := uuid.New().String()
	p := &Player{
		id:       id,
		graph:    g,
		resolver: pose.NewResolver(g),
		builder:  pose.NewBuilder(g, opts.Composition),
		opts:     opts,
		log:      logger.Named("player").With(zap.String("player", id)),
	}

	for _, c := range selected {
		p.tracks = append(p.tracks, track{clip: c, time: c.Start})
	}
	for _, n := range g.MeshNodes() {
		p.meshes = append(p.meshes, MeshState{Node: n, Mesh: g.Nodes[n].Mesh, World: math.Identity()})
	}

	p.log.Debug("player created",
		zap.Int("clips", len(p.tracks)),
		zap.Int("meshes", len(p.meshes)),
		zap.Stringer("mode", opts.Mode),
		zap.Stringer("composition", opts.Composition))
	return p, nil
}

func selectClips(clips []*anim.Clip, names []string) ([]*anim.Clip, error) {
	if len(names) == 0 {
		return clips, nil
	}
	out := make([]*anim.Clip, 0, len(names))
	for _, name := range names {
		var found *anim.Clip
		for _, c := range clips {
			if c.Name == name {
				found = c
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownClip, name)
		}
		out = append(out, found)
	}
	return out, nil
}

// ID returns the player's unique identifier.
func (p *Player) ID() string {
	return p.id
}

// State returns the lifecycle state.
func (p *Player) State() State {
	return p.state
}

// Mode returns the playback mode.
func (p *Player) Mode() Mode {
	return p.opts.Mode
}

// Time returns the time cursor of the first clip, or 0 without clips.
func (p *Player) Time() float32 {
	if len(p.tracks) == 0 {
		return 0
	}
	return p.tracks[0].time
}

// Loops returns how many times the first clip has restarted.
func (p *Player) Loops() int {
	if len(p.tracks) == 0 {
		return 0
	}
	return p.tracks[0].loops
}

// Clips returns the names of the clips being played.
func (p *Player) Clips() []string {
	names := make([]string, len(p.tracks))
	for i := range p.tracks {
		names[i] = p.tracks[i].clip.Name
	}
	return names
}

// Advance moves every unfinished clip forward by dt scaled by the playback speed.
// A negative dt is ignored; rewinding goes through Seek or Reset.
func (p *Player) Advance(dt float32) {
	if p.state == Finished || !(dt >= 0) {
		return
	}
	step := dt * p.opts.Speed
	for i := range p.tracks {
		if !p.tracks[i].finished {
			p.tracks[i].time += step
		}
	}
	p.setState(Playing)
}

// Seek sets the time cursor of every clip and resumes clips that had finished.
func (p *Player) Seek(t float32) {
	for i := range p.tracks {
		p.tracks[i].time = t
		p.tracks[i].finished = false
	}
	p.setState(Playing)
}

// Reset rewinds every clip to its start and returns to Idle.
func (p *Player) Reset() {
	for i := range p.tracks {
		tr := &p.tracks[i]
		tr.time = tr.clip.Start
		tr.finished = false
		tr.loops = 0
		tr.values = tr.values[:0]
	}
	p.setState(Idle)
}

// Evaluate samples every clip at its current time, merges the results into
// the frame's overrides and recomputes the mesh caches. Calling it again
// without Advance, Seek or Reset yields the same transforms.
func (p *Player) Evaluate() {
	// Idle means no pose has been computed yet.
	if p.state == Idle {
		p.setState(Playing)
	}
	p.builder.Reset()

	for i := range p.tracks {
		tr := &p.tracks[i]
		if !tr.finished {
			p.sampleTrack(tr)
		}
		for _, v := range tr.values {
			p.builder.Add(v)
		}
	}

	ov := p.builder.Overrides()
	for i := range p.meshes {
		m := &p.meshes[i]
		m.World = p.resolver.Global(m.Node, ov)
		m.Joints, _ = p.resolver.JointMatrices(m.Node, ov)
	}

	if p.opts.Mode == Once && len(p.tracks) > 0 && p.allFinished() {
		p.setState(Finished)
	}
}

// sampleTrack applies the playback mode if the clip is exhausted, then
// samples every channel at the track's time.
func (p *Player) sampleTrack(tr *track) {
	if tr.clip.Exhausted(tr.time) {
		switch p.opts.Mode {
		case Repeat:
			tr.time = tr.clip.Start
			tr.loops++
			p.log.Debug("clip restarted", zap.String("clip", tr.clip.Name), zap.Int("loops", tr.loops))
		case Once:
			tr.time = tr.clip.End
			tr.finished = true
			p.log.Debug("clip finished", zap.String("clip", tr.clip.Name), zap.Float32("time", tr.time))
		}
	}

	tr.values = tr.values[:0]
	for i := range tr.clip.Channels {
		// In range by construction: Start <= t <= End for every channel.
		if v, ok := tr.clip.Channels[i].Value(tr.time); ok {
			tr.values = append(tr.values, v)
		}
	}
}

func (p *Player) allFinished() bool {
	for i := range p.tracks {
		if !p.tracks[i].finished {
			return false
		}
	}
	return true
}

func (p *Player) setState(s State) {
	if p.state == s {
		return
	}
	p.log.Debug("state changed", zap.Stringer("from", p.state), zap.Stringer("to", s))
	p.state = s
}

// Meshes returns the cached per-mesh transforms from the last Evaluate.
// The slice is owned by the player and must not be modified.
func (p *Player) Meshes() []MeshState {
	return p.meshes
}

// Mesh returns the cache for a mesh-bearing node.
func (p *Player) Mesh(node int) (MeshState, bool) {
	for _, m := range p.meshes {
		if m.Node == node {
			return m, true
		}
	}
	return MeshState{}, false
}

// Resolver exposes the player's resolver for ad-hoc queries against the
// static pose.
func (p *Player) Resolver() *pose.Resolver {
	return p.resolver
}
