package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-pose/internal/bounds"
	"github.com/Faultbox/midgard-pose/internal/config"
	"github.com/Faultbox/midgard-pose/internal/logger"
	"github.com/Faultbox/midgard-pose/internal/model"
	"github.com/Faultbox/midgard-pose/internal/player"
	"github.com/Faultbox/midgard-pose/internal/scene"
	"github.com/Faultbox/midgard-pose/internal/watch"
	"github.com/Faultbox/midgard-pose/pkg/math"
)

var errUsage = errors.New("missing model path")

// stdout receives command output.
var stdout io.Writer = os.Stdout

// models keeps loaded models so watch only re-parses files that changed.
var models = model.NewCache(model.Options{SkipBrokenClips: true})

func loadModel(path string) (*model.Model, error) {
	return models.Load(path)
}

// newPlayer builds a player from the config, optionally narrowed to one clip.
func newPlayer(cfg *config.Config, m *model.Model, clip string) (*player.Player, error) {
	opts, err := cfg.PlayerOptions()
	if err != nil {
		return nil, err
	}
	if clip != "" {
		opts.Clips = []string{clip}
	}
	return player.New(m.Graph, m.Clips, opts)
}

func cmdInfo(_ *config.Config, args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: posetool info <model>")
		return errUsage
	}

	m, err := loadModel(args[0])
	if err != nil {
		return err
	}
	printSummary(m)

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Hierarchy:")
	printTree(m.Graph, m.Graph.Root, 1)

	if len(m.Graph.Skins) > 0 {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Skins:")
		for i, s := range m.Graph.Skins {
			names := make([]string, len(s.Joints))
			for j, n := range s.Joints {
				names[j] = m.Graph.Nodes[n].Name
			}
			fmt.Fprintf(stdout, "  [%d] %-16s %d joints: %s\n", i, s.Name, len(s.Joints), strings.Join(names, ", "))
		}
	}

	if len(m.Clips) > 0 {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Clips:")
		for _, c := range m.Clips {
			fmt.Fprintf(stdout, "  %-20s %3d channels  %.3fs..%.3fs  (duration %.3fs)\n",
				c.Name, len(c.Channels), c.Start, c.End, c.Duration)
		}
	}
	return nil
}

func printSummary(m *model.Model) {
	fmt.Fprintf(stdout, "Model:   %s\n", m.Name)
	fmt.Fprintf(stdout, "Nodes:   %d (root %q)\n", m.Graph.Len(), m.Graph.Nodes[m.Graph.Root].Name)
	fmt.Fprintf(stdout, "Meshes:  %d\n", len(m.Graph.Meshes))
	fmt.Fprintf(stdout, "Skins:   %d\n", len(m.Graph.Skins))
	fmt.Fprintf(stdout, "Clips:   %d\n", len(m.Clips))
	if m.Skipped > 0 {
		fmt.Fprintf(stdout, "Skipped: %d channels\n", m.Skipped)
	}
	fmt.Fprintf(stdout, "Bounds:  %s\n", m.Bounds)
}

func printTree(g *scene.Graph, n, depth int) {
	node := &g.Nodes[n]
	var tags []string
	if node.HasMesh() {
		tags = append(tags, fmt.Sprintf("mesh=%d", node.Mesh))
	}
	if node.Skin >= 0 {
		tags = append(tags, fmt.Sprintf("skin=%d", node.Skin))
	}
	suffix := ""
	if len(tags) > 0 {
		suffix = " [" + strings.Join(tags, " ") + "]"
	}
	fmt.Fprintf(stdout, "%s%d %s%s\n", strings.Repeat("  ", depth), n, node.Name, suffix)
	for _, c := range node.Children {
		printTree(g, c, depth+1)
	}
}

func cmdPose(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("pose", flag.ExitOnError)
	at := fs.Float64("t", 0, "Time in seconds")
	clip := fs.String("clip", "", "Play only this clip")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: posetool pose [-t sec] [-clip name] <model>")
		return errUsage
	}

	m, err := loadModel(fs.Arg(0))
	if err != nil {
		return err
	}
	p, err := newPlayer(cfg, m, *clip)
	if err != nil {
		return err
	}

	p.Seek(float32(*at))
	p.Evaluate()

	fmt.Fprintf(stdout, "Pose at t=%.3fs (clips: %s)\n", *at, strings.Join(p.Clips(), ", "))
	for _, ms := range p.Meshes() {
		fmt.Fprintf(stdout, "\n%s (node %d, mesh %d)\n", m.Graph.Nodes[ms.Node].Name, ms.Node, ms.Mesh)
		fmt.Fprintln(stdout, "  world:")
		printMat(ms.World, "    ")
		skin, _ := m.Graph.SkinOf(ms.Node)
		for i, j := range ms.Joints {
			fmt.Fprintf(stdout, "  joint %d (%s):\n", i, m.Graph.Nodes[skin.Joints[i]].Name)
			printMat(j, "    ")
		}
	}
	fmt.Fprintf(stdout, "\nBounds: %s\n", p.Bounds())
	return nil
}

// printMat prints m row by row.
func printMat(m math.Mat4, indent string) {
	for r := 0; r < 4; r++ {
		fmt.Fprintf(stdout, "%s[%9.4f %9.4f %9.4f %9.4f]\n", indent, m[r], m[4+r], m[8+r], m[12+r])
	}
}

func cmdSimulate(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	duration := fs.String("duration", "", "Simulated time (e.g. 2s, 1.5)")
	every := fs.Int("every", 0, "Print every N frames (0 = about ten lines)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: posetool simulate [-duration d] [-every n] <model>")
		return errUsage
	}
	if *duration != "" {
		if err := cfg.Simulation.Duration.UnmarshalText([]byte(*duration)); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	m, err := loadModel(fs.Arg(0))
	if err != nil {
		return err
	}
	p, err := newPlayer(cfg, m, "")
	if err != nil {
		return err
	}

	frames, step := cfg.Frames(), cfg.FrameStep()
	if *every <= 0 {
		*every = max(frames/10, 1)
	}

	fmt.Fprintf(stdout, "Simulating %d frames at %d fps, mode %s\n", frames, cfg.Simulation.FrameRate, p.Mode())
	var total bounds.AABB
	start := time.Now()
	for f := 0; f <= frames; f++ {
		if f > 0 {
			p.Advance(step)
		}
		p.Evaluate()
		box := p.Bounds()
		total.Merge(box)

		done := p.State() == player.Finished
		if f%*every == 0 || f == frames || done {
			fmt.Fprintf(stdout, "  frame %4d  t=%7.3f  loops=%d  %-8s %s\n", f, p.Time(), p.Loops(), p.State(), box)
		}
		if done {
			break
		}
	}
	elapsed := time.Since(start)

	fmt.Fprintf(stdout, "Swept bounds: %s\n", total)
	fmt.Fprintf(stdout, "Elapsed:      %v\n", elapsed)
	return nil
}

func cmdBounds(_ *config.Config, args []string) error {
	fs := flag.NewFlagSet("bounds", flag.ExitOnError)
	wire := fs.Bool("wireframe", false, "Print the padded line-list wireframe instead of faces")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: posetool bounds [-wireframe] <model>")
		return errUsage
	}

	m, err := loadModel(fs.Arg(0))
	if err != nil {
		return err
	}
	if m.Bounds.Empty() {
		fmt.Fprintln(stdout, "Model has no mesh vertices")
		return nil
	}

	fmt.Fprintf(stdout, "Min:    %v\n", m.Bounds.Min())
	fmt.Fprintf(stdout, "Max:    %v\n", m.Bounds.Max())
	fmt.Fprintf(stdout, "Center: %v\n", m.Bounds.Center())
	fmt.Fprintf(stdout, "Size:   %v\n", m.Bounds.Size())
	fmt.Fprintln(stdout)

	if *wire {
		v := m.Bounds.Wireframe(bounds.DefaultPadding)
		for i := 0; i+5 < len(v); i += 6 {
			fmt.Fprintf(stdout, "  line (%.3f, %.3f, %.3f) -> (%.3f, %.3f, %.3f)\n", v[i], v[i+1], v[i+2], v[i+3], v[i+4], v[i+5])
		}
		return nil
	}

	faces := []string{"left", "right", "top", "bottom", "back", "front"}
	v := m.Bounds.Vertices()
	for f, name := range faces {
		fmt.Fprintf(stdout, "  %-7s", name)
		for k := 0; k < 4; k++ {
			o := f*12 + k*3
			fmt.Fprintf(stdout, " (%.3f, %.3f, %.3f)", v[o], v[o+1], v[o+2])
		}
		fmt.Fprintln(stdout)
	}
	return nil
}

func cmdCrowd(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("crowd", flag.ExitOnError)
	n := fs.Int("n", cfg.Crowd.Players, "Number of players")
	frames := fs.Int("frames", cfg.Frames(), "Frames to step")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: posetool crowd [-n players] [-frames n] <model>")
		return errUsage
	}
	if *n <= 0 || *frames <= 0 {
		return fmt.Errorf("players and frames must be positive")
	}

	m, err := loadModel(fs.Arg(0))
	if err != nil {
		return err
	}

	players := make([]*player.Player, *n)
	for i := range players {
		if players[i], err = newPlayer(cfg, m, ""); err != nil {
			return err
		}
		// Stagger the players so they do not all hit the same keyframes.
		players[i].Seek(float32(i) * cfg.FrameStep())
	}

	crowd := player.NewCrowd(players, cfg.Crowd.Workers)
	step := cfg.FrameStep()

	start := time.Now()
	stepped := 0
	for stepped < *frames && !crowd.Finished() {
		crowd.Step(step)
		stepped++
	}
	elapsed := time.Since(start)

	evals := float64(stepped * *n)
	fmt.Fprintf(stdout, "Players:     %d\n", *n)
	fmt.Fprintf(stdout, "Workers:     %d\n", crowd.Workers())
	fmt.Fprintf(stdout, "Frames:      %d\n", stepped)
	fmt.Fprintf(stdout, "Elapsed:     %v\n", elapsed)
	if elapsed > 0 {
		fmt.Fprintf(stdout, "Evaluations: %.0f/s\n", evals/elapsed.Seconds())
	}
	return nil
}

func cmdWatch(_ *config.Config, args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: posetool watch <model>")
		return errUsage
	}
	path := args[0]

	if m, err := loadModel(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	} else {
		printSummary(m)
	}

	w, err := watch.New(path, 0)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("watching for changes", zap.String("path", w.Path()))
	return w.Run(ctx, func(p string) error {
		// A same-size rewrite inside the mtime granularity looks unchanged
		// to the cache, so a change event always forces a reload.
		models.Invalidate(p)
		m, err := loadModel(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\n--- reloaded at %s ---\n", time.Now().Format(time.TimeOnly))
		printSummary(m)
		return nil
	})
}
