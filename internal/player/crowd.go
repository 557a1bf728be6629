package player

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-pose/internal/logger"
)

// crowdQueueSize bounds the pool's pending task queue.
const crowdQueueSize = 256

// Crowd steps many players in parallel. Each player is touched by exactly one
// worker per frame; the players may share a graph and clips.
type Crowd struct {
	players []*Player
	pool    worker.DynamicWorkerPool
	workers int
	log     *zap.Logger
}

// NewCrowd creates a crowd over players. workers <= 0 selects NumCPU-1.
func NewCrowd(players []*Player, workers int) *Crowd {
	if workers <= 0 {
		workers = max(runtime.NumCPU()-1, 1)
	}
	c := &Crowd{
		players: players,
		pool:    worker.NewDynamicWorkerPool(workers, crowdQueueSize, 1*time.Second),
		workers: workers,
		log:     logger.Named("crowd"),
	}
	c.log.Debug("crowd created", zap.Int("players", len(players)), zap.Int("workers", workers))
	return c
}

// Players returns the players in the crowd.
func (c *Crowd) Players() []*Player {
	return c.players
}

// Workers returns the configured worker count.
func (c *Crowd) Workers() int {
	return c.workers
}

// Step advances and evaluates every player by dt. It returns once every
// player's mesh caches for the frame are written.
func (c *Crowd) Step(dt float32) {
	// The pool has no per-batch wait, so a WaitGroup fences the frame.
	var wg sync.WaitGroup
	for i, p := range c.players {
		wg.Add(1)
		pl := p
		c.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				pl.Advance(dt)
				pl.Evaluate()
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// Finished reports whether every player has finished.
func (c *Crowd) Finished() bool {
	for _, p := range c.players {
		if p.State() != Finished {
			return false
		}
	}
	return len(c.players) > 0
}
