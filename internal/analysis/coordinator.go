package analysis

import (
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Line is one aggregated candidate line for the analyzed position.
type Line struct {
	RootMove  string
	Score     int      // centipawns from the analyzed side's perspective
	Moves     []string // SAN continuation starting with RootMove
	Color     string
	PlanCount int
	Depth     int
}

// Stats accompanies every emission.
type Stats struct {
	Nodes   int64
	NPS     int64
	Elapsed float64 // seconds
	Tasks   int     // settled so far
	Total   int     // dispatched plan count
	Final   bool
}

// Config configures a Coordinator.
type Config struct {
	WorkerCount int
	MaxPlans    int
	MaxDepth    int
	OnUpdate    func([]Line, Stats)
}

// Coordinator dispatches a position's plan set across a worker pool and
// rebuilds the ranked line list on every task completion. The result map is
// only ever mutated under the coordinator's own lock; workers share nothing.
type Coordinator struct {
	cfg Config

	mu      sync.Mutex
	pool    *Pool
	plans   []Task
	results map[string]Result
	nodes   int64
	started time.Time
}

// NewCoordinator validates the config and returns an idle coordinator.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.MaxPlans < 1 {
		cfg.MaxPlans = 1
	}
	if cfg.MaxDepth < 1 {
		cfg.MaxDepth = 1
	}
	return &Coordinator{cfg: cfg}
}

// Start analyzes one position, blocking until every dispatched task has
// settled. Each completion triggers an OnUpdate emission; exactly one final
// emission carries Final=true. A prior run is stopped first. Task results
// arriving after Stop are discarded.
func (c *Coordinator) Start(fen string) error {
	c.Stop()

	plans, err := GeneratePlans(fen, c.cfg.MaxPlans, c.cfg.MaxDepth)
	if err != nil {
		return err
	}

	pool := NewPool(c.cfg.WorkerCount, len(plans))
	c.mu.Lock()
	c.pool = pool
	c.plans = plans
	c.results = make(map[string]Result, len(plans))
	c.nodes = 0
	c.started = time.Now()
	c.mu.Unlock()

	var g errgroup.Group
	for _, t := range plans {
		fut := pool.Dispatch(t) // dispatch order = plan order
		t := t
		g.Go(func() error {
			res := <-fut
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.pool != pool {
				return nil // stopped; discard the late result
			}
			c.results[t.TaskID] = res
			if res.Err != nil {
				log.Printf("analysis: task %s failed: %v", t.TaskID, res.Err)
			} else {
				c.nodes += res.Nodes
			}
			c.emitLocked(false)
			return nil
		})
	}
	g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool == pool {
		c.emitLocked(true)
		c.pool = nil
	}
	pool.Terminate()
	return nil
}

// Stop terminates the current run, if any, and marks the coordinator idle.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	pool := c.pool
	c.pool = nil
	c.mu.Unlock()
	if pool != nil {
		pool.Terminate()
	}
}

func (c *Coordinator) emitLocked(final bool) {
	if c.cfg.OnUpdate == nil {
		return
	}
	lines := c.linesLocked()
	elapsed := time.Since(c.started).Seconds()
	var nps int64
	if elapsed > 0 {
		nps = int64(math.Round(float64(c.nodes) / elapsed))
	}
	c.cfg.OnUpdate(lines, Stats{
		Nodes:   c.nodes,
		NPS:     nps,
		Elapsed: elapsed,
		Tasks:   len(c.results),
		Total:   len(c.plans),
		Final:   final,
	})
}

// linesLocked rebuilds the ranking from scratch: the root task seeds one
// line per multi-PV move, then every settled derivative task refines or
// creates the line for its root move. Child scores are normalized to the
// analyzed side's perspective by negating when the moves prefix is odd.
func (c *Coordinator) linesLocked() []Line {
	var lines []*Line
	byRoot := make(map[string]*Line)
	colorIdx := 0
	nextColor := func() string {
		col := Palette[colorIdx%len(Palette)]
		colorIdx++
		return col
	}

	if root, ok := c.results["root"]; ok && root.Err == nil {
		for _, ms := range root.Lines {
			ln := &Line{
				RootMove: ms.Move.SAN,
				Score:    ms.Score,
				Moves:    []string{ms.Move.SAN},
				Color:    nextColor(),
				Depth:    c.cfg.MaxDepth,
			}
			lines = append(lines, ln)
			byRoot[ln.RootMove] = ln
		}
	}

	for _, t := range c.plans {
		if t.TaskID == "root" {
			continue
		}
		res, ok := c.results[t.TaskID]
		if !ok || res.Err != nil || len(res.Lines) == 0 {
			continue
		}
		best := res.Lines[0]
		score := best.Score
		if len(t.Moves)%2 == 1 {
			score = -score
		}

		ln, ok := byRoot[t.RootMove]
		if !ok {
			ln = &Line{
				RootMove: t.RootMove,
				Score:    score,
				Moves:    appendSAN(t.Moves, best.Move.SAN),
				Color:    nextColor(),
				Depth:    t.Depth,
			}
			lines = append(lines, ln)
			byRoot[t.RootMove] = ln
		} else if len(t.Moves)+1 > len(ln.Moves) {
			ln.Moves = appendSAN(t.Moves, best.Move.SAN)
		}
		ln.PlanCount++
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Score > lines[j].Score })
	out := make([]Line, len(lines))
	for i, ln := range lines {
		out[i] = *ln
	}
	return out
}

func appendSAN(prefix []string, san string) []string {
	out := make([]string, 0, len(prefix)+1)
	out = append(out, prefix...)
	return append(out, san)
}
