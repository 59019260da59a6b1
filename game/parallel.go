package game

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/neural"
)

// defaultParallelThreshold is the minimum number of deciding agents to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const defaultParallelThreshold = 64

// decisionSnapshot captures what a worker needs to run one agent's decision.
// Perception and Policy belong to the agent alone, so workers never share writes.
type decisionSnapshot struct {
	Entity     ecs.Entity
	LiveIndex  int
	Species    components.Species
	Pos        components.Coord
	Perception *components.Perception
	Policy     neural.Policy
}

// decision is the action chosen for the agent at the same live index.
type decision struct {
	Action neural.Action
	Valid  bool
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	Deltas []float32
}

// workChunk represents a range of snapshots for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for the parallel decision phase.
type parallelState struct {
	snapshots  []decisionSnapshot
	decisions  []decision
	scratches  []workerScratch
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(workers, threshold, rings int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	scratches := make([]workerScratch, workers)
	for i := range scratches {
		scratches[i].Deltas = make([]float32, 0, rings)
	}
	return &parallelState{
		numWorkers: workers,
		threshold:  threshold,
		scratches:  scratches,
		snapshots:  make([]decisionSnapshot, 0, 512),
		decisions:  make([]decision, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(g *Game) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(g, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(g *Game, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.computeChunk(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// decideAll runs perception and policy decisions for every agent whose cadence fires this tick.
// All reads go against the occupancy built at the end of the previous tick.
func (g *Game) decideAll() {
	p := g.parallel

	// Phase A: build snapshots (single-threaded, live order)
	p.snapshots = p.snapshots[:0]
	if cap(p.decisions) < len(g.live) {
		p.decisions = make([]decision, len(g.live))
	}
	p.decisions = p.decisions[:len(g.live)]
	clear(p.decisions)

	for i, e := range g.live {
		id := g.idMap.Get(e)
		if !id.Species.HasPolicy() {
			continue
		}
		lc := g.lcMap.Get(e)
		if lc.Dead() || lc.Clock%g.tables[id.Species].Cadence != 0 {
			continue
		}
		mind := g.mindMap.Get(e)
		if mind.Policy == nil {
			continue
		}
		p.snapshots = append(p.snapshots, decisionSnapshot{
			Entity:     e,
			LiveIndex:  i,
			Species:    id.Species,
			Pos:        g.posMap.Get(e).Coord,
			Perception: g.percMap.Get(e),
			Policy:     mind.Policy,
		})
	}

	n := len(p.snapshots)
	if n == 0 {
		return
	}

	// Phase B: compute, single or parallel based on agent count
	if n < p.threshold || p.numWorkers == 1 {
		g.computeChunk(0, n, &p.scratches[0])
		return
	}
	g.computeParallel(n)
}

// computeParallel dispatches work to the worker pool.
func (g *Game) computeParallel(n int) {
	if !g.parallel.running {
		g.parallel.startWorkers(g)
	}

	numWorkers := g.parallel.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		g.parallel.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-g.parallel.doneChan
	}
}

// computeChunk processes a range of snapshots for a single worker.
func (g *Game) computeChunk(i0, i1 int, scratch *workerScratch) {
	w, h := g.cfg.World.Width, g.cfg.World.Height

	for i := i0; i < i1; i++ {
		snap := &g.parallel.snapshots[i]

		deltas, ok := g.encoder.Perceive(snap.Perception, scratch.Deltas, snap.Pos, snap.Species, g.occ, w, h)
		if ok {
			snap.Policy.AccumulateReward(deltas)
		}
		g.parallel.decisions[snap.LiveIndex] = decision{
			Action: snap.Policy.Decide(snap.Perception.Observation),
			Valid:  true,
		}
	}
}

// stopParallelWorkers should be called when shutting down the game.
func (g *Game) stopParallelWorkers() {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
}
