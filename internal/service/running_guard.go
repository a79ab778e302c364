package service

import (
	"context"
	"sort"
	"sync"
)

// ExportedRunningGuard lets service_test exercise the guard directly.
type ExportedRunningGuard = runningJobsGuard

// ── runningJobsGuard ────────────────────────────────────────

// runningJobsGuard lets at most one export per destination run at a time and
// lets shutdown wait for the ones in flight.
type runningJobsGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock claims id. It reports false when id is already running.
func (g *runningJobsGuard) TryLock(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, busy := g.running[id]; busy {
		return false
	}
	g.running[id] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases an id claimed by a successful TryLock.
func (g *runningJobsGuard) Unlock(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.running[id]; !ok {
		return
	}
	delete(g.running, id)
	g.wg.Done()
}

// Running lists the claimed ids in sorted order.
func (g *runningJobsGuard) Running() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.running))
	for id := range g.running {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WaitAll blocks until nothing is running or ctx is done.
func (g *runningJobsGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
