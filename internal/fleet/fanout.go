package fleet

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// target is one printer captured in a fan-out snapshot.
type target struct {
	name    string
	adapter Adapter
	site    string
}

// FleetStatus queries every registered printer in parallel and returns one
// entry per printer. A printer whose query fails, panics, or exceeds the
// per-device timeout is reported with Connected=false and StateOffline; the
// call itself never fails because of one bad printer.
//
// The call blocks the caller for at most queryTimeout+5s regardless of
// individual printer speed. Entry order follows worker completion and is
// not deterministic.
func (r *Registry) FleetStatus(ctx context.Context) []StatusEntry {
	return r.fanout(ctx, r.snapshot())
}

// IdlePrinters returns status entries for printers currently connected and
// idle. A failed query counts as not idle.
func (r *Registry) IdlePrinters(ctx context.Context) []StatusEntry {
	var idle []StatusEntry
	for _, entry := range r.fanout(ctx, r.snapshot()) {
		if entry.Connected && entry.State == StateIdle {
			idle = append(idle, entry)
		}
	}
	return idle
}

// PrintersByStatus returns status entries for printers reporting the given
// state. A failed query is semantically equivalent to being offline, so it
// matches StateOffline and nothing else.
func (r *Registry) PrintersByStatus(ctx context.Context, state State) []StatusEntry {
	var matched []StatusEntry
	for _, entry := range r.fanout(ctx, r.snapshot()) {
		if entry.State == state {
			matched = append(matched, entry)
		}
	}
	return matched
}

// FleetStatusBySite groups a fleet status snapshot by site. Printers
// registered without a site are grouped under SiteUnassigned.
func (r *Registry) FleetStatusBySite(ctx context.Context) map[string][]StatusEntry {
	grouped := make(map[string][]StatusEntry)
	for _, entry := range r.fanout(ctx, r.snapshot()) {
		site := entry.Site
		if site == "" {
			site = SiteUnassigned
		}
		grouped[site] = append(grouped[site], entry)
	}
	return grouped
}

// snapshot copies the fleet under the map lock. All adapter I/O happens on
// the returned slice after the lock is released.
func (r *Registry) snapshot() []target {
	r.mu.Lock()
	defer r.mu.Unlock()

	targets := make([]target, 0, len(r.adapters))
	for name, adapter := range r.adapters {
		t := target{name: name, adapter: adapter}
		if meta, ok := r.meta[name]; ok {
			t.site = meta.Site
		}
		targets = append(targets, t)
	}
	return targets
}

// fanout runs the status query over targets with a bounded worker pool.
// Workers own all adapter I/O; the calling goroutine only waits, bounded by
// the overall ceiling. Targets that never produced a result by then (slow
// adapters, or queued behind them) are filled in as offline.
func (r *Registry) fanout(ctx context.Context, targets []target) []StatusEntry {
	n := len(targets)
	if n == 0 {
		return nil
	}

	workers := n
	if workers > r.maxWorkers {
		workers = r.maxWorkers
	}

	var resMu sync.Mutex
	results := make(map[string]StatusEntry, n)

	jobs := make(chan target)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				entry := r.queryOne(ctx, t)
				resMu.Lock()
				results[t.name] = entry
				resMu.Unlock()
			}
		}()
	}

	go func() {
		for _, t := range targets {
			jobs <- t
		}
		close(jobs)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	ceiling := r.queryTimeout + fanoutGrace
	select {
	case <-done:
	case <-time.After(ceiling):
		r.logger.Warn("fleet query exceeded overall ceiling", "ceiling", ceiling, "printers", n)
	case <-ctx.Done():
	}

	resMu.Lock()
	defer resMu.Unlock()

	entries := make([]StatusEntry, 0, n)
	for _, t := range targets {
		entry, ok := results[t.name]
		if !ok {
			entry = offlineEntry(t)
		}
		entries = append(entries, entry)
	}
	return entries
}

// queryOne queries a single printer, converting any failure into a degraded
// offline entry at this boundary.
func (r *Registry) queryOne(ctx context.Context, t target) StatusEntry {
	status, err := r.queryState(ctx, t.adapter)
	if err != nil {
		r.logger.Debug("printer status query failed", "name", t.name, "error", err)
		return offlineEntry(t)
	}

	return StatusEntry{
		Name:           t.name,
		Backend:        t.adapter.Backend(),
		Site:           t.site,
		Connected:      status.Connected,
		State:          status.State,
		ToolTempActual: status.ToolTempActual,
		ToolTempTarget: status.ToolTempTarget,
		BedTempActual:  status.BedTempActual,
		BedTempTarget:  status.BedTempTarget,
	}
}

// queryState calls the adapter's state query with the per-device timeout.
// The query runs in its own goroutine so a non-cooperative adapter cannot
// hold a fan-out worker past the timeout; panics are recovered and reported
// as errors.
func (r *Registry) queryState(parent context.Context, adapter Adapter) (Status, error) {
	ctx, cancel := context.WithTimeout(parent, r.queryTimeout)
	defer cancel()

	type result struct {
		status Status
		err    error
	}
	ch := make(chan result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- result{err: fmt.Errorf("adapter panicked: %v", p)}
			}
		}()
		status, err := adapter.State(ctx)
		ch <- result{status: status, err: err}
	}()

	select {
	case res := <-ch:
		return res.status, res.err
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// offlineEntry synthesises the degraded entry for an unreachable printer.
func offlineEntry(t target) StatusEntry {
	return StatusEntry{
		Name:      t.name,
		Backend:   t.adapter.Backend(),
		Site:      t.site,
		Connected: false,
		State:     StateOffline,
	}
}
