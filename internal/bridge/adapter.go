package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/codeofaxel/Kiln-sub005/internal/fleet"
)

// stateReport is the JSON body an agent publishes on its state topic.
// Capabilities may be omitted on refresh reports; the last supplied
// descriptor is kept.
type stateReport struct {
	Backend string            `json:"backend,omitempty"`
	Site    string            `json:"site,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`

	Status       fleet.Status        `json:"status"`
	Capabilities *fleet.Capabilities `json:"capabilities,omitempty"`
}

// agentAdapter is a fleet adapter backed by bus reports instead of a wire
// protocol. State answers from the cached report and degrades to offline
// once the agent goes quiet for longer than staleAfter.
type agentAdapter struct {
	backend    string
	staleAfter time.Duration

	mu       sync.RWMutex
	status   fleet.Status
	caps     fleet.Capabilities
	lastSeen time.Time
}

func newAgentAdapter(backend string, staleAfter time.Duration) *agentAdapter {
	if backend == "" {
		backend = "agent"
	}
	return &agentAdapter{
		backend:    backend,
		staleAfter: staleAfter,
	}
}

// update refreshes the cached report.
func (a *agentAdapter) update(rep stateReport) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.status = rep.Status
	if rep.Capabilities != nil {
		a.caps = *rep.Capabilities
	}
	a.lastSeen = time.Now()
}

// Backend returns the driver identifier the agent announced.
func (a *agentAdapter) Backend() string {
	return a.backend
}

// State returns the last reported status, or an offline snapshot when the
// agent has not reported within the freshness window.
func (a *agentAdapter) State(_ context.Context) (fleet.Status, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if time.Since(a.lastSeen) > a.staleAfter {
		return fleet.Status{Connected: false, State: fleet.StateOffline}, nil
	}
	return a.status, nil
}

// Capabilities returns the last announced hardware descriptor.
func (a *agentAdapter) Capabilities() fleet.Capabilities {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.caps
}
