package fleet

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Fan-out defaults.
const (
	// defaultQueryTimeout bounds each individual device status query.
	defaultQueryTimeout = 10 * time.Second

	// defaultMaxWorkers caps concurrent device queries during fan-out.
	defaultMaxWorkers = 20

	// fanoutGrace is added to the per-device timeout to form the overall
	// ceiling a fleet-wide query may block the caller for.
	fanoutGrace = 5 * time.Second
)

// SiteUnassigned is the grouping key for printers registered without a site.
const SiteUnassigned = "unassigned"

// Registry is the authoritative name→adapter mapping for the printer fleet.
//
// The map mutex is held only long enough to snapshot the fleet; all adapter
// I/O happens outside it on the snapshot, so one slow printer can never block
// registration or lookup of the others. Fleet-wide queries degrade per device:
// a printer whose query fails, panics, or times out is reported as offline
// rather than aborting the query.
//
// All public methods are thread-safe.
type Registry struct {
	mu       sync.Mutex
	adapters map[string]Adapter
	meta     map[string]*Metadata

	// Per-device advisory mutexes for multi-step exclusive operations
	// (upload-then-start and the like). Nothing in the registry itself
	// enforces their use, and they do not synchronise with the optimistic
	// state lock.
	devMu map[string]*sync.Mutex

	queryTimeout time.Duration
	maxWorkers   int

	logger Logger
}

// NewRegistry creates an empty printer registry with default fan-out limits.
func NewRegistry() *Registry {
	return &Registry{
		adapters:     make(map[string]Adapter),
		meta:         make(map[string]*Metadata),
		devMu:        make(map[string]*sync.Mutex),
		queryTimeout: defaultQueryTimeout,
		maxWorkers:   defaultMaxWorkers,
		logger:       noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetQueryTimeout overrides the per-device status query timeout.
// Non-positive values are ignored.
func (r *Registry) SetQueryTimeout(d time.Duration) {
	if d > 0 {
		r.queryTimeout = d
	}
}

// SetMaxWorkers overrides the fan-out worker cap. Values below 1 are ignored.
func (r *Registry) SetMaxWorkers(n int) {
	if n >= 1 {
		r.maxWorkers = n
	}
}

// Register adds a printer to the fleet, replacing any existing registration
// under the same name. It always succeeds; a replacement is logged.
// Site and tags are optional and may be zero.
func (r *Registry) Register(name string, adapter Adapter, site string, tags map[string]string) {
	meta := &Metadata{
		Site:         site,
		Tags:         tags,
		RegisteredAt: time.Now().UTC(),
	}

	r.mu.Lock()
	_, replaced := r.adapters[name]
	r.adapters[name] = adapter
	r.meta[name] = meta.DeepCopy()
	if _, ok := r.devMu[name]; !ok {
		r.devMu[name] = &sync.Mutex{}
	}
	r.mu.Unlock()

	if replaced {
		r.logger.Info("printer registration replaced", "name", name, "backend", adapter.Backend())
	} else {
		r.logger.Info("printer registered", "name", name, "backend", adapter.Backend(), "site", site)
	}
}

// Unregister removes a printer and its metadata from the fleet.
// Returns ErrDeviceNotFound if the name is not registered.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.adapters[name]; !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	delete(r.adapters, name)
	delete(r.meta, name)
	delete(r.devMu, name)

	r.logger.Info("printer unregistered", "name", name)
	return nil
}

// Get retrieves the adapter registered under name.
// Returns ErrDeviceNotFound if the name is not registered.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	adapter, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	return adapter, nil
}

// ListNames returns the registered printer names, sorted for deterministic
// diagnostics.
func (r *Registry) ListNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListAll returns a snapshot copy of the name→adapter map.
// Mutating the returned map does not affect the registry.
func (r *Registry) ListAll() map[string]Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make(map[string]Adapter, len(r.adapters))
	for name, adapter := range r.adapters {
		all[name] = adapter
	}
	return all
}

// Count returns the number of registered printers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.adapters)
}

// Metadata retrieves a copy of the registry-owned metadata for a printer.
// Returns ErrDeviceNotFound if the name is not registered.
func (r *Registry) Metadata(name string) (*Metadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta, ok := r.meta[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	return meta.DeepCopy(), nil
}

// UpdateMetadata applies a partial metadata update: a nil site leaves the
// site unchanged, nil tags leave the tags unchanged.
// Returns ErrDeviceNotFound if the name is not registered.
func (r *Registry) UpdateMetadata(name string, site *string, tags map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta, ok := r.meta[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}

	if site != nil {
		meta.Site = *site
	}
	if tags != nil {
		cpy := make(map[string]string, len(tags))
		for k, v := range tags {
			cpy[k] = v
		}
		meta.Tags = cpy
	}

	r.logger.Debug("printer metadata updated", "name", name)
	return nil
}

// DeviceMutex returns the dedicated mutex for a printer, creating it if
// needed. Callers performing multi-step exclusive operations (upload then
// start, for example) lock it around the whole sequence. It is advisory only.
// Returns ErrDeviceNotFound if the name is not registered.
func (r *Registry) DeviceMutex(name string) (*sync.Mutex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.adapters[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}

	mu, ok := r.devMu[name]
	if !ok {
		mu = &sync.Mutex{}
		r.devMu[name] = mu
	}
	return mu, nil
}
