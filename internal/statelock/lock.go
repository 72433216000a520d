package statelock

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Lock.
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

// StateVersion is one live claim on a device. Versions are strictly
// monotonic per device for the lifetime of the record.
type StateVersion struct {
	DeviceID  string    `json:"device_id"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// EventSink receives lock lifecycle events for publication to a bus.
// Implementations must not block; the Lock works fine without one.
type EventSink interface {
	LockAcquired(rec StateVersion)
	LockReleased(deviceID string, version uint64, forced bool)
}

// Lock detects conflicting concurrent control of printers via per-device
// version counters.
//
// Acquire never blocks and never fails: it is optimistic conflict detection,
// not mutual exclusion. A second caller can acquire while a first caller
// still believes it holds an earlier version; the first caller finds out at
// Release or Check time. Callers needing blocking exclusion over a multi-step
// sequence should use the registry's per-device mutex instead.
//
// All operations are O(1) under a single mutex held only for the map
// mutation. All public methods are thread-safe.
type Lock struct {
	mu       sync.Mutex
	versions map[string]StateVersion

	store  Store     // optional durable mirror
	sink   EventSink // optional event publication
	logger Logger
}

// New creates an empty lock table.
func New() *Lock {
	return &Lock{
		versions: make(map[string]StateVersion),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the lock table.
func (l *Lock) SetLogger(logger Logger) {
	l.logger = logger
}

// SetStore configures a durable backend. Every acquire and release is
// mirrored to it while the lock's mutex is held, so the durable record
// order always matches the in-memory order. Restore rehydrates from it on
// startup. Persistence failures are logged and never fail the operation
// itself.
func (l *Lock) SetStore(store Store) {
	l.store = store
}

// SetEventSink configures optional lock event publication.
func (l *Lock) SetEventSink(sink EventSink) {
	l.sink = sink
}

// Acquire claims a device and returns the new version record. It always
// succeeds: the previous version (0 if none) is incremented regardless of
// who held it. A caller holding an older version discovers the conflict
// when its Release or Check reports a mismatch.
func (l *Lock) Acquire(ctx context.Context, deviceID, owner string) StateVersion {
	l.mu.Lock()
	current := l.versions[deviceID].Version
	rec := StateVersion{
		DeviceID:  deviceID,
		Version:   current + 1,
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: owner,
	}
	l.versions[deviceID] = rec
	l.mirrorPut(ctx, rec)
	l.mu.Unlock()

	l.logger.Debug("state lock acquired", "device", deviceID, "version", rec.Version, "owner", owner)

	if l.sink != nil {
		l.sink.LockAcquired(rec)
	}
	return rec
}

// Release removes the claim on a device if version still matches the stored
// record. A stale release (someone else acquired in the interim) logs a
// warning and returns false without mutating state; it is never an error.
func (l *Lock) Release(ctx context.Context, deviceID string, version uint64) bool {
	l.mu.Lock()
	rec, ok := l.versions[deviceID]
	if !ok {
		l.mu.Unlock()
		l.logger.Warn("release of unheld lock ignored",
			"device", deviceID,
			"released_version", version,
		)
		return false
	}
	if rec.Version != version {
		l.mu.Unlock()
		l.logger.Warn("stale lock release ignored",
			"device", deviceID,
			"released_version", version,
			"current_version", rec.Version,
		)
		return false
	}
	delete(l.versions, deviceID)
	l.mirrorDelete(ctx, deviceID)
	l.mu.Unlock()

	l.logger.Debug("state lock released", "device", deviceID, "version", version)

	if l.sink != nil {
		l.sink.LockReleased(deviceID, version, false)
	}
	return true
}

// Check reports whether the stored version for a device still equals
// version. Read-only, no side effects.
func (l *Lock) Check(deviceID string, version uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.versions[deviceID]
	return ok && rec.Version == version
}

// ForceRelease unconditionally removes the claim on a device. It is the
// admin override for stuck locks and returns false only when no record
// exists.
func (l *Lock) ForceRelease(ctx context.Context, deviceID string) bool {
	l.mu.Lock()
	rec, ok := l.versions[deviceID]
	if !ok {
		l.mu.Unlock()
		return false
	}
	delete(l.versions, deviceID)
	l.mirrorDelete(ctx, deviceID)
	l.mu.Unlock()

	l.logger.Info("state lock force-released", "device", deviceID, "version", rec.Version, "owner", rec.UpdatedBy)

	if l.sink != nil {
		l.sink.LockReleased(deviceID, rec.Version, true)
	}
	return true
}

// mirrorPut writes rec to the durable store. Callers must hold l.mu: the
// mutex is what keeps the mirror applying writes in the same order as the
// in-memory table, so a restart can never re-issue a version already
// handed out.
func (l *Lock) mirrorPut(ctx context.Context, rec StateVersion) {
	if l.store == nil {
		return
	}
	if err := l.store.Put(ctx, rec); err != nil {
		l.logger.Warn("persisting lock record failed", "device", rec.DeviceID, "error", err)
	}
}

// mirrorDelete removes a device's record from the durable store.
// Callers must hold l.mu.
func (l *Lock) mirrorDelete(ctx context.Context, deviceID string) {
	if l.store == nil {
		return
	}
	if err := l.store.Delete(ctx, deviceID); err != nil {
		l.logger.Warn("deleting lock record failed", "device", deviceID, "error", err)
	}
}

// Version retrieves the current record for a device, if any.
func (l *Lock) Version(deviceID string) (StateVersion, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.versions[deviceID]
	return rec, ok
}

// List returns all live lock records sorted by device id, for deterministic
// diagnostics.
func (l *Lock) List() []StateVersion {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := make([]StateVersion, 0, len(l.versions))
	for _, rec := range l.versions {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].DeviceID < records[j].DeviceID
	})
	return records
}

// Restore rehydrates the in-memory table from the durable backend so
// in-flight claims survive a process restart. Call once on startup,
// before the lock is shared. No-op without a store.
func (l *Lock) Restore(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	records, err := l.store.List(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	for _, rec := range records {
		l.versions[rec.DeviceID] = rec
	}
	l.mu.Unlock()

	if len(records) > 0 {
		l.logger.Info("state locks restored", "count", len(records))
	}
	return nil
}
