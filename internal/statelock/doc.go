// Package statelock provides optimistic conflict detection for printer
// control.
//
// Multiple callers may try to drive the same physical printer. Rather than
// blocking them against each other, the lock hands out strictly increasing
// per-device version numbers: a caller acquires a version before mutating a
// printer and releases it afterwards. If someone else acquired in between,
// the release reports stale and the caller knows its view of the printer is
// outdated.
//
// # Semantics
//
//   - Acquire always succeeds; it is detection, not exclusion.
//   - Release succeeds only while the caller's version is still current.
//     A stale release is logged and ignored, never raised.
//   - Check is a read-only equality test.
//   - ForceRelease is the admin override for stuck claims.
//
// This is deliberate: pairing the optimistic lock with blocking exclusion
// would reintroduce the stalls it exists to avoid. For "don't interleave
// these steps on this printer", use the registry's per-device mutex; the two
// mechanisms are orthogonal and do not synchronise with each other.
//
// # Durability
//
// With a Store configured, every record is mirrored to the kv_store table
// and rehydrated on startup, so in-flight claims survive a restart:
//
//	lock := statelock.New()
//	lock.SetLogger(log)
//	lock.SetStore(statelock.NewSQLiteStore(db.DB))
//	if err := lock.Restore(ctx); err != nil {
//	    return err
//	}
//
//	rec := lock.Acquire(ctx, "voron-01", "job-runner")
//	// ... drive the printer ...
//	if !lock.Release(ctx, "voron-01", rec.Version) {
//	    // someone else touched the printer since we acquired
//	}
package statelock
