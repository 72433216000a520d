package statelock

import "context"

// With runs fn while holding a claim on the device: acquire on entry,
// release on exit.
//
// If the release turns out stale because another caller acquired in the
// interim, the Lock logs a warning and nothing more — fn's own error (or
// nil) always propagates unobstructed. This mirrors the optimistic
// semantics of the lock itself: the conflict is reported, not raised.
func (l *Lock) With(ctx context.Context, deviceID, owner string, fn func(rec StateVersion) error) error {
	rec := l.Acquire(ctx, deviceID, owner)
	defer l.Release(ctx, deviceID, rec.Version)
	return fn(rec)
}
