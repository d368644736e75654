package filesystem

import (
	"context"

	"github.com/znsfs/znsfs/pkg/errors"
)

// lockOwnerKey is the context key a caller uses to identify itself to
// Lock/Unlock. Go has no portable way to observe the calling OS thread,
// so lock ownership is tied to an opaque owner token the caller carries
// through its context instead.
type lockOwnerKey struct{}

// WithLockOwner returns a context carrying owner as the identity Lock and
// Unlock use to decide whether a caller holds a given path's lock.
func WithLockOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, lockOwnerKey{}, owner)
}

func lockOwnerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(lockOwnerKey{}).(string)
	return owner
}

// Lock acquires an advisory lock on path, creating an empty file there
// first if none exists yet. It fails LockHeld if a different owner
// already holds it.
func (fs *Filesystem) Lock(ctx context.Context, p string) errors.Status {
	owner := lockOwnerFrom(ctx)
	if owner == "" {
		return errors.StatusOf(errInvalidArgument("Lock requires a caller identity in ctx, see WithLockOwner")).External()
	}

	if !fs.Exists(p) {
		wf, status := fs.NewWritableFile(p)
		if status != errors.StatusOK {
			return status
		}
		_ = wf.Close()
	}

	fs.locksMu.Lock()
	defer fs.locksMu.Unlock()
	if existing, held := fs.locks[p]; held && existing != owner {
		return errors.StatusOf(errLockHeld(p)).External()
	}
	fs.locks[p] = owner
	return errors.StatusOK
}

// Unlock releases path's advisory lock. It only succeeds if the calling
// context's owner token is the one that currently holds it.
func (fs *Filesystem) Unlock(ctx context.Context, p string) errors.Status {
	owner := lockOwnerFrom(ctx)

	fs.locksMu.Lock()
	defer fs.locksMu.Unlock()
	existing, held := fs.locks[p]
	if !held {
		return errors.StatusOf(errPathNotFound(p)).External()
	}
	if existing != owner {
		return errors.StatusOf(errNotLockOwner(p)).External()
	}
	delete(fs.locks, p)
	return errors.StatusOK
}
