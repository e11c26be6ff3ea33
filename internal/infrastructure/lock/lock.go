// Package lock serialises writers of the upload slot, either within one
// process or across processes sharing a Redis instance.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAcquired is returned when the context ends before the lock is free
var ErrNotAcquired = errors.New("lock not acquired")

// Locker grants exclusive access to the upload slot
type Locker interface {
	// Lock blocks until the lock is held or ctx is done. The returned
	// function releases it and is safe to call more than once.
	Lock(ctx context.Context) (unlock func(), err error)
}

// LocalLocker is an in-process Locker
type LocalLocker struct {
	sem chan struct{}
}

// NewLocalLocker creates an unlocked LocalLocker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sem: make(chan struct{}, 1)}
}

// Lock implements Locker
func (l *LocalLocker) Lock(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-l.sem })
	}, nil
}
