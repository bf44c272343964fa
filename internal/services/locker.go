package services

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// keyedLocker serializes work per key. Entries are dropped once no caller
// holds or waits on them.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: map[string]*keyedLock{}}
}

// Lock blocks until key is free or ctx is done. The returned func releases it.
func (k *keyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{sem: semaphore.NewWeighted(1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		k.release(key, l, false)
		return nil, err
	}
	return func() { k.release(key, l, true) }, nil
}

func (k *keyedLocker) release(key string, l *keyedLock, held bool) {
	if held {
		l.sem.Release(1)
	}
	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}

func (k *keyedLocker) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
