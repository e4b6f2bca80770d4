package service

import (
	"context"
	"sync"
)

// keyLocker hands out one lock per key and frees it once no goroutine holds
// or waits for it.
type keyLocker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

// refLock is a one-slot channel so waiters can give up on ctx.Done().
type refLock struct {
	ch   chan struct{}
	refs int
}

func newKeyLocker() *keyLocker {
	return &keyLocker{locks: make(map[string]*refLock)}
}

// Lock blocks until the lock for key is held or ctx is done. On success it
// returns the release func; otherwise ctx.Err().
func (k *keyLocker) Lock(ctx context.Context, key string) (unlock func(), err error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}

	return func() {
		<-l.ch
		k.release(key, l)
	}, nil
}

func (k *keyLocker) release(key string, l *refLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyLocker) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
