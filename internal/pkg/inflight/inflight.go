// Package inflight rejects a second start of an action that is still running.
package inflight

import (
	"errors"
	"sort"
	"sync"
)

var ErrBusy = errors.New("action already in progress")

type Guard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func New() *Guard {
	return &Guard{running: make(map[string]struct{})}
}

// Acquire marks key as running. The returned release must be called once
// the action has finished; it is safe to call more than once.
func (g *Guard) Acquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.running[key]; ok {
		return nil, ErrBusy
	}

	g.running[key] = struct{}{}

	var once sync.Once

	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, key)
			g.mu.Unlock()
		})
	}, nil
}

// Running lists the keys currently held, sorted.
func (g *Guard) Running() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	keys := make([]string, 0, len(g.running))
	for k := range g.running {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
