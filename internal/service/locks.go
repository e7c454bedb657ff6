package service

import "sync"

// PathLocks hands out one mutex per working-copy path so that no two
// clone/checkout sequences ever run concurrently against the same
// directory. Entries are created lazily and never removed.
type PathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPathLocks creates an empty lock manager.
func NewPathLocks() *PathLocks {
	return &PathLocks{locks: make(map[string]*sync.Mutex)}
}

// Get returns the mutex guarding path.
func (l *PathLocks) Get(path string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[path]
	if !ok {
		m = &sync.Mutex{}
		l.locks[path] = m
	}
	return m
}
