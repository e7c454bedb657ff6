package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/arturoeanton/go-gitstat/internal/adapter/store"
	"github.com/arturoeanton/go-gitstat/internal/domain"
	"github.com/redis/go-redis/v9"
)

// newTestStore spins up a miniredis-backed record store.
func newTestStore(t *testing.T) *store.RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return store.NewRedisStoreFromClient(client)
}

// fakeVCS implements port.VCSProvider against plain directories. Clone
// lays down a .git/index marker so the materialization check passes.
type fakeVCS struct {
	mu        sync.Mutex
	cloneErr  error
	checkErr  error
	clones    []string
	checkouts []string
	commits   []domain.Commit
	files     []string

	active     atomic.Int32
	overlapped atomic.Bool
	onCheckout func(ref string)
}

func (f *fakeVCS) enter() {
	if f.active.Add(1) > 1 {
		f.overlapped.Store(true)
	}
}

func (f *fakeVCS) leave() {
	f.active.Add(-1)
}

func (f *fakeVCS) Clone(ctx context.Context, url, branch, dest string) error {
	f.enter()
	defer f.leave()
	if f.cloneErr != nil {
		return f.cloneErr
	}
	if err := os.MkdirAll(filepath.Join(dest, ".git"), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dest, ".git", "index"), []byte("index"), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dest, "README.md"), []byte("hello\n"), 0o644); err != nil {
		return err
	}
	f.mu.Lock()
	f.clones = append(f.clones, url+"@"+branch)
	f.mu.Unlock()
	return nil
}

func (f *fakeVCS) Checkout(ctx context.Context, repoPath, ref string) error {
	f.enter()
	defer f.leave()
	if f.checkErr != nil {
		return f.checkErr
	}
	f.mu.Lock()
	f.checkouts = append(f.checkouts, ref)
	cb := f.onCheckout
	f.mu.Unlock()
	if cb != nil {
		cb(ref)
	}
	return nil
}

func (f *fakeVCS) RecentCommits(ctx context.Context, repoPath string, limit int) ([]domain.Commit, error) {
	if limit > 0 && limit < len(f.commits) {
		return f.commits[:limit], nil
	}
	return f.commits, nil
}

func (f *fakeVCS) TrackedFiles(ctx context.Context, repoPath string) ([]string, error) {
	return f.files, nil
}

func (f *fakeVCS) checkoutRefs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.checkouts...)
}
