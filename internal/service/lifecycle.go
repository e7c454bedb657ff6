package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/arturoeanton/go-gitstat/internal/domain"
	"github.com/arturoeanton/go-gitstat/internal/port"
)

// EventSink receives materialization status transitions.
type EventSink interface {
	Publish(evt domain.RepoEvent)
}

// Lifecycle runs clone/checkout cycles in the background. Work for the
// same working-copy path is serialized by an exclusive keyed lock;
// distinct repositories materialize fully in parallel.
//
// Presence of the last_checkout field is the completion flag: it is
// cleared before any destructive update and only written back, together
// with fresh stats, after a fully successful cycle. A reader therefore
// sees either "not ready" or "ready as of a specific point", never a
// torn intermediate state.
type Lifecycle struct {
	store    port.RecordStore
	vcs      port.VCSProvider
	stats    *StatsCollector
	locks    *PathLocks
	basePath string
	events   EventSink
}

// NewLifecycle creates a new lifecycle orchestrator. events may be nil.
func NewLifecycle(store port.RecordStore, vcs port.VCSProvider, basePath string, events EventSink) *Lifecycle {
	return &Lifecycle{
		store:    store,
		vcs:      vcs,
		stats:    NewStatsCollector(vcs),
		locks:    NewPathLocks(),
		basePath: basePath,
		events:   events,
	}
}

// Materialize schedules a clone-or-update cycle for the identity and
// returns immediately. Errors inside the cycle are logged and leave the
// record unmaterialized; a later registration of the same url retries.
func (l *Lifecycle) Materialize(id int64) {
	go l.materialize(domain.RecordKey(id))
}

// IsMaterialized reports whether the identity has a complete working
// copy on disk and a last_checkout timestamp in its record.
func (l *Lifecycle) IsMaterialized(ctx context.Context, id int64) (bool, error) {
	key := domain.RecordKey(id)
	url, err := l.store.GetField(ctx, key, domain.FieldURL)
	if err != nil || url == "" {
		return false, err
	}
	return materialized(ctx, l.store, domain.WorkingCopyPath(l.basePath, url), key)
}

func (l *Lifecycle) materialize(key string) {
	ctx := context.Background()
	id, err := domain.RecordID(key)
	if err != nil {
		slog.Error("bad record key", "key", key, "error", err)
		return
	}

	url, err := l.store.GetField(ctx, key, domain.FieldURL)
	if err != nil || url == "" {
		slog.Error("read record url", "repo", key, "error", err)
		return
	}
	branch, err := l.store.GetField(ctx, key, domain.FieldBranch)
	if err != nil {
		slog.Error("read record branch", "repo", key, "error", err)
		return
	}
	if branch == "" {
		branch = domain.DefaultBranch
	}
	revision, err := l.store.GetField(ctx, key, domain.FieldRevision)
	if err != nil {
		slog.Error("read record revision", "repo", key, "error", err)
		return
	}

	repoPath := domain.WorkingCopyPath(l.basePath, url)

	// Concurrent registrations of the same url share this lock even
	// before they agree on an identity, because the lock key is the
	// working-copy path.
	mu := l.locks.Get(repoPath)
	mu.Lock()
	defer mu.Unlock()

	l.publish(id, url, domain.StatusMaterializing)
	slog.Info("materializing repository", "repo", key, "url", url, "branch", branch)

	cloned, err := materialized(ctx, l.store, repoPath, key)
	if err != nil {
		slog.Error("check working copy", "repo", key, "error", err)
		l.publish(id, url, domain.StatusError)
		return
	}

	if cloned {
		// Clear the completion flag before touching the working copy so
		// no reader pairs a stale timestamp with an update in progress.
		if err := l.store.DeleteField(ctx, key, domain.FieldLastCheckout); err != nil {
			slog.Error("clear last_checkout", "repo", key, "error", err)
			l.publish(id, url, domain.StatusError)
			return
		}
		err = l.vcs.Checkout(ctx, repoPath, branch)
	} else {
		err = l.vcs.Clone(ctx, url, branch, repoPath)
	}
	if err == nil && revision != "" {
		err = l.vcs.Checkout(ctx, repoPath, revision)
	}
	if err != nil {
		slog.Error("git operation failed", "repo", key, "error", err)
		l.publish(id, url, domain.StatusError)
		return
	}

	stats, err := l.stats.Collect(ctx, repoPath)
	if err != nil {
		slog.Error("collect stats", "repo", key, "error", err)
		l.publish(id, url, domain.StatusError)
		return
	}

	if err := l.store.SetFields(ctx, key, stats.Fields()); err != nil {
		slog.Error("write stats", "repo", key, "error", err)
		l.publish(id, url, domain.StatusError)
		return
	}

	slog.Info("materialization complete", "repo", key, "revision", stats.CurrentRevision)
	l.publish(id, url, domain.StatusReady)
}

func (l *Lifecycle) publish(id int64, url, status string) {
	if l.events != nil {
		l.events.Publish(domain.RepoEvent{ID: id, URL: url, Status: status})
	}
}

// materialized reports whether repoPath holds a complete clone: the git
// index exists and is non-empty, and the record carries a last_checkout
// timestamp.
func materialized(ctx context.Context, s port.RecordStore, repoPath, key string) (bool, error) {
	info, err := os.Stat(filepath.Join(repoPath, ".git", "index"))
	if err != nil || info.Size() == 0 {
		return false, nil
	}
	ts, err := s.GetField(ctx, key, domain.FieldLastCheckout)
	if err != nil {
		return false, err
	}
	return ts != "", nil
}
