package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/arturoeanton/go-gitstat/internal/domain"
	"github.com/arturoeanton/go-gitstat/internal/port"
)

// Removal deletes working copies together with their records and url
// mappings. Repositories that never finished materializing are refused
// so an in-flight clone is not pulled out from under its worker.
type Removal struct {
	store    port.RecordStore
	basePath string
}

// NewRemoval creates a new removal workflow.
func NewRemoval(store port.RecordStore, basePath string) *Removal {
	return &Removal{store: store, basePath: basePath}
}

// Remove deletes each identity independently. A failing id does not
// roll back removals already performed; the caller gets one aggregate
// error covering every id that failed.
func (r *Removal) Remove(ctx context.Context, ids []int64) error {
	var errs []error
	for _, id := range ids {
		if err := r.removeOne(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Removal) removeOne(ctx context.Context, id int64) error {
	key := domain.RecordKey(id)

	url, err := r.store.GetField(ctx, key, domain.FieldURL)
	if err != nil {
		return fmt.Errorf("repository %d: %w", id, err)
	}
	if url == "" {
		return fmt.Errorf("repository %d: %w", id, port.ErrRepoNotFound)
	}

	repoPath := domain.WorkingCopyPath(r.basePath, url)
	ok, err := materialized(ctx, r.store, repoPath, key)
	if err != nil {
		return fmt.Errorf("repository %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("repository %d: %w", id, port.ErrNotMaterialized)
	}

	if err := os.RemoveAll(repoPath); err != nil {
		return fmt.Errorf("repository %d: remove working copy: %w", id, err)
	}
	if err := r.store.Delete(ctx, key, url); err != nil {
		return fmt.Errorf("repository %d: %w", id, err)
	}

	slog.Info("repository removed", "repo", key, "url", url)
	return nil
}
