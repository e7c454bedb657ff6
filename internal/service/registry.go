package service

import (
	"context"

	"github.com/arturoeanton/go-gitstat/internal/domain"
	"github.com/arturoeanton/go-gitstat/internal/port"
)

// Registry maps repository urls to stable numeric identities. Each
// distinct url gets exactly one identity; re-registering an existing url
// returns the old identity and overwrites the stored branch/revision
// with whatever the new request supplied.
type Registry struct {
	store port.RecordStore
}

// NewRegistry creates a new identity registry.
func NewRegistry(store port.RecordStore) *Registry {
	return &Registry{store: store}
}

// ResolveOrCreate returns the identity for spec.URL, allocating the
// next one from the counter if the url is unseen. Allocation uses a
// set-if-absent on the url mapping, so two concurrent registrations of
// the same unseen url agree on a single identity; the loser's counter
// value is orphaned, which is harmless.
func (r *Registry) ResolveOrCreate(ctx context.Context, spec domain.RepoSpec) (int64, error) {
	key, err := r.store.Get(ctx, spec.URL)
	if err != nil {
		return 0, err
	}

	if key == "" {
		n, err := r.store.Incr(ctx, domain.CounterKey)
		if err != nil {
			return 0, err
		}
		candidate := domain.RecordKey(n)

		ok, err := r.store.SetNX(ctx, spec.URL, candidate)
		if err != nil {
			return 0, err
		}
		if ok {
			key = candidate
		} else {
			// Another registration won the race for this url.
			key, err = r.store.Get(ctx, spec.URL)
			if err != nil {
				return 0, err
			}
		}
	}

	if err := r.store.SetFields(ctx, key, spec.Fields()); err != nil {
		return 0, err
	}

	return domain.RecordID(key)
}
