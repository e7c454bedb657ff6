package port

import (
	"context"

	"github.com/arturoeanton/go-gitstat/internal/domain"
)

// VCSProvider abstracts version control operations. Implementations
// orchestrate an external tool; they never implement the protocol.
type VCSProvider interface {
	// Clone clones a repository at the given branch into dest.
	Clone(ctx context.Context, url, branch, dest string) error

	// Checkout checks out a branch or revision in an existing working copy.
	Checkout(ctx context.Context, repoPath, ref string) error

	// RecentCommits returns up to limit most recent commits reachable
	// from the current checkout. A repository with no commits yields an
	// empty slice, not an error.
	RecentCommits(ctx context.Context, repoPath string, limit int) ([]domain.Commit, error)

	// TrackedFiles returns the paths tracked in the current checkout.
	TrackedFiles(ctx context.Context, repoPath string) ([]string, error)
}
