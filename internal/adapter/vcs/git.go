package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/arturoeanton/go-gitstat/internal/domain"
)

// GitProvider implements port.VCSProvider using the git CLI.
type GitProvider struct {
	bin string
}

// NewGitProvider creates a new Git VCS provider.
func NewGitProvider(bin string) *GitProvider {
	if strings.TrimSpace(bin) == "" {
		bin = "git"
	}
	return &GitProvider{bin: bin}
}

// Clone clones a repository at the given branch into dest.
func (g *GitProvider) Clone(ctx context.Context, url, branch, dest string) error {
	args := []string{"clone"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, url, dest)
	if _, err := g.run(ctx, args...); err != nil {
		return fmt.Errorf("git clone %s: %w", url, err)
	}
	return nil
}

// Checkout checks out a branch or revision in an existing working copy.
func (g *GitProvider) Checkout(ctx context.Context, repoPath, ref string) error {
	if _, err := g.run(ctx, "-C", repoPath, "checkout", ref); err != nil {
		return fmt.Errorf("git checkout %s: %w", ref, err)
	}
	return nil
}

// RecentCommits returns up to limit most recent commits with their
// full messages. A repository with no commits yet yields an empty
// slice.
func (g *GitProvider) RecentCommits(ctx context.Context, repoPath string, limit int) ([]domain.Commit, error) {
	// %B keeps the whole message, so entries are delimited with an
	// ASCII record separator instead of newlines.
	args := []string{"-C", repoPath, "log", "--format=%H|%cn|%B%x1e"}
	if limit > 0 {
		args = append(args, fmt.Sprintf("-n%d", limit))
	}

	output, err := g.run(ctx, args...)
	if err != nil {
		// A freshly initialized repository has no HEAD to log from.
		if strings.Contains(err.Error(), "does not have any commits") {
			return nil, nil
		}
		return nil, fmt.Errorf("git log: %w", err)
	}

	var commits []domain.Commit
	for _, entry := range strings.Split(output, "\x1e") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "|", 3)
		if len(parts) < 3 {
			continue
		}
		commits = append(commits, domain.Commit{
			Hash:      parts[0],
			Committer: parts[1],
			Message:   parts[2],
		})
	}
	return commits, nil
}

// TrackedFiles returns the paths tracked in the current checkout.
func (g *GitProvider) TrackedFiles(ctx context.Context, repoPath string) ([]string, error) {
	output, err := g.run(ctx, "-C", repoPath, "ls-files")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var files []string
	for _, f := range strings.Split(strings.TrimSpace(output), "\n") {
		f = strings.TrimSpace(f)
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// run executes git and returns stdout, folding stderr into the error.
func (g *GitProvider) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.bin, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(errb.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s", msg)
	}
	return out.String(), nil
}
