package service

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/arturoeanton/go-gitstat/internal/domain"
	"github.com/arturoeanton/go-gitstat/internal/port"
	"github.com/docker/go-units"
)

// StatsCollector derives summary statistics from a materialized
// working copy.
type StatsCollector struct {
	vcs port.VCSProvider
}

// NewStatsCollector creates a new stats collector.
func NewStatsCollector(vcs port.VCSProvider) *StatsCollector {
	return &StatsCollector{vcs: vcs}
}

// Collect reads the working copy's disk usage, up to 5 recent commits,
// and the tracked-file count. A repository with zero commits reports
// empty committer and revision instead of failing. The checkout
// timestamp is wall-clock capture time.
func (c *StatsCollector) Collect(ctx context.Context, repoPath string) (domain.Stats, error) {
	usage, err := diskUsage(repoPath)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("disk usage %s: %w", repoPath, err)
	}

	commits, err := c.vcs.RecentCommits(ctx, repoPath, 5)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("recent commits: %w", err)
	}

	files, err := c.vcs.TrackedFiles(ctx, repoPath)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("tracked files: %w", err)
	}

	stats := domain.Stats{
		DiskUsage:    units.HumanSize(float64(usage)),
		LastCheckout: time.Now().Format(domain.CheckoutTimeLayout),
		LastMessages: []string{},
		TotalFiles:   len(files),
	}
	if len(commits) > 0 {
		stats.RecentCommitter = commits[0].Committer
		stats.CurrentRevision = commits[0].Hash
	}
	for _, commit := range commits {
		stats.LastMessages = append(stats.LastMessages, commit.Message)
	}

	return stats, nil
}

// diskUsage sums the on-disk footprint of a directory tree.
func diskUsage(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}
