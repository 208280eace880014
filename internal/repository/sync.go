package repository

import (
	"errors"
	"fmt"
	"os"
	"time"

	"personamcp/internal/logging"
)

// SyncStatus is the outcome of a Sync call.
type SyncStatus int

const (
	// SyncStatusSuccess means the clone was created or updated.
	SyncStatusSuccess SyncStatus = iota
	// SyncStatusFailed means the sync returned an error.
	SyncStatusFailed
	// SyncStatusSkipped means nothing was attempted, e.g. a local source or
	// a dirty worktree.
	SyncStatusSkipped
)

func (s SyncStatus) String() string {
	switch s {
	case SyncStatusSuccess:
		return "Success"
	case SyncStatusFailed:
		return "Failed"
	case SyncStatusSkipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

// SyncResult describes one Sync call.
type SyncResult struct {
	Status     SyncStatus
	Path       string
	Err        error
	SkipReason string
	Duration   time.Duration
}

// Message returns a one-line summary for terminal output.
func (r SyncResult) Message() string {
	switch r.Status {
	case SyncStatusSuccess:
		return fmt.Sprintf("Synced %s in %s", r.Path, r.Duration.Round(100*time.Millisecond))
	case SyncStatusFailed:
		if r.Err != nil {
			return fmt.Sprintf("Sync failed: %v", r.Err)
		}
		return "Sync failed: unknown error"
	case SyncStatusSkipped:
		if r.SkipReason != "" {
			return fmt.Sprintf("Skipped: %s", r.SkipReason)
		}
		return "Skipped"
	default:
		return "Unknown status"
	}
}

// Sync brings the configured bundle repository up to date. Local sources are
// skipped; git sources are cloned when missing and fetched otherwise.
func Sync(entry Entry, logger *logging.AppLogger) SyncResult {
	start := time.Now()
	result := SyncResult{}
	finish := func(status SyncStatus) SyncResult {
		result.Status = status
		result.Duration = time.Since(start)
		if logger != nil {
			logger.Info("Repository sync completed",
				"status", status.String(),
				"path", result.Path,
				"duration", result.Duration)
		}
		return result
	}

	if !entry.IsRemote() {
		result.Path = entry.Path
		result.SkipReason = "not a git repository source"
		return finish(SyncStatusSkipped)
	}

	src, err := NewSource(entry)
	if err != nil {
		result.Err = err
		return finish(SyncStatusFailed)
	}
	gs := src.(GitSource)
	result.Path = gs.Path

	if _, statErr := os.Stat(gs.Path); os.IsNotExist(statErr) {
		path, err := gs.Prepare(logger)
		if err != nil {
			result.Err = err
			return finish(SyncStatusFailed)
		}
		result.Path = path
		return finish(SyncStatusSuccess)
	}

	err = gs.Update(logger)
	switch {
	case err == nil:
		return finish(SyncStatusSuccess)
	case errors.Is(err, ErrDirtyWorktree):
		result.SkipReason = "uncommitted changes"
		return finish(SyncStatusSkipped)
	default:
		result.Err = err
		return finish(SyncStatusFailed)
	}
}
