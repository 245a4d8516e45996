package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ospect/amosheets/internal/sheets"
)

// Default chunk bounds for one write request. Updates are heavier than
// appends because each updated row is its own range in the request.
const (
	defaultUpdateChunkSize = 100
	defaultAppendChunkSize = 500
)

// Committer partitions sheet mutations into bounded chunks and submits
// them: every update chunk first, then every append chunk, both in input
// order. The store retries each chunk under its rate-limit policy; any
// other failure aborts the remaining chunks while the ones already sent
// stay applied.
type Committer struct {
	store           sheets.RowStore
	updateChunkSize int
	appendChunkSize int
}

// NewCommitter creates a committer. Non-positive chunk sizes fall back to
// the defaults.
func NewCommitter(store sheets.RowStore, updateChunkSize, appendChunkSize int) *Committer {
	if updateChunkSize <= 0 {
		updateChunkSize = defaultUpdateChunkSize
	}
	if appendChunkSize <= 0 {
		appendChunkSize = defaultAppendChunkSize
	}
	return &Committer{
		store:           store,
		updateChunkSize: updateChunkSize,
		appendChunkSize: appendChunkSize,
	}
}

// Commit applies all updates, then all appends.
func (c *Committer) Commit(ctx context.Context, updates []sheets.RowUpdate, appends [][]string) error {
	for start := 0; start < len(updates); start += c.updateChunkSize {
		end := start + c.updateChunkSize
		if end > len(updates) {
			end = len(updates)
		}

		if err := c.store.BatchUpdate(ctx, updates[start:end]); err != nil {
			return fmt.Errorf("failed to commit update chunk %d-%d: %w", start, end-1, err)
		}
		slog.Debug("Committed update chunk", "rows", end-start)
	}

	for start := 0; start < len(appends); start += c.appendChunkSize {
		end := start + c.appendChunkSize
		if end > len(appends) {
			end = len(appends)
		}

		if err := c.store.BatchAppend(ctx, appends[start:end]); err != nil {
			return fmt.Errorf("failed to commit append chunk %d-%d: %w", start, end-1, err)
		}
		slog.Debug("Committed append chunk", "rows", end-start)
	}

	return nil
}
