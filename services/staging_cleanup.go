package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"taikoweb/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SongLookup reports whether a staging identifier belongs to a committed song
type SongLookup interface {
	SongExists(ctx context.Context, id string) (bool, error)
}

// CleanStaleResult contains the outcome of a stale staging cleanup
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes staging leftovers older than maxAge: raw payloads, and
// directories no song references (left behind by a crash between extraction and commit).
// Entries not named after an allocated identifier are never touched.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, songs SongLookup, log *zap.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}

		name := entry.Name()
		id := strings.TrimSuffix(name, "."+archiveExtension)
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		isPayload := id != name
		if isPayload == entry.IsDir() {
			continue
		}

		entryPath := filepath.Join(root, name)
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: entryPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if !isPayload {
			exists, err := songs.SongExists(ctx, id)
			if err != nil {
				// unknown state, keep the directory
				result.Errors = append(result.Errors, CleanupError{Path: entryPath, Error: err})
				continue
			}
			if exists {
				continue
			}
		}

		if err := os.RemoveAll(entryPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: entryPath, Error: err})
			log.Warn("failed to remove stale staging entry", zap.String("path", entryPath), zap.Error(err))
			continue
		}
		result.Removed = append(result.Removed, entryPath)
		metrics.StagingDirsRemoved.Inc()
		log.Info("removed stale staging entry",
			zap.String("path", entryPath),
			zap.Duration("age", time.Since(info.ModTime())),
		)
	}
	return result
}

// RunStagingSweeper calls CleanStale every interval until ctx is done
func RunStagingSweeper(ctx context.Context, root string, interval, maxAge time.Duration, songs SongLookup, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := CleanStale(ctx, root, maxAge, songs, log)
			if len(res.Errors) > 0 {
				log.Warn("staging sweep finished with errors", zap.Int("removed", len(res.Removed)), zap.Int("errors", len(res.Errors)))
			}
		}
	}
}
