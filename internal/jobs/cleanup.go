// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/videoflix/renditiond/internal/fsutil"
	"github.com/videoflix/renditiond/internal/log"
	"github.com/videoflix/renditiond/internal/media"
	"github.com/videoflix/renditiond/internal/metrics"
)

// Cleaner removes every artifact a deleted record left behind: the source
// upload, all renditions, and the per-record image and video directories.
// Already-missing paths are not errors; cleanup is safe to repeat.
type Cleaner struct {
	Config Config
}

// Run deletes the snapshot's artifacts. Only unexpected filesystem errors
// (permissions, I/O) propagate.
func (c *Cleaner) Run(ctx context.Context, snap media.Snapshot) error {
	logger := log.WithComponentFromContext(ctx, "cleanup")
	removed := 0

	if snap.SourcePath != "" {
		n, err := removeFile(snap.SourcePath)
		if err != nil {
			return fmt.Errorf("remove source: %w", err)
		}
		removed += n
	}

	// Rendition files plus the preferred path if it is not in the list.
	rels := make([]string, 0, len(snap.Renditions)+1)
	seen := make(map[string]bool, len(snap.Renditions)+1)
	for _, r := range snap.Renditions {
		if r.Path != "" && !seen[r.Path] {
			rels = append(rels, r.Path)
			seen[r.Path] = true
		}
	}
	if p := snap.PreferredRenditionPath; p != "" && !seen[p] {
		rels = append(rels, p)
	}
	for _, rel := range rels {
		// Stored paths are data; never delete outside the media root.
		abs, err := fsutil.ConfineRelPath(c.Config.MediaRoot, rel)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			logger.Warn().Err(err).
				Str(log.FieldPath, rel).
				Msg("skipping rendition path outside media root")
			continue
		}
		n, err := removeFile(abs)
		if err != nil {
			return fmt.Errorf("remove rendition %s: %w", rel, err)
		}
		removed += n
	}

	for _, dir := range []string{
		c.Config.HeroDir(snap.ID),
		c.Config.ThumbsDir(snap.ID),
		c.Config.VideosDir(snap.ID),
	} {
		n, err := removeDir(dir)
		if err != nil {
			return fmt.Errorf("remove dir %s: %w", dir, err)
		}
		removed += n
	}

	metrics.AddCleanupRemoved(removed)
	logger.Info().
		Str(log.FieldEvent, "cleanup.done").
		Str(log.FieldRecordID, snap.ID).
		Int("removed", removed).
		Msg("artifacts removed")
	return nil
}

// removeFile deletes a single file; a missing file counts as nothing done.
func removeFile(path string) (int, error) {
	err := os.Remove(path)
	if err == nil {
		return 1, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return 0, err
}

// removeDir deletes a directory tree; missing is fine.
func removeDir(path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	if err := os.RemoveAll(path); err != nil {
		return 0, err
	}
	return 1, nil
}
