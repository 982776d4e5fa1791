// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/videoflix/renditiond/internal/ffmpeg"
	"github.com/videoflix/renditiond/internal/log"
	"github.com/videoflix/renditiond/internal/media"
)

// Frame widths for the two extracted images.
const (
	heroWidth  = 1280
	thumbWidth = 320
)

// Thumbnailer probes the media duration and extracts the hero frame and
// thumbnail from the preferred rendition. Extraction is skipped for images
// that already exist on disk.
type Thumbnailer struct {
	Store  RecordStore
	Runner Runner
	Config Config
}

// Run extracts images for the record from sourcePath (the preferred
// rendition's absolute path) and updates the image/duration metadata.
func (t *Thumbnailer) Run(ctx context.Context, recordID, sourcePath string) error {
	logger := log.WithComponentFromContext(ctx, "thumbnail")
	start := time.Now()

	rec, err := t.Store.Load(ctx, recordID)
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}

	heroDir := t.Config.HeroDir(recordID)
	thumbDir := t.Config.ThumbsDir(recordID)
	for _, dir := range []string{heroDir, thumbDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create image dir: %w", err)
		}
	}

	stdout, _, err := t.Runner.Run(ctx, t.Config.ffprobe(), ffmpeg.ProbeDurationArgs(sourcePath)...)
	if err != nil {
		return fmt.Errorf("probe duration: %w", err)
	}
	duration, err := ffmpeg.ParseDuration(stdout)
	if err != nil {
		return fmt.Errorf("record %s: %v: %w", recordID, err, ErrProbe)
	}

	ts := captureTimestamp(duration)
	logger.Debug().
		Float64(log.FieldDuration, duration).
		Float64("timestamp", ts).
		Msg("capture point computed")

	hero := filepath.Join(heroDir, heroFileName)
	thumb := filepath.Join(thumbDir, thumbFileName)

	if err := t.extractIfMissing(ctx, sourcePath, hero, ts, heroWidth); err != nil {
		return fmt.Errorf("extract hero frame: %w", err)
	}
	if err := t.extractIfMissing(ctx, sourcePath, thumb, ts, thumbWidth); err != nil {
		return fmt.Errorf("extract thumbnail: %w", err)
	}

	fields := media.Fields{
		HeroImagePath:      media.String(relPath(t.Config.MediaRoot, hero)),
		ThumbnailImagePath: media.String(relPath(t.Config.MediaRoot, thumb)),
	}
	// A previously set duration is an explicit value; never auto-overwrite.
	if rec.DurationSeconds == 0 {
		fields.DurationSeconds = media.Int(int(math.Round(duration)))
	}
	if err := t.Store.Update(ctx, recordID, fields); err != nil {
		return fmt.Errorf("persist image metadata: %w", err)
	}

	logger.Info().
		Str(log.FieldEvent, "thumbnail.done").
		Float64(log.FieldDuration, duration).
		Dur("elapsed", time.Since(start)).
		Msg("images extracted")
	return nil
}

// extractIfMissing grabs a single frame unless the output already exists.
func (t *Thumbnailer) extractIfMissing(ctx context.Context, src, dst string, ts float64, width int) error {
	if _, err := os.Stat(dst); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	_, _, err := t.Runner.Run(ctx, t.Config.ffmpeg(), ffmpeg.ExtractFrameArgs(src, dst, ts, width)...)
	return err
}

// captureTimestamp picks the frame-grab offset: never earlier than 1s into
// the clip and never within 1s of its end, otherwise 10s in.
func captureTimestamp(duration float64) float64 {
	return math.Min(math.Max(10.0, 1.0), math.Max(duration-1.0, 1.0))
}

func relPath(root, abs string) string {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}
