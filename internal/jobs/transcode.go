// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/videoflix/renditiond/internal/ffmpeg"
	"github.com/videoflix/renditiond/internal/log"
	"github.com/videoflix/renditiond/internal/media"
	"github.com/videoflix/renditiond/internal/metrics"
	"github.com/videoflix/renditiond/internal/plan"
)

// preferredHeight is chosen as the primary playback source whenever it was
// produced; otherwise the highest available rendition wins.
const preferredHeight = 720

// Transcoder produces the missing renditions of a record's ladder and
// persists the resulting metadata. Re-invoking it never re-encodes an output
// that already exists on disk.
type Transcoder struct {
	Store  RecordStore
	Runner Runner
	Config Config

	// Ladder defaults to the fixed production ladder.
	Ladder []plan.Step

	// Completed, when set, is called after a successful run with the
	// absolute path of the preferred rendition. The dispatcher uses it to
	// chain the thumbnail job.
	Completed func(ctx context.Context, recordID, preferredPath string)
}

// Run transcodes all pending renditions for the record.
func (t *Transcoder) Run(ctx context.Context, recordID string) error {
	logger := log.WithComponentFromContext(ctx, "transcode")
	start := time.Now()

	rec, err := t.Store.Load(ctx, recordID)
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}
	if rec.SourcePath == "" {
		return fmt.Errorf("record %s: %w", recordID, ErrMissingSource)
	}

	outDir := t.Config.VideosDir(recordID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ladder := t.Ladder
	if ladder == nil {
		ladder = plan.Ladder
	}

	p, err := plan.Build(ladder, t.Config.MediaRoot, outDir, plan.Stem(rec.SourcePath))
	if err != nil {
		return fmt.Errorf("plan renditions: %w", err)
	}

	for _, skipped := range p.Done() {
		metrics.IncRenditionSkipped()
		logger.Debug().
			Str(log.FieldEvent, "transcode.skip").
			Int(log.FieldHeight, skipped.Height).
			Str(log.FieldOutputPath, skipped.RelPath).
			Msg("rendition already on disk")
	}

	produced := p.Done()
	for _, pending := range p.Pending() {
		logger.Info().
			Str(log.FieldEvent, "transcode.encode").
			Int(log.FieldHeight, pending.Height).
			Str(log.FieldSourcePath, rec.SourcePath).
			Str(log.FieldOutputPath, pending.RelPath).
			Msg("encoding rendition")

		args := ffmpeg.TranscodeArgs(rec.SourcePath, pending.AbsPath, pending.Height)
		if _, _, err := t.Runner.Run(ctx, t.Config.ffmpeg(), args...); err != nil {
			return fmt.Errorf("encode %dp: %w", pending.Height, err)
		}
		metrics.IncRenditionEncoded()
		produced = append(produced, pending)
	}

	if len(produced) == 0 {
		return fmt.Errorf("record %s: %w", recordID, ErrNoRenditions)
	}

	renditions := make([]media.Rendition, 0, len(produced))
	for _, e := range produced {
		renditions = append(renditions, media.Rendition{Height: e.Height, Path: e.RelPath})
	}
	media.SortRenditions(renditions)

	preferred := pickPreferred(renditions)

	t.writeManifest(logger, outDir, recordID, produced)

	// One update for both fields; the set is recomputed, never appended.
	err = t.Store.Update(ctx, recordID, media.Fields{
		PreferredRenditionPath: media.String(preferred),
		Renditions:             &renditions,
	})
	if err != nil {
		return fmt.Errorf("persist renditions: %w", err)
	}

	logger.Info().
		Str(log.FieldEvent, "transcode.done").
		Int("renditions", len(renditions)).
		Str("preferred", preferred).
		Dur("elapsed", time.Since(start)).
		Msg("transcode complete")

	if t.Completed != nil {
		t.Completed(ctx, recordID, filepath.Join(t.Config.MediaRoot, filepath.FromSlash(preferred)))
	}
	return nil
}

// pickPreferred expects renditions sorted by height descending.
func pickPreferred(renditions []media.Rendition) string {
	for _, r := range renditions {
		if r.Height == preferredHeight {
			return r.Path
		}
	}
	return renditions[0].Path
}

// writeManifest records the produced ladder next to the renditions. Failure
// is logged but does not fail the job; the database remains the source of
// truth.
func (t *Transcoder) writeManifest(logger zerolog.Logger, outDir, recordID string, produced []plan.Entry) {
	m := ffmpeg.Manifest{
		RecordID:   recordID,
		Generated:  time.Now().UTC(),
		Renditions: make([]ffmpeg.ManifestEntry, 0, len(produced)),
	}
	for _, e := range produced {
		m.Renditions = append(m.Renditions, ffmpeg.ManifestEntry{
			Tag:     e.Tag,
			Height:  e.Height,
			Bitrate: e.Bitrate,
			Path:    e.RelPath,
		})
	}
	path := filepath.Join(outDir, ffmpeg.ManifestName)
	if err := ffmpeg.WriteManifest(path, m); err != nil {
		logger.Warn().Err(err).
			Str(log.FieldEvent, "transcode.manifest_failed").
			Str(log.FieldPath, path).
			Msg("could not write rendition manifest")
	}
}
