// SPDX-License-Identifier: MIT

// Package dispatch reacts to record lifecycle events from the surrounding
// application and turns them into pipeline jobs: transcode on creation,
// thumbnail as a continuation of a successful transcode, cleanup on deletion.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/videoflix/renditiond/internal/log"
	"github.com/videoflix/renditiond/internal/media"
	"github.com/videoflix/renditiond/internal/queue"
)

// Default job budgets. Transcoding large uploads across four renditions can
// take a long time.
const (
	DefaultTranscodeTimeout = 2 * time.Hour
	DefaultThumbnailTimeout = time.Hour
)

// Enqueuer pushes tasks onto the durable queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, t queue.Task) error
}

// CleanupRunner removes a deleted record's artifacts.
type CleanupRunner interface {
	Run(ctx context.Context, snap media.Snapshot) error
}

// Dispatcher is the boundary the record-owning application calls into.
type Dispatcher struct {
	Queue   Enqueuer
	Cleaner CleanupRunner

	TranscodeTimeout time.Duration
	ThumbnailTimeout time.Duration
}

// OnRecordCreated enqueues a transcode job for a newly created record with an
// uploaded source file. Updates and records without a source are ignored;
// external-URL-only records have nothing to transcode.
func (d *Dispatcher) OnRecordCreated(ctx context.Context, rec *media.Record, created bool) error {
	logger := log.WithComponentFromContext(ctx, "dispatch")

	if !created || rec.SourcePath == "" {
		logger.Debug().
			Str(log.FieldRecordID, rec.ID).
			Bool("created", created).
			Msg("no transcode needed")
		return nil
	}

	err := d.Queue.Enqueue(ctx, queue.Task{
		Kind:           queue.KindTranscode,
		RecordID:       rec.ID,
		TimeoutSeconds: int(d.transcodeTimeout().Seconds()),
	})
	if err != nil {
		return fmt.Errorf("enqueue transcode for %s: %w", rec.ID, err)
	}
	return nil
}

// TranscodeCompleted chains the thumbnail job after a successful transcode.
// preferredPath is the absolute path of the chosen rendition, which becomes
// the image-extraction source.
func (d *Dispatcher) TranscodeCompleted(ctx context.Context, recordID, preferredPath string) {
	logger := log.WithComponentFromContext(ctx, "dispatch")

	err := d.Queue.Enqueue(ctx, queue.Task{
		Kind:           queue.KindThumbnail,
		RecordID:       recordID,
		SourcePath:     preferredPath,
		TimeoutSeconds: int(d.thumbnailTimeout().Seconds()),
	})
	if err != nil {
		// The transcode already succeeded and its metadata is persisted;
		// losing the continuation is log-visible, not fatal.
		logger.Error().Err(err).
			Str(log.FieldEvent, "dispatch.thumbnail_enqueue_failed").
			Str(log.FieldRecordID, recordID).
			Msg("could not enqueue thumbnail job")
	}
}

// OnRecordDeleted removes the deleted record's artifacts. The snapshot must
// have been captured before the deletion completed.
func (d *Dispatcher) OnRecordDeleted(ctx context.Context, snap media.Snapshot) error {
	if err := d.Cleaner.Run(ctx, snap); err != nil {
		return fmt.Errorf("cleanup record %s: %w", snap.ID, err)
	}
	return nil
}

func (d *Dispatcher) transcodeTimeout() time.Duration {
	if d.TranscodeTimeout > 0 {
		return d.TranscodeTimeout
	}
	return DefaultTranscodeTimeout
}

func (d *Dispatcher) thumbnailTimeout() time.Duration {
	if d.ThumbnailTimeout > 0 {
		return d.ThumbnailTimeout
	}
	return DefaultThumbnailTimeout
}
