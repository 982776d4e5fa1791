// SPDX-License-Identifier: MIT

package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videoflix/renditiond/internal/jobs"
	"github.com/videoflix/renditiond/internal/media"
	"github.com/videoflix/renditiond/internal/queue"
	"github.com/videoflix/renditiond/internal/store"
)

// stubRunner stands in for ffmpeg/ffprobe: the prober reports a fixed
// duration, every other invocation creates its output file.
type stubRunner struct {
	mu    sync.Mutex
	calls int
}

func (r *stubRunner) Run(ctx context.Context, command string, args ...string) ([]byte, []byte, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	if strings.Contains(command, "ffprobe") {
		return []byte("42.000000\n"), nil, nil
	}
	dst := args[len(args)-1]
	if err := os.WriteFile(dst, []byte("media"), 0o644); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

func (r *stubRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// TestPipelineEndToEnd drives the full chain the daemon wires up: record
// created with a source upload, transcode through the queue, thumbnail as a
// continuation, metadata persisted.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Record store on disk.
	db, err := store.Open(filepath.Join(t.TempDir(), "records.db"), store.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))
	records := store.New(db)

	// Durable queue on miniredis.
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	q := queue.New(client, "")

	mediaRoot := t.TempDir()
	cfg := jobs.Config{MediaRoot: mediaRoot}
	runner := &stubRunner{}

	dispatcher := &Dispatcher{
		Queue:   q,
		Cleaner: &jobs.Cleaner{Config: cfg},
	}

	transcoder := &jobs.Transcoder{
		Store:     records,
		Runner:    runner,
		Config:    cfg,
		Completed: dispatcher.TranscodeCompleted,
	}
	thumbnailer := &jobs.Thumbnailer{
		Store:  records,
		Runner: runner,
		Config: cfg,
	}

	thumbnailDone := make(chan struct{})
	pool := &queue.Pool{Queue: q, Workers: 1}
	pool.Register(queue.KindTranscode, func(ctx context.Context, task queue.Task) error {
		return transcoder.Run(ctx, task.RecordID)
	})
	pool.Register(queue.KindThumbnail, func(ctx context.Context, task queue.Task) error {
		err := thumbnailer.Run(ctx, task.RecordID, task.SourcePath)
		close(thumbnailDone)
		return err
	})

	poolDone := make(chan error, 1)
	go func() { poolDone <- pool.Run(ctx) }()

	// External collaborator stores the upload and creates the record.
	sourceDir := filepath.Join(mediaRoot, "videos", "v1")
	require.NoError(t, os.MkdirAll(sourceDir, 0o755))
	sourcePath := filepath.Join(sourceDir, "clip.mp4")
	require.NoError(t, os.WriteFile(sourcePath, []byte("upload"), 0o644))

	rec := &media.Record{ID: "v1", SourcePath: sourcePath}
	require.NoError(t, records.Create(ctx, rec))
	require.NoError(t, dispatcher.OnRecordCreated(ctx, rec, true))

	select {
	case <-thumbnailDone:
	case <-time.After(10 * time.Second):
		t.Fatal("pipeline did not finish")
	}

	got, err := records.Load(ctx, "v1")
	require.NoError(t, err)

	require.Len(t, got.Renditions, 4)
	heights := []int{got.Renditions[0].Height, got.Renditions[1].Height, got.Renditions[2].Height, got.Renditions[3].Height}
	assert.Equal(t, []int{1080, 720, 360, 240}, heights)
	assert.Equal(t, "videos/v1/clip_720p.mp4", got.PreferredRenditionPath)
	assert.True(t, got.VariantsReady())
	assert.Equal(t, 42, got.DurationSeconds)
	assert.Equal(t, "hero/v1/hero.jpg", got.HeroImagePath)
	assert.Equal(t, "thumbs/v1/thumb.png", got.ThumbnailImagePath)

	// 4 encodes + 1 probe + 2 extractions.
	assert.Equal(t, 7, runner.callCount())

	// Deletion: snapshot first, then cleanup through the dispatcher.
	snap, err := records.Delete(ctx, "v1")
	require.NoError(t, err)
	require.NoError(t, dispatcher.OnRecordDeleted(ctx, snap))

	for _, dir := range []string{
		filepath.Join(mediaRoot, "videos", "v1"),
		filepath.Join(mediaRoot, "hero", "v1"),
		filepath.Join(mediaRoot, "thumbs", "v1"),
	} {
		_, statErr := os.Stat(dir)
		assert.True(t, os.IsNotExist(statErr), "%s should be gone", dir)
	}

	cancel()
	select {
	case <-poolDone:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not shut down")
	}
}
