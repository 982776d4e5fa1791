// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videoflix/renditiond/internal/execx"
	"github.com/videoflix/renditiond/internal/ffmpeg"
	"github.com/videoflix/renditiond/internal/media"
	"github.com/videoflix/renditiond/internal/plan"
)

func newTranscoder(t *testing.T, store *fakeStore, runner *fakeRunner) *Transcoder {
	t.Helper()
	return &Transcoder{
		Store:  store,
		Runner: runner,
		Config: Config{MediaRoot: t.TempDir()},
	}
}

func sourceRecord(id string) *media.Record {
	return &media.Record{ID: id, SourcePath: "/uploads/" + id + "/clip.mp4"}
}

func TestTranscodeMissingSource(t *testing.T) {
	store := newFakeStore(&media.Record{ID: "v1"})
	runner := &fakeRunner{}
	tr := newTranscoder(t, store, runner)

	err := tr.Run(context.Background(), "v1")
	assert.ErrorIs(t, err, ErrMissingSource)
	assert.Zero(t, runner.callCount())
	assert.Zero(t, store.updateCount())
}

func TestTranscodeFullRun(t *testing.T) {
	store := newFakeStore(sourceRecord("v1"))
	runner := &fakeRunner{}
	tr := newTranscoder(t, store, runner)

	var gotRecord, gotPath string
	tr.Completed = func(ctx context.Context, recordID, preferredPath string) {
		gotRecord, gotPath = recordID, preferredPath
	}

	require.NoError(t, tr.Run(context.Background(), "v1"))

	assert.Equal(t, 4, runner.callCount(), "one encode per ladder step")

	rec := store.get("v1")
	assert.Equal(t, "videos/v1/clip_720p.mp4", rec.PreferredRenditionPath)
	require.Len(t, rec.Renditions, 4)
	heights := []int{rec.Renditions[0].Height, rec.Renditions[1].Height, rec.Renditions[2].Height, rec.Renditions[3].Height}
	assert.Equal(t, []int{1080, 720, 360, 240}, heights, "sorted by height descending")
	assert.True(t, rec.VariantsReady())

	assert.Equal(t, "v1", gotRecord)
	assert.Equal(t, filepath.Join(tr.Config.MediaRoot, "videos", "v1", "clip_720p.mp4"), gotPath)

	// Every persisted rendition exists on disk.
	for _, r := range rec.Renditions {
		_, err := os.Stat(filepath.Join(tr.Config.MediaRoot, filepath.FromSlash(r.Path)))
		assert.NoError(t, err, r.Path)
	}

	// The manifest sits next to the renditions.
	m, err := ffmpeg.ReadManifest(filepath.Join(tr.Config.VideosDir("v1"), ffmpeg.ManifestName))
	require.NoError(t, err)
	assert.Equal(t, "v1", m.RecordID)
	assert.Len(t, m.Renditions, 4)
}

func TestTranscodeIdempotent(t *testing.T) {
	store := newFakeStore(sourceRecord("v1"))
	runner := &fakeRunner{}
	tr := newTranscoder(t, store, runner)

	require.NoError(t, tr.Run(context.Background(), "v1"))
	require.Equal(t, 4, runner.callCount())

	// All outputs exist now; a re-run must not invoke the transcoder at all.
	require.NoError(t, tr.Run(context.Background(), "v1"))
	assert.Equal(t, 4, runner.callCount(), "second run must be pure metadata recompute")
	assert.Equal(t, 2, store.updateCount(), "metadata is recomputed on every run")
}

func TestTranscodeResumesAfterPartialRun(t *testing.T) {
	store := newFakeStore(sourceRecord("v1"))
	runner := &fakeRunner{}
	tr := newTranscoder(t, store, runner)

	// A prior, partially successful pass left two renditions behind.
	outDir := tr.Config.VideosDir("v1")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	for _, name := range []string{"clip_720p.mp4", "clip_240p.mp4"} {
		require.NoError(t, os.WriteFile(filepath.Join(outDir, name), []byte("old"), 0o644))
	}

	require.NoError(t, tr.Run(context.Background(), "v1"))

	assert.Equal(t, 2, runner.callCount(), "only the gaps are encoded")
	var encoded []string
	for _, c := range runner.callsFor("ffmpeg") {
		for _, a := range c.args {
			if strings.HasPrefix(a, "scale=-2:") {
				encoded = append(encoded, a)
			}
		}
	}
	assert.ElementsMatch(t, []string{"scale=-2:1080", "scale=-2:360"}, encoded)

	rec := store.get("v1")
	assert.Len(t, rec.Renditions, 4)
}

func TestTranscodeProcessErrorAborts(t *testing.T) {
	store := newFakeStore(sourceRecord("v1"))
	runner := &fakeRunner{
		failOn: func(command string, args []string) error {
			for _, a := range args {
				if a == "scale=-2:360" {
					return &execx.ProcessError{Command: command, ExitCode: 1, Stderr: "boom"}
				}
			}
			return nil
		},
	}
	tr := newTranscoder(t, store, runner)

	err := tr.Run(context.Background(), "v1")

	var perr *execx.ProcessError
	require.ErrorAs(t, err, &perr)
	assert.Zero(t, store.updateCount(), "no metadata persisted on abort")

	// Renditions finished before the failure stay on disk for the retry.
	_, statErr := os.Stat(filepath.Join(tr.Config.VideosDir("v1"), "clip_1080p.mp4"))
	assert.NoError(t, statErr)
}

func TestTranscodeNoRenditions(t *testing.T) {
	store := newFakeStore(sourceRecord("v1"))
	runner := &fakeRunner{}
	tr := newTranscoder(t, store, runner)
	tr.Ladder = []plan.Step{}

	err := tr.Run(context.Background(), "v1")
	assert.ErrorIs(t, err, ErrNoRenditions)
	assert.Zero(t, store.updateCount())
}

func TestPickPreferred(t *testing.T) {
	with720 := []media.Rendition{
		{Height: 1080, Path: "a"},
		{Height: 720, Path: "b"},
		{Height: 240, Path: "c"},
	}
	assert.Equal(t, "b", pickPreferred(with720))

	// No 720p: the maximum available height wins.
	without720 := []media.Rendition{
		{Height: 1080, Path: "a"},
		{Height: 360, Path: "c"},
		{Height: 240, Path: "d"},
	}
	assert.Equal(t, "a", pickPreferred(without720))
}
