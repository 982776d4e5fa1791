// SPDX-License-Identifier: MIT

// Package jobs implements the three units of work of the transcoding
// pipeline: producing the rendition ladder, extracting images, and cleaning
// up a deleted record's artifacts. Jobs run synchronously on a worker; every
// on-disk step checks its own precondition so re-runs only fill gaps.
package jobs

import (
	"context"
	"path/filepath"

	"github.com/videoflix/renditiond/internal/ffmpeg"
	"github.com/videoflix/renditiond/internal/media"
)

// RecordStore is the persistence surface the jobs need: load a record and
// apply a partial update that leaves untouched fields alone.
type RecordStore interface {
	Load(ctx context.Context, id string) (*media.Record, error)
	Update(ctx context.Context, id string, fields media.Fields) error
}

// Runner executes an external binary and captures its output streams.
type Runner interface {
	Run(ctx context.Context, command string, args ...string) (stdout, stderr []byte, err error)
}

// Config carries the filesystem layout and binary locations shared by all
// jobs.
type Config struct {
	MediaRoot  string
	FFmpegBin  string
	FFprobeBin string
}

func (c Config) ffmpeg() string {
	if c.FFmpegBin != "" {
		return c.FFmpegBin
	}
	return ffmpeg.DefaultBinary
}

func (c Config) ffprobe() string {
	if c.FFprobeBin != "" {
		return c.FFprobeBin
	}
	return ffmpeg.DefaultProbeBinary
}

// Fixed layout under the media root. Changing these breaks compatibility
// with already-persisted relative paths.
const (
	heroFileName  = "hero.jpg"
	thumbFileName = "thumb.png"
)

// VideosDir returns the rendition output directory for a record.
func (c Config) VideosDir(id string) string {
	return filepath.Join(c.MediaRoot, "videos", id)
}

// HeroDir returns the hero-frame directory for a record.
func (c Config) HeroDir(id string) string {
	return filepath.Join(c.MediaRoot, "hero", id)
}

// ThumbsDir returns the thumbnail directory for a record.
func (c Config) ThumbsDir(id string) string {
	return filepath.Join(c.MediaRoot, "thumbs", id)
}
