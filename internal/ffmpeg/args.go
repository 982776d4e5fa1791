// SPDX-License-Identifier: MIT

// Package ffmpeg builds argument vectors for the external transcoder and
// prober, and parses their output. It never spawns processes itself.
package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// Default binary names; overridable through configuration.
const (
	DefaultBinary      = "ffmpeg"
	DefaultProbeBinary = "ffprobe"
)

// TranscodeArgs produces the fixed encode template for one rendition:
// aspect-preserving scale to the target height (even dimensions), H.264 at
// constant quality, AAC stereo audio and a relocated moov atom for
// progressive playback.
func TranscodeArgs(src, dst string, height int) []string {
	return []string{
		"-y", "-i", src,
		"-vf", fmt.Sprintf("scale=-2:%d", height),
		"-c:v", "libx264", "-preset", "veryfast", "-crf", "23",
		"-c:a", "aac", "-b:a", "128k", "-ac", "2",
		"-movflags", "+faststart",
		dst,
	}
}

// ExtractFrameArgs produces the single-frame grab template used for hero and
// thumbnail images. Width is fixed; height follows the aspect ratio.
func ExtractFrameArgs(src, dst string, timestamp float64, width int) []string {
	return []string{
		"-y", "-i", src, "-ss", FormatTimestamp(timestamp),
		"-vframes", "1", "-vf", fmt.Sprintf("scale=%d:-1", width),
		dst,
	}
}

// ProbeDurationArgs queries the container duration in seconds as plain text.
func ProbeDurationArgs(src string) []string {
	return []string{
		"-v", "error", "-select_streams", "v:0",
		"-show_entries", "format=duration",
		"-of", "default=nokey=1:noprint_wrappers=1",
		src,
	}
}

// FormatTimestamp renders a seek offset the way ffmpeg expects it.
func FormatTimestamp(ts float64) string {
	return strconv.FormatFloat(ts, 'f', -1, 64)
}

// ParseDuration reads the prober's plain-text duration output.
func ParseDuration(out []byte) (float64, error) {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return 0, fmt.Errorf("empty duration output")
	}
	dur, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if dur < 0 {
		return 0, fmt.Errorf("negative duration %v", dur)
	}
	return dur, nil
}
