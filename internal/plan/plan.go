// SPDX-License-Identifier: MIT

// Package plan decides which renditions of the fixed ladder still need to be
// produced for a source file. Output names are deterministic from the source
// stem and target height, so repeated runs converge on the same paths.
package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Step is one ladder entry. The bitrate is recorded in the manifest for
// downstream consumers; the encode itself is constant-quality.
type Step struct {
	Tag     string
	Height  int
	Bitrate string
}

// Ladder is the fixed list of target renditions, highest first.
var Ladder = []Step{
	{Tag: "1080p", Height: 1080, Bitrate: "5000k"},
	{Tag: "720p", Height: 720, Bitrate: "3000k"},
	{Tag: "360p", Height: 360, Bitrate: "800k"},
	{Tag: "240p", Height: 240, Bitrate: "400k"},
}

// Entry is one planned rendition. Done entries already exist on disk and must
// not be re-encoded.
type Entry struct {
	Step
	AbsPath string // absolute output path
	RelPath string // path relative to the media root, forward slashes
	Done    bool
}

// Plan is the full ladder resolved against the filesystem.
type Plan struct {
	Entries []Entry
}

// OutputName returns the canonical rendition file name for a source stem.
func OutputName(stem string, s Step) string {
	return fmt.Sprintf("%s_%s.mp4", stem, s.Tag)
}

// Stem returns the source file name without its extension.
func Stem(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Build resolves the ladder against outDir. Entries whose output file already
// exists are marked Done so the caller only fills gaps.
func Build(ladder []Step, mediaRoot, outDir, stem string) (Plan, error) {
	p := Plan{Entries: make([]Entry, 0, len(ladder))}
	for _, step := range ladder {
		abs := filepath.Join(outDir, OutputName(stem, step))
		rel, err := filepath.Rel(mediaRoot, abs)
		if err != nil {
			return Plan{}, fmt.Errorf("relativise %s: %w", abs, err)
		}
		entry := Entry{
			Step:    step,
			AbsPath: abs,
			RelPath: filepath.ToSlash(rel),
		}
		if _, err := os.Stat(abs); err == nil {
			entry.Done = true
		} else if !os.IsNotExist(err) {
			return Plan{}, fmt.Errorf("stat %s: %w", abs, err)
		}
		p.Entries = append(p.Entries, entry)
	}
	return p, nil
}

// Pending returns the entries that still need encoding, in ladder order.
func (p Plan) Pending() []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if !e.Done {
			out = append(out, e)
		}
	}
	return out
}

// Done returns the entries whose output already exists.
func (p Plan) Done() []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if e.Done {
			out = append(out, e)
		}
	}
	return out
}
