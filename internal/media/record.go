// SPDX-License-Identifier: MIT

// Package media holds the domain model shared by the transcoding pipeline:
// the media record, its rendition list and the predicates derived from them.
package media

import (
	"sort"
	"time"
)

// Rendition is one encoded MP4 output at a specific target height. Path is
// relative to the media root so records stay portable across hosts.
type Rendition struct {
	Height int    `json:"height"`
	Path   string `json:"path"`
}

// Record is the pipeline's view of a media record. The record itself is owned
// by the surrounding application; the pipeline only reads the source path and
// writes the derived fields.
type Record struct {
	ID                     string
	SourcePath             string
	PreferredRenditionPath string
	HeroImagePath          string
	ThumbnailImagePath     string
	DurationSeconds        int
	Renditions             []Rendition
	CreatedAt              time.Time
}

// mandatoryHeights are the renditions a record must carry before it is
// considered playable.
var mandatoryHeights = []int{720, 360}

// VariantsReady reports whether the record's rendition heights cover the
// mandatory set. Derived on every call, never stored.
func (r *Record) VariantsReady() bool {
	if len(r.Renditions) == 0 {
		return false
	}
	heights := make(map[int]bool, len(r.Renditions))
	for _, v := range r.Renditions {
		heights[v.Height] = true
	}
	for _, h := range mandatoryHeights {
		if !heights[h] {
			return false
		}
	}
	return true
}

// Variant returns the relative path of the rendition with the given height.
func (r *Record) Variant(height int) (string, bool) {
	for _, v := range r.Renditions {
		if v.Height == height {
			return v.Path, true
		}
	}
	return "", false
}

// Snapshot captures the fields Cleanup needs before the record row is gone.
type Snapshot struct {
	ID                     string
	SourcePath             string
	PreferredRenditionPath string
	Renditions             []Rendition
}

// Snapshot returns the cleanup snapshot for the record.
func (r *Record) Snapshot() Snapshot {
	renditions := make([]Rendition, len(r.Renditions))
	copy(renditions, r.Renditions)
	return Snapshot{
		ID:                     r.ID,
		SourcePath:             r.SourcePath,
		PreferredRenditionPath: r.PreferredRenditionPath,
		Renditions:             renditions,
	}
}

// SortRenditions orders renditions by height, highest first. The persisted
// list always uses this order.
func SortRenditions(rs []Rendition) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].Height > rs[j].Height })
}
