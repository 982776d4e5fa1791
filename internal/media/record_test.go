// SPDX-License-Identifier: MIT

package media

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestVariantsReady(t *testing.T) {
	cases := []struct {
		name    string
		heights []int
		want    bool
	}{
		{"empty", nil, false},
		{"full ladder", []int{1080, 720, 360, 240}, true},
		{"exactly mandatory", []int{720, 360}, true},
		{"missing 360", []int{1080, 720, 240}, false},
		{"missing 720", []int{1080, 360, 240}, false},
		{"only 240", []int{240}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &Record{ID: "v1"}
			for _, h := range tc.heights {
				rec.Renditions = append(rec.Renditions, Rendition{Height: h, Path: "x"})
			}
			if got := rec.VariantsReady(); got != tc.want {
				t.Errorf("heights %v: got %v, want %v", tc.heights, got, tc.want)
			}
		})
	}
}

func TestVariant(t *testing.T) {
	rec := &Record{
		Renditions: []Rendition{
			{Height: 720, Path: "videos/v1/clip_720p.mp4"},
			{Height: 360, Path: "videos/v1/clip_360p.mp4"},
		},
	}

	path, ok := rec.Variant(720)
	if !ok || path != "videos/v1/clip_720p.mp4" {
		t.Fatalf("Variant(720) = %q, %v", path, ok)
	}
	if _, ok := rec.Variant(1080); ok {
		t.Fatal("Variant(1080) should not exist")
	}
}

func TestSortRenditions(t *testing.T) {
	rs := []Rendition{
		{Height: 240, Path: "d"},
		{Height: 1080, Path: "a"},
		{Height: 360, Path: "c"},
		{Height: 720, Path: "b"},
	}
	SortRenditions(rs)

	want := []Rendition{
		{Height: 1080, Path: "a"},
		{Height: 720, Path: "b"},
		{Height: 360, Path: "c"},
		{Height: 240, Path: "d"},
	}
	if diff := cmp.Diff(want, rs); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestSnapshotCopiesRenditions(t *testing.T) {
	rec := &Record{
		ID:                     "v1",
		SourcePath:             "/media/videos/v1/clip.mp4",
		PreferredRenditionPath: "videos/v1/clip_720p.mp4",
		Renditions:             []Rendition{{Height: 720, Path: "videos/v1/clip_720p.mp4"}},
	}

	snap := rec.Snapshot()
	rec.Renditions[0].Path = "mutated"

	if snap.Renditions[0].Path != "videos/v1/clip_720p.mp4" {
		t.Fatal("snapshot shares backing array with record")
	}
	if snap.ID != "v1" || snap.SourcePath != "/media/videos/v1/clip.mp4" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
