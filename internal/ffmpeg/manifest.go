// SPDX-License-Identifier: MIT

package ffmpeg

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/renameio/v2"
)

// ManifestName is the file written next to the renditions of a record.
const ManifestName = "manifest.json"

// ManifestEntry describes one produced rendition.
type ManifestEntry struct {
	Tag     string `json:"tag"`
	Height  int    `json:"height"`
	Bitrate string `json:"bitrate"`
	Path    string `json:"path"`
}

// Manifest summarises a completed transcode run. It lives beside the
// renditions so operators can inspect a record's output directory without
// touching the database.
type Manifest struct {
	RecordID   string          `json:"record_id"`
	Generated  time.Time       `json:"generated"`
	Renditions []ManifestEntry `json:"renditions"`
}

// WriteManifest persists the manifest atomically; a crashed writer never
// leaves a torn file behind.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path derives from the record's own directory
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}
