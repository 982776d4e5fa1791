// SPDX-License-Identifier: MIT

package jobs

import "errors"

var (
	// ErrMissingSource is returned when a record has no uploaded source
	// file; there is nothing to transcode.
	ErrMissingSource = errors.New("record has no source file")

	// ErrNoRenditions is returned when a transcode run ends with zero
	// renditions on disk; empty metadata is never persisted.
	ErrNoRenditions = errors.New("no renditions produced")

	// ErrProbe is returned when the prober's duration output is unusable.
	ErrProbe = errors.New("media duration unparsable")
)
