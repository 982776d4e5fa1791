// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldJobID    = "job_id"
	FieldRecordID = "record_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldCommand   = "command"
	FieldExitCode  = "exit_code"

	// Media fields
	FieldHeight   = "height"
	FieldDuration = "duration_s"

	// Path fields
	FieldPath       = "path"
	FieldSourcePath = "source_path"
	FieldOutputPath = "output_path"
)
