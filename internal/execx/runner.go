// SPDX-License-Identifier: MIT

// Package execx runs external media binaries synchronously and maps non-zero
// exits to typed errors. Retries are a policy decision of the caller.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/videoflix/renditiond/internal/log"
)

// stderr tails longer than this are truncated before they reach the error
// value; ffmpeg can emit megabytes on a failed encode.
const maxStderrTail = 4096

// ProcessError reports a non-zero exit of an external binary.
type ProcessError struct {
	Command  string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.ExitCode, e.Stderr)
}

// Runner invokes external binaries and captures their output.
type Runner struct{}

// Run executes the binary synchronously and returns both captured streams.
// A non-zero exit status yields a *ProcessError; every other failure (binary
// missing, context cancelled) is returned as-is so callers can tell the two
// apart.
func (Runner) Run(ctx context.Context, command string, args ...string) (stdout, stderr []byte, err error) {
	logger := log.WithComponentFromContext(ctx, "execx")

	logger.Debug().
		Str(log.FieldEvent, "process.start").
		Str(log.FieldCommand, command).
		Strs("args", args).
		Msg("spawning external process")

	cmd := exec.CommandContext(ctx, command, args...) // #nosec G204 -- argv is built from fixed templates
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout = outBuf.Bytes()
	stderr = errBuf.Bytes()

	// Both streams are logged regardless of outcome for diagnosability.
	if len(stdout) > 0 {
		logger.Debug().
			Str(log.FieldCommand, command).
			Str("stream", "stdout").
			Msg(tail(stdout))
	}
	if len(stderr) > 0 {
		logger.Debug().
			Str(log.FieldCommand, command).
			Str("stream", "stderr").
			Msg(tail(stderr))
	}

	if runErr != nil {
		if ctx.Err() != nil {
			return stdout, stderr, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			perr := &ProcessError{
				Command:  command,
				Args:     args,
				ExitCode: exitErr.ExitCode(),
				Stderr:   tail(stderr),
			}
			logger.Error().
				Str(log.FieldEvent, "process.failed").
				Str(log.FieldCommand, command).
				Int(log.FieldExitCode, perr.ExitCode).
				Msg("external process failed")
			return stdout, stderr, perr
		}
		return stdout, stderr, fmt.Errorf("exec %s: %w", command, runErr)
	}

	logger.Debug().
		Str(log.FieldEvent, "process.done").
		Str(log.FieldCommand, command).
		Msg("external process finished")
	return stdout, stderr, nil
}

func tail(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxStderrTail {
		s = "..." + s[len(s)-maxStderrTail:]
	}
	return s
}
