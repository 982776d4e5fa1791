// SPDX-License-Identifier: MIT

// Package queue provides the Redis-backed durable job queue and the worker
// pool that drains it. Each task is an independently scheduled unit of work;
// ordering across records is not guaranteed.
package queue

import (
	"time"
)

// Kind identifies the handler a task is routed to.
type Kind string

const (
	KindTranscode Kind = "transcode"
	KindThumbnail Kind = "thumbnail"
)

// Task is the JSON envelope pushed onto the queue.
type Task struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	RecordID       string    `json:"record_id"`
	SourcePath     string    `json:"source_path,omitempty"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

// Timeout returns the task's execution budget, or the fallback when the
// envelope carries none.
func (t Task) Timeout(fallback time.Duration) time.Duration {
	if t.TimeoutSeconds <= 0 {
		return fallback
	}
	return time.Duration(t.TimeoutSeconds) * time.Second
}
