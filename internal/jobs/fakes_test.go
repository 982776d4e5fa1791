// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/videoflix/renditiond/internal/media"
)

// fakeStore is an in-memory RecordStore that applies partial updates the way
// the SQLite store does and remembers every update it saw.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]*media.Record
	updates []media.Fields
}

func newFakeStore(recs ...*media.Record) *fakeStore {
	s := &fakeStore{records: make(map[string]*media.Record)}
	for _, r := range recs {
		s.records[r.ID] = r
	}
	return s
}

func (s *fakeStore) Load(ctx context.Context, id string) (*media.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s not found", id)
	}
	cp := *rec
	cp.Renditions = append([]media.Rendition(nil), rec.Renditions...)
	return &cp, nil
}

func (s *fakeStore) Update(ctx context.Context, id string, fields media.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("record %s not found", id)
	}
	if fields.SourcePath != nil {
		rec.SourcePath = *fields.SourcePath
	}
	if fields.PreferredRenditionPath != nil {
		rec.PreferredRenditionPath = *fields.PreferredRenditionPath
	}
	if fields.HeroImagePath != nil {
		rec.HeroImagePath = *fields.HeroImagePath
	}
	if fields.ThumbnailImagePath != nil {
		rec.ThumbnailImagePath = *fields.ThumbnailImagePath
	}
	if fields.DurationSeconds != nil {
		rec.DurationSeconds = *fields.DurationSeconds
	}
	if fields.Renditions != nil {
		rec.Renditions = append([]media.Rendition(nil), (*fields.Renditions)...)
	}
	s.updates = append(s.updates, fields)
	return nil
}

func (s *fakeStore) get(id string) *media.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

func (s *fakeStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

type call struct {
	command string
	args    []string
}

// fakeRunner imitates the external binaries: the prober returns a canned
// duration, the transcoder creates its output file (last argument).
type fakeRunner struct {
	mu       sync.Mutex
	calls    []call
	probeOut string
	failOn   func(command string, args []string) error
}

func (r *fakeRunner) Run(ctx context.Context, command string, args ...string) ([]byte, []byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, call{command: command, args: args})
	r.mu.Unlock()

	if r.failOn != nil {
		if err := r.failOn(command, args); err != nil {
			return nil, []byte("simulated failure"), err
		}
	}
	if strings.Contains(command, "ffprobe") {
		return []byte(r.probeOut), nil, nil
	}
	dst := args[len(args)-1]
	if err := os.WriteFile(dst, []byte("media"), 0o644); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *fakeRunner) callsFor(command string) []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []call
	for _, c := range r.calls {
		if strings.Contains(c.command, command) {
			out = append(out, c)
		}
	}
	return out
}
