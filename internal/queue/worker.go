// SPDX-License-Identifier: MIT

package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/videoflix/renditiond/internal/log"
	"github.com/videoflix/renditiond/internal/metrics"
)

// HandlerFunc processes one task. The context carries the task's timeout
// budget and correlation IDs.
type HandlerFunc func(ctx context.Context, t Task) error

// Pool drains the queue with a fixed number of workers. Handler failures are
// logged and counted; the queue itself never retries.
type Pool struct {
	Queue          *Queue
	Workers        int
	DefaultTimeout time.Duration

	mu       sync.Mutex
	handlers map[Kind]HandlerFunc
}

// Register binds a handler to a task kind. Must be called before Run.
func (p *Pool) Register(kind Kind, fn HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handlers == nil {
		p.handlers = make(map[Kind]HandlerFunc)
	}
	p.handlers[kind] = fn
}

// Run blocks until ctx is cancelled, then drains the workers.
func (p *Pool) Run(ctx context.Context) error {
	workers := p.Workers
	if workers <= 0 {
		workers = 2
	}
	if p.DefaultTimeout <= 0 {
		p.DefaultTimeout = 30 * time.Minute
	}

	logger := log.WithComponent("worker")
	logger.Info().Int("workers", workers).Msg("worker pool starting")

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.loop(ctx, id)
		}(i)
	}
	wg.Wait()

	logger.Info().Msg("worker pool stopped")
	return ctx.Err()
}

func (p *Pool) loop(ctx context.Context, id int) {
	logger := log.WithComponent("worker").With().Int("worker", id).Logger()

	for {
		if ctx.Err() != nil {
			return
		}
		// Short blocking pop so cancellation is observed promptly.
		task, err := p.Queue.dequeue(ctx, time.Second)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			logger.Error().Err(err).Str(log.FieldEvent, "worker.dequeue_failed").Msg("dequeue failed")
			// Back off briefly so a dead Redis does not spin the loop.
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if task == nil {
			continue
		}
		p.dispatch(ctx, logger, *task)
	}
}

func (p *Pool) dispatch(ctx context.Context, logger zerolog.Logger, t Task) {
	p.mu.Lock()
	handler, ok := p.handlers[t.Kind]
	p.mu.Unlock()
	if !ok {
		logger.Error().
			Str(log.FieldEvent, "worker.unknown_kind").
			Str("kind", string(t.Kind)).
			Str(log.FieldJobID, t.ID).
			Msg("no handler registered for task kind")
		metrics.RecordJob(string(t.Kind), "failure", 0)
		return
	}

	taskCtx, cancel := context.WithTimeout(ctx, t.Timeout(p.DefaultTimeout))
	defer cancel()
	taskCtx = log.ContextWithJobID(taskCtx, t.ID)
	taskCtx = log.ContextWithRecordID(taskCtx, t.RecordID)

	start := time.Now()
	err := handler(taskCtx, t)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordJob(string(t.Kind), "failure", elapsed)
		logger.Error().Err(err).
			Str(log.FieldEvent, "worker.job_failed").
			Str("kind", string(t.Kind)).
			Str(log.FieldJobID, t.ID).
			Str(log.FieldRecordID, t.RecordID).
			Dur("elapsed", elapsed).
			Msg("job failed")
		return
	}

	metrics.RecordJob(string(t.Kind), "success", elapsed)
	logger.Info().
		Str(log.FieldEvent, "worker.job_done").
		Str("kind", string(t.Kind)).
		Str(log.FieldJobID, t.ID).
		Str(log.FieldRecordID, t.RecordID).
		Dur("elapsed", elapsed).
		Msg("job done")
}
