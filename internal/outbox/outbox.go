// Package outbox pushes remote persistence work off the request path. Jobs
// are enqueued after the local commit succeeds; a single worker drains them
// with bounded retries, and exhausted jobs are logged and dropped so the
// register keeps running when the backup store is unreachable.
package outbox

import (
	"context"
	"log"
	"sync"
	"time"
)

type Job struct {
	// Name identifies the job in worker logs, e.g. "persist-sale sal-123".
	Name string
	Run  func(ctx context.Context) error
}

type Outbox struct {
	jobs        chan Job
	done        chan struct{}
	wg          sync.WaitGroup
	maxAttempts int
	backoff     time.Duration
	stopOnce    sync.Once
}

func New(bufferSize int, maxAttempts int, backoff time.Duration) *Outbox {
	if bufferSize < 1 {
		bufferSize = 64
	}
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &Outbox{
		jobs:        make(chan Job, bufferSize),
		done:        make(chan struct{}),
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// Start launches the worker goroutine. Call once.
func (o *Outbox) Start(ctx context.Context) {
	o.wg.Add(1)
	go o.worker(ctx)
}

// Enqueue never blocks the caller: when the buffer is full the job is
// dropped with a warning. Local state stays authoritative either way.
func (o *Outbox) Enqueue(job Job) {
	select {
	case <-o.done:
		log.Printf("[outbox] WARN: rejected %q, outbox stopped", job.Name)
		return
	default:
	}

	select {
	case o.jobs <- job:
	default:
		log.Printf("[outbox] WARN: dropped %q, buffer full", job.Name)
	}
}

// Stop drains nothing further and waits for the in-flight job to finish.
func (o *Outbox) Stop() {
	o.stopOnce.Do(func() {
		close(o.done)
	})
	o.wg.Wait()
}

func (o *Outbox) worker(ctx context.Context) {
	defer o.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.done:
			return
		case job := <-o.jobs:
			o.process(ctx, job)
		}
	}
}

func (o *Outbox) process(ctx context.Context, job Job) {
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		err := job.Run(ctx)
		if err == nil {
			return
		}
		if attempt == o.maxAttempts {
			log.Printf("[outbox] WARN: giving up on %q after %d attempts: %v", job.Name, attempt, err)
			return
		}
		log.Printf("[outbox] WARN: %q attempt %d failed, retrying: %v", job.Name, attempt, err)

		select {
		case <-ctx.Done():
			return
		case <-o.done:
			return
		case <-time.After(o.backoff * time.Duration(attempt)):
		}
	}
}
