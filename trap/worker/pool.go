// Package worker provides an asynchronous worker pool that persists attack
// logs through a storage.Driver and publishes them through an
// eventstream.Publisher.
//
// The pool keeps storage and publishing off the trap's HTTP hot path so that
// the response an attacker sees never waits on a database or a broker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/chameleon/pkg/eventstream"
	chlog "github.com/papercomputeco/chameleon/pkg/logger"
	"github.com/papercomputeco/chameleon/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
	defaultJobTimeout        = 10 * time.Second
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Log  storage.AttackLog
	Meta eventstream.SynthMeta
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting attack logs.
	Driver storage.Driver

	// Publisher receives an event for every persisted log.
	// Defaults to no publishing when nil.
	Publisher eventstream.Publisher

	// Source identifies this trap in published events.
	Source eventstream.EventSource

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// JobTimeout bounds the storage and publish calls of one job.
	JobTimeout time.Duration

	// OnDrop is called when a job is dropped because the queue is full.
	OnDrop func(Job)

	Logger *slog.Logger
}

// Pool processes storage jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
	now    func() time.Time

	closeOnce sync.Once
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, errors.New("worker pool requires a storage driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = chlog.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: logger,
		now:    time.Now,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"id", job.Log.ID,
			"endpoint", job.Log.Endpoint,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"id", job.Log.ID,
			"method", job.Log.RequestMethod,
			"endpoint", job.Log.Endpoint,
		)
		if p.config.OnDrop != nil {
			p.config.OnDrop(job)
		}
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the trap HTTP server has stopped.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("storage worker stopped", "worker_id", id)
}

// processJob stores the attack log and, once stored, publishes it.
// Failures are logged and the job is discarded.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	log := job.Log
	if err := p.config.Driver.Put(ctx, &log); err != nil {
		p.logger.Error("attack log storage failed",
			"id", log.ID,
			"endpoint", log.Endpoint,
			"error", err,
		)
		return
	}

	p.logger.Info("attack recorded",
		"id", log.ID,
		"ip", log.IPAddress,
		"method", log.RequestMethod,
		"endpoint", log.Endpoint,
		"outcome", log.Outcome,
	)

	if p.config.Publisher == nil {
		return
	}

	event := eventstream.NewAttackRecordedEvent(log, p.config.Source, job.Meta, p.now())
	if err := p.config.Publisher.PublishAttack(ctx, event); err != nil {
		p.logger.Warn("failed to publish attack event",
			"id", log.ID,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	p.logger.Debug("published attack event",
		"id", log.ID,
		"event_id", event.EventID,
	)
}
