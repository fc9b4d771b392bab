// Package worker persists committed conversation turns asynchronously using
// the provided storage.Driver and announces them on an eventstream.Publisher.
//
// The pool decouples storage and publishing from the chat loop so a slow
// database or broker never delays the next generation increment.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/leonia/pkg/eventstream"
	"github.com/papercomputeco/leonia/pkg/logger"
	"github.com/papercomputeco/leonia/pkg/merkle"
	"github.com/papercomputeco/leonia/pkg/storage"
)

var (
	defaultNumWorkers   uint = 1
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Node *merkle.Node
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting nodes.
	Driver storage.Driver

	// Publisher is the optional event publisher for newly stored turns.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool. Defaults to
	// 1, which keeps a session's turns in commit order.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool processes storage jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

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

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: log,
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
	if job.Node == nil {
		p.logger.Error("job not queued, nil node")
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"hash", job.Node.Hash,
			"session", job.Node.Bucket.Session,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"hash", job.Node.Hash,
			"session", job.Node.Bucket.Session,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Enqueue must not be called after Close.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
		p.wg.Wait()
	})
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

// processJob stores the turn and, when it was not already stored, publishes it.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()
	node := job.Node

	isNew, err := p.config.Driver.Put(ctx, node)
	if err != nil {
		p.logger.Error("async DAG storage failed",
			"hash", node.Hash,
			"error", err,
		)
		return
	}

	p.logger.Info("turn stored",
		"hash", node.Hash,
		"session", node.Bucket.Session,
		"is_new", isNew,
	)

	if !isNew || p.config.Publisher == nil {
		return
	}

	if err := p.config.Publisher.PublishTurn(ctx, eventstream.NewTurnPersistedEvent(node)); err != nil {
		p.logger.Warn("failed to publish turn event",
			"hash", node.Hash,
			"error", err,
		)
	}
}
