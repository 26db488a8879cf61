package mail

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrQueueFull is reported when Dispatch finds no room in the queue.
	ErrQueueFull = errors.New("mail: queue full")
	// ErrStopped is reported for messages dispatched after Stop.
	ErrStopped = errors.New("mail: dispatcher stopped")
)

// Job is one queued message.
type Job struct {
	ID      string
	Message Message
}

// FailureHandler is told about every job that could not be delivered.
// It runs on a worker goroutine, or on the caller's goroutine when the job
// is rejected at Dispatch time.
type FailureHandler func(job Job, err error)

// Config holds the dispatcher settings.
type Config struct {
	// Workers is the number of goroutines sending mail.
	Workers int
	// QueueSize is how many messages may wait for a worker.
	QueueSize int
	// SendTimeout bounds a single Sender.Send call.
	SendTimeout time.Duration
	// OnFailure replaces the default error log when set.
	OnFailure FailureHandler
}

func DefaultConfig() Config {
	return Config{
		Workers:     2,
		QueueSize:   100,
		SendTimeout: 10 * time.Second,
	}
}

// Dispatcher sends mail asynchronously through a fixed pool of workers.
type Dispatcher struct {
	sender    Sender
	config    Config
	logger    *slog.Logger
	jobs      chan Job
	wg        sync.WaitGroup
	startOnce sync.Once

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher creates a dispatcher. Call Start before dispatching and Stop
// on shutdown.
func NewDispatcher(sender Sender, cfg Config, logger *slog.Logger) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = def.SendTimeout
	}

	d := &Dispatcher{
		sender: sender,
		config: cfg,
		logger: logger,
		jobs:   make(chan Job, cfg.QueueSize),
	}
	if d.config.OnFailure == nil {
		d.config.OnFailure = d.logFailure
	}
	return d
}

// Start launches the workers. Calling it again has no effect.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.logger.Info("starting mail dispatcher",
			slog.Int("workers", d.config.Workers),
			slog.Int("queueSize", d.config.QueueSize),
		)
		for i := 0; i < d.config.Workers; i++ {
			d.wg.Add(1)
			go d.worker()
		}
	})
}

// Dispatch queues msg and returns its job id without waiting for delivery.
// If the queue is full or the dispatcher is stopped the job fails at once
// and the failure handler is called before Dispatch returns.
func (d *Dispatcher) Dispatch(msg Message) string {
	job := Job{ID: uuid.NewString(), Message: msg}

	if err := d.enqueue(job); err != nil {
		d.config.OnFailure(job, err)
		return job.ID
	}

	d.logger.Debug("mail queued", slog.String("jobID", job.ID), slog.String("to", msg.To))
	return job.ID
}

func (d *Dispatcher) enqueue(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrStopped
	}

	select {
	case d.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new jobs, lets the workers finish everything already queued
// and waits for them. It is safe to call more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.jobs)
	d.mu.Unlock()

	d.logger.Info("shutting down mail dispatcher", slog.Int("pending", len(d.jobs)))
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for job := range d.jobs {
		d.send(job)
	}
}

// send delivers one job with its own deadline, independent of the request
// that queued it.
func (d *Dispatcher) send(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.SendTimeout)
	defer cancel()

	start := time.Now()
	if err := d.sender.Send(ctx, job.Message); err != nil {
		d.config.OnFailure(job, err)
		return
	}

	d.logger.Info("mail sent",
		slog.String("jobID", job.ID),
		slog.String("to", job.Message.To),
		slog.Duration("duration", time.Since(start)),
	)
}

func (d *Dispatcher) logFailure(job Job, err error) {
	d.logger.Error("mail delivery failed",
		slog.String("jobID", job.ID),
		slog.String("to", job.Message.To),
		slog.String("subject", job.Message.Subject),
		slog.String("error", err.Error()),
	)
}
