// Package persistence holds the store-independent pieces of the save path:
// the background saver and store decorators.
package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"mindboard/application/ports"
	"mindboard/domain/core/entities"
	pkgerrors "mindboard/pkg/errors"
	"mindboard/pkg/observability"
)

// Save outcomes recorded in metrics
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusRejected = "rejected"
)

// SaverConfig tunes the background saver
type SaverConfig struct {
	QueueSize       int
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// DefaultSaverConfig returns sensible defaults
func DefaultSaverConfig() SaverConfig {
	return SaverConfig{
		QueueSize:       64,
		Timeout:         5 * time.Second,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

type saveJob struct {
	documentID string
	nodes      []entities.Node
}

// AsyncSaver turns the editor's fire-and-forget save callback into ordered
// store writes on one background goroutine. A full queue drops the save.
type AsyncSaver struct {
	store   ports.DocumentStore
	config  SaverConfig
	breaker *gobreaker.CircuitBreaker
	metrics *observability.Collector
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan saveJob
	done   chan struct{}
}

// NewAsyncSaver starts the worker. metrics may be nil.
func NewAsyncSaver(store ports.DocumentStore, config SaverConfig, metrics *observability.Collector, logger *zap.Logger) *AsyncSaver {
	defaults := DefaultSaverConfig()
	if config.QueueSize < 1 {
		config.QueueSize = defaults.QueueSize
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.BreakerFailures < 1 {
		config.BreakerFailures = defaults.BreakerFailures
	}
	if config.BreakerCooldown <= 0 {
		config.BreakerCooldown = defaults.BreakerCooldown
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &AsyncSaver{
		store:   store,
		config:  config,
		metrics: metrics,
		logger:  logger.Named("saver"),
		queue:   make(chan saveJob, config.QueueSize),
		done:    make(chan struct{}),
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "document-store",
		MaxRequests: 1,
		Timeout:     config.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			s.logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A missing document is the caller's problem, not the store's
		IsSuccessful: func(err error) bool {
			return err == nil || pkgerrors.IsNotFound(err)
		},
	})

	go s.run()
	return s
}

// Save enqueues a snapshot without blocking. It matches ports.SaveFunc.
func (s *AsyncSaver) Save(documentID string, nodes []entities.Node) {
	job := saveJob{documentID: documentID, nodes: entities.CloneNodes(nodes)}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.drop(documentID, "saver closed")
		return
	}

	select {
	case s.queue <- job:
	default:
		s.drop(documentID, "queue full")
	}
}

// SaveFunc returns the callback the editor is constructed with
func (s *AsyncSaver) SaveFunc() ports.SaveFunc {
	return s.Save
}

// State reports the circuit breaker state
func (s *AsyncSaver) State() gobreaker.State {
	return s.breaker.State()
}

func (s *AsyncSaver) drop(documentID, reason string) {
	if s.metrics != nil {
		s.metrics.RecordDrop()
	}
	s.logger.Warn("Save dropped",
		zap.String("document_id", documentID),
		zap.String("reason", reason),
	)
}

func (s *AsyncSaver) run() {
	defer close(s.done)
	for job := range s.queue {
		s.write(job)
	}
}

func (s *AsyncSaver) write(job saveJob) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	start := time.Now()
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.store.Save(ctx, job.documentID, job.nodes)
	})
	elapsed := time.Since(start)

	status := StatusOK
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = StatusRejected
		s.logger.Warn("Save rejected by circuit breaker",
			zap.String("document_id", job.documentID),
			zap.Error(err),
		)
	case err != nil:
		status = StatusError
		s.logger.Error("Save failed",
			zap.String("document_id", job.documentID),
			zap.Int("node_count", len(job.nodes)),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
	default:
		s.logger.Debug("Save completed",
			zap.String("document_id", job.documentID),
			zap.Int("node_count", len(job.nodes)),
			zap.Duration("duration", elapsed),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordSave(status, elapsed.Seconds())
	}
}

// Close stops accepting saves and waits for queued ones to finish.
// It returns ctx.Err() if the queue has not drained in time.
func (s *AsyncSaver) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
