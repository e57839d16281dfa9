package persistence

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mindboard/application/ports"
	"mindboard/domain/core/aggregates"
	"mindboard/domain/core/entities"
	pkgerrors "mindboard/pkg/errors"
)

// LoggingConfig controls what the logging decorator records
type LoggingConfig struct {
	LogErrors     bool
	LogLevel      zapcore.Level
	SlowThreshold time.Duration
}

// DefaultLoggingConfig returns sensible defaults for logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogErrors:     true,
		LogLevel:      zapcore.DebugLevel,
		SlowThreshold: time.Second,
	}
}

// LoggingStore is a decorator that logs every DocumentStore call with its
// duration. Slow calls are raised to warn; misses are logged at debug.
type LoggingStore struct {
	inner  ports.DocumentStore
	logger *zap.Logger
	config LoggingConfig
}

// NewLoggingStore wraps inner
func NewLoggingStore(inner ports.DocumentStore, logger *zap.Logger, config LoggingConfig) *LoggingStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingStore{
		inner:  inner,
		logger: logger.Named("document_store"),
		config: config,
	}
}

var _ ports.DocumentStore = (*LoggingStore)(nil)

// Load wraps the load operation with logging
func (s *LoggingStore) Load(ctx context.Context, id string) (*aggregates.Document, error) {
	start := time.Now()
	doc, err := s.inner.Load(ctx, id)

	fields := []zap.Field{zap.String("operation", "load"), zap.String("document_id", id)}
	if doc != nil {
		fields = append(fields, zap.Int("node_count", len(doc.Nodes())))
	}
	s.finish(start, err, fields...)
	return doc, err
}

// Save wraps the save operation with logging
func (s *LoggingStore) Save(ctx context.Context, id string, nodes []entities.Node) error {
	start := time.Now()
	err := s.inner.Save(ctx, id, nodes)
	s.finish(start, err,
		zap.String("operation", "save"),
		zap.String("document_id", id),
		zap.Int("node_count", len(nodes)),
	)
	return err
}

// Create wraps the create operation with logging
func (s *LoggingStore) Create(ctx context.Context, doc *aggregates.Document) error {
	start := time.Now()
	err := s.inner.Create(ctx, doc)
	s.finish(start, err,
		zap.String("operation", "create"),
		zap.String("document_id", doc.ID().String()),
		zap.String("title", doc.Title()),
	)
	return err
}

// List wraps the list operation with logging
func (s *LoggingStore) List(ctx context.Context) ([]ports.DocumentSummary, error) {
	start := time.Now()
	list, err := s.inner.List(ctx)
	s.finish(start, err, zap.String("operation", "list"), zap.Int("count", len(list)))
	return list, err
}

// Delete wraps the delete operation with logging
func (s *LoggingStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, id)
	s.finish(start, err, zap.String("operation", "delete"), zap.String("document_id", id))
	return err
}

func (s *LoggingStore) finish(start time.Time, err error, fields ...zap.Field) {
	duration := time.Since(start)
	fields = append(fields, zap.Duration("duration", duration))

	if err != nil {
		if !s.config.LogErrors {
			return
		}
		if pkgerrors.IsNotFound(err) {
			s.logger.Debug("document not found", append(fields, zap.Error(err))...)
			return
		}
		s.logger.Error("store operation failed", append(fields, zap.Error(err))...)
		return
	}

	level, message := s.config.LogLevel, "store operation completed"
	if s.config.SlowThreshold > 0 && duration > s.config.SlowThreshold {
		level, message = zapcore.WarnLevel, "slow store operation completed"
	}
	if ce := s.logger.Check(level, message); ce != nil {
		ce.Write(fields...)
	}
}
