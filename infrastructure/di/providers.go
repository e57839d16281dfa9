// Package di wires the application's dependencies.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"mindboard/application/commands/bus"
	"mindboard/application/ports"
	domainconfig "mindboard/domain/config"
	"mindboard/infrastructure/config"
	"mindboard/infrastructure/persistence"
	"mindboard/infrastructure/persistence/dynamodb"
	"mindboard/infrastructure/persistence/memory"
	"mindboard/infrastructure/persistence/sqlite"
	"mindboard/pkg/observability"
)

// saverCloseTimeout bounds how long shutdown waits for queued saves
const saverCloseTimeout = 10 * time.Second

// ProvideLogLevel parses the configured level into an adjustable one
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level: %w", err)
	}
	return level, nil
}

// ProvideLogger creates a configured logger
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, func(), error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = logger.Sync()
	}
	return logger, cleanup, nil
}

// ProvideMetrics creates the metrics collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("mindboard")
}

// ProvideDomainConfig builds the board rules
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.Domain()
}

// ProvideAWSConfig loads AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Store.DynamoDB.Region),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client, honoring a local endpoint
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	endpoint := cfg.Store.DynamoDB.Endpoint
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// ProvideStore opens the configured document store and applies decorators
func ProvideStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.DocumentStore, func(), error) {
	var (
		store   ports.DocumentStore
		cleanup = func() {}
	)

	switch cfg.Store.Driver {
	case config.DriverMemory:
		store = memory.NewDocumentStore()

	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store = s
		cleanup = func() {
			if err := s.Close(); err != nil {
				logger.Warn("Failed to close sqlite store", zap.Error(err))
			}
		}

	case config.DriverDynamoDB:
		awsCfg, err := ProvideAWSConfig(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := ProvideDynamoDBClient(awsCfg, cfg)
		store = dynamodb.NewDocumentStore(client, cfg.Store.DynamoDB.Table, logger)

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Store.CacheTTL > 0 {
		store = persistence.NewCachingStore(store, cfg.Store.CacheTTL)
	}
	store = persistence.NewLoggingStore(store, logger, persistence.DefaultLoggingConfig())

	logger.Info("Document store ready",
		zap.String("driver", string(cfg.Store.Driver)),
		zap.Duration("cache_ttl", cfg.Store.CacheTTL),
	)
	return store, cleanup, nil
}

// ProvideSaver starts the background saver; cleanup drains it
func ProvideSaver(store ports.DocumentStore, cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) (*persistence.AsyncSaver, func()) {
	saver := persistence.NewAsyncSaver(store, persistence.SaverConfig{
		QueueSize:       cfg.Saver.QueueSize,
		Timeout:         cfg.Saver.Timeout,
		BreakerFailures: cfg.Saver.BreakerFailures,
		BreakerCooldown: cfg.Saver.BreakerCooldown,
	}, metrics, logger)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), saverCloseTimeout)
		defer cancel()
		if err := saver.Close(ctx); err != nil {
			logger.Error("Saver did not drain before shutdown", zap.Error(err))
		}
	}
	return saver, cleanup
}

// ProvideCommandBus creates the input command bus with its middleware chain
func ProvideCommandBus(logger *zap.Logger) *bus.CommandBus {
	return bus.NewCommandBus(
		bus.RecoveryMiddleware(logger),
		bus.LoggingMiddleware(logger),
		bus.ContextMiddleware(),
	)
}
