package config

import (
	"fmt"
	"time"

	domainconfig "mindboard/domain/config"
	"mindboard/pkg/utils"
)

// Environment names the deployment environment
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
	Test        Environment = "test"
)

// StoreDriver selects the document store implementation
type StoreDriver string

const (
	DriverMemory   StoreDriver = "memory"
	DriverSQLite   StoreDriver = "sqlite"
	DriverDynamoDB StoreDriver = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	Environment Environment `yaml:"environment" validate:"required,oneof=development production test"`
	LogLevel    string      `yaml:"log_level" validate:"required,oneof=debug info warn error"`

	Store StoreConfig `yaml:"store"`
	Saver SaverConfig `yaml:"saver"`
	Board BoardConfig `yaml:"board"`

	// LoadedFrom lists the sources applied, lowest priority first
	LoadedFrom []string `yaml:"-"`
}

// StoreConfig selects and configures persistence
type StoreConfig struct {
	Driver     StoreDriver    `yaml:"driver" validate:"required,oneof=memory sqlite dynamodb"`
	SQLitePath string         `yaml:"sqlite_path"`
	DynamoDB   DynamoDBConfig `yaml:"dynamodb"`

	// CacheTTL enables the read cache when positive
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`
}

// DynamoDBConfig configures the DynamoDB store
type DynamoDBConfig struct {
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // local emulator; empty means AWS
}

// SaverConfig tunes the background saver
type SaverConfig struct {
	QueueSize       int           `yaml:"queue_size" validate:"gte=1,lte=10000"`
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
	BreakerFailures uint32        `yaml:"breaker_failures" validate:"gte=1"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" validate:"gt=0"`
}

// BoardConfig is the file form of the domain rules
type BoardConfig struct {
	MinScale         float64                              `yaml:"min_scale" validate:"gt=0"`
	MaxScale         float64                              `yaml:"max_scale" validate:"gtefield=MinScale"`
	WheelSensitivity float64                              `yaml:"wheel_sensitivity" validate:"gt=0"`
	ZoomAnchor       string                               `yaml:"zoom_anchor" validate:"oneof=origin cursor"`
	HistoryLimit     int                                  `yaml:"history_limit" validate:"gte=1,lte=1000"`
	ChildGapX        float64                              `yaml:"child_gap_x" validate:"gte=0"`
	ChildGapY        float64                              `yaml:"child_gap_y" validate:"gte=0"`
	Kinds            map[string]domainconfig.KindDefaults `yaml:"kinds" validate:"dive"`
}

// Default returns the configuration used before any file or variable applies
func Default() *Config {
	d := domainconfig.DefaultDomainConfig()
	return &Config{
		Environment: Development,
		LogLevel:    "info",
		Store: StoreConfig{
			Driver:     DriverMemory,
			SQLitePath: "mindboard.db",
			DynamoDB: DynamoDBConfig{
				Table:  "mindboard",
				Region: "us-west-2",
			},
		},
		Saver: SaverConfig{
			QueueSize:       64,
			Timeout:         5 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Board: BoardConfig{
			MinScale:         d.MinScale,
			MaxScale:         d.MaxScale,
			WheelSensitivity: d.WheelSensitivity,
			ZoomAnchor:       string(d.ZoomAnchor),
			HistoryLimit:     d.HistoryLimit,
			ChildGapX:        d.ChildGapX,
			ChildGapY:        d.ChildGapY,
			Kinds:            d.Kinds,
		},
	}
}

// Validate checks struct tags, then the rules that span fields
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	case DriverDynamoDB:
		if c.Store.DynamoDB.Table == "" {
			return fmt.Errorf("store.dynamodb.table is required for the dynamodb driver")
		}
		if c.Store.DynamoDB.Region == "" {
			return fmt.Errorf("store.dynamodb.region is required for the dynamodb driver")
		}
	}

	return nil
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// Domain builds the board rules the domain packages consume
func (c *Config) Domain() *domainconfig.DomainConfig {
	d := domainconfig.DefaultDomainConfig()
	d.MinScale = c.Board.MinScale
	d.MaxScale = c.Board.MaxScale
	d.WheelSensitivity = c.Board.WheelSensitivity
	d.ZoomAnchor = domainconfig.ZoomAnchor(c.Board.ZoomAnchor)
	d.HistoryLimit = c.Board.HistoryLimit
	d.ChildGapX = c.Board.ChildGapX
	d.ChildGapY = c.Board.ChildGapY
	for kind, defaults := range c.Board.Kinds {
		d.Kinds[kind] = defaults
	}
	return d.Normalize()
}
