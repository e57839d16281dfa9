package di

import (
	"go.uber.org/zap"

	"mindboard/application/commands/bus"
	"mindboard/application/ports"
	domainconfig "mindboard/domain/config"
	"mindboard/infrastructure/config"
	"mindboard/infrastructure/persistence"
	"mindboard/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Domain     *domainconfig.DomainConfig
	LogLevel   zap.AtomicLevel
	Logger     *zap.Logger
	Metrics    *observability.Collector
	Store      ports.DocumentStore
	Saver      *persistence.AsyncSaver
	CommandBus *bus.CommandBus
}

// ApplyConfig applies the settings that may change while running
func (c *Container) ApplyConfig(cfg *config.Config) {
	if err := c.LogLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		c.Logger.Warn("Ignoring invalid log level", zap.String("log_level", cfg.LogLevel))
		return
	}
	c.Logger.Info("Log level changed", zap.String("log_level", cfg.LogLevel))
}
