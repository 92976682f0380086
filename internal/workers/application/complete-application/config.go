// internal/workers/application/complete-application/config.go
package completeapplication

import (
	"time"

	"jtracker-hub/internal/common/config"
)

type Config struct {
	Enabled bool
	// ArchiveTimeout bounds the hand-off to the archive sinks.
	ArchiveTimeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	hc := config.GetHandlerConfig(cfg, TaskType)
	return &Config{
		Enabled:        config.IsHandlerEnabled(cfg, TaskType),
		ArchiveTimeout: config.GetDuration(hc.Timeout),
	}
}
