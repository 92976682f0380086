// internal/workers/application/set-application-in-progress/config.go
package setapplicationinprogress

import "jtracker-hub/internal/common/config"

type Config struct {
	Enabled bool
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Enabled: config.IsHandlerEnabled(cfg, TaskType),
	}
}
