// internal/workers/menu/menu-clicked/config.go
package menuclicked

import "jtracker-hub/internal/common/config"

type Config struct {
	Enabled bool
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Enabled: config.IsHandlerEnabled(cfg, TaskType),
	}
}
