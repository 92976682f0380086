// internal/workers/tabs/tab-created/config.go
package tabcreated

import "jtracker-hub/internal/common/config"

type Config struct {
	Enabled bool
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Enabled: config.IsHandlerEnabled(cfg, TaskType),
	}
}
