// internal/workers/lifecycle/install/config.go
package install

import "jtracker-hub/internal/common/config"

type Config struct {
	Enabled bool
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Enabled: config.IsHandlerEnabled(cfg, TaskType),
	}
}
