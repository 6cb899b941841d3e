// internal/workers/infrastructure/check-usage-quota/config.go
package checkusagequota

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
