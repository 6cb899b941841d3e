// internal/workers/matching/escalate-super-like/config.go
package escalatesuperlike

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
