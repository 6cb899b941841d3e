// internal/workers/data-access/search-profiles/config.go
package searchprofiles

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
