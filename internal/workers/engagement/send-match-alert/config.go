package sendmatchalert

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Region        string        `mapstructure:"region"`
	SenderEmail   string        `mapstructure:"sender_email"`
	SMSEnabled    bool          `mapstructure:"sms_enabled"`
	// SMSThreshold is the quality band at or above which a match earns the
	// SMS channel even without a super like.
	SMSThreshold string `mapstructure:"sms_priority_threshold"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		Region:        "us-east-1",
		SenderEmail:   "matches@fundmatch.io",
		SMSEnabled:    true,
		SMSThreshold:  "HIGH",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.SenderEmail == "" {
		return fmt.Errorf("sender_email is required")
	}
	if c.SMSThreshold != "" {
		if _, ok := qualityRank[c.SMSThreshold]; !ok {
			return fmt.Errorf("sms_priority_threshold must be LOW, MEDIUM, or HIGH")
		}
	}
	return nil
}
