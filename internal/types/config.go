package types

import "time"

type (
	// Config holds the resolved settings for one run.
	Config struct {
		ProjectDir string        `mapstructure:"dir"`
		Exclude    []string      `mapstructure:"exclude"`
		Skip       []string      `mapstructure:"skip"`
		LogLevel   string        `mapstructure:"log_level"`
		OSVURL     string        `mapstructure:"osv_url"`
		Timeout    time.Duration `mapstructure:"timeout"`
	}
)
