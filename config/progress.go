package config

import "time"

// Progress controls how transfer progress is rendered.
type Progress struct {
	// Interval is the minimum time between two progress updates.
	Interval time.Duration `mapstructure:"interval"`
}
