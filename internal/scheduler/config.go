package scheduler

import (
	"time"
)

// Config controls scheduler intervals and batch sizes.
type Config struct {
	RunInterval time.Duration
	BatchSize   int
	EnabledJobs []string

	// GraceDay is the last day of the month a period may be paid without
	// consequence. Overdue handling starts the day after.
	GraceDay int

	// CourtesyDay is the day of the month the friendly reminder goes out.
	CourtesyDay int
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		BatchSize:   50,
		GraceDay:    10,
		CourtesyDay: 5,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.GraceDay <= 0 {
		c.GraceDay = defaults.GraceDay
	}
	if c.CourtesyDay <= 0 {
		c.CourtesyDay = defaults.CourtesyDay
	}
	return c
}
