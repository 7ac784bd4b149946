// Package config decodes subsystem defaults from the environment:
// `env:"..."` tags decoded by github.com/joeshaw/envdecode, with
// github.com/joho/godotenv loading a local .env file first. Covers the
// settings this framework actually needs: queue sizing, scheduler timing,
// and the dependency-graph cache size.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// QueueConfig controls BoundedQueue defaults.
type QueueConfig struct {
	Capacity int    `env:"SUBSYSTEM_QUEUE_CAPACITY"`
	Policy   string `env:"SUBSYSTEM_QUEUE_POLICY"` // drop-oldest|drop-newest|reject
}

// SchedulerConfig controls the cooperative Scheduler facet defaults.
type SchedulerConfig struct {
	TimeSliceMillis int `env:"SUBSYSTEM_SCHEDULER_TIME_SLICE_MS"`
	Priority        int `env:"SUBSYSTEM_SCHEDULER_PRIORITY"`
}

// CacheConfig controls the DependencyGraphCache.
type CacheConfig struct {
	MaxEntries int `env:"SUBSYSTEM_PLAN_CACHE_SIZE"`
}

// Config aggregates all environment-tunable defaults.
type Config struct {
	Queue     QueueConfig
	Scheduler SchedulerConfig
	Cache     CacheConfig
	Debug     bool `env:"SUBSYSTEM_DEBUG"`
}

// Default returns the framework's built-in defaults: LRU size 50,
// reject-by-default overflow policy.
func Default() Config {
	return Config{
		Queue: QueueConfig{
			Capacity: 256,
			Policy:   "reject",
		},
		Scheduler: SchedulerConfig{
			TimeSliceMillis: 10,
			Priority:        0,
		},
		Cache: CacheConfig{
			MaxEntries: 50,
		},
		Debug: false,
	}
}

// FromEnv starts from Default(), loads a local .env file if present, and
// overlays whatever `env:"..."` tagged fields envdecode finds set in the
// environment.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Default()
	if err := envdecode.Decode(&cfg); err != nil {
		// envdecode errors when none of the tagged fields are set in the
		// environment; treat that as "no overrides" so defaults stand.
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			fmt.Fprintf(os.Stderr, "config: envdecode: %v\n", err)
		}
	}

	return cfg
}
