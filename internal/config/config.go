// Package config defines service configuration structures and loading hooks.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SQLitePath locates the weights/audit database file.
	SQLitePath string `koanf:"sqlite_path"`

	// AuditQueueSize bounds the in-memory audit queue.
	AuditQueueSize int `koanf:"audit_queue_size"`

	// AuditWorkerCount sets the number of audit writer workers.
	AuditWorkerCount int `koanf:"audit_worker_count"`

	// Parallelism bounds concurrent per-candidate slot finding and scoring.
	Parallelism int `koanf:"parallelism"`

	// ConfigCacheTTLMS sets the active-config cache validity in milliseconds.
	ConfigCacheTTLMS int `koanf:"config_cache_ttl_ms"`

	// MaxServiceRadiusMeters is the distance at which the distance score
	// reaches zero.
	MaxServiceRadiusMeters float64 `koanf:"max_service_radius_meters"`

	// AvgSpeedKmh drives ETA estimates in the default distance resolver.
	AvgSpeedKmh float64 `koanf:"avg_speed_kmh"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		SQLitePath:             "data/dispatch.db",
		AuditQueueSize:         10_000,
		AuditWorkerCount:       2,
		Parallelism:            runtime.NumCPU(),
		ConfigCacheTTLMS:       5_000,
		MaxServiceRadiusMeters: 50_000,
		AvgSpeedKmh:            40,
	}
}
