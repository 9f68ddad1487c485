package config

import (
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/utils"
)

// SyncRetryConfig bounds the queue replay and the reachability probes of a
// drain pass.
//
// Env overrides (optional):
// - POS_SYNC_MAX_RETRIES (default 3): replay attempts before a queue item is
//   evicted as poison
// - POS_SYNC_PROBE_ATTEMPTS (default 4): reachability probes per drain pass
// - POS_SYNC_BASE_BACKOFF_MS (default 500)
// - POS_SYNC_MAX_BACKOFF_SECONDS (default 30)
// - POS_SYNC_DRAIN_INTERVAL_SECONDS (default 30): periodic drain trigger
type SyncRetryConfig struct {
	MaxRetries    int
	ProbeAttempts int
	BaseBackoff   time.Duration
	MaxBackoff    time.Duration
	DrainInterval time.Duration
}

func GetSyncRetryConfig() SyncRetryConfig {
	return SyncRetryConfig{
		MaxRetries:    utils.IntFromEnv("POS_SYNC_MAX_RETRIES", 3),
		ProbeAttempts: utils.IntFromEnv("POS_SYNC_PROBE_ATTEMPTS", 4),
		BaseBackoff:   time.Duration(utils.IntFromEnv("POS_SYNC_BASE_BACKOFF_MS", 500)) * time.Millisecond,
		MaxBackoff:    time.Duration(utils.IntFromEnv("POS_SYNC_MAX_BACKOFF_SECONDS", 30)) * time.Second,
		DrainInterval: time.Duration(utils.IntFromEnv("POS_SYNC_DRAIN_INTERVAL_SECONDS", 30)) * time.Second,
	}
}

// SkipMigrations disables AutoMigrate on startup.
//
// Set via env:
// - SKIP_MIGRATIONS=true
func SkipMigrations() bool {
	return utils.BoolFromEnv("SKIP_MIGRATIONS", false)
}
