// Package config builds the handful of settings every redbase entry
// point needs before it can construct the PF/RM/IX/SM/QL managers,
// grounded on RichardKnop-minisql/cmd/minisql's main() (a LOG_LEVEL env
// var fed through pkg/logging, everything else a hardcoded default).
package config

import (
	"os"
	"strconv"

	"go.uber.org/zap/zapcore"

	"github.com/David-Chen31/RedBase-Development/pkg/logging"
)

// Config is a plain struct with defaults, not a flags/YAML layer —
// nothing in the retrieval pack reaches for one of those for a
// database engine's own entry point.
type Config struct {
	// DBDir is the directory the catalog and every relation/index file
	// live under.
	DBDir string
	// BufferFrames is the PF buffer pool's capacity in pages.
	BufferFrames int
	// QuotaPages is the per-database page allocation limit. Zero means
	// unlimited.
	QuotaPages int64
	// LogLevel names a zapcore.Level ("debug", "info", ...).
	LogLevel string
}

const (
	defaultDBDir        = "db"
	defaultBufferFrames = 4096
)

// FromEnv reads REDBASE_DB_DIR, REDBASE_BUFFER_FRAMES,
// REDBASE_QUOTA_PAGES and LOG_LEVEL, falling back to defaults for any
// that are unset or unparseable.
func FromEnv() Config {
	cfg := Config{
		DBDir:        defaultDBDir,
		BufferFrames: defaultBufferFrames,
		LogLevel:     "info",
	}
	if dir := os.Getenv("REDBASE_DB_DIR"); dir != "" {
		cfg.DBDir = dir
	}
	if frames := os.Getenv("REDBASE_BUFFER_FRAMES"); frames != "" {
		if n, err := strconv.Atoi(frames); err == nil && n > 0 {
			cfg.BufferFrames = n
		}
	}
	if quota := os.Getenv("REDBASE_QUOTA_PAGES"); quota != "" {
		if n, err := strconv.ParseInt(quota, 10, 64); err == nil && n > 0 {
			cfg.QuotaPages = n
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	return cfg
}

// Level parses LogLevel, defaulting to info on a bad value.
func (c Config) Level() zapcore.Level {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
