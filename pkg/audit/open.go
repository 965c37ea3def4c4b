package audit

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mercator-hq/relayscrub/pkg/config"
)

// Open creates the storage backend named by cfg.
func Open(cfg *config.AuditConfig, logger *slog.Logger) (Storage, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite", "":
		sqliteCfg := DefaultSQLiteConfig()
		if cfg.Path != "" {
			sqliteCfg.Path = cfg.Path
		}
		if dir := filepath.Dir(sqliteCfg.Path); sqliteCfg.Path != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, NewStorageError("sqlite", "create_dir", err)
			}
		}
		return NewSQLiteStorage(sqliteCfg, logger)
	}
	return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
}

// RetentionFromConfig converts the retention fields of cfg.
func RetentionFromConfig(cfg *config.AuditConfig) *RetentionConfig {
	return &RetentionConfig{
		RetentionDays: cfg.RetentionDays,
		MaxRecords:    cfg.MaxRecords,
		PruneSchedule: cfg.PruneSchedule,
	}
}
