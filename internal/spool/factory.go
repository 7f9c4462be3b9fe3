package spool

import (
	"fmt"

	"drive-go/internal/config"
	"drive-go/internal/drive"
)

// NewSpoolFromConfig creates a Spool implementation based on the config type.
func NewSpoolFromConfig(cfg config.SpoolConfig) (drive.Spool, error) {
	switch cfg.Type {
	case "memory":
		return NewMemorySpool(cfg.MaxSize), nil
	case "filesystem":
		if cfg.SpoolDir == "" {
			return nil, fmt.Errorf("filesystem spool requires spool_dir to be set")
		}
		return NewFileSystemSpool(cfg.SpoolDir, cfg.MaxSize)
	default:
		return nil, fmt.Errorf("unknown spool type: %q", cfg.Type)
	}
}
