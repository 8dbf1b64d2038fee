package main

import (
	"path/filepath"

	"facet/internal/config"
	"facet/internal/logging"
)

func loggerOptions(cfg *config.Config) logging.Options {
	opts := logging.Options{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{"stdout"},
	}
	if cfg == nil {
		return opts
	}
	if cfg.Logging.Level != "" {
		opts.Level = cfg.Logging.Level
	}
	if cfg.Logging.Format != "" {
		opts.Format = cfg.Logging.Format
	}
	if cfg.Paths.LogDir != "" {
		opts.OutputPaths = append(opts.OutputPaths, filepath.Join(cfg.Paths.LogDir, "facetd.log"))
	}
	return opts
}
