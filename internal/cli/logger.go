package cli

import (
	"github.com/glorpus-work/imagehunter/internal/logger"
	"github.com/glorpus-work/imagehunter/pkg/config"
)

// InitLogger initializes the global logger for CLI operations from the
// effective configuration.
func InitLogger(cfg *config.Config) {
	logger.InitLogger(cfg.Settings.LogLevel, logger.OutputFormat(cfg.Settings.LogFormat))
}
