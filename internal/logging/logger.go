package logging

import (
	"fmt"

	"github.com/mergington/announcements/config"
	"go.uber.org/zap"
)

// New builds the process logger. ENV=dev gets the console development
// config; everything else logs JSON at info.
func New(cfg config.LogConfig, env string) (*zap.Logger, error) {
	var zapCfg zap.Config
	if env == "dev" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	if cfg.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}

	return zapCfg.Build()
}
