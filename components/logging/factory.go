package logging

import (
	"fmt"
	"strings"

	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

// Factory 日志组件工厂
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(cfg interface{}) (core.Component, error) {
	loggingConfig, ok := cfg.(*LoggingConfig)
	if !ok {
		return nil, fmt.Errorf("invalid config type for logging component, expected *LoggingConfig")
	}
	if loggingConfig == nil || !loggingConfig.Enabled {
		return nil, fmt.Errorf("logging component is disabled")
	}

	f.setDefaults(loggingConfig)
	if err := f.validate(loggingConfig); err != nil {
		return nil, err
	}
	return NewLoggerComponent(loggingConfig), nil
}

func (f *Factory) setDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
	if strings.EqualFold(cfg.Output, "file") && cfg.FileConfig == nil {
		cfg.FileConfig = &FileConfig{Dir: "./logs", Filename: "vok"}
	}
	if rc := cfg.RotateConfig; rc != nil && rc.Enabled && rc.MaxSizeMB <= 0 {
		rc.MaxSizeMB = 100
	}
}

func (f *Factory) validate(cfg *LoggingConfig) error {
	if _, ok := parseLevel(cfg.Level); !ok {
		return fmt.Errorf("logging.level %q is not supported", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q is not supported (json|console)", cfg.Format)
	}
	if rc := cfg.RotateConfig; rc != nil && rc.Enabled {
		if rc.RotateInterval < 0 {
			return fmt.Errorf("logging.rotate_config.rotate_interval must be >= 0")
		}
		if rc.MaxAge < 0 {
			return fmt.Errorf("logging.rotate_config.max_age must be >= 0")
		}
	}
	return nil
}
