package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/cansoftinc/vaadin-on-kotlin/consts"
)

var knownEnvs = []string{consts.ENV_DEVELOPMENT, consts.ENV_TEST, consts.ENV_PRODUCTION}

// Validator 配置验证器
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAppConfig checks cross-section rules. Per-component rules live in each factory.
func (v *Validator) ValidateAppConfig(config *AppConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if config.APPInfo != nil && config.APPInfo.ENV != "" {
		if err := v.validateEnv(config.APPInfo.ENV); err != nil {
			return err
		}
	}
	if !loggingEnabled(config) && anyComponentEnabled(config) {
		return fmt.Errorf("logging.enabled=true is required, every component logs through it")
	}
	if config.Session != nil && config.Session.Enabled && config.Session.Store == "redis" {
		if config.Redis == nil || !config.Redis.Enabled {
			return fmt.Errorf("session.store=redis requires redis.enabled=true")
		}
	}
	if config.Session != nil && config.Session.Enabled && (config.Executor == nil || !config.Executor.Enabled) {
		return fmt.Errorf("session requires executor.enabled=true (expired session purge runs on the executor)")
	}
	return nil
}

func (v *Validator) validateConfigFilePath(env string, path string) error {
	if path == "" {
		return fmt.Errorf("config file path cannot be empty")
	}
	if len(path) > 255 {
		return fmt.Errorf("config file path is too long")
	}
	if !fileExists(path) {
		return fmt.Errorf("config file does not exist: %s", path)
	}
	return v.validateEnv(env)
}

func (v *Validator) validateEnv(env string) error {
	if !slices.Contains(knownEnvs, env) {
		return fmt.Errorf("running environment is not valid: %q (want one of %v)", env, knownEnvs)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func loggingEnabled(c *AppConfig) bool { return c.Logging != nil && c.Logging.Enabled }

func anyComponentEnabled(c *AppConfig) bool {
	return (c.Database != nil && c.Database.Enabled) ||
		(c.Redis != nil && c.Redis.Enabled) ||
		(c.HTTPServer != nil && c.HTTPServer.Enabled) ||
		(c.Prometheus != nil && c.Prometheus.Enabled) ||
		(c.Telemetry != nil && c.Telemetry.Enabled) ||
		(c.Executor != nil && c.Executor.Enabled) ||
		(c.Session != nil && c.Session.Enabled)
}
