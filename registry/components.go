package registry

import (
	"fmt"

	"github.com/cansoftinc/vaadin-on-kotlin/components/database"
	"github.com/cansoftinc/vaadin-on-kotlin/components/executor"
	"github.com/cansoftinc/vaadin-on-kotlin/components/http_server"
	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
	"github.com/cansoftinc/vaadin-on-kotlin/components/prometheus"
	"github.com/cansoftinc/vaadin-on-kotlin/components/redis"
	"github.com/cansoftinc/vaadin-on-kotlin/components/sessionmgr"
	"github.com/cansoftinc/vaadin-on-kotlin/components/telemetry"
	"github.com/cansoftinc/vaadin-on-kotlin/config"
	"github.com/cansoftinc/vaadin-on-kotlin/consts"
	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

func init() {
	Register(consts.COMPONENT_LOGGING, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Logging == nil || !cfg.Logging.Enabled {
			return false, nil, nil
		}
		comp, err := logging.NewFactory().Create(cfg.Logging)
		return true, comp, err
	})

	Register(consts.COMPONENT_DATABASE, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Database == nil || !cfg.Database.Enabled {
			return false, nil, nil
		}
		comp, err := database.NewFactory().Create(cfg.Database)
		return true, comp, err
	})

	Register(consts.COMPONENT_REDIS, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Redis == nil || !cfg.Redis.Enabled {
			return false, nil, nil
		}
		comp, err := redis.NewFactory().Create(cfg.Redis)
		return true, comp, err
	})

	Register(consts.COMPONENT_PROMETHEUS, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Prometheus == nil || !cfg.Prometheus.Enabled {
			return false, nil, nil
		}
		comp, err := prometheus.NewFactory().Create(cfg.Prometheus)
		return true, comp, err
	})

	Register(consts.COMPONENT_TELEMETRY, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Telemetry == nil || !cfg.Telemetry.Enabled {
			return false, nil, nil
		}
		if cfg.Telemetry.ServiceName == "" && cfg.APPInfo != nil {
			cfg.Telemetry.ServiceName = cfg.APPInfo.APPName
		}
		if cfg.Telemetry.ServiceName == "" {
			return false, nil, fmt.Errorf("telemetry.service_name empty and app_info.app_name not provided")
		}
		return true, telemetry.NewTelemetryComponent(cfg.Telemetry), nil
	})

	// executor 的指标需要 prometheus 先启动
	RegisterWithDeps(consts.COMPONENT_EXECUTOR, []string{consts.COMPONENT_PROMETHEUS}, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Executor == nil || !cfg.Executor.Enabled {
			return false, nil, nil
		}
		comp, err := executor.NewFactory().Create(cfg.Executor)
		if err != nil {
			return true, nil, err
		}
		if cfg.Prometheus != nil && cfg.Prometheus.Enabled {
			ExtendRuntimeDependencies(consts.COMPONENT_EXECUTOR, consts.COMPONENT_PROMETHEUS)
		}
		if cfg.Telemetry != nil && cfg.Telemetry.Enabled {
			ExtendRuntimeDependencies(consts.COMPONENT_EXECUTOR, consts.COMPONENT_TELEMETRY)
		}
		return true, comp, nil
	})

	RegisterAuto(func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Session == nil || !cfg.Session.Enabled {
			return false, nil, nil
		}
		comp, err := sessionmgr.NewFactory().Create(cfg.Session)
		return true, comp, err
	})

	RegisterAuto(func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.HTTPServer == nil || !cfg.HTTPServer.Enabled {
			return false, nil, nil
		}
		if cfg.HTTPServer.ServiceName == "" && cfg.APPInfo != nil {
			cfg.HTTPServer.ServiceName = cfg.APPInfo.APPName
		}
		comp, err := http_server.NewFactory(c).Create(cfg.HTTPServer)
		if err != nil {
			return true, nil, err
		}
		if cfg.Telemetry != nil && cfg.Telemetry.Enabled {
			ExtendRuntimeDependencies(consts.COMPONENT_HTTP_SERVER, consts.COMPONENT_TELEMETRY)
		}
		return true, comp, nil
	})
}
