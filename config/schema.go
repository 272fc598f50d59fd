package config

import (
	"github.com/cansoftinc/vaadin-on-kotlin/components/database"
	"github.com/cansoftinc/vaadin-on-kotlin/components/executor"
	"github.com/cansoftinc/vaadin-on-kotlin/components/http_server"
	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
	"github.com/cansoftinc/vaadin-on-kotlin/components/prometheus"
	"github.com/cansoftinc/vaadin-on-kotlin/components/redis"
	"github.com/cansoftinc/vaadin-on-kotlin/components/sessionmgr"
	"github.com/cansoftinc/vaadin-on-kotlin/components/telemetry"
)

// AppConfig 应用配置: 每个组件一个小节, 为 nil 或 enabled=false 时不注册该组件
type AppConfig struct {
	APPInfo    *APPInfo                      `yaml:"app_info" json:"app_info"`
	Logging    *logging.LoggingConfig        `yaml:"logging" json:"logging"`
	Database   *database.Config              `yaml:"database" json:"database"`
	Redis      *redis.Config                 `yaml:"redis" json:"redis"`
	HTTPServer *http_server.HTTPServerConfig `yaml:"http_server" json:"http_server"`
	Prometheus *prometheus.Config            `yaml:"prometheus" json:"prometheus"`
	Telemetry  *telemetry.Config             `yaml:"telemetry" json:"telemetry"`
	Executor   *executor.Config              `yaml:"executor" json:"executor"`
	Session    *sessionmgr.Config            `yaml:"session" json:"session"`

	// BizConfig 业务自定义配置, 见 Loader.SetBizConfig
	BizConfig any `yaml:"biz_config" json:"biz_config"`
}

type APPInfo struct {
	APPName string `yaml:"app_name" json:"app_name"`
	ENV     string `yaml:"env" json:"env"`
}
