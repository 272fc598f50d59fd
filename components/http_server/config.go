package http_server

import "time"

// HTTPServerConfig defines server settings.
type HTTPServerConfig struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	Address         string        `yaml:"address" json:"address"`                   // e.g. ":8080"
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`         // whole request incl. body
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`       // whole response
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`         // keep-alive
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`   // handler context deadline
	GracefulTimeout time.Duration `yaml:"graceful_timeout" json:"graceful_timeout"` // in-flight requests on shutdown
	// Built-in endpoints
	EnableHealth bool `yaml:"enable_health" json:"enable_health"`
	EnablePprof  bool `yaml:"enable_pprof" json:"enable_pprof"`
	// ServiceName injected from APPInfo.APPName
	ServiceName string `yaml:"-" json:"-"`
}
