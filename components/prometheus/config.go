package prometheus

// Config for Prometheus metrics exporter.
type Config struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Address 独立监听地址, 为空时只挂载到 http_server 的 Path 上
	Address          string `yaml:"address" json:"address"`
	Path             string `yaml:"path" json:"path"` // default /metrics
	Namespace        string `yaml:"namespace" json:"namespace"`
	Subsystem        string `yaml:"subsystem" json:"subsystem"`
	CollectGoMetrics *bool  `yaml:"collect_go_metrics" json:"collect_go_metrics"` // default true
	CollectProcess   *bool  `yaml:"collect_process" json:"collect_process"`       // default true
}
