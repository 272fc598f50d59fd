package logging

import "time"

// LoggingConfig 日志配置
type LoggingConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	Level        string        `yaml:"level" json:"level"`   // debug|info|warn|error|fatal
	Format       string        `yaml:"format" json:"format"` // json|console
	Output       string        `yaml:"output" json:"output"` // stdout|stderr|file|<path>
	FileConfig   *FileConfig   `yaml:"file_config,omitempty" json:"file_config,omitempty"`
	RotateConfig *RotateConfig `yaml:"rotate_config,omitempty" json:"rotate_config,omitempty"`
}

// FileConfig 文件输出配置
type FileConfig struct {
	Dir      string `yaml:"dir" json:"dir"`
	Filename string `yaml:"filename" json:"filename"` // 文件名前缀, 不含 .log
}

// RotateConfig 日志轮转配置. RotateInterval>0 按时间轮转, 否则交给 lumberjack 按大小轮转.
type RotateConfig struct {
	Enabled        bool          `yaml:"enabled" json:"enabled"`
	RotateInterval time.Duration `yaml:"rotate_interval" json:"rotate_interval"`
	MaxSizeMB      int           `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups     int           `yaml:"max_backups" json:"max_backups"`
	MaxAge         time.Duration `yaml:"max_age" json:"max_age"`
	CleanupEnabled bool          `yaml:"cleanup_enabled" json:"cleanup_enabled"`
}
