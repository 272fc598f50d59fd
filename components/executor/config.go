package executor

import "time"

// Config 后台任务执行器配置
type Config struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	PoolSize     int           `yaml:"pool_size" json:"pool_size"`         // worker goroutines, default 4
	QueueSize    int           `yaml:"queue_size" json:"queue_size"`       // pending one-shot tasks, default 1024
	AwaitTimeout time.Duration `yaml:"await_timeout" json:"await_timeout"` // Stop 等待任务结束的时间, default 1m
}
