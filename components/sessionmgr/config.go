package sessionmgr

import "time"

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config session 组件配置
type Config struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Store      string `yaml:"store" json:"store"`             // memory | redis
	CookieName string `yaml:"cookie_name" json:"cookie_name"` // default VOKSESSIONID
	// TTL is the idle time after which a session expires.
	TTL           time.Duration `yaml:"ttl" json:"ttl"`
	PurgeInterval time.Duration `yaml:"purge_interval" json:"purge_interval"` // memory store only
	KeyPrefix     string        `yaml:"key_prefix" json:"key_prefix"`         // redis store only
	Secure        bool          `yaml:"secure" json:"secure"`
	SameSite      string        `yaml:"same_site" json:"same_site"` // lax | strict | none
}
