package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
app_info:
  app_name: vok-demo
logging:
  enabled: true
  level: debug
http_server:
  enabled: true
  address: ":8080"
  read_timeout: 5s
executor:
  enabled: true
  pool_size: 2
database:
  enabled: true
  dialect: postgres
  data_sources:
    main:
      host: localhost
      port: 5432
      user: vok
      database: vok
biz_config:
  greeting: hello
  page_size: 25
`

type demoBiz struct {
	Greeting string `yaml:"greeting"`
	PageSize int    `yaml:"page_size"`
	Unset    string `yaml:"unset"`
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoaderParsesSections(t *testing.T) {
	path := writeConfig(t, "config.yaml", sampleYAML)
	biz := &demoBiz{Unset: "default"}
	cm := NewConfigManagerWithBiz("test", path, biz)
	if err := cm.LoadConfig(); err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := cm.GetConfig()
	if cfg.APPInfo.APPName != "vok-demo" || cfg.APPInfo.ENV != "test" {
		t.Fatalf("app info = %+v", cfg.APPInfo)
	}
	if cfg.HTTPServer == nil || cfg.HTTPServer.ReadTimeout != 5*time.Second {
		t.Fatalf("http_server = %+v", cfg.HTTPServer)
	}
	if cfg.Executor == nil || cfg.Executor.PoolSize != 2 {
		t.Fatalf("executor = %+v", cfg.Executor)
	}
	if ds := cfg.Database.DataSources["main"]; ds == nil || ds.Port != 5432 {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cm.BizConfig() != biz || biz.Greeting != "hello" || biz.PageSize != 25 || biz.Unset != "default" {
		t.Fatalf("biz config = %+v", biz)
	}
}

func TestLoaderAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, "config.yaml", sampleYAML)
	t.Setenv("VOK_HTTP_SERVER_ADDRESS", ":9999")
	t.Setenv("VOK_EXECUTOR_POOL_SIZE", "8")
	t.Setenv("VOK_DATABASE_DATA_SOURCES_MAIN_HOST", "db.internal")

	cfg, err := NewLoader("test", path).LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPServer.Address != ":9999" {
		t.Fatalf("address = %q", cfg.HTTPServer.Address)
	}
	if cfg.Executor.PoolSize != 8 {
		t.Fatalf("pool size = %d", cfg.Executor.PoolSize)
	}
	ds := cfg.Database.DataSources["main"]
	if ds.Host != "db.internal" || ds.User != "vok" {
		t.Fatalf("data source = %+v", ds)
	}
	if cfg.HTTPServer.ReadTimeout != 5*time.Second {
		t.Fatalf("non-overridden field lost: %v", cfg.HTTPServer.ReadTimeout)
	}
}

func TestLoaderJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"app_info":{"app_name":"json-app","env":"production"},"executor":{"enabled":true,"pool_size":3}}`)
	cfg, err := NewLoader("production", path).LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APPInfo.APPName != "json-app" || cfg.Executor.PoolSize != 3 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestConfigManagerRejectsBadInput(t *testing.T) {
	if err := NewConfigManager("test", filepath.Join(t.TempDir(), "missing.yaml")).LoadConfig(); err == nil {
		t.Fatalf("expected missing file error")
	}
	path := writeConfig(t, "config.yaml", sampleYAML)
	if err := NewConfigManager("staging", path).LoadConfig(); err == nil {
		t.Fatalf("expected invalid env error")
	}
	path = writeConfig(t, "config.toml", "x = 1")
	if err := NewConfigManager("test", path).LoadConfig(); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	path = writeConfig(t, "config.yaml", "logging:\n  enabled: true\nsession:\n  enabled: true\n  store: redis\nexecutor:\n  enabled: true\n")
	if err := NewConfigManager("test", path).LoadConfig(); err == nil {
		t.Fatalf("expected redis requirement error")
	}
	path = writeConfig(t, "config.yaml", "executor:\n  enabled: true\n")
	if err := NewConfigManager("test", path).LoadConfig(); err == nil {
		t.Fatalf("expected logging requirement error")
	}
}
