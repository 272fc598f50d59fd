package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cansoftinc/vaadin-on-kotlin/consts"
)

// Loader 配置加载器: 文件(YAML/JSON) -> AppConfig, 再叠加 VOK_ 前缀的环境变量
type Loader struct {
	env        string
	configPath string
	// bizConfig: 业务方传入的指针, 用于填充 biz_config 小节
	bizConfig any
}

func NewLoader(env string, configPath string) *Loader {
	if env == "" {
		env = consts.ENV_DEVELOPMENT
	}
	if configPath == "" {
		configPath = consts.DEFAULT_CONFIG_PATH
	}
	return &Loader{env: env, configPath: configPath}
}

// SetBizConfig 注入业务方自定义配置结构指针 (例如: &MyBizConfig{}). 需要在 LoadConfig 之前调用。
func (l *Loader) SetBizConfig(b any) {
	if b == nil {
		return
	}
	if reflect.TypeOf(b).Kind() != reflect.Ptr {
		panic("SetBizConfig expects a pointer, e.g. &MyBizConfig{}")
	}
	l.bizConfig = b
}

// LoadConfig 先整体解析 AppConfig, 再把 biz_config 子树二次反序列化到业务指针,
// 最后应用环境变量覆盖。
func (l *Loader) LoadConfig() (*AppConfig, error) {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	ext := strings.ToLower(filepath.Ext(l.configPath))
	if err := unmarshalByExt(ext, data, &cfg); err != nil {
		return nil, err
	}

	if err := l.mergeEnvVars(ext, data, &cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides failed: %w", err)
	}

	if l.bizConfig != nil && cfg.BizConfig != nil {
		if err := decodeBizSection(ext, cfg.BizConfig, l.bizConfig); err != nil {
			return nil, fmt.Errorf("decode biz_config failed: %w", err)
		}
		cfg.BizConfig = l.bizConfig
	} else if l.bizConfig != nil {
		// 文件没有 biz_config, 保留业务方默认值
		cfg.BizConfig = l.bizConfig
	}

	if cfg.APPInfo == nil {
		cfg.APPInfo = &APPInfo{}
	}
	if cfg.APPInfo.ENV == "" {
		cfg.APPInfo.ENV = l.env
	}
	return &cfg, nil
}

func unmarshalByExt(ext string, data []byte, target any) error {
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
	return nil
}

// decodeBizSection 将 interface{} 子树重新序列化后解码到业务指针 (保留指针内已有默认值)
func decodeBizSection(ext string, raw any, target any) error {
	var (
		data []byte
		err  error
	)
	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(raw)
	case ".json":
		data, err = json.Marshal(raw)
	default:
		return fmt.Errorf("unsupported format: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("re-marshal biz_config failed: %w", err)
	}
	return unmarshalByExt(ext, data, target)
}

// mergeEnvVars 用环境变量覆盖文件中已出现的标量配置项。
// 键名规则: VOK_ + 大写(配置路径, "." -> "_"), 例如 http_server.address -> VOK_HTTP_SERVER_ADDRESS。
// 列表与对象类型的配置项不支持覆盖。
func (l *Loader) mergeEnvVars(ext string, data []byte, cfg *AppConfig) error {
	v := viper.New()
	v.SetConfigType(strings.TrimPrefix(ext, "."))
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return err
	}
	keys := v.AllKeys()
	original := make(map[string]any, len(keys))
	for _, key := range keys {
		original[key] = v.Get(key)
	}

	v.SetEnvPrefix(consts.ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	overrides := map[string]string{}
	for _, key := range keys {
		if _, ok := os.LookupEnv(envKey(key)); !ok {
			continue
		}
		switch original[key].(type) {
		case []any, map[string]any:
			continue
		}
		overrides[key] = v.GetString(key)
	}
	if len(overrides) == 0 {
		return nil
	}

	// JSON 也是合法的 YAML, 统一用 yaml.Node 打补丁后整体重新解码
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("config root must be a mapping")
	}
	for key, value := range overrides {
		setScalar(doc.Content[0], strings.Split(key, "."), value)
	}
	var patched AppConfig
	if err := doc.Content[0].Decode(&patched); err != nil {
		return err
	}
	*cfg = patched
	return nil
}

func envKey(key string) string {
	return consts.ENV_PREFIX + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// setScalar 按路径(忽略大小写)替换 mapping 中的标量; 写入未加引号的值, 类型由 yaml 推断
func setScalar(node *yaml.Node, path []string, value string) {
	if node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if !strings.EqualFold(node.Content[i].Value, path[0]) {
			continue
		}
		if len(path) == 1 {
			node.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Value: value}
			return
		}
		setScalar(node.Content[i+1], path[1:], value)
		return
	}
}
