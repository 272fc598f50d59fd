package consts

const (
	ENV_PRODUCTION  = "production"
	ENV_DEVELOPMENT = "development"
	ENV_TEST        = "test"

	DEFAULT_CONFIG_PATH = "config.yaml"

	// ENV_PREFIX 环境变量覆盖配置时使用的前缀, 例如 VOK_HTTP_SERVER_ADDRESS
	ENV_PREFIX = "VOK"

	KEY_TraceID = "trace_id"
)
