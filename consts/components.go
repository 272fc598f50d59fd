package consts

const (
	COMPONENT_LOGGING     = "logging"
	COMPONENT_DATABASE    = "database"
	COMPONENT_REDIS       = "redis"
	COMPONENT_HTTP_SERVER = "http_server"
	COMPONENT_PROMETHEUS  = "prometheus"
	COMPONENT_TELEMETRY   = "telemetry"
	COMPONENT_EXECUTOR    = "executor"
	COMPONENT_SESSION     = "session"
)
