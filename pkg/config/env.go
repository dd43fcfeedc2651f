package config

// EnvPrefix is the shared prefix for every environment variable the service
// reads. envconfig also accepts tag names without the prefix, so the explicit
// A360_ tags on each field are authoritative.
const EnvPrefix = "A360"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "A360_APP_ENV"
	EnvPort     = "A360_APP_PORT"
	EnvLogLevel = "A360_LOG_LEVEL"

	EnvDBDSN  = "A360_DB_DSN"
	EnvDBHost = "A360_DB_HOST"
	EnvDBUser = "A360_DB_USER"
	EnvDBName = "A360_DB_NAME"

	EnvRedisURL = "A360_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
