package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names.
const EnvPrefix = "DELICES"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "DELICES_APP_ENV"
	EnvPort     = "DELICES_APP_PORT"
	EnvDBDSN    = "DELICES_DB_DSN"
	EnvDBHost   = "DELICES_DB_HOST"
	EnvDBUser   = "DELICES_DB_USER"
	EnvDBName   = "DELICES_DB_NAME"
	EnvRedisURL = "DELICES_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
