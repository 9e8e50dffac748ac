package config

const (
	EnvPrefix = "SHOPFLOW"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "SHOPFLOW_APP_ENV"

	EnvDBDSN  = "SHOPFLOW_DB_DSN"
	EnvDBHost = "SHOPFLOW_DB_HOST"
	EnvDBUser = "SHOPFLOW_DB_USER"
	EnvDBName = "SHOPFLOW_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
