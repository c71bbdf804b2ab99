package config

// EnvPrefix namespaces every environment variable the app reads.
const EnvPrefix = "VELORA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "VELORA_DB_DSN"
	EnvDBHost = "VELORA_DB_HOST"
	EnvDBUser = "VELORA_DB_USER"
	EnvDBName = "VELORA_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
