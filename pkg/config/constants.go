package config

// EnvPrefix namespaces every environment variable the loader reads.
const EnvPrefix = "STOCKROOM"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// DefaultSQLiteDSN backs the sqlite feature flag when no DSN is given.
	DefaultSQLiteDSN = "file:stockroom.db?_fk=1"
)

const (
	EnvAppEnv = "STOCKROOM_APP_ENV"
	EnvDBDSN  = "STOCKROOM_DB_DSN"
	EnvDBHost = "STOCKROOM_DB_HOST"
	EnvDBUser = "STOCKROOM_DB_USER"
	EnvDBName = "STOCKROOM_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
