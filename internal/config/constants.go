package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	// EnvJWTSecret overrides jwt_secret from the file.
	EnvJWTSecret = "AUTHCORE_JWT_SECRET"

	defaultPort       = 2333
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "authcore"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0
	defaultMongoURI   = "mongodb://127.0.0.1:27017"
	defaultMongoDB    = "authcore"

	defaultAccessTTL     = 15 * time.Minute
	defaultRefreshTTL    = 7 * 24 * time.Hour
	defaultSweepAt       = "03:00"
	defaultSweepInterval = 24 * time.Hour
)

// Durable store backends.
const (
	StoreMySQL = "mysql"
	StoreMongo = "mongo"
)
