package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at configPath, applies defaults and the
// AUTHCORE_JWT_SECRET override, then validates the result.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	cfg, err := parse(content, path)
	if err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(path); err == nil {
		cfg.baseDir = filepath.Dir(abs)
	}
	return cfg, nil
}

func parse(content []byte, path string) (*AppConfig, error) {
	var raw rawAppConfig
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := cfg.merge(raw); err != nil {
		return nil, fmt.Errorf("%w in %q", err, path)
	}
	if v := strings.TrimSpace(os.Getenv(EnvJWTSecret)); v != "" {
		cfg.JWTSecret = v
	}
	if err := cfg.finish(); err != nil {
		return nil, fmt.Errorf("%w in %q", err, path)
	}
	return cfg, nil
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Port:  defaultPort,
		Env:   defaultEnv,
		Store: StoreMySQL,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Mongo: MongoRuntimeConfig{URI: defaultMongoURI, Database: defaultMongoDB},
		Token: TokenConfig{AccessTTL: defaultAccessTTL, RefreshTTL: defaultRefreshTTL},
		Sweep: SweepConfig{Enable: true, At: defaultSweepAt, Interval: defaultSweepInterval},
	}
}

// merge copies every non-empty raw value over the defaults.
func (c *AppConfig) merge(raw rawAppConfig) error {
	setInt(&c.Port, raw.Port)
	setString(&c.Store, raw.Store)
	setString(&c.Env, raw.Env)
	setString(&c.JWTSecret, raw.JWTSecret)
	setString(&c.Timezone, raw.Timezone)
	setString(&c.Timezone, raw.TZ)
	setString(&c.Paths.Logs, raw.Paths.Logs)
	if raw.AllowedOrigins != nil {
		c.AllowedOrigins = c.AllowedOrigins[:0]
		for _, origin := range raw.AllowedOrigins {
			if v := strings.TrimSpace(origin); v != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, v)
			}
		}
	}

	db := &c.Database
	setString(&db.DSN, raw.Database.DSN)
	setString(&db.DSN, raw.DSN)
	setString(&db.Host, raw.Database.Host)
	setInt(&db.Port, raw.Database.Port)
	setString(&db.User, raw.Database.User)
	setString(&db.Password, raw.Database.Password)
	setString(&db.Name, raw.Database.Name)
	setString(&db.Charset, raw.Database.Charset)
	setString(&db.Loc, raw.Database.Loc)
	if raw.Database.ParseTime != nil {
		db.ParseTime = *raw.Database.ParseTime
	}
	if len(raw.Database.Params) > 0 {
		db.Params = make(map[string]string, len(raw.Database.Params))
		for k, v := range raw.Database.Params {
			if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
				db.Params[k] = v
			}
		}
	}

	rd := &c.Redis
	setString(&rd.URL, raw.Redis.URL)
	setString(&rd.URL, raw.RedisURL)
	setString(&rd.Host, raw.Redis.Host)
	setInt(&rd.Port, raw.Redis.Port)
	setString(&rd.Username, raw.Redis.Username)
	setString(&rd.Password, raw.Redis.Password)
	if raw.Redis.DB != nil {
		rd.DB = *raw.Redis.DB
	}
	if raw.Redis.TLS != nil {
		rd.TLS = *raw.Redis.TLS
	}

	setString(&c.Mongo.URI, raw.Mongo.URI)
	setString(&c.Mongo.Database, raw.Mongo.Database)

	var err error
	if c.Token.AccessTTL, err = parseDuration("token.access_ttl", raw.Token.AccessTTL, c.Token.AccessTTL); err != nil {
		return err
	}
	if c.Token.RefreshTTL, err = parseDuration("token.refresh_ttl", raw.Token.RefreshTTL, c.Token.RefreshTTL); err != nil {
		return err
	}
	if raw.Sweep.Enable != nil {
		c.Sweep.Enable = *raw.Sweep.Enable
	}
	setString(&c.Sweep.At, raw.Sweep.At)
	if c.Sweep.Interval, err = parseDuration("sweep.interval", raw.Sweep.Interval, c.Sweep.Interval); err != nil {
		return err
	}
	return nil
}

// finish normalises enum-like fields, derives the connection strings and validates.
func (c *AppConfig) finish() error {
	c.Env = strings.ToLower(c.Env)
	switch strings.ToLower(c.Store) {
	case "mysql", "sql":
		c.Store = StoreMySQL
	case "mongo", "mongodb":
		c.Store = StoreMongo
	default:
		return fmt.Errorf("invalid store %q, expected %q or %q", c.Store, StoreMySQL, StoreMongo)
	}

	for field, port := range map[string]int{"port": c.Port, "database.port": c.Database.Port, "redis.port": c.Redis.Port} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid %s %d, expected 1-65535", field, port)
		}
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return fmt.Errorf("invalid token.refresh_ttl %s, must exceed token.access_ttl %s",
			c.Token.RefreshTTL, c.Token.AccessTTL)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := time.Parse("15:04", c.Sweep.At); err != nil {
		return fmt.Errorf("invalid sweep.at %q: %w", c.Sweep.At, err)
	}

	dsn, err := c.Database.DSNValue()
	if err != nil {
		return err
	}
	c.DSN = dsn
	c.RedisURL = c.Redis.URLValue()
	return checkRedisURL(c.RedisURL)
}

func setString(dst *string, raw string) {
	if v := strings.TrimSpace(raw); v != "" {
		*dst = v
	}
}

func setInt(dst *int, raw int) {
	if raw != 0 {
		*dst = raw
	}
}

func parseDuration(field, raw string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, trimmed, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q, expected a positive duration", field, trimmed)
	}
	return d, nil
}

func (c *AppConfig) IsDev() bool {
	return c.Env == defaultEnv
}

// LogDir resolves paths.logs against the config file's directory; empty means "<dir>/logs".
func (c *AppConfig) LogDir() string {
	logs := c.Paths.Logs
	if logs == "" {
		logs = "logs"
	}
	if filepath.IsAbs(logs) {
		return filepath.Clean(logs)
	}
	base := c.baseDir
	if base == "" {
		base = "."
	}
	return filepath.Join(base, logs)
}
