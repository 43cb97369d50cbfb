package config

import (
	"fmt"
	"net"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	goredis "github.com/redis/go-redis/v9"
)

// DSNValue returns the explicit DSN when set, otherwise one built from the parts.
func (c DatabaseRuntimeConfig) DSNValue() (string, error) {
	if c.DSN != "" {
		if _, err := mysqlDriver.ParseDSN(c.DSN); err != nil {
			return "", fmt.Errorf("invalid database.dsn: %w", err)
		}
		return c.DSN, nil
	}

	loc, err := time.LoadLocation(c.Loc)
	if err != nil {
		return "", fmt.Errorf("invalid database.loc %q: %w", c.Loc, err)
	}

	mc := mysqlDriver.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.Name
	mc.ParseTime = c.ParseTime
	mc.Loc = loc
	mc.Params = map[string]string{"charset": c.Charset}
	for k, v := range c.Params {
		mc.Params[k] = v
	}
	return mc.FormatDSN(), nil
}

// URLValue returns the redis URL, building one from host/port/db when url is empty.
// A bare "host:port/db" url gets the redis:// scheme.
func (c RedisRuntimeConfig) URLValue() string {
	if c.URL != "" {
		if strings.Contains(c.URL, "://") {
			return c.URL
		}
		return "redis://" + c.URL
	}

	u := &neturl.URL{
		Scheme: "redis",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + strconv.Itoa(c.DB),
	}
	if c.TLS {
		u.Scheme = "rediss"
	}
	if c.Username != "" || c.Password != "" {
		u.User = neturl.UserPassword(c.Username, c.Password)
	}
	return u.String()
}

func checkRedisURL(raw string) error {
	if _, err := goredis.ParseURL(raw); err != nil {
		return fmt.Errorf("invalid redis url %q: %w", raw, err)
	}
	return nil
}
