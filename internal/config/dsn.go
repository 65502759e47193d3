package config

import (
	"fmt"
	"net"
	neturl "net/url"
	"strconv"
	"strings"
)

// DSNValue resolves the Postgres DSN: an explicit dsn/url wins, otherwise
// one is assembled from the discrete fields.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.URL); v != "" {
		return v
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = defaultDBHost
	}
	port := c.Port
	if port == 0 {
		port = defaultDBPort
	}
	user := strings.TrimSpace(c.User)
	if user == "" {
		user = defaultDBUser
	}
	password := strings.TrimSpace(c.Password)
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = defaultDBName
	}
	sslMode := strings.TrimSpace(c.SSLMode)
	if sslMode == "" {
		sslMode = defaultDBSSLMode
	}

	parts := []string{
		"host=" + host,
		"port=" + strconv.Itoa(port),
		"user=" + user,
		"dbname=" + name,
		"sslmode=" + sslMode,
	}
	if password != "" {
		parts = append(parts, "password="+password)
	}
	return strings.Join(parts, " ")
}

// URLValue resolves the Redis connection URL.
func (c RedisRuntimeConfig) URLValue() string {
	if v := strings.TrimSpace(c.URL); v != "" {
		return v
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = defaultRedisHost
	}
	port := c.Port
	if port == 0 {
		port = defaultRedisPort
	}

	u := neturl.URL{
		Scheme: "redis",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   fmt.Sprintf("/%d", c.DB),
	}
	if strings.TrimSpace(c.Password) != "" {
		if strings.TrimSpace(c.Username) != "" {
			u.User = neturl.UserPassword(c.Username, c.Password)
		} else {
			u.User = neturl.UserPassword("", c.Password)
		}
	}
	return u.String()
}
