package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// DSN returns the lib/pq connection string. A configured URL is converted by
// pq.ParseURL; otherwise the individual fields are used.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		if dsn, err := pq.ParseURL(c.URL); err == nil {
			return dsn
		}
	}

	return strings.Join([]string{
		dsnPair("host", c.Host),
		dsnPair("port", strconv.Itoa(c.Port)),
		dsnPair("user", c.User),
		dsnPair("password", c.Password),
		dsnPair("dbname", c.Database),
		dsnPair("sslmode", c.SSLMode),
	}, " ")
}

var dsnEscaper = strings.NewReplacer(`'`, `\'`, `\`, `\\`)

// dsnPair quotes v the way pq.ParseURL does, so passwords with spaces or
// quotes survive.
func dsnPair(k, v string) string {
	return k + "='" + dsnEscaper.Replace(v) + "'"
}

// fillFromURL copies the connection settings in c.URL onto the individual
// fields so they can be validated and logged. The port defaults to 5432 and
// sslmode to disable.
func (c *DatabaseConfig) fillFromURL() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("invalid database URL scheme: %s (expected postgres or postgresql)", u.Scheme)
	}

	port := 5432
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return fmt.Errorf("invalid port in database URL: %w", err)
		}
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	c.Host = u.Hostname()
	c.Port = port
	c.Database = strings.TrimPrefix(u.Path, "/")
	c.SSLMode = sslMode
	if u.User != nil {
		c.User = u.User.Username()
		c.Password, _ = u.User.Password()
	}
	return nil
}
