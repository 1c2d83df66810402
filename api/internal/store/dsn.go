package store

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
)

// DSNFromEnv builds a postgres URL from POSTGRES_* / PG* variables. It
// returns "" when neither POSTGRES_DB nor PGHOST is set.
func DSNFromEnv() string {
	if env("POSTGRES_DB", "") == "" && env("PGHOST", "") == "" {
		return ""
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(env("POSTGRES_USER", "zeropoint"), os.Getenv("POSTGRES_PASSWORD")),
		Host:     net.JoinHostPort(env("PGHOST", "db"), env("PGPORT", "5432")),
		Path:     "/" + env("POSTGRES_DB", "zeropoint"),
		RawQuery: "sslmode=" + env("PGSSLMODE", "disable"),
	}
	return u.String()
}

// SafeSummary describes dsn for logs without the password.
func SafeSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "dsn: parse error"
	}
	host, port := u.Host, ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	user := u.User.Username()
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
