package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Database is either a full DATABASE_URL or its POSTGRES_* parts. Records
// are disabled when neither is set. The contents of POSTGRES_PASSWORD_FILE
// win over POSTGRES_PASSWORD.
type Database struct {
	URL              string `env:"DATABASE_URL"`
	Username         string `env:"POSTGRES_USER"`
	Password         string `env:"POSTGRES_PASSWORD"`
	PasswordFromFile string `env:"POSTGRES_PASSWORD_FILE,file"`
	Host             string `env:"POSTGRES_HOST"`
	Port             uint16 `env:"POSTGRES_PORT"    envDefault:"5432"`
	DBName           string `env:"POSTGRES_DB"`
	SSLMode          string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

func (c Database) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

// DSN returns the connection url, or an empty string when disabled.
func (c Database) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Host == "" {
		return ""
	}
	password := c.Password
	if c.PasswordFromFile != "" {
		password = strings.TrimSpace(c.PasswordFromFile)
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.Username),
		url.QueryEscape(password),
		c.Host,
		c.Port,
		c.DBName,
		c.SSLMode,
	)
}
