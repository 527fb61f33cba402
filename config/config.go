// Package config loads database credentials for pgstmt.
//
// Credentials live in a file keyed by role, in JSON or YAML:
//
//	{
//	    "app/read": {
//	        "name": "app",
//	        "user": "reader",
//	        "password": "secret",
//	        "host": "db.internal",
//	        "port": 5432
//	    }
//	}
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrRoleNotFound is returned when the credentials file has no entry for a role.
	ErrRoleNotFound = errors.New("config: role not found")
	// ErrMissingField is returned when a credentials entry lacks a required field.
	ErrMissingField = errors.New("config: missing field")
)

// Database holds the resolved connection settings of one role.
type Database struct {
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	// SSLMode is passed to lib/pq as sslmode. Empty leaves the driver default.
	SSLMode string `yaml:"sslmode"`
}

// Credentials maps role names to their settings.
type Credentials map[string]Database

// Parse decodes a credentials document. JSON documents are valid YAML.
func Parse(data []byte) (Credentials, error) {
	var c Credentials
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse credentials: %w", err)
	}
	return c, nil
}

// Role returns the validated settings of role.
func (c Credentials) Role(role string) (Database, error) {
	db, ok := c[role]
	if !ok {
		return Database{}, fmt.Errorf("%w: %q", ErrRoleNotFound, role)
	}
	if err := db.Validate(); err != nil {
		return Database{}, fmt.Errorf("config: role %q: %w", role, err)
	}
	return db, nil
}

// Load reads the credentials file at path and returns the settings of role.
func Load(path, role string) (Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Database{}, fmt.Errorf("config: %w", err)
	}
	creds, err := Parse(data)
	if err != nil {
		return Database{}, err
	}
	return creds.Role(role)
}

// Validate reports every missing required field.
func (d Database) Validate() error {
	var errs []error
	for _, f := range []struct{ name, value string }{
		{"name", d.Name},
		{"user", d.User},
		{"host", d.Host},
	} {
		if f.value == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingField, f.name))
		}
	}
	return errors.Join(errs...)
}

// DSN renders the settings as a lib/pq connection URL.
func (d Database) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host,
		Path:   "/" + d.Name,
	}
	if d.Port != "" {
		u.Host = net.JoinHostPort(d.Host, d.Port)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// String returns the settings without the password.
func (d Database) String() string {
	return fmt.Sprintf("%s@%s:%s/%s", d.User, d.Host, d.Port, d.Name)
}
