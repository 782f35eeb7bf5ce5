package database

import (
	"fmt"
	"time"
)

// Driver identifies the database engine.
type Driver string

const (
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
)

// ParseDriver validates a driver name coming from flags or config.
func ParseDriver(s string) (Driver, error) {
	switch Driver(s) {
	case DriverMySQL:
		return DriverMySQL, nil
	case DriverPostgres:
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unknown driver %q (want mysql or postgres)", s)
	}
}

// DefaultPort returns the engine's standard TCP port.
func (d Driver) DefaultPort() int {
	switch d {
	case DriverPostgres:
		return 5432
	default:
		return 3306
	}
}

// ConnParams are the discrete connection settings the CLI collects.
// Each driver package turns them into its own DSN format.
type ConnParams struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Config is what a driver's New needs: a DSN plus pool limits.
type Config struct {
	Driver Driver
	DSN    string

	MaxConns, MinConns int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration

	ConnectTimeout time.Duration
	// QueryTimeout bounds each catalog query; zero disables it.
	QueryTimeout time.Duration
}

// DefaultConfig sizes the pool for generation, which issues one catalog
// query at a time.
func DefaultConfig(driver Driver, dsn string) *Config {
	return &Config{
		Driver:          driver,
		DSN:             dsn,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}
