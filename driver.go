package gomonetdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
)

// MonetDBDriver is a context of the driver registered with database/sql.
type MonetDBDriver struct{}

// Open creates a new connection to the database described by the DSN.
func (d MonetDBDriver) Open(dsn string) (driver.Conn, error) {
	logger.Info("Open")
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return Connect(context.Background(), cfg)
}

// Connect dials the configured server and returns an open connection.
func Connect(ctx context.Context, cfg *Config) (*Conn, error) {
	mc, err := connectMapi(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Conn{cfg: cfg, mapi: mc}, nil
}

func init() {
	sql.Register("monetdb", &MonetDBDriver{})
}
