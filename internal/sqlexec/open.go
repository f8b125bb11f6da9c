package sqlexec

import (
	"context"
	"fmt"

	"tablewire/gateway/internal/config"
	"tablewire/gateway/internal/dsn"

	"github.com/cockroachdb/errors"
)

// DriverFor resolves db.driver against the DSN type. "auto" picks pgx for
// PostgreSQL and go-sql-driver for MySQL.
func DriverFor(driver string, dbType dsn.DBType) (string, error) {
	switch driver {
	case "", config.DriverAuto:
		switch dbType {
		case dsn.DBTypePostgreSQL:
			return config.DriverPgx, nil
		case dsn.DBTypeMySQL:
			return config.DriverMySQL, nil
		}
	case config.DriverPgx, config.DriverPostgres:
		if dbType == dsn.DBTypePostgreSQL {
			return driver, nil
		}
	case config.DriverMySQL:
		if dbType == dsn.DBTypeMySQL {
			return driver, nil
		}
	}
	return "", fmt.Errorf("driver %q cannot serve a %s DSN", driver, dbType)
}

// NewConnector builds the connector db selects for target.
func NewConnector(ctx context.Context, db config.DBConfig, target *dsn.Target) (Connector, error) {
	driver, err := DriverFor(db.Driver, target.Type)
	if err != nil {
		return nil, err
	}

	var tokens TokenSource
	if db.IAM.Enabled {
		ts, err := NewRDSTokenSource(target.Info.Address(), db.IAM.Region, target.Info.User)
		if err != nil {
			return nil, errors.Wrap(err, "aws session")
		}
		tokens = ts
	}

	pool := PoolOptions{Enabled: db.Pool, MaxConns: db.MaxConns}
	switch driver {
	case config.DriverPgx:
		c, err := NewPgx(ctx, target.ConnString, pool, tokens)
		if err != nil {
			return nil, errors.Wrap(err, "pgx")
		}
		return c, nil
	case config.DriverPostgres:
		c, err := NewPostgres(target.ConnString, pool, tokens)
		if err != nil {
			return nil, errors.Wrap(err, "lib/pq")
		}
		return c, nil
	default:
		c, err := NewMySQL(target.ConnString, pool, tokens)
		if err != nil {
			return nil, errors.Wrap(err, "mysql")
		}
		return c, nil
	}
}

// Open resolves rawDSN and returns an Executor configured from db.
func Open(ctx context.Context, db config.DBConfig, rawDSN string, opts ...Option) (*Executor, error) {
	target, err := dsn.Resolve(rawDSN)
	if err != nil {
		return nil, err
	}
	connector, err := NewConnector(ctx, db, target)
	if err != nil {
		return nil, err
	}
	base := []Option{WithTimeout(db.QueryTimeout), WithSampleLimit(db.SampleLimit)}
	return New(connector, append(base, opts...)...), nil
}
