// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxConnector connects to PostgreSQL with pgx. Without a pool every Connect
// dials a fresh connection that Close tears down.
type PgxConnector struct {
	config *pgx.ConnConfig
	pool   *pgxpool.Pool
	tokens TokenSource
}

// PoolOptions enables a shared pool. MaxConns of zero keeps the driver default.
type PoolOptions struct {
	Enabled  bool
	MaxConns int32
}

// NewPgx parses connString and, when pooling is enabled, opens the pool.
// tokens may be nil; otherwise each new connection authenticates with a fresh token.
func NewPgx(ctx context.Context, connString string, pool PoolOptions, tokens TokenSource) (*PgxConnector, error) {
	c := &PgxConnector{tokens: tokens}

	if !pool.Enabled {
		cfg, err := pgx.ParseConfig(connString)
		if err != nil {
			return nil, err
		}
		c.config = cfg
		return c, nil
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	if pool.MaxConns > 0 {
		cfg.MaxConns = pool.MaxConns
	}
	if tokens != nil {
		cfg.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
			token, err := tokens.Token(ctx)
			if err != nil {
				return err
			}
			cc.Password = token
			return nil
		}
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.pool = p
	return c, nil
}

// Dialect quotes identifiers with pgx.Identifier.
func (c *PgxConnector) Dialect() Dialect {
	return PostgresDialect(func(name string) string {
		return pgx.Identifier{name}.Sanitize()
	})
}

func (c *PgxConnector) Connect(ctx context.Context) (Conn, error) {
	if c.pool != nil {
		conn, err := c.pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return &pooledPgxConn{conn: conn}, nil
	}

	cfg := c.config.Copy()
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		cfg.Password = token
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: conn}, nil
}

func (c *PgxConnector) Close() error {
	if c.pool != nil {
		c.pool.Close()
	}
	return nil
}

// querier is the part of *pgx.Conn and *pgxpool.Conn used to read results.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgxConn struct {
	conn *pgx.Conn
}

func (c *pgxConn) Query(ctx context.Context, sql string, args ...any) ([]string, [][]any, error) {
	return readPgx(ctx, c.conn, sql, args...)
}

func (c *pgxConn) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return c.conn.Close(ctx)
}

type pooledPgxConn struct {
	conn *pgxpool.Conn
}

func (c *pooledPgxConn) Query(ctx context.Context, sql string, args ...any) ([]string, [][]any, error) {
	return readPgx(ctx, c.conn, sql, args...)
}

func (c *pooledPgxConn) Close() error {
	c.conn.Release()
	return nil
}

func readPgx(ctx context.Context, q querier, sql string, args ...any) ([]string, [][]any, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	columns := make([]string, len(fds))
	for i, fd := range fds {
		columns[i] = fd.Name
	}

	records := [][]any{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		records = append(records, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, records, nil
}
