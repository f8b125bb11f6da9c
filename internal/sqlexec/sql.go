package sqlexec

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

const closeTimeout = 5 * time.Second

// SQLConnector connects through database/sql. Without a pool every Connect
// opens a single-connection *sql.DB that Close tears down.
type SQLConnector struct {
	open    func() (*sql.DB, error)
	shared  *sql.DB
	dialect Dialect
}

// NewMySQL connects with go-sql-driver/mysql. dsn is in the driver's format.
func NewMySQL(dsn string, pool PoolOptions, tokens TokenSource) (*SQLConnector, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if tokens != nil {
		// The token travels as a cleartext password, which RDS only accepts over TLS.
		cfg.AllowCleartextPasswords = true
		if cfg.TLSConfig == "" {
			cfg.TLSConfig = "true"
		}
	}

	connector := func(password string) (driver.Connector, error) {
		c := cfg.Clone()
		if tokens != nil {
			c.Passwd = password
		}
		return mysql.NewConnector(c)
	}
	return newSQLConnector(connector, mysql.MySQLDriver{}, pool, tokens, MySQLDialect())
}

// NewPostgres connects with lib/pq. dsn is a postgresql:// URL.
func NewPostgres(dsn string, pool PoolOptions, tokens TokenSource) (*SQLConnector, error) {
	if _, err := pq.ParseURL(dsn); err != nil {
		return nil, err
	}

	connector := func(password string) (driver.Connector, error) {
		if tokens == nil {
			return pq.NewConnector(dsn)
		}
		withToken, err := replacePassword(dsn, password)
		if err != nil {
			return nil, err
		}
		return pq.NewConnector(withToken)
	}
	return newSQLConnector(connector, &pq.Driver{}, pool, tokens, PostgresDialect(pq.QuoteIdentifier))
}

func newSQLConnector(build func(password string) (driver.Connector, error), drv driver.Driver, pool PoolOptions, tokens TokenSource, dialect Dialect) (*SQLConnector, error) {
	var base driver.Connector
	if tokens != nil {
		base = &tokenConnector{build: build, driver: drv, tokens: tokens}
	} else {
		c, err := build("")
		if err != nil {
			return nil, err
		}
		base = c
	}

	c := &SQLConnector{dialect: dialect}
	if !pool.Enabled {
		c.open = func() (*sql.DB, error) {
			db := sql.OpenDB(base)
			db.SetMaxOpenConns(1)
			db.SetMaxIdleConns(0)
			return db, nil
		}
		return c, nil
	}

	db := sql.OpenDB(base)
	if pool.MaxConns > 0 {
		db.SetMaxOpenConns(int(pool.MaxConns))
		db.SetMaxIdleConns(int(pool.MaxConns))
	}
	c.shared = db
	return c, nil
}

func (c *SQLConnector) Dialect() Dialect { return c.dialect }

func (c *SQLConnector) Connect(ctx context.Context) (Conn, error) {
	db := c.shared
	if db == nil {
		var err error
		if db, err = c.open(); err != nil {
			return nil, err
		}
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		if c.shared == nil {
			db.Close()
		}
		return nil, err
	}
	sc := &sqlConn{conn: conn}
	if c.shared == nil {
		sc.db = db
	}
	return sc, nil
}

func (c *SQLConnector) Close() error {
	if c.shared != nil {
		return c.shared.Close()
	}
	return nil
}

// sqlConn owns db when it was opened for this one operation.
type sqlConn struct {
	conn *sql.Conn
	db   *sql.DB
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) ([]string, [][]any, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	// Scanning into *any copies []byte values; text protocol values stay
	// bytes and are rendered by pivot.Stringify.
	records := [][]any{}
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		records = append(records, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, records, nil
}

func (c *sqlConn) Close() error {
	err := c.conn.Close()
	if c.db != nil {
		if derr := c.db.Close(); err == nil {
			err = derr
		}
	}
	return err
}

// tokenConnector builds a driver connector with a fresh auth token for every
// physical connection, so pooled connections outlive individual tokens.
type tokenConnector struct {
	build  func(password string) (driver.Connector, error)
	driver driver.Driver
	tokens TokenSource
}

func (t *tokenConnector) Connect(ctx context.Context) (driver.Conn, error) {
	token, err := t.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	c, err := t.build(token)
	if err != nil {
		return nil, err
	}
	return c.Connect(ctx)
}

func (t *tokenConnector) Driver() driver.Driver { return t.driver }
