// Package sqlexec runs the gateway's three backend operations: listing schemas
// with their tables, sampling a table and running an arbitrary query.
//
// Every operation takes exactly one connection from a Connector and gives it
// back before returning, so results never hold a connection open. Backends are
// plugged in through Connector: pgx for PostgreSQL, database/sql with lib/pq or
// go-sql-driver/mysql otherwise.
package sqlexec

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	gwerrors "tablewire/gateway/internal/errors"
	"tablewire/gateway/internal/logging"
	"tablewire/gateway/internal/pivot"
	"tablewire/gateway/internal/protocol"

	"github.com/pterm/pterm"
)

// DefaultSampleLimit is the row bound used when Sample is called without one.
const DefaultSampleLimit = 24

// Operation names reported to the Observer.
const (
	OpListSchemas = "list_schemas"
	OpSample      = "sample"
	OpRunQuery    = "run_query"
	OpPing        = "ping"
)

// Conn is one backend connection held for the duration of an operation.
type Conn interface {
	// Query runs sql and reads the whole result. Records are aligned with columns.
	Query(ctx context.Context, sql string, args ...any) (columns []string, records [][]any, err error)
	// Close releases the connection, back to its pool if it came from one.
	Close() error
}

// Connector hands out connections to one backend.
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
	Dialect() Dialect
	// Close releases process-wide resources such as a pool.
	Close() error
}

// Observer receives the duration and outcome of every backend operation.
type Observer interface {
	ObserveBackend(op string, d time.Duration, err error)
}

// Executor runs gateway operations against a Connector. It is safe for
// concurrent use; sessions share one Executor.
type Executor struct {
	connector   Connector
	dialect     Dialect
	timeout     time.Duration
	sampleLimit int
	logger      *pterm.Logger
	observer    Observer
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout bounds each operation. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithSampleLimit sets the row bound Sample uses when none is requested.
func WithSampleLimit(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.sampleLimit = n
		}
	}
}

// WithLogger sets the logger for non-fatal backend problems.
func WithLogger(l *pterm.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver reports operation timings, typically to metrics.
func WithObserver(o Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// New creates an Executor over connector.
func New(connector Connector, opts ...Option) *Executor {
	e := &Executor{
		connector:   connector,
		dialect:     connector.Dialect(),
		sampleLimit: DefaultSampleLimit,
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dialect returns the SQL dialect of the backend.
func (e *Executor) Dialect() Dialect { return e.dialect }

// Close releases the connector.
func (e *Executor) Close() error { return e.connector.Close() }

// ListSchemas lists every schema and the tables inside it. A failure to list
// one schema's tables leaves that schema with no tables and does not abort
// the others.
func (e *Executor) ListSchemas(ctx context.Context) ([]protocol.Schema, error) {
	schemas := []protocol.Schema{}
	err := e.run(ctx, OpListSchemas, func(ctx context.Context, conn Conn) error {
		_, records, err := conn.Query(ctx, e.dialect.SchemasQuery)
		if err != nil {
			return err
		}
		for _, name := range firstColumn(records) {
			tables, err := e.listTables(ctx, conn, name)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				e.logger.Warn("listing tables failed", e.logger.Args("schema", name, "error", err.Error()))
				tables = []string{}
			}
			schemas = append(schemas, protocol.Schema{Name: name, Tables: tables})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return schemas, nil
}

func (e *Executor) listTables(ctx context.Context, conn Conn, schema string) ([]string, error) {
	query, args := e.dialect.TablesQuery(schema)
	_, records, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return firstColumn(records), nil
}

// Sample returns up to limit rows of schema.table in backend order. A limit
// of zero or less means the configured default.
func (e *Executor) Sample(ctx context.Context, schema, table string, limit int) ([]pivot.Row, error) {
	if limit <= 0 {
		limit = e.sampleLimit
	}
	return e.query(ctx, OpSample, e.dialect.SampleQuery(schema, table, limit))
}

// RunQuery executes sql verbatim. schema and table only label the result.
func (e *Executor) RunQuery(ctx context.Context, schema, table, sql string) ([]pivot.Row, error) {
	return e.query(ctx, OpRunQuery, sql)
}

// Ping opens and releases one connection.
func (e *Executor) Ping(ctx context.Context) error {
	return e.run(ctx, OpPing, func(ctx context.Context, conn Conn) error {
		_, _, err := conn.Query(ctx, "SELECT 1")
		return err
	})
}

func (e *Executor) query(ctx context.Context, op, sql string) ([]pivot.Row, error) {
	var rows []pivot.Row
	err := e.run(ctx, op, func(ctx context.Context, conn Conn) error {
		columns, records, err := conn.Query(ctx, sql)
		if err != nil {
			return err
		}
		rows = pivot.Rows(columns, records)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// run holds one connection for fn under the operation deadline and classifies
// whatever fails.
func (e *Executor) run(ctx context.Context, op string, fn func(context.Context, Conn) error) (err error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if e.observer != nil {
			e.observer.ObserveBackend(op, time.Since(start), err)
		}
	}()

	conn, err := e.connector.Connect(ctx)
	if err != nil {
		return e.classify(ctx, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			e.logger.Debug("closing backend connection", e.logger.Args("op", op, "error", cerr.Error()))
		}
	}()

	if err := fn(ctx, conn); err != nil {
		return e.classify(ctx, err)
	}
	return nil
}

func (e *Executor) classify(ctx context.Context, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		if e.timeout <= 0 {
			// the deadline came from the caller
			return gwerrors.Wrap(gwerrors.Timeout, "", context.DeadlineExceeded)
		}
		return gwerrors.Wrap(gwerrors.Timeout, fmt.Sprintf("query exceeded %s", e.timeout), err)
	}
	return gwerrors.Wrap(gwerrors.Backend, "", err)
}

// firstColumn stringifies the first value of every record.
func firstColumn(records [][]any) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		if len(rec) == 0 {
			continue
		}
		out = append(out, pivot.Stringify(rec[0]))
	}
	return out
}
