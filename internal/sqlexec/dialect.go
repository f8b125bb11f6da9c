package sqlexec

import (
	"fmt"
	"strings"
)

// Dialect is the backend-specific SQL for the gateway's catalog and sample queries.
type Dialect struct {
	Name string
	// SchemasQuery returns one schema name per row.
	SchemasQuery string
	// TablesQuery builds the query listing one schema's tables, one name per row.
	TablesQuery func(schema string) (string, []any)
	// QuoteIdent quotes one identifier, doubling embedded quote characters.
	QuoteIdent func(name string) string
}

// SampleQuery selects the first limit rows of schema.table.
func (d Dialect) SampleQuery(schema, table string, limit int) string {
	return fmt.Sprintf("SELECT * FROM %s.%s LIMIT %d", d.QuoteIdent(schema), d.QuoteIdent(table), limit)
}

// PostgresDialect lists non-system schemas from information_schema. quote is
// the driver's identifier quoting.
func PostgresDialect(quote func(string) string) Dialect {
	return Dialect{
		Name: "postgres",
		SchemasQuery: `SELECT schema_name FROM information_schema.schemata
WHERE schema_name NOT IN ('pg_catalog', 'information_schema')
  AND schema_name NOT LIKE 'pg\_toast%'
  AND schema_name NOT LIKE 'pg\_temp\_%'
ORDER BY schema_name`,
		TablesQuery: func(schema string) (string, []any) {
			return `SELECT table_name FROM information_schema.tables
WHERE table_schema = $1
ORDER BY table_name`, []any{schema}
		},
		QuoteIdent: quote,
	}
}

// MySQLDialect uses SHOW statements, which take no bind parameters, so the
// schema is quoted into the text.
func MySQLDialect() Dialect {
	return Dialect{
		Name:         "mysql",
		SchemasQuery: "SHOW DATABASES",
		TablesQuery: func(schema string) (string, []any) {
			return "SHOW TABLES FROM " + QuoteMySQL(schema), nil
		},
		QuoteIdent: QuoteMySQL,
	}
}

// QuoteMySQL wraps name in backticks.
func QuoteMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
