package cmd

import (
	"testing"

	"tablewire/gateway/internal/pivot"
	"tablewire/gateway/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRows(t *testing.T) {
	data := protocol.TableData{
		Schema:   "shop",
		Table:    "users",
		RowCount: 2,
		Fields: []pivot.Field{
			{Name: "id", DeclaredType: "String", Values: []string{"1", "2"}},
			{Name: "email", DeclaredType: "String", Values: []string{"a@example.com", "null"}},
		},
	}

	assert.Equal(t, [][]string{
		{"id", "email"},
		{"1", "a@example.com"},
		{"2", "null"},
	}, tableRows(data))
}

func TestTableRows_NoRows(t *testing.T) {
	data := protocol.TableData{Fields: []pivot.Field{{Name: "id", Values: []string{}}}}
	assert.Equal(t, [][]string{{"id"}}, tableRows(data))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"serve"},
		{"connect"},
		{"dbinfo"},
		{"disconnect"},
		{"query", "schemas"},
		{"query", "sample"},
		{"query", "run"},
	} {
		c, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], c.Name())
	}
}

func TestServeFlagsBound(t *testing.T) {
	require.NoError(t, serveCmd.Flags().Set("addr", "0.0.0.0:9999"))
	require.NoError(t, serveCmd.Flags().Set("pool", "true"))
	t.Cleanup(func() {
		_ = serveCmd.Flags().Set("addr", "")
		_ = serveCmd.Flags().Set("pool", "false")
	})

	assert.Equal(t, "0.0.0.0:9999", v.GetString("listen.addr"))
	assert.True(t, v.GetBool("db.pool"))
}
