package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// Where a DSN was found.
const (
	SourceConfig   = "config"
	SourceEnv      = "DATABASE_URL"
	SourceKeychain = "keychain"
)

// ErrNoDSN is returned when no source provides a connection string.
var ErrNoDSN = errors.New("no database connection configured; run 'tablewire connect' or set TABLEWIRE_DB_DSN")

// SecretStore is the subset of the keychain manager used for DSN lookup.
type SecretStore interface {
	LoadDBDSN() (string, error)
}

// ResolveDSN picks the backend connection string: db.dsn (flag, env or file)
// first, then DATABASE_URL, then the OS keychain. store may be nil when no
// keychain is available on this system.
func ResolveDSN(db DBConfig, store SecretStore) (dsn string, source string, err error) {
	if v := strings.TrimSpace(db.DSN); v != "" {
		return v, SourceConfig, nil
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v, SourceEnv, nil
	}
	if store != nil {
		if v, err := store.LoadDBDSN(); err == nil && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), SourceKeychain, nil
		}
	}
	return "", "", ErrNoDSN
}
