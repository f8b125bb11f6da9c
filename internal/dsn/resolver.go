// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dsn detects, parses and normalizes backend connection strings.
// Users always supply URL-style DSNs (postgres://, mysql://); Normalize turns
// them into whatever the selected driver expects.
package dsn

import (
	"strings"
)

// Target is a resolved backend connection.
type Target struct {
	Type DBType
	// ConnString is the normalized string handed to the driver.
	ConnString string
	Info       *DSNInfo
}

// DetectDBType detects the database type from a DSN string
func DetectDBType(dsn string) DBType {
	lower := strings.ToLower(dsn)

	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DBTypePostgreSQL
	}
	if strings.HasPrefix(lower, "mysql://") {
		return DBTypeMySQL
	}
	if strings.HasPrefix(lower, "oracle://") {
		return DBTypeOracle
	}

	return DBTypeUnknown
}

// resolverFor returns the resolver for a DSN, or a ParseError for unsupported types.
func resolverFor(dsn string) (Resolver, error) {
	if dsn == "" {
		return nil, NewParseError(dsn, "empty DSN", "provide a valid database connection string")
	}

	switch DetectDBType(dsn) {
	case DBTypePostgreSQL:
		return NewPostgreSQLResolver(), nil
	case DBTypeMySQL:
		return NewMySQLResolver(), nil
	case DBTypeOracle:
		return nil, NewParseError(dsn, "Oracle is not supported", "use postgres:// or mysql://")
	default:
		return nil, NewParseError(dsn, "unknown database type", "use postgres:// or mysql://")
	}
}

// Resolve parses, validates and normalizes a DSN in one step.
func Resolve(dsn string) (*Target, error) {
	resolver, err := resolverFor(dsn)
	if err != nil {
		return nil, err
	}
	if err := resolver.Validate(dsn); err != nil {
		return nil, err
	}
	info, err := resolver.Parse(dsn)
	if err != nil {
		return nil, err
	}
	normalized, err := resolver.Normalize(info)
	if err != nil {
		return nil, err
	}
	return &Target{Type: info.Type, ConnString: normalized, Info: info}, nil
}

// Parse parses a DSN string and returns the normalized connection string.
func Parse(dsn string) (string, error) {
	t, err := Resolve(dsn)
	if err != nil {
		return "", err
	}
	return t.ConnString, nil
}

// Validate validates a DSN string without normalizing it
func Validate(dsn string) error {
	resolver, err := resolverFor(dsn)
	if err != nil {
		return err
	}
	return resolver.Validate(dsn)
}

// ParseInfo parses a DSN string and returns detailed DSN info
func ParseInfo(dsn string) (*DSNInfo, error) {
	resolver, err := resolverFor(dsn)
	if err != nil {
		return nil, err
	}
	return resolver.Parse(dsn)
}
