// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the tablewire gateway.
// "serve" runs the websocket gateway; "connect", "dbinfo" and "disconnect"
// manage the stored backend connection; "query" talks to a running gateway
// as a client.
package cmd

import (
	"fmt"
	"os"

	"tablewire/gateway/internal/config"
	"tablewire/gateway/internal/keychain"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	v       = viper.New()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "tablewire",
	Short:         "Websocket gateway that serves database tables as columns",
	Long:          `tablewire exposes a PostgreSQL or MySQL database to websocket clients. Each request is answered with the catalog, a bounded table sample or the result of a query, pivoted into columns of strings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate("tablewire {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/tablewire/config.yaml)")
	pf.String("log-level", "info", "log level: trace, debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("dsn", "", "backend connection string (overrides DATABASE_URL and the keychain)")
	_ = v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log_format", pf.Lookup("log-format"))
	_ = v.BindPFlag("db.dsn", pf.Lookup("dsn"))
}

// loadConfig reads the configuration with flags already bound.
func loadConfig() (config.Config, error) {
	return config.Load(v, cfgFile)
}

// resolveDSN finds the backend DSN; the keychain is consulted only when the
// system provides one.
func resolveDSN(cfg config.Config) (string, string, error) {
	var store config.SecretStore
	if km, err := keychain.GetManager(); err == nil {
		store = km
	}
	return config.ResolveDSN(cfg.DB, store)
}
