// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"tablewire/gateway/internal/config"
	"tablewire/gateway/internal/dsn"
	"tablewire/gateway/internal/keychain"
	"tablewire/gateway/internal/logging"
	"tablewire/gateway/internal/sqlexec"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// dbinfoCmd shows which backend serve would use, with credentials masked.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the configured backend connection",
	Long: `The dbinfo command displays the DSN 'tablewire serve' would use, where it was
found (config, DATABASE_URL or keychain) and the driver selected for it.
Credentials are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		rawDSN, source, err := resolveDSN(cfg)
		if errors.Is(err, config.ErrNoDSN) {
			pterm.Println("⚠️  No database connection configured")
			pterm.Println("   Please run: tablewire connect")
			return nil
		}
		if err != nil {
			return err
		}

		lines := []string{
			"DSN:     " + logging.Mask(rawDSN),
			"Source:  " + source,
		}
		if target, err := dsn.Resolve(rawDSN); err == nil {
			driver, derr := sqlexec.DriverFor(cfg.DB.Driver, target.Type)
			if derr != nil {
				driver = derr.Error()
			}
			lines = append(lines,
				"Type:    "+string(target.Type),
				"Address: "+target.Info.Address(),
				"Driver:  "+driver,
			)
		} else {
			lines = append(lines, "Invalid: "+logging.Mask(err.Error()))
		}
		if cfg.DB.IAM.Enabled {
			lines = append(lines, fmt.Sprintf("IAM:     enabled (%s)", cfg.DB.IAM.Region))
		}

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithPadding(1).
			Println(strings.Join(lines, "\n"))
		pterm.Println()
		pterm.Println("To update this connection, run: tablewire connect")
		return nil
	},
}

// disconnectCmd removes the DSN saved by connect.
var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the database connection saved in the keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			pterm.Println("❌ Secure storage is not available on this system")
			return err
		}
		if err := km.ClearDB(); err != nil {
			return err
		}
		pterm.Println("✅ Saved database connection removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
	rootCmd.AddCommand(disconnectCmd)
}
