// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"tablewire/gateway/internal/bridge"
	"tablewire/gateway/internal/logging"
	"tablewire/gateway/internal/protocol"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	gatewayURL   string
	queryTimeout time.Duration
	queryJSON    bool
)

// queryCmd is a client for a running gateway.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Send requests to a running gateway",
	Long: `The query commands connect to a gateway over websocket, wait for Init and
send a single request. Results are printed as a table, or as the raw response
payload with --json.`,
}

var querySchemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List schemas and their tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd.Context(), func(ctx context.Context, b bridge.Bridge) error {
			schemas, err := bridge.ListSchemas(ctx, b)
			if err != nil {
				return err
			}
			if queryJSON {
				return printJSON(schemas)
			}
			items := make([]pterm.BulletListItem, 0, len(schemas))
			for _, s := range schemas {
				items = append(items, pterm.BulletListItem{Level: 0, Text: s.Name})
				for _, t := range s.Tables {
					items = append(items, pterm.BulletListItem{Level: 1, Text: t})
				}
			}
			return pterm.DefaultBulletList.WithItems(items).Render()
		})
	},
}

var querySampleCmd = &cobra.Command{
	Use:   "sample <schema> <table> [limit]",
	Short: "Show a bounded sample of a table",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := 0
		if len(args) == 3 {
			n, err := strconv.Atoi(args[2])
			if err != nil || n <= 0 {
				return fmt.Errorf("limit must be a positive integer, got %q", args[2])
			}
			limit = n
		}
		return withGateway(cmd.Context(), func(ctx context.Context, b bridge.Bridge) error {
			data, err := bridge.Sample(ctx, b, args[0], args[1], limit)
			if err != nil {
				return err
			}
			return printTable(data)
		})
	},
}

var queryRunCmd = &cobra.Command{
	Use:   "run <schema> <table> <sql>",
	Short: "Execute SQL through the gateway",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd.Context(), func(ctx context.Context, b bridge.Bridge) error {
			data, err := bridge.RunQuery(ctx, b, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return printTable(data)
		})
	},
}

// withGateway connects, runs fn and closes. Connection failures are
// explained before being returned; gateway Error responses are printed as is.
func withGateway(parent context.Context, fn func(context.Context, bridge.Bridge) error) error {
	ctx, cancel := context.WithTimeout(parent, queryTimeout)
	defer cancel()

	b := bridge.New()
	stop := startSpinner("connecting to " + gatewayURL)
	err := b.Connect(ctx, gatewayURL)
	stop()
	if err != nil {
		logging.PresentDisconnect(err.Error())
		return err
	}
	defer b.Close(context.Background())

	err = fn(ctx, b)
	var remote *bridge.RemoteError
	if errors.As(err, &remote) {
		pterm.Error.Println(remote.Message)
	} else if err != nil {
		logging.PresentDisconnect(err.Error())
	}
	return err
}

func printTable(data protocol.TableData) error {
	if queryJSON {
		return printJSON(data)
	}
	if len(data.Fields) == 0 {
		pterm.Info.Println("no columns")
		return nil
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(tableRows(data)).Render(); err != nil {
		return err
	}
	pterm.Printfln("%d row(s) from %s.%s", data.RowCount, data.Schema, data.Table)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(querySchemasCmd, querySampleCmd, queryRunCmd)

	pf := queryCmd.PersistentFlags()
	pf.StringVar(&gatewayURL, "url", "ws://127.0.0.1:8888/", "gateway websocket URL")
	pf.DurationVar(&queryTimeout, "timeout", time.Minute, "overall request timeout")
	pf.BoolVar(&queryJSON, "json", false, "print the response payload as JSON")
}
