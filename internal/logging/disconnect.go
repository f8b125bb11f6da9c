// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// DisconnectType represents the category of a gateway connection failure.
type DisconnectType int

const (
	DisconnectUnknown DisconnectType = iota
	DisconnectRefused
	DisconnectNetwork
	DisconnectTimeout
	DisconnectHandshake
	DisconnectClosed
)

// ParseDisconnect categorizes a websocket/gateway error message.
func ParseDisconnect(errMsg string) DisconnectType {
	lower := strings.ToLower(errMsg)

	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") {
		return DisconnectRefused
	}
	if strings.Contains(lower, "bad handshake") || strings.Contains(lower, "expected init") {
		return DisconnectHandshake
	}
	if strings.Contains(lower, "deadline") || strings.Contains(lower, "timeout") {
		return DisconnectTimeout
	}
	if strings.Contains(lower, "close 1000") || strings.Contains(lower, "close 1001") {
		return DisconnectClosed
	}
	if strings.Contains(lower, "connection reset") || strings.Contains(lower, "broken pipe") ||
		strings.Contains(lower, "unexpected eof") || strings.Contains(lower, "close 1006") {
		return DisconnectNetwork
	}

	return DisconnectUnknown
}

// FormatDisconnect formats a gateway connection error in a user-friendly way.
func FormatDisconnect(errMsg string) string {
	errType := ParseDisconnect(errMsg)

	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Gateway Unreachable"))
	builder.WriteString("\n\n")

	switch errType {
	case DisconnectRefused:
		builder.WriteString("Nothing is listening at the gateway address.\n")
		builder.WriteString("Check that:\n")
		builder.WriteString("  • 'tablewire serve' is running\n")
		builder.WriteString("  • --addr matches the server's listen.addr\n")

	case DisconnectHandshake:
		builder.WriteString("The server did not complete the gateway handshake.\n")
		builder.WriteString("The address may point at a different service or a wrong path.\n")

	case DisconnectTimeout:
		builder.WriteString("The gateway did not answer in time.\n")
		builder.WriteString("The backend query may still be running; try a smaller sample.\n")

	case DisconnectClosed:
		builder.WriteString("The gateway closed the connection (it may be shutting down).\n")

	case DisconnectNetwork:
		builder.WriteString("The connection to the gateway was interrupted unexpectedly.\n")

	default:
		builder.WriteString("The gateway session ended unexpectedly.\n")
	}

	if strings.TrimSpace(errMsg) != "" {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(errMsg)))
	}

	return builder.String()
}

// PresentDisconnect displays a formatted gateway connection error.
func PresentDisconnect(errMsg string) {
	fmt.Println()
	fmt.Println(FormatDisconnect(errMsg))
	fmt.Println()
}
