// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

var (
	// Version holds the build version, set with -ldflags "-X tablewire/gateway/cmd.Version=...".
	Version = "0.0.0-dev"
)
