// Package main is the entry point for the tablewire gateway.
package main

import (
	"tablewire/gateway/cmd"
)

func main() {
	cmd.Execute()
}
