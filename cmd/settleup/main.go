// Package main is the entry point for the settleup CLI and server.
package main

import (
	"os"

	"github.com/mmynk/settleup/cmd/settleup/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
