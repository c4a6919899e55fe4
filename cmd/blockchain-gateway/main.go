// Package main is the entry point for the gateway CLI.
package main

import (
	"os"

	"github.com/scifier/blockchain-gateway/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
