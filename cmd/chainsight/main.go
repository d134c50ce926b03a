// Package main provides the chainsight CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	app := &cli.Command{
		Name:    "chainsight",
		Version: version,
		Usage:   "Method-chain type hints for Go source",
		Commands: []*cli.Command{
			hintsCommand(),
			previewCommand(),
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
