package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	chainsight "github.com/hari6963/chainsight"
	"github.com/hari6963/chainsight/preview"
)

var errPreviewArgs = errors.New("preview takes exactly one Go file")

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Watch a Go file and render its chain hints live",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rule",
				Aliases: []string{"r"},
				Usage:   "chain acceptance expression (overrides config)",
			},
		},
		Action: runPreview,
	}
}

func runPreview(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 1 {
		return errPreviewArgs
	}

	path := args[0]

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	cfg, err := chainsight.LoadConfig(filepath.Dir(path))
	if err != nil && !errors.Is(err, chainsight.ErrConfigNotFound) {
		return err
	}

	if rule := cmd.String("rule"); rule != "" {
		if cfg == nil {
			cfg = &chainsight.Config{}
		}

		cfg.Rule = rule
	}

	// The TUI owns the terminal; logs would tear the screen.
	return preview.Run(ctx, path, cfg, zap.NewNop(), os.Stdout)
}
