package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	chainsight "github.com/hari6963/chainsight"
	"github.com/hari6963/chainsight/analysis"
)

var errNoGoFiles = errors.New("no Go files found")

func hintsCommand() *cli.Command {
	return &cli.Command{
		Name:      "hints",
		Usage:     "Print chain hints for Go files",
		ArgsUsage: "[files or directories...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rule",
				Aliases: []string{"r"},
				Usage:   "chain acceptance expression (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output hints as JSON",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "verbose output",
			},
		},
		Action: runHints,
	}
}

// hintJSON is the JSON output shape of one hint.
type hintJSON struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
	Label  string `json:"label"`
}

func runHints(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		args = []string{"."}
	}

	files, err := collectGoFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return errNoGoFiles
	}

	logger := zap.NewNop()
	if cmd.Bool("verbose") {
		logger, err = stderrLogger()
		if err != nil {
			return err
		}
	}

	analyzer := analysis.NewAnalyzer(logger)
	defer analyzer.Close()

	var all []hintJSON

	for _, file := range files {
		hints, err := fileHints(ctx, analyzer, file, cmd.String("rule"))
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		all = append(all, hints...)
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(all)
	}

	for _, h := range all {
		fmt.Printf("%s:%d:%d: %s\n", h.Path, h.Line, h.Column, h.Label)
	}

	return nil
}

// fileHints computes the hint batch for one file, honoring the nearest
// config unless ruleOverride is set.
func fileHints(ctx context.Context, analyzer *analysis.Analyzer, path, ruleOverride string) ([]hintJSON, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := chainsight.LoadConfig(filepath.Dir(path))
	if err != nil && !errors.Is(err, chainsight.ErrConfigNotFound) {
		return nil, err
	}

	ruleExpr := cfg.RuleExpression()
	if ruleOverride != "" {
		ruleExpr = ruleOverride
	}

	var rule *chainsight.Rule

	if ruleExpr != "" {
		rule, err = chainsight.CompileRule(ruleExpr)
		if err != nil {
			return nil, fmt.Errorf("compiling rule: %w", err)
		}
	}

	analyzed, err := analyzer.Analyze(ctx, path, src)
	if err != nil {
		return nil, err
	}

	batch, err := analyzed.Hints(ctx, cfg.HintsEnabled(), rule)
	if err != nil {
		return nil, err
	}

	hints := make([]hintJSON, 0, len(batch))

	for offset, rec := range batch {
		line, col := lineColumn(src, offset)

		hints = append(hints, hintJSON{
			Path:   path,
			Line:   line,
			Column: col,
			Offset: offset,
			Label:  rec.Label,
		})
	}

	sort.Slice(hints, func(i, j int) bool { return hints[i].Offset < hints[j].Offset })

	return hints, nil
}

// lineColumn converts a byte offset to 1-based line and column numbers.
func lineColumn(src []byte, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}

	before := src[:offset]
	line = strings.Count(string(before), "\n") + 1
	col = offset - (strings.LastIndexByte(string(before), '\n') + 1) + 1

	return line, col
}

func collectGoFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, arg)

			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			name := d.Name()

			if d.IsDir() {
				if path != arg && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
					return filepath.SkipDir
				}

				return nil
			}

			if strings.HasSuffix(name, ".go") {
				files = append(files, path)
			}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// stderrLogger builds a development logger writing to stderr so command
// output on stdout stays parseable.
func stderrLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}
