package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/codeindexer/oci/internal/config"
	"github.com/codeindexer/oci/internal/contextbuild"
	"github.com/codeindexer/oci/internal/deadcode"
	ocigit "github.com/codeindexer/oci/internal/git"
	"github.com/codeindexer/oci/internal/indexer"
	"github.com/codeindexer/oci/internal/intervention"
	"github.com/codeindexer/oci/internal/query"
	"github.com/codeindexer/oci/internal/types"
	"github.com/codeindexer/oci/internal/version"
	"github.com/codeindexer/oci/pkg/pathutil"
)

// loadConfig resolves the project root flag and loads (or defaults) its
// config, mirroring the CLI-flag-overrides-config pattern.
func loadConfig(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		root = "."
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "oci",
		Usage:   "Code indexing, search, and refactor-safety checks for a source tree",
		Version: version.Info(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory to operate on",
				Value:   ".",
			},
		},
		Commands: []*cli.Command{
			buildCommand(),
			queryCommand(),
			deadcodeCommand(),
			interveneCommand(),
			contextCommand(),
			churnCommand(),
			watchCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Build or incrementally update the index",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "Discard the existing cache and do a full reindex"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			idx := indexer.New(cfg)
			report, err := idx.Index(c.Context, indexer.Options{Force: c.Bool("force")})
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Search the index with BM25 ranking and path:/ext: filters",
		ArgsUsage: "<query text>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "top", Aliases: []string{"k"}, Usage: "Number of results to return", Value: 10},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			searcher, err := query.Load(cfg)
			if err != nil {
				return err
			}
			results, err := searcher.Search(c.Args().First(), c.Int("top"))
			if err != nil {
				return err
			}
			return printJSON(results)
		},
	}
}

func deadcodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "deadcode",
		Usage: "Report symbols unreachable from any entry point",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			idx := indexer.New(cfg)
			if _, err := idx.FullIndex(c.Context); err != nil {
				return err
			}
			return printJSON(deadcode.Analyze(idx.State))
		},
	}
}

func interveneCommand() *cli.Command {
	return &cli.Command{
		Name:  "intervene",
		Usage: "Check a proposed function signature or name against the index before it's written",
		Subcommands: []*cli.Command{
			{
				Name:      "duplicates",
				Usage:     "Find existing functions similar to a proposed signature",
				ArgsUsage: "<signature>",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					idx := indexer.New(cfg)
					if _, err := idx.FullIndex(c.Context); err != nil {
						return err
					}
					return printJSON(intervention.FindDuplicates(c.Args().First(), idx.State))
				},
			},
			{
				Name:      "alternatives",
				Usage:     "Suggest existing names close to a proposed one",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					idx := indexer.New(cfg)
					if _, err := idx.FullIndex(c.Context); err != nil {
						return err
					}
					return printJSON(intervention.SuggestAlternatives(c.Args().First(), idx.State))
				},
			},
			{
				Name:      "conflicts",
				Usage:     "Check a proposed name for conflicts in a file (exact/case/typo/import-shadow)",
				ArgsUsage: "<file> <name>",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					idx := indexer.New(cfg)
					if _, err := idx.FullIndex(c.Context); err != nil {
						return err
					}
					file := pathutil.ToRelative(c.Args().Get(0), cfg.Project.Root)
					return printJSON(intervention.CheckNamingConflicts(c.Args().Get(1), file, idx.State))
				},
			},
		},
	}
}

func contextCommand() *cli.Command {
	return &cli.Command{
		Name:      "context",
		Usage:     "Assemble token-budgeted context around a file:line anchor",
		ArgsUsage: "<file> <line>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "surrounding", Usage: "Lines of source to include around the anchor", Value: 3},
			&cli.IntFlag{Name: "max-tokens", Usage: "Token budget for assembled context (chars/4 estimate)", Value: 2000},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			idx := indexer.New(cfg)
			if _, err := idx.FullIndex(c.Context); err != nil {
				return err
			}
			var line int
			if _, err := fmt.Sscanf(c.Args().Get(1), "%d", &line); err != nil {
				return fmt.Errorf("invalid line number %q: %w", c.Args().Get(1), err)
			}
			file := pathutil.ToRelative(c.Args().Get(0), cfg.Project.Root)
			result, err := contextbuild.Build(cfg.Project.Root, file, line, c.Int("surrounding"), c.Int("max-tokens"), idx.State, idx.Topology)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func churnCommand() *cli.Command {
	return &cli.Command{
		Name:  "churn",
		Usage: "Report per-file commit/author counts from git history (optional, requires a git repo)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "commit-limit", Usage: "Maximum commits of history to walk", Value: 0},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			collector := ocigit.NewChurnCollector(cfg.Project.Root, c.Int("commit-limit"))
			churn, err := collector.Collect(c.Context)
			if err != nil {
				return err
			}
			return printJSON(churn)
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Index once, then incrementally reindex on filesystem changes until interrupted (requires watch_mode true)",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if !cfg.Index.WatchMode {
				return fmt.Errorf("watch_mode is disabled; set watch_mode #true in .oci.kdl to use this command")
			}
			idx := indexer.New(cfg)
			if _, err := idx.Index(c.Context, indexer.Options{}); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := idx.Watch(ctx)
			if err != nil {
				return err
			}
			w.OnIndex(func(report *types.Report, err error) {
				if err != nil {
					fmt.Fprintln(os.Stderr, "reindex error:", err)
					return
				}
				_ = printJSON(report)
			})

			<-ctx.Done()
			return w.Close()
		},
	}
}
