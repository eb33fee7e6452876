package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	searchflip "github.com/olleolleolle/search-flip"
	"github.com/olleolleolle/search-flip/internal/config"
	logpkg "github.com/olleolleolle/search-flip/internal/logger"
	"github.com/olleolleolle/search-flip/internal/version"
)

// app holds state shared by every subcommand after the root pre-run.
type app struct {
	configPath string
	url        string

	cfg    config.Config
	logger *zap.Logger
	client *searchflip.Client
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "searchflip",
		Short:         "Query and bulk-load an Elasticsearch-compatible search backend",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.url, "url", "", "backend URL (overrides server.url)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// No config or client needed.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "searchflip %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the backend answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", a.cfg.Server.URL)
			return nil
		},
	}

	rootCmd.AddCommand(versionCmd, pingCmd, newSearchCmd(a), newBulkCmd(a))
	return rootCmd
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.url != "" {
		cfg.Server.URL = a.url
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --url: %w", err)
		}
	}
	a.cfg = cfg

	a.logger, err = logpkg.NewLogger(cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	var negation searchflip.Negation = searchflip.MustNot{}
	if cfg.Search.Negation == "not_filter" {
		negation = searchflip.NotFilter{}
	}
	opts := []searchflip.Option{
		searchflip.WithURL(cfg.Server.URL),
		searchflip.WithTimeout(cfg.Server.Timeout()),
		searchflip.WithNegation(negation),
		searchflip.WithLogger(a.logger),
		searchflip.WithUserAgent(version.UserAgent()),
	}
	if cfg.Server.Username != "" {
		opts = append(opts, searchflip.WithBasicAuth(cfg.Server.Username, cfg.Server.Password))
	}
	a.client, err = searchflip.New(opts...)
	if err != nil {
		return err
	}
	a.logger.Debug("client ready", zap.String("url", cfg.Server.URL), zap.String("negation", cfg.Search.Negation))
	return nil
}
