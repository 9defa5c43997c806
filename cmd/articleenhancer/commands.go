package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"ArticleEnhancer/internal/app"
	"ArticleEnhancer/internal/config"
	"ArticleEnhancer/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func (o *rootOptions) load(cmd *cobra.Command) (config.Config, *slog.Logger) {
	cfg := config.Load(o.configPath)
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "articleenhancer",
		Short:         "Enhance stored articles with scraped references and an AI rewrite",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config (default $ARTICLE_ENHANCER_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newRunCmd(opts), newServeCmd(opts), newSeedCmd(opts))
	return root
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		watch    time.Duration
		refCount int
		storeURL string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Enhance the latest pending article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := opts.load(cmd)
			if refCount > 0 {
				cfg.References.Count = refCount
			}
			if storeURL != "" {
				cfg.Store.BaseURL = storeURL
			}
			if watch > 0 {
				cfg.Scheduler.Interval = watch
			}

			application := app.New(cfg, logger)
			defer application.Close()

			if watch > 0 {
				return application.Watch(cmd.Context())
			}

			article, err := application.Run(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Enhanced article %d %q with %d citation(s)\n",
				article.ID, article.Title, len(article.Citations))
			return nil
		},
	}
	cmd.Flags().DurationVar(&watch, "watch", 0, "keep running, enhancing one article per interval (e.g. 10m)")
	cmd.Flags().IntVar(&refCount, "references", 0, "number of references to collect (default from config)")
	cmd.Flags().StringVar(&storeURL, "store-url", "", "article store API base URL (default from config)")
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr, driver, dsn string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the article store REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := opts.load(cmd)
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if driver != "" {
				cfg.Database.Driver = driver
			}
			if dsn != "" {
				cfg.Database.DSN = dsn
			}

			application := app.New(cfg, logger)
			defer application.Close()
			return application.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&driver, "driver", "", "database driver: postgres, sqlite3 or memory")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database DSN")
	return cmd
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Scrape configured blogs into the article store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := opts.load(cmd)

			application := app.New(cfg, logger)
			defer application.Close()

			report, err := application.Seed(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d article(s): %d created, %d skipped\n",
				report.Fetched, report.Created, report.Skipped)
			return nil
		},
	}
}
