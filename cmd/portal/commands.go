package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/pkg/pg"
	"github.com/dmitrymomot/voicedesk/svc/store"
)

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:           "voicedesk",
		Short:         "VoiceDesk admin portal",
		Long:          `Admin portal API for the voice support assistant: plans, usage limits, billing and data sources.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load; ./.env is read when present")

	root.AddCommand(
		newServeCmd(&envFiles),
		newMigrateCmd(&envFiles),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig[appConfig](*envFiles)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func newMigrateCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig[migrateConfig](*envFiles)
			if err != nil {
				return err
			}
			log := logger.New(logger.FromConfig(cfg.Log), logger.WithOutput(os.Stderr))

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pool, err := pg.Connect(ctx, cfg.PG)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.Migrate(ctx, pool, cfg.PG, log); err != nil {
				return err
			}
			log.InfoContext(ctx, "migrations applied")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "voicedesk %s\n", Version)
			if BuildTime != "unknown" {
				fmt.Fprintf(out, "Built: %s\n", BuildTime)
			}
			if GitCommit != "unknown" {
				fmt.Fprintf(out, "Commit: %s\n", GitCommit)
			}
		},
	}
}
