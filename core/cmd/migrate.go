package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/utilbot/core/bootstrap"
)

func newMigrateCmd(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Prepare the configured store and optionally import a JSON document",
		Long: "Opens the configured store, applying schema migrations for the postgres backend. " +
			"With --import the welcome templates and groups of a JSON data file are copied into it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, opts)
		},
	}
	cmd.Flags().String("import", "", "JSON data file to copy into the store")
	return cmd
}

func runMigrate(cmd *cobra.Command, opts Options) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	bopts := bootstrap.Options{Config: cfg, LoggerInit: opts.LoggerInit}
	var seeder *bootstrap.DocumentSeeder
	if path, _ := cmd.Flags().GetString("import"); path != "" {
		seeder = &bootstrap.DocumentSeeder{Path: path}
		bopts.Seeders = append(bopts.Seeders, seeder)
	}

	res, err := bootstrap.Run(ctx, bopts)
	if err != nil {
		return err
	}
	defer func() { _ = opts.ShutdownLogger() }()
	if err := res.Close(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "store ready (%s)\n", cfg.Storage.Backend); err != nil {
		return err
	}
	if seeder != nil {
		_, err = fmt.Fprintf(out, "imported %d welcome messages, %d new groups from %s\n",
			seeder.Stats.Welcome, seeder.Stats.Groups, seeder.Path)
	}
	return err
}
