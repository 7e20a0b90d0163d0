// Package cmd holds the utilbot command line.
package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/m3rciful/utilbot/core/bootstrap"
	coreconfig "github.com/m3rciful/utilbot/core/config"
	"github.com/m3rciful/utilbot/core/logger"
	coretelegram "github.com/m3rciful/utilbot/core/telegram"
)

const configEnvVar = "CONFIG_PATH"

// Options carries the hooks the commands call. Nil hooks use the real
// implementations.
type Options struct {
	LoggerInit     func(*coreconfig.Config) error
	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// NewRootCmd creates the utilbot command with all subcommands registered.
// Running it without a subcommand starts the bot.
func NewRootCmd() *cobra.Command {
	return newRootCmd(Options{})
}

func newRootCmd(opts Options) *cobra.Command {
	if opts.LoggerInit == nil {
		opts.LoggerInit = logger.InitLogger
	}
	if opts.ShutdownLogger == nil {
		opts.ShutdownLogger = logger.Shutdown
	}
	if opts.RunTelegram == nil {
		opts.RunTelegram = coretelegram.RunTelegram
	}

	root := &cobra.Command{
		Use:           "utilbot",
		Short:         "Telegram utility bot",
		Long:          "utilbot answers ID lookups, greets new members, and lets admins broadcast and pin.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd, opts)
		},
	}
	root.PersistentFlags().StringP("config", "c", os.Getenv(configEnvVar),
		"path to YAML config file (env "+configEnvVar+")")

	root.AddCommand(
		newRunCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newRunCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd, opts)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*coreconfig.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		log.Printf("loading config: %s", path)
	}
	return coreconfig.Load(path)
}

func runBot(cmd *cobra.Command, opts Options) error {
	startedAt := time.Now()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg, LoggerInit: opts.LoggerInit})
	if err != nil {
		return err
	}
	defer func() {
		if err := opts.ShutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	defer func() {
		if err := res.Close(); err != nil {
			logger.LogEvent(ctx, logger.L, slog.LevelWarn, "store.close", slog.Any("err", err))
		}
	}()

	return opts.RunTelegram(ctx, coretelegram.RunOptions{
		Config: cfg,
		Store:  res.Store,
		OnStart: func(ctx context.Context, _ coretelegram.Runtime) error {
			logger.LogEvent(ctx, logger.OrDiscard(logger.L).With("component", "app"), slog.LevelInfo, "ready",
				slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
			)
			return nil
		},
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			logger.LogEvent(ctx, logger.OrDiscard(logger.L).With("component", "app"), slog.LevelInfo, "shutdown")
			return nil
		},
	})
}
