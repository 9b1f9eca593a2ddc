package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/diskdump/diskdump/config"
)

var configFile string
var cfg *config.Config

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "diskdump",
	Short:   "Block Device Backup and Restore Tool",
	Long:    `diskdump backs up block devices to compressed dump files and restores them.`,
	Version: fmt.Sprintf("%s+%s %s", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		var err error
		cfg, err = config.LoadConfig(v, configFile)
		if err != nil {
			slog.Error("Failed to load config", "error", err)
			return err
		}

		if cfg.Debug {
			setSlog(slog.LevelDebug)
		} else {
			setSlog(slog.LevelInfo)
		}

		slog.Debug("Loaded config", "file", configFile, "config", cfg)

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFile,
		"config", "c",
		"/etc/diskdump.toml",
		"path for the config file",
	)
}

var interrupted = false

func main() {
	setSlog(slog.LevelInfo) // set the log level to info by default

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		for range signals {
			if !interrupted {
				slog.Warn("Received signal to terminate, will stop at the next block boundary. Use Ctrl+C again to force exit.")
				interrupted = true
				cancel()
			} else {
				slog.Error("Force exiting. The current operation is unfinished.")
				os.Exit(1)
			}
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errVerificationFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
