package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/diskdump/diskdump/engine"
)

var backupBlockSize string
var backupLevel int

var backupCmd = &cobra.Command{
	Use:   "backup DEVICE DUMP",
	Short: "Back up a block device into a compressed dump file",
	Long:  `Back up a block device into a compressed dump file.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		devicePath, dumpPath := args[0], args[1]

		blockSize, err := resolveBlockSize(backupBlockSize)
		if err != nil {
			return err
		}
		level := resolveLevel(backupLevel)

		slog.Debug("Backing up",
			"device", devicePath,
			"dump", dumpPath,
			"block_size", blockSize,
			"level", level,
		)

		res, err := runTransfer(cmd.Context(), engine.OpBackup, engine.Config{
			DevicePath: devicePath,
			DumpPath:   dumpPath,
			BlockSize:  blockSize,
			Level:      level,
		})
		if errors.Is(err, context.Canceled) {
			slog.Warn("Backup interrupted, stopping cleanly")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("%s backed up %s (%s) to %s (%s compressed)\n",
			color.HiGreenString("OK"),
			devicePath, humanize.IBytes(uint64(res.BytesRead)),
			dumpPath, humanize.IBytes(uint64(res.DumpSize)),
		)
		if res.Truncated {
			fmt.Println(color.YellowString("The device ended before its measured size; the dump holds every byte that was readable."))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().StringVar(&backupBlockSize, "block-size", "", "Transfer block size, e.g. 4MiB (defaults to the config)")
	backupCmd.Flags().IntVar(&backupLevel, "level", -1, "Gzip compression level 0-9 (defaults to the config)")
}
