package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/diskdump/diskdump/engine"
)

var restoreBlockSize string
var restoreYes bool
var restoreNoSync bool

var restoreCmd = &cobra.Command{
	Use:   "restore DEVICE DUMP",
	Short: "Restore a dump file onto a block device",
	Long:  `Restore a dump file onto a block device, overwriting its contents.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		devicePath, dumpPath := args[0], args[1]

		allowed, err := cfg.Safety.Allows(devicePath)
		if err != nil {
			return err
		}
		if !allowed {
			slog.Error("Device is not in the configured allowlist", "device", devicePath)
			return fmt.Errorf("device %s is not permitted by safety.allowed_devices", devicePath)
		}

		blockSize, err := resolveBlockSize(restoreBlockSize)
		if err != nil {
			return err
		}

		if !restoreYes {
			fmt.Printf("%s! This will overwrite %s with the contents of %s.\n",
				color.HiRedString("WARNING"), devicePath, dumpPath)

			prompt := promptui.Prompt{
				Label:     fmt.Sprintf("Overwrite %s", devicePath),
				IsConfirm: true,
				Default:   "n",
			}
			if _, err := prompt.Run(); err != nil {
				if errors.Is(err, promptui.ErrAbort) {
					fmt.Println("Restore aborted.")
					return nil
				}
				return fmt.Errorf("failed to confirm restore: %w", err)
			}
		}

		res, err := runTransfer(cmd.Context(), engine.OpRestore, engine.Config{
			DevicePath:    devicePath,
			DumpPath:      dumpPath,
			BlockSize:     blockSize,
			SyncEachWrite: cfg.Transfer.SyncEachWrite && !restoreNoSync,
		})
		if errors.Is(err, context.Canceled) {
			slog.Warn("Restore interrupted, stopping cleanly. The device holds a partial image.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("%s restored %s (%s) onto %s\n",
			color.HiGreenString("OK"),
			dumpPath, humanize.IBytes(uint64(res.BytesWritten)), devicePath,
		)
		if res.Truncated {
			fmt.Println(color.YellowString("The dump ended before the device was full; the remaining device blocks are untouched."))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringVar(&restoreBlockSize, "block-size", "", "Transfer block size, e.g. 4MiB (defaults to the config)")
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Skip the confirmation prompt")
	restoreCmd.Flags().BoolVar(&restoreNoSync, "no-sync", false, "Do not sync the device after each written block")
}
