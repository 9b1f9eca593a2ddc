package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/diskdump/diskdump/engine"
)

var checkBlockSize string

// errVerificationFailed distinguishes a content mismatch from operational
// failures so main can map it to its own exit code.
var errVerificationFailed = errors.New("verification failed")

var checkCmd = &cobra.Command{
	Use:   "check DEVICE DUMP",
	Short: "Compare a block device against a dump file",
	Long:  `Compare a block device against a dump file block by block.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		devicePath, dumpPath := args[0], args[1]

		blockSize, err := resolveBlockSize(checkBlockSize)
		if err != nil {
			return err
		}

		res, err := runTransfer(cmd.Context(), engine.OpCheck, engine.Config{
			DevicePath: devicePath,
			DumpPath:   dumpPath,
			BlockSize:  blockSize,
		})
		if errors.Is(err, context.Canceled) {
			slog.Warn("Check interrupted, stopping cleanly")
			return nil
		}
		if err != nil {
			return err
		}

		if !*res.Verified {
			fmt.Printf("%s %s and %s differ at block %d\n",
				color.HiRedString("MISMATCH!"), devicePath, dumpPath, res.MismatchBlock)
			return fmt.Errorf("%w: first differing block is %d", errVerificationFailed, res.MismatchBlock)
		}

		fmt.Printf("%s %s matches %s (%d blocks compared)\n",
			color.HiGreenString("OK"), devicePath, dumpPath, res.BlocksDone)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkBlockSize, "block-size", "", "Comparison block size, e.g. 4MiB (defaults to the config)")
}
