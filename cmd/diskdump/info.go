package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/diskdump/diskdump/engine"
)

var infoBlockSize string

var infoCmd = &cobra.Command{
	Use:   "info DEVICE DUMP",
	Short: "Show sizes for a device and a dump file",
	Long:  `Show the device size, the dump's compressed size, and the block math, without transferring data.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		devicePath, dumpPath := args[0], args[1]

		blockSize, err := resolveBlockSize(infoBlockSize)
		if err != nil {
			return err
		}

		res, err := newEngine().Run(cmd.Context(), engine.OpInfo, engine.Config{
			DevicePath: devicePath,
			DumpPath:   dumpPath,
			BlockSize:  blockSize,
		})
		if err != nil {
			return err
		}

		table := tablewriter.NewTable(cmd.OutOrStdout())
		table.Header("Side", "Path", "Size", "Bytes")
		_ = table.Append([]string{"device", devicePath, humanize.IBytes(uint64(res.DeviceSize)), strconv.FormatInt(res.DeviceSize, 10)})
		_ = table.Append([]string{"dump", dumpPath, humanize.IBytes(uint64(res.DumpSize)), strconv.FormatInt(res.DumpSize, 10)})
		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		fmt.Printf("%d blocks of %s\n", res.Blocks, humanize.IBytes(uint64(res.BlockSize)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().StringVar(&infoBlockSize, "block-size", "", "Block size used for the block count, e.g. 4MiB (defaults to the config)")
}
