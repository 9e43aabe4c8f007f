// Copyright 2025 Arraykit Authors. All Rights Reserved.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resizeSizeGiB int64

var resizeVolumeCmd = &cobra.Command{
	Use:   "resize <volume>",
	Short: "Grow a volume to a new size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cliContext()
		driver, err := getDriver(ctx)
		if err != nil {
			return err
		}

		if err = driver.Resize(ctx, args[0], resizeSizeGiB); err != nil {
			return friendlyError(err)
		}
		fmt.Printf("%s resized to %d GiB\n", args[0], resizeSizeGiB)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(resizeVolumeCmd)
	resizeVolumeCmd.Flags().Int64Var(&resizeSizeGiB, "size", 0, "New volume size in GiB")
	_ = resizeVolumeCmd.MarkFlagRequired("size")
}
