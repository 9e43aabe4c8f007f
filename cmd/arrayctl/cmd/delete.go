// Copyright 2025 Arraykit Authors. All Rights Reserved.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove a resource from the array",
}

var deleteCascade bool

var deleteVolumeCmd = &cobra.Command{
	Use:     "volume <name>...",
	Short:   "Delete one or more volumes",
	Aliases: []string{"v"},
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cliContext()
		driver, err := getDriver(ctx)
		if err != nil {
			return err
		}

		for _, volumeID := range args {
			if err = driver.Destroy(ctx, volumeID, deleteCascade); err != nil {
				return friendlyError(err)
			}
			fmt.Printf("%s deleted\n", volumeID)
		}
		return nil
	},
}

var deleteSnapshotCmd = &cobra.Command{
	Use:     "snapshot <volume> <name>",
	Short:   "Delete a snapshot of a volume",
	Aliases: []string{"s"},
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cliContext()
		driver, err := getDriver(ctx)
		if err != nil {
			return err
		}

		if err = driver.DeleteSnapshot(ctx, args[1], args[0]); err != nil {
			return friendlyError(err)
		}
		fmt.Printf("snapshot %s of %s deleted\n", args[1], args[0])
		return nil
	},
}

func init() {
	RootCmd.AddCommand(deleteCmd)
	deleteCmd.AddCommand(deleteVolumeCmd)
	deleteCmd.AddCommand(deleteSnapshotCmd)

	deleteVolumeCmd.Flags().BoolVar(&deleteCascade, "cascade", false,
		"Resolve dependent clones by promotion instead of refusing the delete")
}
