// Copyright 2025 Arraykit Authors. All Rights Reserved.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arraykit/arraykit/storage_drivers/array"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a resource to the array",
}

var (
	createSizeGiB int64
	createThin    bool
	createThick   bool
)

var createVolumeCmd = &cobra.Command{
	Use:     "volume <name>",
	Short:   "Create a volume",
	Aliases: []string{"v"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cliContext()
		driver, err := getDriver(ctx)
		if err != nil {
			return err
		}

		opts := volumeOptions()
		name, err := driver.Create(ctx, args[0], createSizeGiB, opts)
		if err != nil {
			return friendlyError(err)
		}
		fmt.Printf("%s created\n", name)
		return nil
	},
}

var createSnapshotCmd = &cobra.Command{
	Use:     "snapshot <volume> <name>",
	Short:   "Create a snapshot of a volume",
	Aliases: []string{"s"},
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cliContext()
		driver, err := getDriver(ctx)
		if err != nil {
			return err
		}

		name, err := driver.CreateSnapshot(ctx, args[1], args[0])
		if err != nil {
			return friendlyError(err)
		}
		fmt.Printf("%s created\n", name)
		return nil
	},
}

var cloneFromSnapshot string

var createCloneCmd = &cobra.Command{
	Use:   "clone <source-volume> <name>",
	Short: "Create a clone of a volume, or of one of its snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("clone requires a source volume and a clone name")
		}
		ctx := cliContext()
		driver, err := getDriver(ctx)
		if err != nil {
			return err
		}

		var name string
		if cloneFromSnapshot != "" {
			name, err = driver.CreateVolumeFromSnapshot(ctx, args[1], cloneFromSnapshot, args[0], createSizeGiB)
		} else {
			name, err = driver.CreateClone(ctx, args[1], args[0], createSizeGiB)
		}
		if err != nil {
			return friendlyError(err)
		}
		fmt.Printf("%s created\n", name)
		return nil
	},
}

// volumeOptions maps the provisioning flags onto driver options. Leaving
// both flags unset defers to the backend config.
func volumeOptions() array.VolumeOptions {
	var opts array.VolumeOptions
	if createThin {
		thin := true
		opts.Thin = &thin
	} else if createThick {
		thick := false
		opts.Thin = &thick
	}
	return opts
}

func init() {
	RootCmd.AddCommand(createCmd)
	createCmd.AddCommand(createVolumeCmd)
	createCmd.AddCommand(createSnapshotCmd)
	createCmd.AddCommand(createCloneCmd)

	createVolumeCmd.Flags().Int64Var(&createSizeGiB, "size", 1, "Volume size in GiB")
	createVolumeCmd.Flags().BoolVar(&createThin, "thin", false, "Thin-provision the volume")
	createVolumeCmd.Flags().BoolVar(&createThick, "thick", false, "Thick-provision the volume")

	createCloneCmd.Flags().Int64Var(&createSizeGiB, "size", 0, "Clone size in GiB (defaults to source size)")
	createCloneCmd.Flags().StringVar(&cloneFromSnapshot, "from-snapshot", "",
		"Clone from this existing snapshot instead of taking a new one")
}
