// Copyright 2025 Arraykit Authors. All Rights Reserved.

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/arraykit/arraykit/storage"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Show resources on the array",
}

var getVolumeCmd = &cobra.Command{
	Use:     "volume",
	Short:   "List the array's objects",
	Aliases: []string{"v", "volumes"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cliContext()
		driver, err := getDriver(ctx)
		if err != nil {
			return err
		}

		resources, err := driver.ListResources(ctx)
		if err != nil {
			return friendlyError(err)
		}
		writeResources(resources)
		return nil
	},
}

var getCapacityCmd = &cobra.Command{
	Use:     "capacity",
	Short:   "Show the configured pool's capacity",
	Aliases: []string{"c"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cliContext()
		driver, err := getDriver(ctx)
		if err != nil {
			return err
		}

		capacity, err := driver.GetCapacity(ctx)
		if err != nil {
			return friendlyError(err)
		}
		writeCapacity(capacity)
		return nil
	},
}

func writeResources(resources []storage.PhysicalResource) {
	switch OutputFormat {
	case FormatJSON:
		WriteJSON(resources)
	case FormatYAML:
		WriteYAML(resources)
	case FormatName:
		for _, res := range resources {
			fmt.Println(res.Name)
		}
	default:
		writeResourceTable(resources)
	}
}

func writeResourceTable(resources []storage.PhysicalResource) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Kind", "Size", "Origin", "Dependents", "Created"})

	for _, res := range resources {
		table.Append([]string{
			res.Name,
			res.Kind().String(),
			humanize.IBytes(uint64(res.SizeGiB) * humanize.GiByte),
			res.Origin,
			strings.Join(res.Dependents, ","),
			res.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	table.Render()
}

func writeCapacity(capacity *storage.PoolCapacity) {
	switch OutputFormat {
	case FormatJSON:
		WriteJSON(capacity)
	case FormatYAML:
		WriteYAML(capacity)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Pool", "Total", "Free", "Reserve Free"})
		table.Append([]string{
			capacity.Name,
			humanize.IBytes(uint64(capacity.TotalGiB) * humanize.GiByte),
			humanize.IBytes(uint64(capacity.FreeGiB) * humanize.GiByte),
			fmt.Sprintf("%d%%", capacity.ReserveFreePct),
		})
		table.Render()
	}
}

func init() {
	RootCmd.AddCommand(getCmd)
	getCmd.AddCommand(getVolumeCmd)
	getCmd.AddCommand(getCapacityCmd)
}
