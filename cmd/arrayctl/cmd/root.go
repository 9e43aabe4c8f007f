// Copyright 2025 Arraykit Authors. All Rights Reserved.

// Package cmd implements the arrayctl commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/arraykit/arraykit/config"
	"github.com/arraykit/arraykit/logging"
	drivers "github.com/arraykit/arraykit/storage_drivers"
	"github.com/arraykit/arraykit/storage_drivers/array"
	"github.com/arraykit/arraykit/utils/errors"
)

const (
	FormatJSON = "json"
	FormatName = "name"
	FormatYAML = "yaml"

	ExitCodeSuccess = 0
	ExitCodeFailure = 1
)

var (
	Debug        bool
	LogLevel     string
	ConfigPath   string
	OutputFormat string

	ExitCode int
)

var RootCmd = &cobra.Command{
	Use:               "arrayctl",
	Short:             "A CLI tool for managing volumes on block storage arrays",
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.InitLogLevel(Debug, LogLevel); err != nil {
			return err
		}
		return logging.InitLogFormat("text")
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&Debug, "debug", "d", false, "Debug output")
	RootCmd.PersistentFlags().StringVarP(&LogLevel, "log-level", "", "warn",
		"Logging level (trace, debug, info, warn, error, fatal)")
	RootCmd.PersistentFlags().StringVarP(&ConfigPath, "config", "c", "backend.yaml",
		"Path to the backend config file")
	RootCmd.PersistentFlags().StringVarP(&OutputFormat, "output", "o", "",
		"Output format. One of json|yaml|name (default is a table)")

	// Accept the underscore spellings some operators are used to.
	RootCmd.PersistentFlags().SetNormalizeFunc(func(f *flag.FlagSet, name string) flag.NormalizedName {
		return flag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

func SetExitCodeFromError(err error) {
	if err != nil {
		ExitCode = ExitCodeFailure
	}
}

// cliContext returns a request-scoped context so every command invocation is
// traceable in the logs.
func cliContext() context.Context {
	return logging.GenerateRequestContext(context.Background(), uuid.New().String(), "arrayctl")
}

// getDriver loads the backend config and builds an initialized driver.
func getDriver(ctx context.Context) (*array.Driver, error) {
	cfg, err := drivers.LoadConfigFile(afero.NewOsFs(), ConfigPath)
	if err != nil {
		return nil, err
	}
	driver, err := array.NewDriver(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not initialize backend %s: %w", cfg.BackendName, err)
	}
	return driver, nil
}

func WriteJSON(out interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func WriteYAML(out interface{}) {
	raw, err := yaml.Marshal(out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	os.Stdout.Write(raw)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of arrayctl",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s (built %s)\n", config.OrchestratorName, config.BuildVersion, config.BuildTime)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}

// friendlyError strips transport wrapping down to a message an operator can
// act on, keeping the retry history at debug level only.
func friendlyError(err error) error {
	if errors.IsExhaustedRetriesError(err) {
		return fmt.Errorf("all configured endpoints are unreachable: %v", err)
	}
	return err
}
