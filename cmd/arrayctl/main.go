// Copyright 2025 Arraykit Authors. All Rights Reserved.

package main

import (
	"os"

	"github.com/arraykit/arraykit/cmd/arrayctl/cmd"
)

func main() {
	cmd.ExitCode = cmd.ExitCodeSuccess

	if err := cmd.RootCmd.Execute(); err != nil {
		cmd.SetExitCodeFromError(err)
	}

	os.Exit(cmd.ExitCode)
}
