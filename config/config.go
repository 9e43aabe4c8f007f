// Copyright 2025 Arraykit Authors. All Rights Reserved.

package config

import "time"

const (
	// OrchestratorName is the name reported in logs and user agents.
	OrchestratorName = "arraykit"

	// DefaultCLIPort is the management SSH port on most array controllers.
	DefaultCLIPort = 22

	// DefaultRESTPort is the management HTTPS port on most array controllers.
	DefaultRESTPort = 443

	// DefaultRetryCount is the number of immediate retries per endpoint
	// before the transport rotates to the next endpoint.
	DefaultRetryCount = 3

	// DefaultMaxCycles bounds how many full endpoint rotations the transport
	// attempts before giving up.
	DefaultMaxCycles = 2

	// DefaultRecoveryDelay is slept between full endpoint rotations.
	DefaultRecoveryDelay = 10 * time.Second

	// DefaultSessionsPerEndpoint bounds the CLI session pool. The array CLI
	// shell is stateful, so this stays small.
	DefaultSessionsPerEndpoint = 1

	// DefaultReservePctMin is the minimum free snapshot-reserve percentage
	// required before a snapshot create is attempted.
	DefaultReservePctMin = 20

	// DefaultCloneCopyTimeout bounds the wait for an asynchronous background
	// copy to reach a terminal state.
	DefaultCloneCopyTimeout = 10 * time.Minute

	// DefaultCloneCopyPollInterval is the initial interval between copy
	// status checks.
	DefaultCloneCopyPollInterval = 2 * time.Second
)

var (
	BuildVersion = "unknown"
	BuildTime    = "unknown"
)
