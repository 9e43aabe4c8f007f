// Copyright 2025 Arraykit Authors. All Rights Reserved.

package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arraykit",
		Subsystem: "transport",
		Name:      "commands_total",
		Help:      "Commands submitted to the array, by operation.",
	}, []string{"op"})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "arraykit",
		Subsystem: "transport",
		Name:      "retries_total",
		Help:      "Immediate same-endpoint retries after a transport failure.",
	})

	failoversTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "arraykit",
		Subsystem: "transport",
		Name:      "failovers_total",
		Help:      "Rotations to the next endpoint after exhausting retries.",
	})

	remoteErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arraykit",
		Subsystem: "transport",
		Name:      "remote_errors_total",
		Help:      "Decoded error responses from the array, by operation.",
	}, []string{"op"})
)
