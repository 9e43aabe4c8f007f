// Copyright 2025 Arraykit Authors. All Rights Reserved.

// Package api implements the command transport for an array management
// interface: a dialect codec (CLI text or REST JSON), a session pool per
// endpoint, and a failover loop that rotates across endpoints with sticky
// routing to the last known-good controller.
package api

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	. "github.com/arraykit/arraykit/logging"
	"github.com/arraykit/arraykit/storage"
	drivers "github.com/arraykit/arraykit/storage_drivers"
	"github.com/arraykit/arraykit/utils/errors"
)

// Executor is the single outbound contract the graph manager depends on.
type Executor interface {
	Execute(ctx context.Context, cmd storage.Command) (*storage.Response, error)
}

// Codec translates between commands and the dialect's wire format. Decode is
// pure: calling it twice on the same bytes yields the same result.
type Codec interface {
	Encode(cmd storage.Command) ([]byte, error)
	Decode(cmd storage.Command, raw []byte) (*storage.Response, error)
}

// interactiveCodec is implemented by dialects whose responses may pause on an
// interactive prompt that must be answered before the terminal response.
type interactiveCodec interface {
	ConfirmationToken() []byte
}

// Conn is a live handle to one endpoint. Transport errors returned by Send
// are typed (unreachable, timeout); anything the far side said comes back as
// raw bytes for the codec to judge.
type Conn interface {
	Send(ctx context.Context, wire []byte) ([]byte, error)
	Endpoint() drivers.Endpoint
	Close() error
}

// SessionPool owns connections. Acquire blocks until a session is available
// or the context ends; Invalidate tears the handle down so the next Acquire
// re-establishes it.
type SessionPool interface {
	Acquire(ctx context.Context, endpoint drivers.Endpoint) (Conn, error)
	Release(conn Conn)
	Invalidate(conn Conn)
}

// Client sends commands to one of several configured endpoints, failing over
// on transport errors. The active endpoint index is sticky: subsequent calls
// start from the last endpoint that answered.
type Client struct {
	codec     Codec
	pool      SessionPool
	endpoints []drivers.Endpoint

	retryCount    int
	maxCycles     int
	recoveryDelay time.Duration

	mu     sync.Mutex
	active int

	sleep func(time.Duration) // test seam
}

// NewClient builds a client for the configured dialect. The dialect is fixed
// at construction; there is no runtime lookup.
func NewClient(cfg *drivers.ArrayStorageDriverConfig) (*Client, error) {
	var codec Codec
	var pool SessionPool
	switch cfg.Dialect {
	case drivers.DialectCLI:
		codec = NewCLICodec()
		pool = NewCLIPool(cfg)
	case drivers.DialectREST:
		codec = NewRESTCodec()
		pool = NewRESTPool(cfg)
	default:
		return nil, errors.InvalidArgumentError("unknown dialect %q", cfg.Dialect)
	}
	return newClient(cfg, codec, pool), nil
}

func newClient(cfg *drivers.ArrayStorageDriverConfig, codec Codec, pool SessionPool) *Client {
	return &Client{
		codec:         codec,
		pool:          pool,
		endpoints:     cfg.Endpoints,
		retryCount:    cfg.RetryCount,
		maxCycles:     cfg.MaxCycles,
		recoveryDelay: cfg.RecoveryDelayDuration(),
		sleep:         time.Sleep,
	}
}

// ActiveEndpoint returns the endpoint the next Execute will try first.
func (c *Client) ActiveEndpoint() drivers.Endpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoints[c.active]
}

func (c *Client) activeIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Client) setActiveIndex(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = i
}

// Execute encodes cmd, sends it to the active endpoint, and decodes the
// answer. On transport failure it retries the endpoint up to retryCount
// times, then rotates; after a full rotation it sleeps the recovery delay and
// repeats the whole rotation up to maxCycles times before reporting
// exhausted retries. Decoded remote errors are never retried.
func (c *Client) Execute(ctx context.Context, cmd storage.Command) (*storage.Response, error) {
	wire, err := c.codec.Encode(cmd)
	if err != nil {
		return nil, err
	}

	commandsTotal.WithLabelValues(cmd.Op).Inc()

	var lastErr error
	start := c.activeIndex()

	for cycle := 0; cycle < c.maxCycles; cycle++ {
		if cycle > 0 {
			Logc(ctx).WithFields(log.Fields{
				"op":    cmd.Op,
				"cycle": cycle,
				"delay": c.recoveryDelay,
			}).Info("All endpoints failed, sleeping before next rotation.")
			c.sleep(c.recoveryDelay)
		}

		for i := 0; i < len(c.endpoints); i++ {
			idx := (start + i) % len(c.endpoints)
			endpoint := c.endpoints[idx]

			resp, err := c.tryEndpoint(ctx, endpoint, cmd, wire)
			if err == nil || !isTransportError(err) {
				// Success, or an answer from the array. Pin routing to
				// this endpoint for subsequent calls.
				c.setActiveIndex(idx)
				return resp, err
			}

			lastErr = err
			failoversTotal.Inc()
			Logc(ctx).WithFields(log.Fields{
				"op":       cmd.Op,
				"endpoint": endpoint.Address(),
				"error":    err,
			}).Info("Endpoint failed, rotating to next endpoint.")
		}
	}

	return nil, errors.WrapWithExhaustedRetriesError(lastErr,
		"command %s failed on all %d endpoints after %d cycles", cmd.Op, len(c.endpoints), c.maxCycles)
}

// tryEndpoint runs up to retryCount attempts against a single endpoint.
func (c *Client) tryEndpoint(
	ctx context.Context, endpoint drivers.Endpoint, cmd storage.Command, wire []byte,
) (*storage.Response, error) {

	var lastErr error
	for attempt := 0; attempt < c.retryCount; attempt++ {
		if attempt > 0 {
			retriesTotal.Inc()
		}

		resp, err := c.exchange(ctx, endpoint, cmd, wire)
		if err == nil || !isTransportError(err) {
			return resp, err
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, errors.WrapWithUnreachableError(ctx.Err(), "command %s aborted", cmd.Op)
		}
	}
	return nil, lastErr
}

// exchange performs one acquire/send/decode round trip.
func (c *Client) exchange(
	ctx context.Context, endpoint drivers.Endpoint, cmd storage.Command, wire []byte,
) (*storage.Response, error) {

	conn, err := c.pool.Acquire(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	raw, err := conn.Send(ctx, wire)
	if err != nil {
		c.pool.Invalidate(conn)
		return nil, err
	}

	resp, err := c.codec.Decode(cmd, raw)

	// Some CLI responses pause on an interactive yes/no prompt. Answer it on
	// the same session and expect the terminal response. This is a
	// decode-time special case, not a retry.
	if err == errConfirmationRequired {
		interactive, ok := c.codec.(interactiveCodec)
		if !ok {
			c.pool.Invalidate(conn)
			return nil, errors.ProtocolViolationError("dialect cannot answer interactive prompt")
		}
		raw, err = conn.Send(ctx, interactive.ConfirmationToken())
		if err != nil {
			c.pool.Invalidate(conn)
			return nil, err
		}
		resp, err = c.codec.Decode(cmd, raw)
	}

	c.pool.Release(conn)

	if err != nil && !isTransportError(err) {
		remoteErrorsTotal.WithLabelValues(cmd.Op).Inc()
	}
	return resp, err
}

// isTransportError reports whether err is recoverable by retry/failover.
// Decoded remote errors and protocol violations are answers, not transport
// failures.
func isTransportError(err error) bool {
	return errors.IsUnreachableError(err) || errors.IsTimeoutError(err)
}
