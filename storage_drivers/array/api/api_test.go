// Copyright 2025 Arraykit Authors. All Rights Reserved.

package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arraykit/arraykit/storage"
	drivers "github.com/arraykit/arraykit/storage_drivers"
	"github.com/arraykit/arraykit/utils/errors"
)

// scriptedPool replays canned responses per endpoint host. A host with no
// remaining responses fails with a transport error, so an unscripted host is
// a permanently dead endpoint.
type scriptedPool struct {
	scripts     map[string][][]byte
	sends       map[string]int
	invalidated int
}

func newScriptedPool() *scriptedPool {
	return &scriptedPool{scripts: map[string][][]byte{}, sends: map[string]int{}}
}

func (p *scriptedPool) script(host string, responses ...[]byte) {
	p.scripts[host] = responses
}

func (p *scriptedPool) Acquire(_ context.Context, endpoint drivers.Endpoint) (Conn, error) {
	return &scriptedConn{endpoint: endpoint, pool: p}, nil
}

func (p *scriptedPool) Release(Conn)    {}
func (p *scriptedPool) Invalidate(Conn) { p.invalidated++ }

type scriptedConn struct {
	endpoint drivers.Endpoint
	pool     *scriptedPool
}

func (c *scriptedConn) Endpoint() drivers.Endpoint { return c.endpoint }
func (c *scriptedConn) Close() error               { return nil }

func (c *scriptedConn) Send(_ context.Context, _ []byte) ([]byte, error) {
	c.pool.sends[c.endpoint.Host]++
	responses := c.pool.scripts[c.endpoint.Host]
	if len(responses) == 0 {
		return nil, errors.UnreachableError("connection refused on %s", c.endpoint.Address())
	}
	c.pool.scripts[c.endpoint.Host] = responses[1:]
	return responses[0], nil
}

func testConfig(hosts ...string) *drivers.ArrayStorageDriverConfig {
	cfg := &drivers.ArrayStorageDriverConfig{
		CommonStorageDriverConfig: &drivers.CommonStorageDriverConfig{},
		Dialect:                   drivers.DialectCLI,
		RetryCount:                2,
		MaxCycles:                 2,
		RecoveryDelay:             1,
		Pool:                      "pool0",
	}
	for _, h := range hosts {
		cfg.Endpoints = append(cfg.Endpoints, drivers.Endpoint{
			Host: h, Port: 22, Username: "admin", Password: "secret",
		})
	}
	return cfg
}

func newTestClient(cfg *drivers.ArrayStorageDriverConfig, pool SessionPool) *Client {
	c := newClient(cfg, NewCLICodec(), pool)
	c.sleep = func(time.Duration) {}
	return c
}

const okVolumeRecord = "name=v_abc\nsize_gib=10\nthin=true\ncreated_at=2024-05-01T10:00:00Z\n"

func TestExecuteFailoverLandsOnHealthyEndpoint(t *testing.T) {
	cfg := testConfig("c0", "c1", "c2")
	pool := newScriptedPool()
	// c0 and c1 always fail transport; c2 answers.
	pool.script("c2", []byte(okVolumeRecord))

	client := newTestClient(cfg, pool)

	resp, err := client.Execute(context.Background(), storage.NewCommand(storage.OpGetVolume,
		storage.Param{Key: "name", Value: "v_abc"}))
	require.NoError(t, err)

	res, err := resp.Resource()
	require.NoError(t, err)
	assert.Equal(t, "v_abc", res.Name)
	assert.Equal(t, int64(10), res.SizeGiB)

	// Sticky routing: the active pointer stays at the endpoint that answered.
	assert.Equal(t, "c2", client.ActiveEndpoint().Host)

	// Each dead endpoint was retried retryCount times before rotating.
	assert.Equal(t, 2, pool.sends["c0"])
	assert.Equal(t, 2, pool.sends["c1"])
	assert.Equal(t, 1, pool.sends["c2"])
}

func TestExecuteStartsFromStickyEndpoint(t *testing.T) {
	cfg := testConfig("c0", "c1")
	pool := newScriptedPool()
	pool.script("c1", []byte(okVolumeRecord), []byte(okVolumeRecord))

	client := newTestClient(cfg, pool)
	cmd := storage.NewCommand(storage.OpGetVolume, storage.Param{Key: "name", Value: "v_abc"})

	_, err := client.Execute(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, "c1", client.ActiveEndpoint().Host)

	// The second call must not touch the dead default endpoint at all.
	deadSends := pool.sends["c0"]
	_, err = client.Execute(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, deadSends, pool.sends["c0"])
}

func TestExecuteDoesNotRetryRemoteErrors(t *testing.T) {
	cfg := testConfig("c0")
	pool := newScriptedPool()
	pool.script("c0", []byte("Error: object v_abc was not found in this collection\n"))

	client := newTestClient(cfg, pool)

	_, err := client.Execute(context.Background(), storage.NewCommand(storage.OpDeleteVolume,
		storage.Param{Key: "name", Value: "v_abc"}))
	assert.True(t, errors.IsNotFoundError(err))
	assert.Equal(t, 1, pool.sends["c0"])
}

func TestExecuteExhaustedRetries(t *testing.T) {
	cfg := testConfig("c0", "c1")
	pool := newScriptedPool()

	slept := 0
	client := newClient(cfg, NewCLICodec(), pool)
	client.sleep = func(time.Duration) { slept++ }

	_, err := client.Execute(context.Background(), storage.NewCommand(storage.OpListVolumes))
	assert.True(t, errors.IsExhaustedRetriesError(err))

	// retryCount(2) x endpoints(2) x cycles(2) attempts, one recovery sleep
	// between the two cycles.
	assert.Equal(t, 4, pool.sends["c0"])
	assert.Equal(t, 4, pool.sends["c1"])
	assert.Equal(t, 1, slept)
}

func TestExecuteAnswersInteractivePrompt(t *testing.T) {
	cfg := testConfig("c0")
	pool := newScriptedPool()
	pool.script("c0",
		[]byte("This operation will delete the object. Continue? (y/n)"),
		[]byte("deleted\n"))

	client := newTestClient(cfg, pool)

	_, err := client.Execute(context.Background(), storage.NewCommand(storage.OpDeleteVolume,
		storage.Param{Key: "name", Value: "v_abc"}))
	require.NoError(t, err)

	// One command send plus one confirmation token on the same session.
	assert.Equal(t, 2, pool.sends["c0"])
}
