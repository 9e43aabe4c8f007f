// Copyright 2025 Arraykit Authors. All Rights Reserved.

package storagedrivers

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arraykit/arraykit/config"
)

const testConfigYAML = `
version: 1
storageDriverName: array
backendName: lab-array
dialect: cli
pool: pool0
reservePool: reserve0
endpoints:
  - host: 10.0.0.1
    username: admin
    password: secret
  - host: 10.0.0.2
    port: 2222
    username: admin
    password: secret
`

func TestLoadConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/backend.yaml", []byte(testConfigYAML), 0o600))

	cfg, err := LoadConfigFile(fs, "/etc/backend.yaml")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "lab-array", cfg.BackendName)
	assert.Equal(t, DialectCLI, cfg.Dialect)
	assert.Equal(t, "pool0", cfg.Pool)
	require.Len(t, cfg.Endpoints, 2)

	// Defaults fill what the file left out.
	assert.Equal(t, config.DefaultCLIPort, cfg.Endpoints[0].Port)
	assert.Equal(t, 2222, cfg.Endpoints[1].Port)
	assert.Equal(t, config.DefaultRetryCount, cfg.RetryCount)
	assert.Equal(t, config.DefaultMaxCycles, cfg.MaxCycles)
	assert.Equal(t, config.DefaultReservePctMin, cfg.ReservePctMin)
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(afero.NewMemMapFs(), "/nope.yaml")
	assert.Error(t, err)
}

func TestParseConfigJSON(t *testing.T) {
	cfg, err := ParseConfigJSON(`{
		"version": 1,
		"storageDriverName": "array",
		"dialect": "rest",
		"pool": "pool0",
		"endpoints": [{"host": "10.0.0.1", "username": "admin", "password": "secret"}]
	}`)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DialectREST, cfg.Dialect)
	assert.Equal(t, config.DefaultRESTPort, cfg.Endpoints[0].Port)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	base := func() *ArrayStorageDriverConfig {
		return &ArrayStorageDriverConfig{
			CommonStorageDriverConfig: &CommonStorageDriverConfig{},
			Dialect:                   DialectCLI,
			Pool:                      "pool0",
			Endpoints: []Endpoint{
				{Host: "10.0.0.1", Port: 22, Username: "admin", Password: "secret"},
			},
		}
	}

	cfg := base()
	cfg.Endpoints = nil
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Endpoints[0].Host = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Endpoints[0].Username = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Dialect = "soap"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Pool = ""
	assert.Error(t, cfg.Validate())
}

func TestEndpointAddress(t *testing.T) {
	e := Endpoint{Host: "10.0.0.1", Port: 443}
	assert.Equal(t, "10.0.0.1:443", e.Address())
}
