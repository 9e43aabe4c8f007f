// Copyright 2025 Arraykit Authors. All Rights Reserved.

package storagedrivers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/arraykit/arraykit/config"
)

// Dialect selects the wire protocol spoken to the array's management
// interface. Variants are fixed at construction time; there is no runtime
// class lookup.
type Dialect string

const (
	DialectCLI  Dialect = "cli"
	DialectREST Dialect = "rest"
)

// Endpoint is one array controller management address. Endpoints are
// rotated by the transport, never removed during the process lifetime.
type Endpoint struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

func (e Endpoint) Address() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// CommonStorageDriverConfig holds settings in common across all drivers.
type CommonStorageDriverConfig struct {
	Version           int             `json:"version" yaml:"version"`
	StorageDriverName string          `json:"storageDriverName" yaml:"storageDriverName"`
	BackendName       string          `json:"backendName" yaml:"backendName"`
	DebugTraceFlags   map[string]bool `json:"debugTraceFlags" yaml:"debugTraceFlags"` // Example: {"api":false, "method":true}
	DisableDelete     bool            `json:"disableDelete" yaml:"disableDelete"`
}

// ArrayStorageDriverConfig configures the array driver: the endpoints it may
// fail over between, retry policy, and provisioning defaults.
type ArrayStorageDriverConfig struct {
	*CommonStorageDriverConfig `yaml:",inline"`

	Dialect   Dialect    `json:"dialect" yaml:"dialect"`
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`

	RetryCount    int `json:"retryCount" yaml:"retryCount"`
	MaxCycles     int `json:"maxCycles" yaml:"maxCycles"`
	RecoveryDelay int `json:"recoveryDelaySeconds" yaml:"recoveryDelaySeconds"`

	Pool          string `json:"pool" yaml:"pool"`
	ReservePool   string `json:"reservePool" yaml:"reservePool"`
	ReservePctMin int    `json:"reservePctMin" yaml:"reservePctMin"`

	ThinProvision bool   `json:"thinProvision" yaml:"thinProvision"`
	WritePolicy   string `json:"writePolicy" yaml:"writePolicy"`
	StripeDepth   string `json:"stripeDepth" yaml:"stripeDepth"`
	Tiering       string `json:"tiering" yaml:"tiering"`
}

// RecoveryDelayDuration returns the configured inter-rotation delay.
func (c *ArrayStorageDriverConfig) RecoveryDelayDuration() time.Duration {
	if c.RecoveryDelay <= 0 {
		return config.DefaultRecoveryDelay
	}
	return time.Duration(c.RecoveryDelay) * time.Second
}

// ApplyDefaults fills unset fields with the project defaults.
func (c *ArrayStorageDriverConfig) ApplyDefaults() {
	if c.CommonStorageDriverConfig == nil {
		c.CommonStorageDriverConfig = &CommonStorageDriverConfig{}
	}
	if c.RetryCount <= 0 {
		c.RetryCount = config.DefaultRetryCount
	}
	if c.MaxCycles <= 0 {
		c.MaxCycles = config.DefaultMaxCycles
	}
	if c.ReservePctMin <= 0 {
		c.ReservePctMin = config.DefaultReservePctMin
	}
	for i := range c.Endpoints {
		if c.Endpoints[i].Port == 0 {
			switch c.Dialect {
			case DialectREST:
				c.Endpoints[i].Port = config.DefaultRESTPort
			default:
				c.Endpoints[i].Port = config.DefaultCLIPort
			}
		}
	}
}

// Validate checks the invariants every driver instance relies on.
func (c *ArrayStorageDriverConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("no endpoints configured")
	}
	for _, e := range c.Endpoints {
		if e.Host == "" {
			return fmt.Errorf("endpoint with empty host")
		}
		if e.Username == "" {
			return fmt.Errorf("endpoint %s has no username", e.Host)
		}
	}
	switch c.Dialect {
	case DialectCLI, DialectREST:
	default:
		return fmt.Errorf("unknown dialect %q", c.Dialect)
	}
	if c.Pool == "" {
		return fmt.Errorf("no storage pool configured")
	}
	return nil
}

// ParseConfigJSON decodes a backend config document.
func ParseConfigJSON(configJSON string) (*ArrayStorageDriverConfig, error) {
	cfg := &ArrayStorageDriverConfig{
		CommonStorageDriverConfig: &CommonStorageDriverConfig{},
	}
	if err := json.Unmarshal([]byte(configJSON), cfg); err != nil {
		return nil, fmt.Errorf("could not decode JSON configuration: %v", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadConfigFile reads a YAML backend config from the given filesystem.
// arrayctl passes afero.NewOsFs(); tests pass a memory-backed fs.
func LoadConfigFile(fs afero.Fs, path string) (*ArrayStorageDriverConfig, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", path)
	}
	cfg := &ArrayStorageDriverConfig{
		CommonStorageDriverConfig: &CommonStorageDriverConfig{},
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "could not decode config file %s", path)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
