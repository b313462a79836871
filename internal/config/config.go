// Package config defines the configuration of the product API.
package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/productapi/pkg/config"
	"github.com/abgdnv/productapi/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Auth       config.APIKeyConfig     `koanf:"auth"`
	Store      StoreConfig             `koanf:"store"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
}

// StoreConfig controls the initial content of the in-memory catalog.
type StoreConfig struct {
	Seed bool `koanf:"seed"`
}

// Defaults are applied before config.yaml, .env and the environment.
func Defaults() map[string]any {
	return map[string]any{
		"server.port":                                   3000,
		"server.maxheaderbytes":                         1 << 20,
		"server.timeout.read":                           "10s",
		"server.timeout.write":                          "10s",
		"server.timeout.idle":                           "60s",
		"server.timeout.readheader":                     "5s",
		"log.level":                                     "info",
		"pprof.enabled":                                 false,
		"pprof.addr":                                    "localhost:6060",
		"grpc.port":                                     "3001",
		"grpc.reflection":                               false,
		"shutdown.timeout":                              "15s",
		"auth.header":                                   "X-API-Key",
		"store.seed":                                    true,
		"nats.enabled":                                  false,
		"nats.timeout":                                  "5s",
		"nats.stream":                                   "PRODUCTS",
		"resilience.circuitbreaker.consecutivefailures": 5,
		"resilience.circuitbreaker.errorratepercent":    50,
		"resilience.circuitbreaker.opentimeout":         "30s",
		"telemetry.traces.enabled":                      false,
		"telemetry.traces.otlphttp.timeout":             "10s",
		"telemetry.metrics.enabled":                     true,
		"telemetry.metrics.path":                        "/metrics",
	}
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Auth.String())
	b.WriteString(fmt.Sprintf("\n--- Store ---\n  seed: %t\n", c.Store.Seed))
	b.WriteString(c.NATS.String())
	b.WriteString(c.Resilience.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.Log,
		&c.PProf,
		&c.GRPC,
		&c.Shutdown,
		&c.Auth,
		&c.NATS,
		&c.Telemetry,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if c.NATS.Enabled {
		if err := c.Resilience.Validate(); err != nil {
			return err
		}
	}
	return nil
}
