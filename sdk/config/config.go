// Package config reads handscope client settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names read by FromEnv.
const (
	// EnvServer is the base URL of a handscope analysis service
	EnvServer = "HANDSCOPE_SERVER"

	// EnvSeed provides a random seed for reproducible dealing
	EnvSeed = "HANDSCOPE_SEED"
)

// ClientConfig holds configuration parsed from environment variables.
type ClientConfig struct {
	// ServerURL is the service base URL, e.g. http://localhost:8080
	ServerURL string

	// Seed is the dealing seed (0 means not set)
	Seed int64
}

// FromEnv parses configuration from environment variables. Both are
// optional; a malformed seed is an error.
func FromEnv() (*ClientConfig, error) {
	cfg := &ClientConfig{
		ServerURL: os.Getenv(EnvServer),
	}

	if seedStr := os.Getenv(EnvSeed); seedStr != "" {
		seed, err := strconv.ParseInt(seedStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", EnvSeed, err)
		}
		cfg.Seed = seed
	}

	return cfg, nil
}

// Remote reports whether a service URL is configured.
func (c *ClientConfig) Remote() bool {
	return c.ServerURL != ""
}
