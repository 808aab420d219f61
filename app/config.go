// Package app wires the relay into the core Telegram runtime.
package app

import (
	"fmt"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	coredatabase "github.com/m3rciful/relaybot/core/database"
	"github.com/m3rciful/relaybot/relay"
)

// Config is the full relaybot configuration. The core settings stay at the top
// level of the YAML file and keep their unprefixed env names.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Relay    relay.Config        `yaml:"relay" envconfig:"RELAY"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core settings to the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path, overlays the environment and validates every section.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.Relay.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return &cfg, nil
}
