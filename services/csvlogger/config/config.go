package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultFetchTimeoutInSeconds   = 10
	defaultSampleIntervalInSeconds = 3
)

// Config maps to the config.toml file for the CSV logger
type Config struct {
	Name                    string `toml:"Name"`
	EndpointURL             string `toml:"EndpointURL"`
	OutputPath              string `toml:"OutputPath"`
	IntervalInSeconds       uint32 `toml:"IntervalInSeconds"`
	FetchTimeoutInSeconds   uint32 `toml:"FetchTimeoutInSeconds"`
	SamplesPerInterval      uint32 `toml:"SamplesPerInterval"`
	SampleIntervalInSeconds uint32 `toml:"SampleIntervalInSeconds"`
	StatusListenAddress     string `toml:"StatusListenAddress"`
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills in the optional values left unset
func (cfg *Config) ApplyDefaults() {
	if cfg.FetchTimeoutInSeconds == 0 {
		cfg.FetchTimeoutInSeconds = defaultFetchTimeoutInSeconds
	}
	if cfg.SamplesPerInterval == 0 {
		cfg.SamplesPerInterval = 1
	}
	if cfg.SampleIntervalInSeconds == 0 {
		cfg.SampleIntervalInSeconds = defaultSampleIntervalInSeconds
	}
}

// Validate checks that the mandatory values are present
func (cfg *Config) Validate() error {
	if len(cfg.EndpointURL) == 0 {
		return errors.New("empty EndpointURL in config")
	}
	if len(cfg.OutputPath) == 0 {
		return errors.New("empty OutputPath in config")
	}
	if cfg.IntervalInSeconds == 0 {
		return errors.New("IntervalInSeconds should be greater than 0")
	}

	return nil
}
