package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jacentio/dynabatch/batch"
	"github.com/jacentio/dynabatch/store"
)

// fileConfig is the YAML layout of --config. Unset fields keep the defaults.
type fileConfig struct {
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint_url"`
	Profile        string `yaml:"profile"`
	Table          string `yaml:"table"`
	LogLevel       string `yaml:"log_level"`
	ConsistentRead *bool  `yaml:"consistent_read"`
	ScanPageSize   int32  `yaml:"scan_page_size"`

	Batch struct {
		MaxAttempts int           `yaml:"max_attempts"`
		BaseDelay   time.Duration `yaml:"base_delay"`
		MaxDelay    time.Duration `yaml:"max_delay"`
		Concurrency int           `yaml:"concurrency"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"batch"`
}

// settings is the resolved configuration of one dy invocation.
type settings struct {
	Client   store.ClientConfig
	Table    string
	LogLevel slog.Level
	Store    store.Config
	Policy   batch.Policy
}

func defaultSettings() settings {
	return settings{
		LogLevel: slog.LevelWarn,
		Store:    store.DefaultConfig(),
		Policy:   batch.DefaultPolicy(),
	}
}

// flagValues are the global flags; changed reports which were given.
type flagValues struct {
	Region   string
	Endpoint string
	Profile  string
	Table    string
	Config   string
	LogLevel string
}

// loadSettings layers defaults, the config file and explicit flags.
func loadSettings(fv flagValues, changed func(name string) bool) (settings, error) {
	s := defaultSettings()

	if fv.Config != "" {
		data, err := os.ReadFile(fv.Config)
		if err != nil {
			return s, fmt.Errorf("read config: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return s, fmt.Errorf("parse config %s: %w", fv.Config, err)
		}
		if err := s.apply(fc); err != nil {
			return s, fmt.Errorf("config %s: %w", fv.Config, err)
		}
	}

	if changed("region") {
		s.Client.Region = fv.Region
	}
	if changed("endpoint-url") {
		s.Client.Endpoint = fv.Endpoint
	}
	if changed("profile") {
		s.Client.Profile = fv.Profile
	}
	if changed("table") {
		s.Table = fv.Table
	}
	if changed("log-level") {
		if err := s.LogLevel.UnmarshalText([]byte(fv.LogLevel)); err != nil {
			return s, fmt.Errorf("--log-level: %w", err)
		}
	}
	return s, nil
}

func (s *settings) apply(fc fileConfig) error {
	if fc.Region != "" {
		s.Client.Region = fc.Region
	}
	if fc.Endpoint != "" {
		s.Client.Endpoint = fc.Endpoint
	}
	if fc.Profile != "" {
		s.Client.Profile = fc.Profile
	}
	if fc.Table != "" {
		s.Table = fc.Table
	}
	if fc.LogLevel != "" {
		if err := s.LogLevel.UnmarshalText([]byte(fc.LogLevel)); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	if fc.ConsistentRead != nil {
		s.Store.ConsistentRead = *fc.ConsistentRead
	}
	if fc.ScanPageSize != 0 {
		s.Store.ScanPageSize = fc.ScanPageSize
	}

	b := fc.Batch
	if b.MaxAttempts != 0 {
		s.Policy.MaxAttempts = b.MaxAttempts
	}
	if b.BaseDelay != 0 {
		s.Policy.BaseDelay = b.BaseDelay
	}
	if b.MaxDelay != 0 {
		s.Policy.MaxDelay = b.MaxDelay
	}
	if b.Concurrency != 0 {
		s.Policy.Concurrency = b.Concurrency
	}
	if b.Timeout != 0 {
		s.Policy.Timeout = b.Timeout
	}
	return nil
}
