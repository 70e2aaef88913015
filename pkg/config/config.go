/*
Copyright 2025 Guided Traffic.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/guided-traffic/secret-generator/pkg/generator"
)

const (
	// DefaultHistoryMaxItems is the default number of entries kept in the history
	DefaultHistoryMaxItems = 50

	// DefaultBatchMaxCount is the default upper bound for a single batch
	DefaultBatchMaxCount = 100

	// DefaultMinRotationInterval is the default lower bound for rotation intervals
	DefaultMinRotationInterval = 5 * time.Minute
)

// Config holds the runtime configuration
type Config struct {
	// Defaults are the generator settings used when a caller does not override them
	Defaults GeneratorDefaults `yaml:"defaults"`
	// History configures the in-memory secret history
	History HistoryConfig `yaml:"history"`
	// Batch configures batch generation
	Batch BatchConfig `yaml:"batch"`
	// Rotation configures secret rotation in the controller
	Rotation RotationConfig `yaml:"rotation"`
}

// GeneratorDefaults mirrors generator.Config in a YAML friendly shape
type GeneratorDefaults struct {
	Algorithm        string                    `yaml:"algorithm"`
	Length           int                       `yaml:"length"`
	IncludeSymbols   bool                      `yaml:"includeSymbols"`
	Segments         int                       `yaml:"segments"`
	SegmentLength    int                       `yaml:"segmentLength"`
	Bytes            int                       `yaml:"bytes"`
	Password         generator.PasswordOptions `yaml:"password"`
	CustomCharset    string                    `yaml:"customCharset"`
	UseCustomCharset bool                      `yaml:"useCustomCharset"`
	ExcludeSimilar   bool                      `yaml:"excludeSimilar"`
}

// HistoryConfig holds history settings
type HistoryConfig struct {
	// MaxItems is the number of entries kept, newest first
	MaxItems int `yaml:"maxItems"`
}

// BatchConfig holds batch generation settings
type BatchConfig struct {
	// MaxCount is the largest number of secrets a single batch may request
	MaxCount int `yaml:"maxCount"`
	// Concurrency bounds the number of concurrent generations
	Concurrency int `yaml:"concurrency"`
}

// RotationConfig holds rotation settings
type RotationConfig struct {
	// MinInterval is the smallest rotation interval accepted from annotations
	MinInterval Duration `yaml:"minInterval"`
	// CreateEvents enables Kubernetes events for successful rotations
	CreateEvents bool `yaml:"createEvents"`
}

// NewDefaultConfig returns a Config with default values
func NewDefaultConfig() *Config {
	gen := generator.DefaultConfig()
	return &Config{
		Defaults: GeneratorDefaults{
			Algorithm:      string(gen.Algorithm),
			Length:         gen.Length,
			IncludeSymbols: gen.IncludeSymbols,
			Segments:       gen.Segments,
			SegmentLength:  gen.SegmentLength,
			Bytes:          gen.Bytes,
			Password:       gen.Password,
		},
		History: HistoryConfig{
			MaxItems: DefaultHistoryMaxItems,
		},
		Batch: BatchConfig{
			MaxCount:    DefaultBatchMaxCount,
			Concurrency: generator.DefaultBatchConcurrency,
		},
		Rotation: RotationConfig{
			MinInterval:  Duration(DefaultMinRotationInterval),
			CreateEvents: false,
		},
	}
}

// LoadConfig loads the configuration from a YAML file.
// Values missing from the file keep their defaults. An empty path yields the defaults;
// a path that does not exist is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := c.Defaults.GeneratorConfig(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	if c.History.MaxItems <= 0 {
		return fmt.Errorf("history.maxItems must be positive, got %d", c.History.MaxItems)
	}

	if c.Batch.MaxCount <= 0 {
		return fmt.Errorf("batch.maxCount must be positive, got %d", c.Batch.MaxCount)
	}
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be positive, got %d", c.Batch.Concurrency)
	}

	if c.Rotation.MinInterval < 0 {
		return fmt.Errorf("rotation.minInterval must not be negative, got %s", c.Rotation.MinInterval)
	}

	return nil
}

// GeneratorConfig converts the defaults into a validated generator.Config
func (d GeneratorDefaults) GeneratorConfig() (generator.Config, error) {
	algorithm, err := generator.ParseAlgorithm(d.Algorithm)
	if err != nil {
		return generator.Config{}, err
	}

	cfg := generator.Config{
		Algorithm:        algorithm,
		Length:           d.Length,
		IncludeSymbols:   d.IncludeSymbols,
		Segments:         d.Segments,
		SegmentLength:    d.SegmentLength,
		Bytes:            d.Bytes,
		Password:         d.Password,
		CustomCharset:    d.CustomCharset,
		UseCustomCharset: d.UseCustomCharset,
		ExcludeSimilar:   d.ExcludeSimilar,
	}
	if err := cfg.Validate(); err != nil {
		return generator.Config{}, err
	}

	return cfg, nil
}

// Duration is a time.Duration that is written as a string in YAML
type Duration time.Duration

// Duration returns the value as time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String returns the duration in time.Duration notation
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML parses a duration string such as "30m" or "7d"
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}

	parsed, err := ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// ParseDuration parses a duration string. In addition to the units understood by
// time.ParseDuration it accepts whole days with a "d" suffix, e.g. "30d".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("duration cannot be empty")
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration '%s': %w", s, err)
		}
		if n < 0 {
			return 0, fmt.Errorf("duration must not be negative, got '%s'", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration '%s': %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative, got '%s'", s)
	}

	return d, nil
}
