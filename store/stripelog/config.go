// Copyright 2026 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stripelog

import (
	"fmt"
	"math"
	"strings"

	"github.com/creasty/defaults"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/dolthub/stripelog/libraries/utils/filesys"
	"github.com/dolthub/stripelog/store/column"
)

// YAMLConfig is the on disk configuration of stripelog tables and the tools that open them.
type YAMLConfig struct {
	// MaxCompressBlockSize is a byte size such as "64KiB" or "1MB"
	MaxCompressBlockSize string `yaml:"max_compress_block_size" default:"1MiB"`
	Compression          string `yaml:"compression" default:"snappy"`
	SyncOnClose          bool   `yaml:"sync_on_close" default:"true"`
	ProcessLock          bool   `yaml:"process_lock" default:"false"`
	LogLevel             string `yaml:"log_level" default:"info"`
	// ReadStreams is the number of parallel streams requested by readers that don't choose their own
	ReadStreams int `yaml:"read_streams" default:"4"`
	// RowsPerStripe is the number of buffered rows at which row oriented writers cut a stripe
	RowsPerStripe int               `yaml:"rows_per_stripe" default:"65536"`
	Metrics       MetricsYAMLConfig `yaml:"metrics"`
}

// MetricsYAMLConfig configures the prometheus metrics of stripelog tables
type MetricsYAMLConfig struct {
	Enabled bool              `yaml:"enabled" default:"false"`
	Labels  map[string]string `yaml:"labels,omitempty"`
}

// DefaultYAMLConfig returns the configuration used when no config file is given.
func DefaultYAMLConfig() *YAMLConfig {
	var cfg YAMLConfig
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// NewYAMLConfig parses |data|. Keys missing from |data| keep their default values and unknown keys are
// an error.
func NewYAMLConfig(data []byte) (*YAMLConfig, error) {
	cfg := DefaultYAMLConfig()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Compression = strings.ToLower(cfg.Compression)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadYAMLConfig reads and parses the config file at |path|.
func LoadYAMLConfig(fs filesys.ReadableFS, path string) (*YAMLConfig, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to read file '%s'. Error: %s", path, err.Error())
	}

	cfg, err := NewYAMLConfig(data)
	if err != nil {
		return nil, fmt.Errorf("Failed to parse yaml file '%s'. Error: %s", path, err.Error())
	}

	return cfg, nil
}

// Validate returns an error describing the first invalid value in the config.
func (cfg YAMLConfig) Validate() error {
	if _, err := cfg.maxCompressBlockSize(); err != nil {
		return err
	}

	if _, err := column.ParseCompression(cfg.Compression); err != nil {
		return err
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}

	if cfg.ReadStreams < 1 {
		return fmt.Errorf("read_streams must be at least 1, got %d", cfg.ReadStreams)
	}

	if cfg.RowsPerStripe < 1 {
		return fmt.Errorf("rows_per_stripe must be at least 1, got %d", cfg.RowsPerStripe)
	}

	return nil
}

func (cfg YAMLConfig) maxCompressBlockSize() (int, error) {
	sz, err := humanize.ParseBytes(cfg.MaxCompressBlockSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max_compress_block_size '%s': %w", cfg.MaxCompressBlockSize, err)
	}

	if sz == 0 || sz > math.MaxUint32 {
		return 0, fmt.Errorf("max_compress_block_size must be between 1 byte and 4GiB, got %s", cfg.MaxCompressBlockSize)
	}

	return int(sz), nil
}

// Options returns the table Options described by the config. A logger is created at the configured level,
// and metrics are created when enabled.
func (cfg YAMLConfig) Options() (Options, error) {
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}

	blockSz, _ := cfg.maxCompressBlockSize()
	compression, _ := column.ParseCompression(cfg.Compression)
	level, _ := logrus.ParseLevel(cfg.LogLevel)

	logger := logrus.New()
	logger.SetLevel(level)

	opts := Options{
		MaxCompressBlockSize: blockSz,
		Compression:          compression,
		SyncOnClose:          cfg.SyncOnClose,
		ProcessLock:          cfg.ProcessLock,
		Logger:               logger,
	}

	if cfg.Metrics.Enabled {
		opts.Metrics = NewMetrics(cfg.Metrics.Labels)
	}

	return opts, nil
}

// String returns the config as yaml.
func (cfg YAMLConfig) String() string {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "Failed to marshal as yaml: " + err.Error()
	}

	return string(data)
}
