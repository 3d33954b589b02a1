// Package config loads buffer pool parameters for the demo command.
// Shaped after the storage config loader of the example repository
// tuannm99-novasql (internal/config.go): Viper reads a YAML file into
// a mapstructure-tagged struct, with defaults applied for anything the
// file omits.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/smalldb/bufferpool/internal/bufferpool"
)

// PoolConfig describes the buffer pool parameters a deployment wants:
// the backing file, the frame count, and the replacement strategy.
type PoolConfig struct {
	Pool struct {
		File      string `mapstructure:"file"`
		NumFrames int    `mapstructure:"num_frames"`
		Strategy  string `mapstructure:"strategy"`
	} `mapstructure:"pool"`
}

// Defaults applied when a field is absent from the config file.
const (
	DefaultNumFrames = 16
	DefaultStrategy  = "lru"
)

// Load reads a YAML config file at path into a PoolConfig, filling in
// defaults for any field the file leaves unset.
func Load(path string) (*PoolConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("pool.num_frames", DefaultNumFrames)
	v.SetDefault("pool.strategy", DefaultStrategy)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg PoolConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config %q: %w", path, err)
	}
	if cfg.Pool.File == "" {
		return nil, fmt.Errorf("config %q: pool.file is required", path)
	}
	return &cfg, nil
}

// Strategy parses the config's strategy string into a
// bufferpool.ReplacementStrategy.
func (c *PoolConfig) Strategy() (bufferpool.ReplacementStrategy, error) {
	return bufferpool.ParseReplacementStrategy(c.Pool.Strategy)
}
