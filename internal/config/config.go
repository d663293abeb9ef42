// Package config loads handlectl settings from TOML or YAML.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/DangerosoDavo/slotengine/handle"
	"github.com/DangerosoDavo/slotengine/rhi"
)

type Config struct {
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	ECS     ECSConfig     `toml:"ecs" yaml:"ecs"`
	RHI     RHIConfig     `toml:"rhi" yaml:"rhi"`
	Bench   BenchConfig   `toml:"bench" yaml:"bench"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

type ECSConfig struct {
	InitialCapacity int    `toml:"initial_capacity" yaml:"initial_capacity"`
	MaxEntities     uint32 `toml:"max_entities" yaml:"max_entities"` // 0 = handle.MaxSlots
}

type RHIConfig struct {
	Backend        string     `toml:"backend" yaml:"backend"`
	FramesInFlight int        `toml:"frames_in_flight" yaml:"frames_in_flight"`
	Heaps          HeapConfig `toml:"heaps" yaml:"heaps"`
}

// HeapConfig overrides the backend's descriptor heap sizes. Zero keeps the
// backend default.
type HeapConfig struct {
	SampledImages  uint32 `toml:"sampled_images" yaml:"sampled_images"`
	StorageBuffers uint32 `toml:"storage_buffers" yaml:"storage_buffers"`
	Samplers       uint32 `toml:"samplers" yaml:"samplers"`
}

type BenchConfig struct {
	Shards     int     `toml:"shards" yaml:"shards"`
	Entities   int     `toml:"entities" yaml:"entities"` // population per shard
	Iterations int     `toml:"iterations" yaml:"iterations"`
	Churn      float64 `toml:"churn" yaml:"churn"` // per-tick strike probability (0.0-1.0)
	Seed       int64   `toml:"seed" yaml:"seed"`
}

// Load reads path, choosing the decoder from its extension, over the
// defaults. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, errors.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		ECS: ECSConfig{
			InitialCapacity: 1024,
		},
		RHI: RHIConfig{
			Backend:        "null",
			FramesInFlight: 2,
		},
		Bench: BenchConfig{
			Shards:     4,
			Entities:   10000,
			Iterations: 600,
			Churn:      0.05,
			Seed:       1,
		},
	}
}

// Validate rejects values the rest of the tool cannot honour.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "json", "console":
	default:
		return errors.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.ECS.InitialCapacity < 0 {
		return errors.Errorf("ecs.initial_capacity must not be negative, got %d", c.ECS.InitialCapacity)
	}
	if c.ECS.MaxEntities > handle.MaxSlots {
		return errors.Errorf("ecs.max_entities must be at most %d, got %d", handle.MaxSlots, c.ECS.MaxEntities)
	}

	backend, err := rhi.ParseBackend(c.RHI.Backend)
	if err != nil {
		return err
	}
	if c.RHI.FramesInFlight < 0 {
		return errors.Errorf("rhi.frames_in_flight must not be negative, got %d", c.RHI.FramesInFlight)
	}
	if err := c.HeapLimits(backend).Validate(); err != nil {
		return err
	}

	b := c.Bench
	if b.Shards < 1 {
		return errors.Errorf("bench.shards must be at least 1, got %d", b.Shards)
	}
	if b.Entities < 1 {
		return errors.Errorf("bench.entities must be at least 1, got %d", b.Entities)
	}
	if limit := c.EntityLimit(); uint32(b.Entities) > limit || b.Entities > int(handle.MaxSlots) {
		return errors.Errorf("bench.entities %d exceeds the entity limit %d", b.Entities, limit)
	}
	if b.Iterations < 0 {
		return errors.Errorf("bench.iterations must not be negative, got %d", b.Iterations)
	}
	if b.Churn < 0 || b.Churn > 1 {
		return errors.Errorf("bench.churn must be within [0,1], got %g", b.Churn)
	}
	return nil
}

// EntityLimit returns the effective cap on live entities per world.
func (c *Config) EntityLimit() uint32 {
	if c.ECS.MaxEntities == 0 {
		return handle.MaxSlots
	}
	return c.ECS.MaxEntities
}

// HeapLimits returns the descriptor heap sizes for backend with the
// configured overrides applied.
func (c *Config) HeapLimits(backend rhi.Backend) rhi.HeapLimits {
	return rhi.HeapLimits{
		SampledImages:  c.RHI.Heaps.SampledImages,
		StorageBuffers: c.RHI.Heaps.StorageBuffers,
		Samplers:       c.RHI.Heaps.Samplers,
	}.Merge(backend.HeapLimits())
}
