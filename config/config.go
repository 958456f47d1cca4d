// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package config

import (
	"fmt"
	"time"

	bsconfig "github.com/cubefs/cubefs/blobstore/common/config"
	"github.com/cubefs/cubefs/blobstore/util/errors"
	"github.com/cubefs/cubefs/blobstore/util/log"

	"github.com/cubefs/mdscore/decay"
	apierrors "github.com/cubefs/mdscore/errors"
	"github.com/cubefs/mdscore/util"
)

const (
	defaultHalfLifeS        = 5.0
	defaultSampleIntervalMs = 1000
	defaultRegistryShards   = 1
)

// Config is the on-disk json configuration of the cache core.
type Config struct {
	DecayHalfLifeS   float64   `json:"decay_half_life_s"`
	RefDebug         bool      `json:"ref_debug"`
	LogLevel         log.Level `json:"log_level"`
	SampleIntervalMs int       `json:"sample_interval_ms"`
	RegistryShards   int       `json:"registry_shards"`
}

// Context carries what used to be process globals: the clock, the decay
// rate and whether pin reasons are tracked. Every component takes it
// explicitly.
type Context struct {
	Clock    util.Clock
	Rate     decay.Rate
	RefDebug bool
}

func (c *Config) FillDefault() {
	if c.DecayHalfLifeS == 0 {
		c.DecayHalfLifeS = defaultHalfLifeS
	}
	if c.SampleIntervalMs == 0 {
		c.SampleIntervalMs = defaultSampleIntervalMs
	}
	if c.RegistryShards == 0 {
		c.RegistryShards = defaultRegistryShards
	}
}

func (c *Config) Validate() error {
	if c.DecayHalfLifeS < 0 {
		return errors.Info(apierrors.ErrInvalidConfig, fmt.Sprintf("negative half life %v", c.DecayHalfLifeS))
	}
	if c.SampleIntervalMs < 0 {
		return errors.Info(apierrors.ErrInvalidConfig, fmt.Sprintf("negative sample interval %d", c.SampleIntervalMs))
	}
	if c.RegistryShards < 0 {
		return errors.Info(apierrors.ErrInvalidConfig, fmt.Sprintf("negative registry shards %d", c.RegistryShards))
	}
	return nil
}

func (c *Config) HalfLife() time.Duration {
	return time.Duration(c.DecayHalfLifeS * float64(time.Second))
}

func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMs) * time.Millisecond
}

// NewContext binds the configuration to a clock, SystemClock if nil.
func (c *Config) NewContext(clock util.Clock) *Context {
	if clock == nil {
		clock = util.SystemClock
	}
	return &Context{
		Clock:    clock,
		Rate:     decay.NewRate(c.HalfLife()),
		RefDebug: c.RefDebug,
	}
}

// Load reads, defaults and validates a json config file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := bsconfig.LoadFile(cfg, path); err != nil {
		return nil, errors.Info(err, "load config file failed")
	}
	cfg.FillDefault()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.SetOutputLevel(cfg.LogLevel)
	log.Infof("config loaded from %s: %+v", path, *cfg)
	return cfg, nil
}

func (c *Context) Now() time.Time {
	return c.Clock.Now()
}
