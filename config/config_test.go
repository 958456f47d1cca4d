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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cubefs/cubefs/blobstore/util/log"
	"github.com/stretchr/testify/require"

	"github.com/cubefs/mdscore/util"
)

func writeConfig(t *testing.T, content string) string {
	dir, err := util.GenTmpPath()
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "mdscore.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"decay_half_life_s": 2.5,
		"ref_debug": true,
		"sample_interval_ms": 200,
		"registry_shards": 4
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2500*time.Millisecond, cfg.HalfLife())
	require.True(t, cfg.RefDebug)
	require.Equal(t, 200*time.Millisecond, cfg.SampleInterval())
	require.Equal(t, 4, cfg.RegistryShards)
	require.Equal(t, log.Ldebug, cfg.LogLevel)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.HalfLife())
	require.Equal(t, time.Second, cfg.SampleInterval())
	require.Equal(t, 1, cfg.RegistryShards)
	require.False(t, cfg.RefDebug)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, `{"decay_half_life_s": -1}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"registry_shards": -2}`))
	require.Error(t, err)

	_, err = Load(filepath.Join(os.TempDir(), "does-not-exist", "mdscore.json"))
	require.Error(t, err)
}

func TestNewContext(t *testing.T) {
	cfg := &Config{RefDebug: true}
	cfg.FillDefault()

	clock := util.NewManualClock(time.Unix(100, 0))
	ctx := cfg.NewContext(clock)
	require.True(t, ctx.RefDebug)
	require.Equal(t, 5*time.Second, ctx.Rate.HalfLife())
	require.Equal(t, time.Unix(100, 0), ctx.Now())

	ctx = cfg.NewContext(nil)
	require.Equal(t, util.SystemClock, ctx.Clock)
}
