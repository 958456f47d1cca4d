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

package sampler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/cubefs/mdscore/cache"
	"github.com/cubefs/mdscore/config"
	apierrors "github.com/cubefs/mdscore/errors"
	"github.com/cubefs/mdscore/load"
	"github.com/cubefs/mdscore/metrics"
	"github.com/cubefs/mdscore/proto"
	"github.com/cubefs/mdscore/util"
)

var t0 = time.Unix(1_700_000_000, 0)

type object struct {
	cache.Object
	cache.NoLocks
	id int
}

func newObject(id int, ctx *config.Context) *object {
	o := &object{id: id}
	o.Init(o, ctx)
	return o
}

func (o *object) Authority() cache.Authority { return cache.AuthDefault }
func (o *object) PinName(int) string         { return "?" }
func (o *object) CanAuthPin() bool           { return true }
func (o *object) IsFrozen() bool             { return false }
func (o *object) String() string             { return fmt.Sprintf("[object %d]", o.id) }

func (o *object) IsLessThan(other cache.CacheObject) bool {
	return o.id < other.(*object).id
}

type testShard struct {
	mu       sync.Mutex
	reg      *cache.RegistryShard
	auth     load.DirFragLoad
	all      load.DirFragLoad
	requests uint64
	lookups  uint64
	hits     uint64
	queueLen int
	err      error
}

func newTestShard(ctx *config.Context, reg *cache.RegistryShard) *testShard {
	return &testShard{
		reg:  reg,
		auth: load.NewDirFragLoad(ctx.Rate),
		all:  load.NewDirFragLoad(ctx.Rate),
	}
}

func (s *testShard) SampleLoad(ctx context.Context, now time.Time) (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Sample{}, s.err
	}
	sample := Sample{
		Auth:     s.auth,
		All:      s.all,
		Requests: s.requests,
		Lookups:  s.lookups,
		Hits:     s.hits,
		QueueLen: s.queueLen,
		Stats:    s.reg.Stats(),
	}
	s.requests, s.lookups, s.hits = 0, 0, 0
	return sample, nil
}

func newTestSampler(t *testing.T) (*Sampler, *util.ManualClock, []*testShard) {
	clock := util.NewManualClock(t0)
	cfg := &config.Config{}
	cfg.FillDefault()
	ctx := cfg.NewContext(clock)

	reg := cache.NewRegistry(2)
	shards := make([]*testShard, reg.NumShards())
	sampled := make([]Shard, reg.NumShards())
	for i := range shards {
		shards[i] = newTestShard(ctx, reg.Shard(i))
		sampled[i] = shards[i]
	}
	for i := 0; i < 6; i++ {
		key := proto.ObjectInfo{Ino: proto.Ino(i)}
		o := newObject(i, ctx)
		if i%3 == 0 {
			o.Pin(cache.PinRequest)
		}
		require.NoError(t, reg.ShardFor(key).Add(key, o))
	}

	s := New(cfg, ctx, sampled)
	s.SetLoadAvgFunc(func() (float64, error) { return 0.75, nil })
	return s, clock, shards
}

func TestSamplerAggregate(t *testing.T) {
	s, clock, shards := newTestSampler(t)
	a, b := shards[0], shards[1]

	a.auth.Hit(t0, load.PopIRD)
	a.all.Hit(t0, load.PopIRD)
	a.all.Hit(t0, load.PopIWR)
	a.requests, a.lookups, a.hits, a.queueLen = 10, 4, 3, 2
	b.auth.Hit(t0, load.PopStore)
	b.all.Hit(t0, load.PopStore)
	b.all.Hit(t0, load.PopFetch)
	b.requests, b.lookups, b.hits, b.queueLen = 5, 4, 1, 1

	l, err := s.Sample(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5.0, l.Auth.MetaLoadLast())
	require.Equal(t, 9.0, l.All.MetaLoadLast())
	require.Equal(t, 0.0, l.ReqRate)
	require.Equal(t, 0.5, l.CacheHitRate)
	require.Equal(t, 3.0, l.QueueLen)
	require.Equal(t, 0.75, l.CPULoadAvg)

	latest, stats := s.Latest()
	require.Equal(t, l.String(), latest.String())
	require.Equal(t, cache.ShardStats{Objects: 6, Pinned: 2}, stats)

	// one half-life later
	a.requests, b.requests = 20, 30
	clock.Advance(5 * time.Second)
	l, err = s.Sample(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 2.5, l.Auth.MetaLoadLast(), 1e-9)
	require.InDelta(t, 4.5, l.All.MetaLoadLast(), 1e-9)
	require.Equal(t, 10.0, l.ReqRate)
	require.Equal(t, 0.0, l.CacheHitRate)
}

func TestSamplerShardError(t *testing.T) {
	s, _, shards := newTestSampler(t)
	shards[0].auth.Hit(t0, load.PopIWR)
	_, err := s.Sample(context.Background())
	require.NoError(t, err)
	before, _ := s.Latest()

	errBusy := errors.New("shard busy")
	shards[1].err = errBusy
	_, err = s.Sample(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "shard busy")

	after, _ := s.Latest()
	require.Equal(t, before.String(), after.String())
	require.Equal(t, 2.0, after.Auth.MetaLoadLast())
}

func TestSamplerLoadAvg(t *testing.T) {
	s, _, _ := newTestSampler(t)

	s.SetLoadAvgFunc(func() (float64, error) { return 0, errors.New("no proc") })
	l, err := s.Sample(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0.0, l.CPULoadAvg)

	s.SetLoadAvgFunc(nil)
	_, err = s.Sample(context.Background())
	require.NoError(t, err)

	if avg, err := ReadLoadAvg(); err == nil {
		require.GreaterOrEqual(t, avg, 0.0)
	}
}

func TestSamplerRunStop(t *testing.T) {
	s, _, _ := newTestSampler(t)
	s.interval = time.Millisecond

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.lastSample.IsZero()
	}, time.Second, time.Millisecond)

	s.Stop()
	s.Stop()
	<-done

	_, err := s.Sample(context.Background())
	require.ErrorIs(t, err, apierrors.ErrSamplerStopped)
}

func TestSamplerRunCancel(t *testing.T) {
	s, _, _ := newTestSampler(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}

func TestSamplerCollector(t *testing.T) {
	s, _, shards := newTestSampler(t)
	shards[1].all.Hit(t0, load.PopStore)
	_, err := s.Sample(context.Background())
	require.NoError(t, err)

	c := metrics.NewCollector(s)
	require.Equal(t, 2+2*load.NumPop+4+5, testutil.CollectAndCount(c))
	require.Equal(t, 1, testutil.CollectAndCount(c, "mdscore_load_request_rate"))
}
