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

// Package sampler periodically folds the load of every cooperative shard
// into the MDSLoad this rank reports about itself.
package sampler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/errors"
	"golang.org/x/sync/errgroup"

	"github.com/cubefs/mdscore/cache"
	"github.com/cubefs/mdscore/config"
	apierrors "github.com/cubefs/mdscore/errors"
	"github.com/cubefs/mdscore/load"
	"github.com/cubefs/mdscore/metrics"
)

const (
	loadAvgPath     = "/proc/loadavg"
	defaultInterval = time.Second
)

type (
	// Shard reports the load of the objects it owns. SampleLoad runs on the
	// shard's own scheduler, so it may read its objects freely.
	Shard interface {
		SampleLoad(ctx context.Context, now time.Time) (Sample, error)
	}

	// Sample is one shard's contribution. Counts are since the previous sample.
	Sample struct {
		Auth load.DirFragLoad
		All  load.DirFragLoad

		Requests uint64
		Lookups  uint64
		Hits     uint64
		QueueLen int

		Stats cache.ShardStats
	}

	// LoadAvgFunc returns the one minute cpu load average.
	LoadAvgFunc func() (float64, error)
)

var _ metrics.LoadSource = (*Sampler)(nil)

type Sampler struct {
	ctx      *config.Context
	interval time.Duration
	shards   []Shard
	loadAvg  LoadAvgFunc

	mu         sync.Mutex
	latest     load.MDSLoad
	stats      cache.ShardStats
	lastSample time.Time
	stopped    bool

	done chan struct{}
}

func New(cfg *config.Config, ctx *config.Context, shards []Shard) *Sampler {
	interval := cfg.SampleInterval()
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sampler{
		ctx:      ctx,
		interval: interval,
		shards:   shards,
		loadAvg:  ReadLoadAvg,
		latest:   load.NewMDSLoad(ctx.Rate),
		done:     make(chan struct{}),
	}
}

// SetLoadAvgFunc replaces the cpu load source, nil disables it.
func (s *Sampler) SetLoadAvgFunc(fn LoadAvgFunc) {
	s.mu.Lock()
	s.loadAvg = fn
	s.mu.Unlock()
}

// Sample collects every shard at the current clock time, publishes the
// aggregate as the latest load and returns it. A failing shard fails the
// whole sample and leaves the previous one in place.
func (s *Sampler) Sample(ctx context.Context) (load.MDSLoad, error) {
	span, ctx := trace.StartSpanFromContext(ctx, "sample load")
	start := time.Now()
	defer func() {
		metrics.SampleDuration.Observe(time.Since(start).Seconds())
	}()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return load.MDSLoad{}, apierrors.ErrSamplerStopped
	}
	loadAvg := s.loadAvg
	s.mu.Unlock()

	now := s.ctx.Now()
	samples := make([]Sample, len(s.shards))
	g, gctx := errgroup.WithContext(ctx)
	for i := range s.shards {
		i := i
		g.Go(func() error {
			sample, err := s.shards[i].SampleLoad(gctx, now)
			if err != nil {
				metrics.SampleErrors.WithLabelValues(strconv.Itoa(i)).Inc()
				return errors.Info(err, fmt.Sprintf("sample shard %d failed", i))
			}
			samples[i] = sample
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.Warnf("sample load failed: %s", err)
		return load.MDSLoad{}, err
	}

	l := load.NewMDSLoad(s.ctx.Rate)
	l.Auth.Zero(now)
	l.All.Zero(now)
	var (
		requests, lookups, hits uint64
		queueLen                int
		stats                   cache.ShardStats
	)
	for i := range samples {
		l.Auth.Add(now, &samples[i].Auth)
		l.All.Add(now, &samples[i].All)
		requests += samples[i].Requests
		lookups += samples[i].Lookups
		hits += samples[i].Hits
		queueLen += samples[i].QueueLen
		stats.Add(samples[i].Stats)
	}
	if lookups > 0 {
		l.CacheHitRate = float64(hits) / float64(lookups)
	}
	l.QueueLen = float64(queueLen)
	if loadAvg != nil {
		if avg, err := loadAvg(); err != nil {
			span.Debugf("read load average failed: %s", err)
		} else {
			l.CPULoadAvg = avg
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.lastSample.IsZero() {
		if elapsed := now.Sub(s.lastSample).Seconds(); elapsed > 0 {
			l.ReqRate = float64(requests) / elapsed
		}
	}
	s.lastSample = now
	s.latest = l
	s.stats = stats
	span.Debugf("sampled %d shards: %s", len(s.shards), l.String())
	return l, nil
}

// Latest returns the last published load and cache counts.
func (s *Sampler) Latest() (load.MDSLoad, cache.ShardStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.stats
}

// Run samples every interval until ctx is done or Stop is called.
func (s *Sampler) Run(ctx context.Context) {
	span := trace.SpanFromContextSafe(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sample(ctx); err != nil {
				span.Warnf("periodic sample failed: %s", err)
			}
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends Run, later samples fail with ErrSamplerStopped.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)
}

// ReadLoadAvg parses the first field of /proc/loadavg.
func ReadLoadAvg() (float64, error) {
	data, err := os.ReadFile(loadAvgPath)
	if err != nil {
		return 0, err
	}
	fields := bytes.Fields(data)
	if len(fields) == 0 {
		return 0, errors.Info(apierrors.ErrTruncated, "empty "+loadAvgPath)
	}
	return strconv.ParseFloat(string(fields[0]), 64)
}
