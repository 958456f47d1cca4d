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

// Package decay estimates event rates with exponentially decaying counters.
package decay

import (
	"fmt"
	"math"
	"time"

	"github.com/cubefs/mdscore/codec"
)

// values closer to zero than this are flushed to zero after decaying
const zeroThreshold = 0.01

// Rate is the decay constant derived from a half-life.
type Rate struct {
	k        float64
	halfLife time.Duration
}

func NewRate(halfLife time.Duration) Rate {
	if halfLife <= 0 {
		return Rate{}
	}
	return Rate{k: math.Log(0.5) / halfLife.Seconds(), halfLife: halfLife}
}

func (r Rate) HalfLife() time.Duration {
	return r.halfLife
}

// factor returns the multiplier for a value aged by elapsed seconds.
func (r Rate) factor(elapsed float64) float64 {
	if r.k == 0 {
		return 1
	}
	return math.Exp(r.k * elapsed)
}

// Counter is a decaying hit counter. A zero Counter never decays until a
// rate is set. Counters are not safe for concurrent use.
type Counter struct {
	rate Rate

	val   float64 // decayed value as of lastDecay
	delta float64 // hits since lastDecay
	vel   float64 // trend of val

	lastDecay time.Time
}

func NewCounter(rate Rate) Counter {
	return Counter{rate: rate}
}

func (c *Counter) SetRate(rate Rate) {
	c.rate = rate
}

func (c *Counter) Rate() Rate {
	return c.rate
}

func (c *Counter) decay(now time.Time) {
	if c.lastDecay.IsZero() {
		c.lastDecay = now
		return
	}
	el := now.Sub(c.lastDecay).Seconds()
	if el <= 0 {
		return
	}
	f := c.rate.factor(el)
	newval := (c.val + c.delta) * f
	if math.Abs(newval) < zeroThreshold {
		newval = 0
	}
	c.vel += (newval - c.val) * el
	c.vel *= f
	c.val = newval
	c.delta = 0
	c.lastDecay = now
}

// Hit records one event at now and returns the decayed value.
func (c *Counter) Hit(now time.Time) float64 {
	return c.HitN(now, 1)
}

func (c *Counter) HitN(now time.Time, v float64) float64 {
	c.decay(now)
	c.delta += v
	return c.val + c.delta
}

// Get returns the value decayed to now. Calling it again with the same
// now returns the same value.
func (c *Counter) Get(now time.Time) float64 {
	c.decay(now)
	return c.val + c.delta
}

// GetLast returns the value computed by the last Get or Hit.
func (c *Counter) GetLast() float64 {
	return c.val + c.delta
}

func (c *Counter) Velocity() float64 {
	return c.vel
}

func (c *Counter) Reset(now time.Time) {
	c.lastDecay = now
	c.val = 0
	c.delta = 0
	c.vel = 0
}

// Adjust adds a directly into the accumulator without decaying first.
func (c *Counter) Adjust(a float64) {
	c.val += a
}

func (c *Counter) AdjustAt(now time.Time, a float64) {
	c.decay(now)
	c.val += a
}

func (c *Counter) Scale(f float64) {
	c.val *= f
	c.delta *= f
	c.vel *= f
}

func (c *Counter) String() string {
	return fmt.Sprintf("%.3f", c.GetLast())
}

// Encode writes value, pending delta and velocity. The decay timestamp is
// local to the encoding node and is not transmitted.
func (c *Counter) Encode(e *codec.Encoder) {
	e.PutF64(c.val)
	e.PutF64(c.delta)
	e.PutF64(c.vel)
}

// Decode keeps the receiver's rate; decay restarts at the next read.
func (c *Counter) Decode(d *codec.Decoder) {
	c.val = d.F64()
	c.delta = d.F64()
	c.vel = d.F64()
	c.lastDecay = time.Time{}
}
