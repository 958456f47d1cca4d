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

// Package load aggregates decay counters into the popularity vectors kept
// per inode and per dirfrag, and the per-rank load reported to the balancer.
package load

import (
	"fmt"
	"time"

	"github.com/cubefs/mdscore/codec"
	"github.com/cubefs/mdscore/decay"
)

// popularity classes
const (
	PopIRD = iota
	PopIWR
	PopReaddir
	PopFetch
	PopStore

	NumPop
)

const NumInodePop = 2

var popNames = [NumPop]string{
	PopIRD:     "ird",
	PopIWR:     "iwr",
	PopReaddir: "readdir",
	PopFetch:   "fetch",
	PopStore:   "store",
}

// PopName returns the short name of a popularity class.
func PopName(t int) string {
	if t < 0 || t >= NumPop {
		return fmt.Sprintf("pop%d", t)
	}
	return popNames[t]
}

// relative cost of each class in MetaLoad, store being the most expensive
var metaLoadWeights = [NumPop]float64{
	PopIRD:     1,
	PopIWR:     2,
	PopReaddir: 1,
	PopFetch:   2,
	PopStore:   4,
}

// InodeLoad holds read and write popularity of an inode. Weighting is up to the caller.
type InodeLoad struct {
	vec [NumInodePop]decay.Counter
}

func NewInodeLoad(rate decay.Rate) InodeLoad {
	l := InodeLoad{}
	for i := range l.vec {
		l.vec[i].SetRate(rate)
	}
	return l
}

// Get returns the counter of class t, t must be PopIRD or PopIWR.
func (l *InodeLoad) Get(t int) *decay.Counter {
	if t < 0 || t >= NumInodePop {
		panic(fmt.Sprintf("inode load: invalid pop class %d", t))
	}
	return &l.vec[t]
}

func (l *InodeLoad) Zero(now time.Time) {
	for i := range l.vec {
		l.vec[i].Reset(now)
	}
}

func (l *InodeLoad) Encode(e *codec.Encoder) {
	for i := range l.vec {
		l.vec[i].Encode(e)
	}
}

func (l *InodeLoad) Decode(d *codec.Decoder) {
	for i := range l.vec {
		l.vec[i].Decode(d)
	}
}

// DirFragLoad holds the five popularity classes of a directory fragment.
type DirFragLoad struct {
	vec [NumPop]decay.Counter
}

func NewDirFragLoad(rate decay.Rate) DirFragLoad {
	l := DirFragLoad{}
	for i := range l.vec {
		l.vec[i].SetRate(rate)
	}
	return l
}

func (l *DirFragLoad) Get(t int) *decay.Counter {
	if t < 0 || t >= NumPop {
		panic(fmt.Sprintf("dirfrag load: invalid pop class %d", t))
	}
	return &l.vec[t]
}

func (l *DirFragLoad) Hit(now time.Time, t int) float64 {
	return l.Get(t).Hit(now)
}

func (l *DirFragLoad) Adjust(now time.Time, d float64) {
	for i := range l.vec {
		l.vec[i].AdjustAt(now, d)
	}
}

func (l *DirFragLoad) Zero(now time.Time) {
	for i := range l.vec {
		l.vec[i].Reset(now)
	}
}

// MetaLoad is the weighted sum of all classes decayed to now.
func (l *DirFragLoad) MetaLoad(now time.Time) float64 {
	sum := 0.0
	for i := range l.vec {
		sum += metaLoadWeights[i] * l.vec[i].Get(now)
	}
	return sum
}

// MetaLoadLast is MetaLoad over the last computed values, without reading a clock.
func (l *DirFragLoad) MetaLoadLast() float64 {
	sum := 0.0
	for i := range l.vec {
		sum += metaLoadWeights[i] * l.vec[i].GetLast()
	}
	return sum
}

// Add merges the current values of other into l.
func (l *DirFragLoad) Add(now time.Time, other *DirFragLoad) {
	for i := range l.vec {
		l.vec[i].Adjust(other.vec[i].Get(now))
	}
}

// Sub removes the current values of other from l.
func (l *DirFragLoad) Sub(now time.Time, other *DirFragLoad) {
	for i := range l.vec {
		l.vec[i].Adjust(-other.vec[i].Get(now))
	}
}

// Scale redistributes load on fragment split or merge.
func (l *DirFragLoad) Scale(f float64) {
	for i := range l.vec {
		l.vec[i].Scale(f)
	}
}

func (l *DirFragLoad) Format(now time.Time) string {
	return fmt.Sprintf("[%.3f,%.3f %.3f]", l.vec[PopIRD].Get(now), l.vec[PopIWR].Get(now), l.MetaLoad(now))
}

func (l *DirFragLoad) String() string {
	return fmt.Sprintf("[%.3f,%.3f %.3f]", l.vec[PopIRD].GetLast(), l.vec[PopIWR].GetLast(), l.MetaLoadLast())
}

func (l *DirFragLoad) Encode(e *codec.Encoder) {
	for i := range l.vec {
		l.vec[i].Encode(e)
	}
}

func (l *DirFragLoad) Decode(d *codec.Decoder) {
	for i := range l.vec {
		l.vec[i].Decode(d)
	}
}

// MDSLoad is what one rank reports about itself to the balancer.
type MDSLoad struct {
	Auth DirFragLoad
	All  DirFragLoad

	ReqRate      float64
	CacheHitRate float64
	QueueLen     float64
	CPULoadAvg   float64
}

func NewMDSLoad(rate decay.Rate) MDSLoad {
	return MDSLoad{Auth: NewDirFragLoad(rate), All: NewDirFragLoad(rate)}
}

func (m *MDSLoad) String() string {
	return fmt.Sprintf("mdsload<%s/%s, req %.3f, hr %.3f, qlen %.3f, cpu %.3f>",
		m.Auth.String(), m.All.String(), m.ReqRate, m.CacheHitRate, m.QueueLen, m.CPULoadAvg)
}

func (m *MDSLoad) Encode(e *codec.Encoder) {
	m.Auth.Encode(e)
	m.All.Encode(e)
	e.PutF64(m.ReqRate)
	e.PutF64(m.CacheHitRate)
	e.PutF64(m.QueueLen)
	e.PutF64(m.CPULoadAvg)
}

func (m *MDSLoad) Decode(d *codec.Decoder) {
	m.Auth.Decode(d)
	m.All.Decode(d)
	m.ReqRate = d.F64()
	m.CacheHitRate = d.F64()
	m.QueueLen = d.F64()
	m.CPULoadAvg = d.F64()
}
