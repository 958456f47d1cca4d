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

// Package cache holds the state every cached metadata object carries:
// pins, authority, replicas, client leases and deferred waiters.
//
// Concrete objects (inodes, dirfrags, dentries) embed Object, call Init
// with themselves, and implement the rest of CacheObject. An object is
// only ever touched by the shard that owns it, so nothing here locks.
// Broken invariants panic: they are bugs, not conditions to handle.
package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cubefs/cubefs/blobstore/util/log"

	"github.com/cubefs/mdscore/config"
	"github.com/cubefs/mdscore/proto"
)

// generic pin reasons. Non-negative reasons have at most one holder.
const (
	PinReplicated     = 1000
	PinDirty          = 1001
	PinLock           = -1002
	PinRequest        = -1003
	PinWaiter         = 1004
	PinDirtyScattered = -1005
	PinAuthPin        = 1006
	PinPtrWaiter      = -1007
	PinTempExporting  = 1008 // between encoding and finishing an export
	PinClientLease    = 1009
)

var genericPinNames = map[int]string{
	PinReplicated:     "replicated",
	PinDirty:          "dirty",
	PinLock:           "lock",
	PinRequest:        "request",
	PinWaiter:         "waiter",
	PinDirtyScattered: "dirtyscattered",
	PinAuthPin:        "authpin",
	PinPtrWaiter:      "ptrwaiter",
	PinTempExporting:  "tempexporting",
	PinClientLease:    "clientlease",
}

// state bits, the low bits are left to concrete types
const (
	StateAuth      uint32 = 1 << 30
	StateDirty     uint32 = 1 << 29
	StateRejoining uint32 = 1 << 28 // replica has not rejoined the auth copy yet
)

// wait bits, the low bits are left to concrete types
const (
	WaitSingleAuth uint64 = 1 << 30
	WaitUnfreeze   uint64 = 1 << 29 // auth pinnable again
)

// authority sentinels; ranks >= 0 are real
const (
	AuthParent  proto.Rank = -1
	AuthUnknown proto.Rank = -2
)

var (
	AuthDefault = Authority{Owner: AuthParent, Migrating: AuthUnknown}
	AuthUndef   = Authority{Owner: AuthUnknown, Migrating: AuthUnknown}
)

// Authority is the owning rank and, during a migration, the rank the
// object is moving to.
type Authority struct {
	Owner     proto.Rank
	Migrating proto.Rank
}

// IsAmbiguous holds whenever a second rank is set, including a migration
// that already resolved.
func (a Authority) IsAmbiguous() bool {
	return a.Migrating != AuthUnknown
}

func (a Authority) String() string {
	return fmt.Sprintf("%d,%d", a.Owner, a.Migrating)
}

type (
	// CacheObject is what a concrete cache object must provide.
	CacheObject interface {
		LockHooks

		// Base returns the embedded Object.
		Base() *Object
		Authority() Authority
		// PinName names the reasons the concrete type adds.
		PinName(reason int) string
		// IsLessThan is a strict total order, stable for the object's lifetime.
		IsLessThan(other CacheObject) bool
		CanAuthPin() bool
		IsFrozen() bool
		String() string
	}

	// FirstPinHook is called when the ref count leaves zero.
	FirstPinHook interface {
		OnFirstPin()
	}
	// LastUnpinHook is called when the ref count drops to zero.
	LastUnpinHook interface {
		OnLastUnpin()
	}
)

// Object is the embedded base of every cache object. The zero value is
// usable with ref debugging off and no hooks.
type Object struct {
	owner    CacheObject
	refDebug bool

	state uint32

	ref    int
	refSet map[int]int // reason -> holders, ref debug only

	replicaMap   map[proto.Rank]uint32 // auth side: rank -> nonce
	replicaNonce uint32                // replica side

	clientLeases map[ClientID]*ClientLease
	waiters      []waiter

	authPins   int
	authPinSet map[Pinner]int // ref debug only
}

// Init binds the object to the concrete type embedding it.
func (o *Object) Init(owner CacheObject, ctx *config.Context) {
	o.owner = owner
	if ctx != nil && ctx.RefDebug {
		o.refDebug = true
		o.refSet = make(map[int]int)
		o.authPinSet = make(map[Pinner]int)
	}
}

func (o *Object) Base() *Object { return o }

func (o *Object) Owner() CacheObject { return o.owner }

func (o *Object) describe() string {
	if o.owner != nil {
		return o.owner.String()
	}
	return fmt.Sprintf("cacheobject(%p)", o)
}

// state

func (o *Object) State() uint32 { return o.state }
func (o *Object) StateTest(mask uint32) bool { return o.state&mask != 0 }
func (o *Object) StateSet(mask uint32) { o.state |= mask }
func (o *Object) StateClear(mask uint32) { o.state &^= mask }
func (o *Object) StateReset(s uint32) { o.state = s }
func (o *Object) IsAuth() bool { return o.StateTest(StateAuth) }
func (o *Object) IsDirty() bool { return o.StateTest(StateDirty) }
func (o *Object) IsClean() bool { return !o.IsDirty() }
func (o *Object) IsRejoining() bool { return o.StateTest(StateRejoining) }

// IsAmbiguousAuth asks the concrete object for its authority.
func (o *Object) IsAmbiguousAuth() bool {
	if o.owner == nil {
		log.Panicf("is_ambiguous_auth on %s: object not initialized", o.describe())
	}
	return o.owner.Authority().IsAmbiguous()
}

// pins

func (o *Object) NumRef() int { return o.ref }

func (o *Object) RefDebug() bool { return o.refDebug }

// IsPinnedBy is only meaningful with ref debugging on.
func (o *Object) IsPinnedBy(reason int) bool {
	return o.refSet[reason] > 0
}

// PinNameOf names generic reasons itself and asks the owner for the rest.
func (o *Object) PinNameOf(reason int) string {
	if name, ok := genericPinNames[reason]; ok {
		return name
	}
	if o.owner != nil {
		return o.owner.PinName(reason)
	}
	return strconv.Itoa(reason)
}

func (o *Object) Pin(by int) {
	if o.refDebug && by >= 0 && o.refSet[by] > 0 {
		o.badPin(by)
	}
	if o.ref == 0 {
		if h, ok := o.owner.(FirstPinHook); ok {
			h.OnFirstPin()
		}
	}
	o.ref++
	if o.refDebug {
		o.refSet[by]++
		o.checkRefSet()
	}
}

func (o *Object) Unpin(by int) {
	if o.ref == 0 || (o.refDebug && o.refSet[by] == 0) {
		o.badUnpin(by)
	}
	o.ref--
	if o.refDebug {
		if o.refSet[by]--; o.refSet[by] == 0 {
			delete(o.refSet, by)
		}
		o.checkRefSet()
	}
	if o.ref == 0 {
		if h, ok := o.owner.(LastUnpinHook); ok {
			h.OnLastUnpin()
		}
	}
}

func (o *Object) badPin(by int) {
	log.Panicf("bad pin %s on %s: already held, pins%s", o.PinNameOf(by), o.describe(), o.PinSetString())
}

func (o *Object) badUnpin(by int) {
	log.Panicf("bad unpin %s on %s: ref %d, pins%s", o.PinNameOf(by), o.describe(), o.ref, o.PinSetString())
}

func (o *Object) checkRefSet() {
	n := 0
	for _, c := range o.refSet {
		n += c
	}
	if n != o.ref {
		log.Panicf("ref %d does not match pin set size %d on %s", o.ref, n, o.describe())
	}
}

// PinSetString lists the held reasons, e.g. " replicated request*2".
// Empty unless ref debugging is on.
func (o *Object) PinSetString() string {
	if len(o.refSet) == 0 {
		return ""
	}
	reasons := make([]int, 0, len(o.refSet))
	for r := range o.refSet {
		reasons = append(reasons, r)
	}
	sort.Ints(reasons)

	var b strings.Builder
	for _, r := range reasons {
		b.WriteByte(' ')
		b.WriteString(o.PinNameOf(r))
		if c := o.refSet[r]; c > 1 {
			b.WriteString("*" + strconv.Itoa(c))
		}
	}
	return b.String()
}

// IsIdle reports whether nothing holds the object in cache anymore.
func (o *Object) IsIdle() bool {
	return o.ref == 0 && len(o.replicaMap) == 0 && len(o.clientLeases) == 0 && len(o.waiters) == 0
}
