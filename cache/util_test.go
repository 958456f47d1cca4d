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

package cache

import (
	"fmt"

	"github.com/cubefs/mdscore/config"
	"github.com/cubefs/mdscore/proto"
)

const pinTestOpen = -1

type ider interface {
	ID() int
}

type testObject struct {
	Object
	NoLocks

	id     int
	auth   Authority
	frozen bool

	firstPins  int
	lastUnpins int
	refAtFirst int
	refAtLast  int
}

func newTestObject(id int, refDebug bool) *testObject {
	o := &testObject{id: id, auth: AuthDefault}
	o.Init(o, &config.Context{RefDebug: refDebug})
	return o
}

func (o *testObject) ID() int              { return o.id }
func (o *testObject) Authority() Authority { return o.auth }
func (o *testObject) CanAuthPin() bool     { return !o.frozen }
func (o *testObject) IsFrozen() bool       { return o.frozen }
func (o *testObject) String() string       { return fmt.Sprintf("[obj %d]", o.id) }

func (o *testObject) PinName(reason int) string {
	if reason == pinTestOpen {
		return "open"
	}
	return "unknown"
}

func (o *testObject) IsLessThan(other CacheObject) bool {
	return o.id < other.(ider).ID()
}

func (o *testObject) OnFirstPin() {
	o.firstPins++
	o.refAtFirst = o.NumRef()
}

func (o *testObject) OnLastUnpin() {
	o.lastUnpins++
	o.refAtLast = o.NumRef()
}

type testLock struct {
	lockType int
	parent   CacheObject
}

func (l *testLock) Type() int            { return l.lockType }
func (l *testLock) Parent() CacheObject { return l.parent }

// lockedObject supports a subset of the lock types.
type lockedObject struct {
	testObject
	locks map[int]*testLock
}

func newLockedObject(id int) *lockedObject {
	o := &lockedObject{testObject: testObject{id: id, auth: AuthDefault}}
	o.locks = map[int]*testLock{
		LockIFile: {lockType: LockIFile, parent: o},
		LockIAuth: {lockType: LockIAuth, parent: o},
	}
	o.Init(o, &config.Context{RefDebug: true})
	return o
}

func (o *lockedObject) GetLock(lockType int) (Lock, error) {
	if l, ok := o.locks[lockType]; ok {
		return l, nil
	}
	return o.testObject.GetLock(lockType)
}

type recordingObserver struct {
	gathered []int
}

func (r *recordingObserver) EvalGather(lock Lock) {
	r.gathered = append(r.gathered, lock.Type())
}

func objectKey(id int) proto.ObjectInfo {
	return proto.ObjectInfo{Ino: proto.Ino(id)}
}
