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

// Package rstat keeps the local and recursive usage statistics of inodes
// and directory fragments and folds them up the tree incrementally.
package rstat

import (
	"fmt"

	"github.com/cubefs/mdscore/codec"
	"github.com/cubefs/mdscore/proto"
)

// FragInfo is a versioned snapshot of local and recursive counters.
// Counters are signed: deltas may go transiently negative while subtrees
// move between ranks. FragInfo values compare with ==.
type FragInfo struct {
	Version proto.Version

	// this fragment
	Mtime    proto.UTime
	NFiles   int64
	NSubdirs int64

	// this fragment and everything below it
	RCtime   proto.UTime
	RBytes   int64
	RFiles   int64
	RSubdirs int64
	RAnchors int64 // includes the inode's own anchored flag on dirstat
}

func (f *FragInfo) Size() int64 {
	return f.NFiles + f.NSubdirs
}

func (f *FragInfo) RSize() int64 {
	return f.RFiles + f.RSubdirs
}

func (f *FragInfo) Zero() {
	*f = FragInfo{}
}

// TakeDiff folds the change between cur and acc into f, then records cur
// as accounted under f's version. acc is the snapshot f already absorbed,
// so applying the same cur again changes nothing. It reports whether cur
// carried a newer mtime.
func (f *FragInfo) TakeDiff(cur *FragInfo, acc *FragInfo) (touchedMtime bool) {
	if cur.Mtime.After(f.Mtime) {
		f.Mtime = cur.Mtime
		f.RCtime = cur.Mtime
		touchedMtime = true
	}
	f.NFiles += cur.NFiles - acc.NFiles
	f.NSubdirs += cur.NSubdirs - acc.NSubdirs

	if cur.RCtime.After(f.RCtime) {
		f.RCtime = cur.RCtime
	}
	f.RBytes += cur.RBytes - acc.RBytes
	f.RFiles += cur.RFiles - acc.RFiles
	f.RSubdirs += cur.RSubdirs - acc.RSubdirs
	f.RAnchors += cur.RAnchors - acc.RAnchors

	*acc = *cur
	acc.Version = f.Version
	return
}

func (f FragInfo) String() string {
	return fmt.Sprintf("f(v%d m%s %d=%d+%d rc%s b%d a%d %d=%d+%d)",
		f.Version, f.Mtime, f.Size(), f.NFiles, f.NSubdirs,
		f.RCtime, f.RBytes, f.RAnchors, f.RSize(), f.RFiles, f.RSubdirs)
}

func (f *FragInfo) Encode(e *codec.Encoder) {
	e.PutU64(uint64(f.Version))
	f.Mtime.Encode(e)
	e.PutI64(f.NFiles)
	e.PutI64(f.NSubdirs)
	e.PutI64(f.RBytes)
	e.PutI64(f.RFiles)
	e.PutI64(f.RSubdirs)
	e.PutI64(f.RAnchors)
	f.RCtime.Encode(e)
}

func (f *FragInfo) Decode(d *codec.Decoder) {
	f.Version = proto.Version(d.U64())
	f.Mtime.Decode(d)
	f.NFiles = d.I64()
	f.NSubdirs = d.I64()
	f.RBytes = d.I64()
	f.RFiles = d.I64()
	f.RSubdirs = d.I64()
	f.RAnchors = d.I64()
	f.RCtime.Decode(d)
}

// Fnode is the inode-like header of a directory fragment.
type Fnode struct {
	Version           proto.Version
	Fragstat          FragInfo
	AccountedFragstat FragInfo // what the directory inode has absorbed
}

func (f *Fnode) Encode(e *codec.Encoder) {
	e.PutU64(uint64(f.Version))
	f.Fragstat.Encode(e)
	f.AccountedFragstat.Encode(e)
}

func (f *Fnode) Decode(d *codec.Decoder) {
	f.Version = proto.Version(d.U64())
	f.Fragstat.Decode(d)
	f.AccountedFragstat.Decode(d)
}

// IsDirty reports whether the fragment holds stats its inode has not absorbed.
func (f *Fnode) IsDirty() bool {
	a, b := f.Fragstat, f.AccountedFragstat
	a.Version, b.Version = 0, 0
	return a != b
}
