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

package rstat

import (
	"sort"

	"github.com/cubefs/mdscore/codec"
	"github.com/cubefs/mdscore/proto"
)

// file type bits of Inode.Mode
const (
	ModeTypeMask = 0o170000
	ModeSymlink  = 0o120000
	ModeRegular  = 0o100000
	ModeDir      = 0o040000
)

// FileLayout describes how file data is striped over objects.
type FileLayout struct {
	StripeUnit       uint32
	StripeCount      uint32
	ObjectSize       uint32
	CasHash          uint32
	ObjectStripeUnit uint32
	PGPreferred      int32
	PGPool           uint32
}

func (l *FileLayout) Encode(e *codec.Encoder) {
	e.PutU32(l.StripeUnit)
	e.PutU32(l.StripeCount)
	e.PutU32(l.ObjectSize)
	e.PutU32(l.CasHash)
	e.PutU32(l.ObjectStripeUnit)
	e.PutI32(l.PGPreferred)
	e.PutU32(l.PGPool)
}

func (l *FileLayout) Decode(d *codec.Decoder) {
	l.StripeUnit = d.U32()
	l.StripeCount = d.U32()
	l.ObjectSize = d.U32()
	l.CasHash = d.U32()
	l.ObjectStripeUnit = d.U32()
	l.PGPreferred = d.I32()
	l.PGPool = d.U32()
}

// Inode is the replicated snapshot of an inode.
type Inode struct {
	Ino    proto.Ino
	Layout FileLayout
	Rdev   uint32
	Ctime  proto.UTime

	Mode uint32
	UID  uint32
	GID  uint32

	Nlink    int32
	Anchored bool

	Size        uint64 // number of dentries on a directory
	MaxSize     uint64 // clients may write up to here
	Mtime       proto.UTime
	Atime       proto.UTime
	TimeWarpSeq uint64

	Dirstat          FragInfo
	AccountedDirstat FragInfo // what the parent dirfrag has absorbed

	Version         proto.Version
	FileDataVersion proto.Version
}

func (in *Inode) IsSymlink() bool { return in.Mode&ModeTypeMask == ModeSymlink }
func (in *Inode) IsDir() bool     { return in.Mode&ModeTypeMask == ModeDir }
func (in *Inode) IsFile() bool    { return in.Mode&ModeTypeMask == ModeRegular }

// TakeFragDiff folds a fragment of this directory into the inode's dirstat.
func (in *Inode) TakeFragDiff(f *Fnode) bool {
	return in.Dirstat.TakeDiff(&f.Fragstat, &f.AccountedFragstat)
}

// AccountInto folds this inode's dirstat into the fragment holding its dentry.
func (in *Inode) AccountInto(parent *Fnode) bool {
	return parent.Fragstat.TakeDiff(&in.Dirstat, &in.AccountedDirstat)
}

func (in *Inode) Encode(e *codec.Encoder) {
	e.PutU64(uint64(in.Ino))
	in.Layout.Encode(e)
	e.PutU32(in.Rdev)
	in.Ctime.Encode(e)

	e.PutU32(in.Mode)
	e.PutU32(in.UID)
	e.PutU32(in.GID)

	e.PutI32(in.Nlink)
	e.PutBool(in.Anchored)

	e.PutU64(in.Size)
	e.PutU64(in.MaxSize)
	in.Mtime.Encode(e)
	in.Atime.Encode(e)
	e.PutU64(in.TimeWarpSeq)

	in.Dirstat.Encode(e)
	in.AccountedDirstat.Encode(e)

	e.PutU64(uint64(in.Version))
	e.PutU64(uint64(in.FileDataVersion))
}

func (in *Inode) Decode(d *codec.Decoder) {
	in.Ino = proto.Ino(d.U64())
	in.Layout.Decode(d)
	in.Rdev = d.U32()
	in.Ctime.Decode(d)

	in.Mode = d.U32()
	in.UID = d.U32()
	in.GID = d.U32()

	in.Nlink = d.I32()
	in.Anchored = d.Bool()

	in.Size = d.U64()
	in.MaxSize = d.U64()
	in.Mtime.Decode(d)
	in.Atime.Decode(d)
	in.TimeWarpSeq = d.U64()

	in.Dirstat.Decode(d)
	in.AccountedDirstat.Decode(d)

	in.Version = proto.Version(d.U64())
	in.FileDataVersion = proto.Version(d.U64())
}

// OldInode is an inode as it was over the snapshots [First, the key it is stored under].
type OldInode struct {
	First  proto.SnapID
	Inode  Inode
	Xattrs map[string][]byte
}

func (o *OldInode) Encode(e *codec.Encoder) {
	e.PutU64(uint64(o.First))
	o.Inode.Encode(e)

	keys := make([]string, 0, len(o.Xattrs))
	for k := range o.Xattrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.PutU32(uint32(len(keys)))
	for _, k := range keys {
		e.PutString(k)
		e.PutBytes(o.Xattrs[k])
	}
}

func (o *OldInode) Decode(d *codec.Decoder) {
	o.First = proto.SnapID(d.U64())
	o.Inode.Decode(d)

	n := int(d.U32())
	o.Xattrs = nil
	if n == 0 {
		return
	}
	o.Xattrs = make(map[string][]byte)
	for i := 0; i < n; i++ {
		k := d.String()
		o.Xattrs[k] = d.Bytes()
	}
}
