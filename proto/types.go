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

package proto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cubefs/mdscore/codec"
)

type (
	Ino     uint64
	SnapID  uint64
	Version uint64
	Frag    uint32
	Rank    int32
	Tid     uint64
)

const (
	// SnapNone marks the absence of a snapshot.
	SnapNone SnapID = 0
	// NoSnap is the live, writable head of an inode.
	NoSnap SnapID = ^SnapID(0) - 1
	// SnapDir is the virtual .snap directory.
	SnapDir SnapID = ^SnapID(0)
)

const (
	MaxMDS = 0x100

	InoRoot       Ino = 1
	InoPGTable    Ino = 2
	InoAnchorTab  Ino = 3
	InoSnapTable  Ino = 4
	InoLogOffset  Ino = 1 * MaxMDS
	InoIDsOffset  Ino = 2 * MaxMDS
	InoClientMap  Ino = 3 * MaxMDS
	InoSessionMap Ino = 4 * MaxMDS
	InoStrayBase  Ino = 5 * MaxMDS
	InoBase       Ino = 6 * MaxMDS
)

// InoStray returns the stray directory of the given rank.
func InoStray(rank Rank) Ino {
	return InoStrayBase + Ino(uint32(rank))
}

func (i Ino) IsStray() bool {
	return i >= InoStrayBase && i < InoStrayBase+MaxMDS
}

func (i Ino) String() string {
	return strconv.FormatUint(uint64(i), 16)
}

func (s SnapID) String() string {
	switch s {
	case NoSnap:
		return "head"
	case SnapDir:
		return "snapdir"
	}
	return strconv.FormatUint(uint64(s), 16)
}

// VInodeNo names one version of an inode.
type VInodeNo struct {
	Ino  Ino
	Snap SnapID
}

func (v VInodeNo) Less(than VInodeNo) bool {
	if v.Ino != than.Ino {
		return v.Ino < than.Ino
	}
	return v.Snap < than.Snap
}

func (v VInodeNo) String() string {
	switch v.Snap {
	case SnapNone:
		return v.Ino.String()
	case NoSnap:
		return v.Ino.String() + ".head"
	}
	return v.Ino.String() + "." + v.Snap.String()
}

func (v *VInodeNo) Encode(e *codec.Encoder) {
	e.PutU64(uint64(v.Ino))
	e.PutU64(uint64(v.Snap))
}

func (v *VInodeNo) Decode(d *codec.Decoder) {
	v.Ino = Ino(d.U64())
	v.Snap = SnapID(d.U64())
}

const (
	fragBitsShift = 24
	fragValueMask = 1<<fragBitsShift - 1
)

// MakeFrag builds the fragment covering the bits high-order bits of value,
// value being a 24 bit hash space position.
func MakeFrag(bits uint32, value uint32) Frag {
	if bits > fragBitsShift {
		bits = fragBitsShift
	}
	mask := uint32(0)
	if bits > 0 {
		mask = (fragValueMask << (fragBitsShift - bits)) & fragValueMask
	}
	return Frag(bits<<fragBitsShift | (value & mask))
}

func (f Frag) Bits() uint32  { return uint32(f) >> fragBitsShift }
func (f Frag) Value() uint32 { return uint32(f) & fragValueMask }
func (f Frag) IsRoot() bool  { return f.Bits() == 0 }

// Contains reports whether the 24 bit hash v falls in this fragment.
func (f Frag) Contains(v uint32) bool {
	return MakeFrag(f.Bits(), v) == f
}

// Child returns child i (0 or 1) of a binary split.
func (f Frag) Child(i int) Frag {
	bits := f.Bits() + 1
	v := f.Value()
	if i != 0 {
		v |= 1 << (fragBitsShift - bits)
	}
	return MakeFrag(bits, v)
}

func (f Frag) Parent() Frag {
	if f.IsRoot() {
		return f
	}
	return MakeFrag(f.Bits()-1, f.Value())
}

func (f Frag) Less(than Frag) bool {
	if f.Value() != than.Value() {
		return f.Value() < than.Value()
	}
	return f.Bits() < than.Bits()
}

// String prints the covered prefix, e.g. 01* for the second quarter.
func (f Frag) String() string {
	var b strings.Builder
	for i := uint32(0); i < f.Bits(); i++ {
		if f.Value()&(1<<(fragBitsShift-1-i)) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	b.WriteByte('*')
	return b.String()
}

// DirFrag names one fragment of a directory.
type DirFrag struct {
	Ino  Ino
	Frag Frag
}

func (df DirFrag) Less(than DirFrag) bool {
	if df.Ino != than.Ino {
		return df.Ino < than.Ino
	}
	return df.Frag.Less(than.Frag)
}

func (df DirFrag) String() string {
	if df.Frag.IsRoot() {
		return df.Ino.String()
	}
	return df.Ino.String() + "." + df.Frag.String()
}

// Encode skips the in-memory pad word, it is not part of the wire layout.
func (df *DirFrag) Encode(e *codec.Encoder) {
	e.PutU64(uint64(df.Ino))
	e.PutU32(uint32(df.Frag))
}

func (df *DirFrag) Decode(d *codec.Decoder) {
	df.Ino = Ino(d.U64())
	df.Frag = Frag(d.U32())
}

type EntityType uint32

const (
	EntityMon    EntityType = 0x01
	EntityMDS    EntityType = 0x02
	EntityOSD    EntityType = 0x04
	EntityClient EntityType = 0x08
	EntityAdmin  EntityType = 0x10
)

func (t EntityType) String() string {
	switch t {
	case EntityMon:
		return "mon"
	case EntityMDS:
		return "mds"
	case EntityOSD:
		return "osd"
	case EntityClient:
		return "client"
	case EntityAdmin:
		return "admin"
	}
	return "unknown" + strconv.Itoa(int(t))
}

// EntityName identifies a requester in the cluster.
type EntityName struct {
	Type EntityType
	Num  uint64
}

func NewClientName(num uint64) EntityName {
	return EntityName{Type: EntityClient, Num: num}
}

func (n EntityName) Less(than EntityName) bool {
	if n.Type != than.Type {
		return n.Type < than.Type
	}
	return n.Num < than.Num
}

func (n EntityName) String() string {
	return n.Type.String() + "." + strconv.FormatUint(n.Num, 10)
}

func (n *EntityName) Encode(e *codec.Encoder) {
	e.PutU32(uint32(n.Type))
	e.PutU64(n.Num)
}

func (n *EntityName) Decode(d *codec.Decoder) {
	n.Type = EntityType(d.U32())
	n.Num = d.U64()
}

// MetaReqID identifies one metadata request of one requester.
type MetaReqID struct {
	Name EntityName
	Tid  Tid
}

func (r MetaReqID) Less(than MetaReqID) bool {
	if r.Name != than.Name {
		return r.Name.Less(than.Name)
	}
	return r.Tid < than.Tid
}

func (r MetaReqID) String() string {
	return fmt.Sprintf("%s:%d", r.Name, r.Tid)
}

func (r *MetaReqID) Encode(e *codec.Encoder) {
	r.Name.Encode(e)
	e.PutU64(uint64(r.Tid))
}

func (r *MetaReqID) Decode(d *codec.Decoder) {
	r.Name.Decode(d)
	r.Tid = Tid(d.U64())
}
