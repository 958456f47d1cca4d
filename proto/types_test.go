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
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cubefs/mdscore/codec"
)

func TestVInodeNoRoundTrip(t *testing.T) {
	for _, v := range []VInodeNo{
		{},
		{Ino: 0, Snap: NoSnap},
		{Ino: math.MaxUint64, Snap: SnapNone},
		{Ino: 0x1000, Snap: 5},
	} {
		data := codec.Marshal(&v)
		require.Equal(t, 16, len(data))
		got := VInodeNo{}
		require.NoError(t, codec.Unmarshal(data, &got))
		require.Equal(t, v, got)
	}
}

func TestVInodeNoString(t *testing.T) {
	require.Equal(t, "10", VInodeNo{Ino: 0x10}.String())
	require.Equal(t, "10.head", VInodeNo{Ino: 0x10, Snap: NoSnap}.String())
	require.Equal(t, "10.3", VInodeNo{Ino: 0x10, Snap: 3}.String())
	require.Equal(t, SnapID(0xfffffffffffffffe), NoSnap)
}

func TestDirFrag(t *testing.T) {
	root := DirFrag{Ino: 1}
	left := DirFrag{Ino: 1, Frag: MakeFrag(0, 0).Child(0)}
	right := DirFrag{Ino: 1, Frag: MakeFrag(0, 0).Child(1)}
	other := DirFrag{Ino: 2}

	require.True(t, root.Less(left))
	require.False(t, left.Less(root))
	require.True(t, left.Less(right))
	require.True(t, right.Less(other))
	require.False(t, root.Less(root))
	require.Equal(t, root, DirFrag{Ino: 1, Frag: 0})

	require.Equal(t, "1", root.String())
	require.Equal(t, "1.0*", left.String())
	require.Equal(t, "1.1*", right.String())
	require.Equal(t, "101*", right.Frag.Child(0).Child(1).String())

	require.True(t, right.Frag.Contains(0x800001))
	require.False(t, left.Frag.Contains(0x800001))
	require.Equal(t, Frag(0), left.Frag.Parent())
	require.Equal(t, Frag(0), Frag(0).Parent())

	for _, df := range []DirFrag{root, right, {Ino: 0}, {Ino: math.MaxUint64, Frag: MakeFrag(24, 0xffffff)}} {
		data := codec.Marshal(&df)
		require.Equal(t, 12, len(data))
		got := DirFrag{}
		require.NoError(t, codec.Unmarshal(data, &got))
		require.Equal(t, df, got)
	}
}

func TestDirFragSortTotal(t *testing.T) {
	dfs := []DirFrag{
		{Ino: 3}, {Ino: 1, Frag: MakeFrag(1, 0x800000)}, {Ino: 1}, {Ino: 2}, {Ino: 1, Frag: MakeFrag(1, 0)},
	}
	sort.Slice(dfs, func(i, j int) bool { return dfs[i].Less(dfs[j]) })
	require.Equal(t, []DirFrag{
		{Ino: 1}, {Ino: 1, Frag: MakeFrag(1, 0)}, {Ino: 1, Frag: MakeFrag(1, 0x800000)}, {Ino: 2}, {Ino: 3},
	}, dfs)
}

func TestMetaReqID(t *testing.T) {
	a := MetaReqID{Name: NewClientName(4), Tid: 10}
	b := MetaReqID{Name: NewClientName(4), Tid: 11}
	c := MetaReqID{Name: NewClientName(5), Tid: 1}
	mds := MetaReqID{Name: EntityName{Type: EntityMDS, Num: 9}, Tid: 100}

	require.True(t, a.Less(b))
	require.True(t, b.Less(c))
	require.True(t, mds.Less(a))
	require.False(t, a.Less(a))
	require.Equal(t, "client.4:10", a.String())

	for _, r := range []MetaReqID{a, mds, {}} {
		data := codec.Marshal(&r)
		got := MetaReqID{}
		require.NoError(t, codec.Unmarshal(data, &got))
		require.Equal(t, r, got)
	}
}

func TestObjectInfo(t *testing.T) {
	require.Equal(t, "1000", ObjectInfo{Ino: 0x1000}.String())
	require.Equal(t, "1/foo", ObjectInfo{DirFrag: DirFrag{Ino: 1}, Name: "foo"}.String())
	require.Equal(t, "1.1*", ObjectInfo{DirFrag: DirFrag{Ino: 1, Frag: MakeFrag(1, 0x800000)}}.String())

	for _, o := range []ObjectInfo{
		{},
		{Ino: 7},
		{DirFrag: DirFrag{Ino: 3, Frag: MakeFrag(2, 0x400000)}, Name: "dentry"},
	} {
		data := codec.Marshal(&o)
		got := ObjectInfo{}
		require.NoError(t, codec.Unmarshal(data, &got))
		require.Equal(t, o, got)
		require.Equal(t, o.Hash(), got.Hash())
	}
	require.NotEqual(t, ObjectInfo{Name: "a"}.Hash(), ObjectInfo{Name: "b"}.Hash())
}

func TestCapsReconnect(t *testing.T) {
	now := UTimeFrom(time.Unix(1700000000, 123000))
	c := CapsReconnect{Wanted: CapRd | CapWr, Issued: CapRd, Size: 4096, Mtime: now, Atime: UTime{}}
	data := codec.Marshal(&c)
	require.Equal(t, 4+4+8+8+8, len(data))
	got := CapsReconnect{}
	require.NoError(t, codec.Unmarshal(data, &got))
	require.Equal(t, c, got)

	require.Error(t, codec.Unmarshal(data[:len(data)-1], &got))
	require.Equal(t, "[ rd wr ]", CapString(int(c.Wanted)))
}

func TestUTime(t *testing.T) {
	a := UTime{Sec: 1, Nsec: 5}
	b := UTime{Sec: 1, Nsec: 6}
	require.True(t, a.Less(b))
	require.True(t, b.After(a))
	require.False(t, a.After(a))
	require.True(t, UTimeFrom(time.Time{}).IsZero())

	tm := time.Unix(100, 2000)
	require.True(t, tm.Equal(UTimeFrom(tm).Time()))
	require.Equal(t, "100.000002", UTimeFrom(tm).String())
}

func TestStray(t *testing.T) {
	require.True(t, InoStray(0).IsStray())
	require.True(t, InoStray(MaxMDS-1).IsStray())
	require.False(t, InoBase.IsStray())
	require.False(t, InoRoot.IsStray())
}

func TestShardOf(t *testing.T) {
	require.Equal(t, 0, ShardOf(12345, 1))
	require.Equal(t, 0, ShardOf(12345, 0))
	v := VInodeNo{Ino: 10, Snap: NoSnap}
	require.Equal(t, ShardOf(v.Hash(), 8), ShardOf(v.Hash(), 8))
	require.True(t, ShardOf(v.Hash(), 8) < 8)
	require.NotEqual(t, DirFrag{Ino: 1}.Hash(), DirFrag{Ino: 2}.Hash())
}
