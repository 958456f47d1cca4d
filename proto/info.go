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
	"github.com/cubefs/mdscore/codec"
)

// ObjectInfo references a cache object across ranks: an inode by number,
// a dirfrag, or a dentry by dirfrag and name.
type ObjectInfo struct {
	Ino     Ino
	DirFrag DirFrag
	Name    string
}

func (o ObjectInfo) String() string {
	if o.Ino != 0 {
		return o.Ino.String()
	}
	if o.Name != "" {
		return o.DirFrag.String() + "/" + o.Name
	}
	return o.DirFrag.String()
}

func (o *ObjectInfo) Encode(e *codec.Encoder) {
	e.PutU64(uint64(o.Ino))
	o.DirFrag.Encode(e)
	e.PutString(o.Name)
}

func (o *ObjectInfo) Decode(d *codec.Decoder) {
	o.Ino = Ino(d.U64())
	o.DirFrag.Decode(d)
	o.Name = d.String()
}

// CapsReconnect is what a reconnecting client reports per inode.
type CapsReconnect struct {
	Wanted int32
	Issued int32
	Size   uint64
	Mtime  UTime
	Atime  UTime
}

func (c *CapsReconnect) Encode(e *codec.Encoder) {
	e.PutI32(c.Wanted)
	e.PutI32(c.Issued)
	e.PutU64(c.Size)
	c.Mtime.Encode(e)
	c.Atime.Encode(e)
}

func (c *CapsReconnect) Decode(d *codec.Decoder) {
	c.Wanted = d.I32()
	c.Issued = d.I32()
	c.Size = d.U64()
	c.Mtime.Decode(d)
	c.Atime.Decode(d)
}

// capability bits carried in CapsReconnect and client leases
const (
	CapPin      = 1 << 0
	CapRdcache  = 1 << 1
	CapRd       = 1 << 2
	CapWr       = 1 << 3
	CapWrbuffer = 1 << 4
	CapWrextend = 1 << 5
	CapLazyIO   = 1 << 6
	CapExcl     = 1 << 7
)

var capNames = []struct {
	bit  int
	name string
}{
	{CapPin, "pin"},
	{CapRdcache, "rdcache"},
	{CapRd, "rd"},
	{CapWr, "wr"},
	{CapWrbuffer, "wrbuffer"},
	{CapWrextend, "wrextend"},
	{CapLazyIO, "lazyio"},
	{CapExcl, "excl"},
}

// CapString renders a capability mask as "[ rd wr ]".
func CapString(caps int) string {
	s := "["
	for _, c := range capNames {
		if caps&c.bit != 0 {
			s += " " + c.name
		}
	}
	return s + " ]"
}
