package proto

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

func hash2(a uint64, b uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], a)
	binary.LittleEndian.PutUint64(buf[8:], b)
	return xxhash.Sum64(buf[:])
}

func (v VInodeNo) Hash() uint64 {
	return hash2(uint64(v.Ino), uint64(v.Snap))
}

func (df DirFrag) Hash() uint64 {
	return hash2(uint64(df.Ino), uint64(df.Frag))
}

func (r MetaReqID) Hash() uint64 {
	return hash2(uint64(r.Name.Type)<<32^r.Name.Num, uint64(r.Tid))
}

func (o ObjectInfo) Hash() uint64 {
	var buf [20]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(o.Ino))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(o.DirFrag.Ino))
	binary.LittleEndian.PutUint32(buf[16:], uint32(o.DirFrag.Frag))
	d := xxhash.New()
	d.Write(buf[:])
	d.WriteString(o.Name)
	return d.Sum64()
}

// ShardOf maps a key hash onto one of n cooperative shards.
func ShardOf(h uint64, n int) int {
	if n <= 1 {
		return 0
	}
	return int(h % uint64(n))
}
