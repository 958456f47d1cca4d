package cache

import (
	"sort"

	"github.com/cubefs/cubefs/blobstore/util/log"

	"github.com/cubefs/mdscore/proto"
)

// replicas held by other ranks, tracked on the auth copy

func (o *Object) IsReplicated() bool { return len(o.replicaMap) > 0 }

func (o *Object) IsReplica(rank proto.Rank) bool {
	_, ok := o.replicaMap[rank]
	return ok
}

func (o *Object) NumReplicas() int { return len(o.replicaMap) }

// AddReplica registers rank as a replica holder and returns its nonce.
// A rank already present gets its nonce bumped.
func (o *Object) AddReplica(rank proto.Rank) uint32 {
	if nonce, ok := o.replicaMap[rank]; ok {
		nonce++
		o.replicaMap[rank] = nonce
		return nonce
	}
	if len(o.replicaMap) == 0 {
		o.Pin(PinReplicated)
	}
	if o.replicaMap == nil {
		o.replicaMap = make(map[proto.Rank]uint32)
	}
	o.replicaMap[rank] = 1
	log.Debugf("add replica mds.%d nonce 1 on %s", rank, o.describe())
	return 1
}

// SetReplica records rank with the nonce the auth dictated.
func (o *Object) SetReplica(rank proto.Rank, nonce uint32) {
	if len(o.replicaMap) == 0 {
		o.Pin(PinReplicated)
	}
	if o.replicaMap == nil {
		o.replicaMap = make(map[proto.Rank]uint32)
	}
	o.replicaMap[rank] = nonce
}

func (o *Object) ReplicaNonceOf(rank proto.Rank) uint32 {
	nonce, ok := o.replicaMap[rank]
	if !ok {
		log.Panicf("mds.%d is not a replica of %s", rank, o.describe())
	}
	return nonce
}

func (o *Object) RemoveReplica(rank proto.Rank) {
	if _, ok := o.replicaMap[rank]; !ok {
		log.Panicf("remove replica: mds.%d is not a replica of %s", rank, o.describe())
	}
	delete(o.replicaMap, rank)
	if len(o.replicaMap) == 0 {
		o.Unpin(PinReplicated)
	}
	log.Debugf("remove replica mds.%d on %s", rank, o.describe())
}

func (o *Object) ClearReplicas() {
	if len(o.replicaMap) > 0 {
		o.Unpin(PinReplicated)
	}
	o.replicaMap = nil
}

// Replicas returns a copy of the rank -> nonce map.
func (o *Object) Replicas() map[proto.Rank]uint32 {
	ret := make(map[proto.Rank]uint32, len(o.replicaMap))
	for rank, nonce := range o.replicaMap {
		ret[rank] = nonce
	}
	return ret
}

// ReplicaRanks returns the replica holders in ascending order.
func (o *Object) ReplicaRanks() []proto.Rank {
	ranks := make([]proto.Rank, 0, len(o.replicaMap))
	for rank := range o.replicaMap {
		ranks = append(ranks, rank)
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] < ranks[j] })
	return ranks
}

// the nonce of this copy, on a replica

func (o *Object) ReplicaNonce() uint32 { return o.replicaNonce }

func (o *Object) SetReplicaNonce(n uint32) { o.replicaNonce = n }
