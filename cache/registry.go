package cache

import (
	"container/list"

	"github.com/cubefs/cubefs/blobstore/util/log"

	apierrors "github.com/cubefs/mdscore/errors"
	"github.com/cubefs/mdscore/proto"
)

type (
	// Registry indexes live cache objects. Keys are spread over shards by
	// hash; each shard must only be used by the goroutine that owns it,
	// which is the cooperative scheduler of that shard.
	Registry struct {
		shards []*RegistryShard
	}

	RegistryShard struct {
		id      int
		objects map[proto.ObjectInfo]*list.Element
		lru     *list.List // front is most recently touched
	}

	registryEntry struct {
		key proto.ObjectInfo
		obj CacheObject
	}

	ShardStats struct {
		Objects    int
		Pinned     int
		Replicated int
		Leased     int
		Waiting    int
	}
)

func NewRegistry(shards int) *Registry {
	if shards <= 0 {
		shards = 1
	}
	r := &Registry{shards: make([]*RegistryShard, shards)}
	for i := range r.shards {
		r.shards[i] = &RegistryShard{
			id:      i,
			objects: make(map[proto.ObjectInfo]*list.Element),
			lru:     list.New(),
		}
	}
	return r
}

func (r *Registry) NumShards() int { return len(r.shards) }

func (r *Registry) Shard(i int) *RegistryShard { return r.shards[i] }

// ShardFor returns the shard owning key.
func (r *Registry) ShardFor(key proto.ObjectInfo) *RegistryShard {
	return r.shards[proto.ShardOf(key.Hash(), len(r.shards))]
}

func (s *RegistryShard) ID() int { return s.id }

func (s *RegistryShard) Len() int { return len(s.objects) }

func (s *RegistryShard) Add(key proto.ObjectInfo, obj CacheObject) error {
	if _, ok := s.objects[key]; ok {
		return apierrors.ErrObjectExists
	}
	s.objects[key] = s.lru.PushFront(&registryEntry{key: key, obj: obj})
	return nil
}

// Get returns the object and marks it recently used.
func (s *RegistryShard) Get(key proto.ObjectInfo) (CacheObject, bool) {
	e, ok := s.objects[key]
	if !ok {
		return nil, false
	}
	s.lru.MoveToFront(e)
	return e.Value.(*registryEntry).obj, true
}

// Remove drops key from the index. Dropping an object that is still
// pinned, replicated, leased or waited on is a bug in the caller.
func (s *RegistryShard) Remove(key proto.ObjectInfo) error {
	e, ok := s.objects[key]
	if !ok {
		return apierrors.ErrObjectNotFound
	}
	obj := e.Value.(*registryEntry).obj
	if !obj.Base().IsIdle() {
		log.Panicf("remove %s from cache while in use: ref %d, pins%s", obj, obj.Base().NumRef(), obj.Base().PinSetString())
	}
	s.lru.Remove(e)
	delete(s.objects, key)
	return nil
}

// Trim evicts idle objects, least recently used first, until at most max
// remain or only busy objects are left. It returns the evicted keys.
func (s *RegistryShard) Trim(max int) []proto.ObjectInfo {
	var evicted []proto.ObjectInfo
	for e := s.lru.Back(); e != nil && len(s.objects) > max; {
		prev := e.Prev()
		ent := e.Value.(*registryEntry)
		if ent.obj.Base().IsIdle() {
			s.lru.Remove(e)
			delete(s.objects, ent.key)
			evicted = append(evicted, ent.key)
		}
		e = prev
	}
	if len(evicted) > 0 {
		log.Debugf("registry shard %d trimmed %d objects, %d left", s.id, len(evicted), len(s.objects))
	}
	return evicted
}

// Range visits objects from most to least recently used until fn returns false.
func (s *RegistryShard) Range(fn func(key proto.ObjectInfo, obj CacheObject) bool) {
	for e := s.lru.Front(); e != nil; e = e.Next() {
		ent := e.Value.(*registryEntry)
		if !fn(ent.key, ent.obj) {
			return
		}
	}
}

func (s *RegistryShard) Stats() ShardStats {
	st := ShardStats{Objects: len(s.objects)}
	for e := s.lru.Front(); e != nil; e = e.Next() {
		base := e.Value.(*registryEntry).obj.Base()
		if base.NumRef() > 0 {
			st.Pinned++
		}
		if base.IsReplicated() {
			st.Replicated++
		}
		if base.NumClientLeases() > 0 {
			st.Leased++
		}
		if base.NumWaiters() > 0 {
			st.Waiting++
		}
	}
	return st
}

func (st *ShardStats) Add(other ShardStats) {
	st.Objects += other.Objects
	st.Pinned += other.Pinned
	st.Replicated += other.Replicated
	st.Leased += other.Leased
	st.Waiting += other.Waiting
}
