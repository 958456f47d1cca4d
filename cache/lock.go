package cache

import (
	"sort"

	"github.com/cubefs/cubefs/util/btree"

	apierrors "github.com/cubefs/mdscore/errors"
	"github.com/cubefs/mdscore/proto"
)

// lock types, also used as client lease mask bits
const (
	LockDn       = 1 << 0
	LockIVersion = 1 << 1
	LockIFile    = 1 << 2
	LockIAuth    = 1 << 3
	LockILink    = 1 << 4
	LockIDft     = 1 << 5
	LockINest    = 1 << 6
	LockIXattr   = 1 << 7
	LockISnap    = 1 << 8
)

type (
	// Lock is a distributed lock owned by a cache object. The state
	// machine behind it lives outside this package.
	Lock interface {
		Type() int
		Parent() CacheObject
	}

	// LockHooks is how the lock layer reaches into an object. Objects
	// without locks embed NoLocks.
	LockHooks interface {
		GetLock(lockType int) (Lock, error)
		SetObjectInfo(info *proto.ObjectInfo) error
		EncodeLockState(lockType int) ([]byte, error)
		DecodeLockState(lockType int, data []byte) error
		FinishLockWaiters(lockType int, mask uint64, err error) error
		AddLockWaiter(lockType int, mask uint64, c Continuation) error
		IsLockWaiting(lockType int, mask uint64) (bool, error)
		ClearDirtyScattered(lockType int) error
		FinishScatterGatherUpdate(lockType int)
	}

	// NoLocks answers every lock hook with ErrLockUnsupported.
	NoLocks struct{}
)

func (NoLocks) GetLock(int) (Lock, error) {
	return nil, apierrors.ErrLockUnsupported
}

func (NoLocks) SetObjectInfo(*proto.ObjectInfo) error {
	return apierrors.ErrLockUnsupported
}

func (NoLocks) EncodeLockState(int) ([]byte, error) {
	return nil, apierrors.ErrLockUnsupported
}

func (NoLocks) DecodeLockState(int, []byte) error {
	return apierrors.ErrLockUnsupported
}

func (NoLocks) FinishLockWaiters(int, uint64, error) error {
	return apierrors.ErrLockUnsupported
}

func (NoLocks) AddLockWaiter(int, uint64, Continuation) error {
	return apierrors.ErrLockUnsupported
}

func (NoLocks) IsLockWaiting(int, uint64) (bool, error) {
	return false, apierrors.ErrLockUnsupported
}

func (NoLocks) ClearDirtyScattered(int) error {
	return apierrors.ErrLockUnsupported
}

// FinishScatterGatherUpdate has nothing to finish without locks.
func (NoLocks) FinishScatterGatherUpdate(int) {}

// SortForLocking orders objs the way locks must be taken.
func SortForLocking(objs []CacheObject) {
	sort.SliceStable(objs, func(i, j int) bool { return objs[i].IsLessThan(objs[j]) })
}

type lockItem struct {
	obj CacheObject
}

func (i *lockItem) Less(than btree.Item) bool {
	return i.obj.IsLessThan(than.(*lockItem).obj)
}

func (i *lockItem) Copy() btree.Item {
	return &lockItem{obj: i.obj}
}

// LockSet collects the objects a request is about to lock and hands them
// back in acquisition order, so two requests never wait on each other.
type LockSet struct {
	tree *btree.BTree
}

func NewLockSet() *LockSet {
	return &LockSet{tree: btree.New(8)}
}

// Add returns false if obj is already in the set.
func (s *LockSet) Add(obj CacheObject) bool {
	if s.tree.Has(&lockItem{obj: obj}) {
		return false
	}
	s.tree.ReplaceOrInsert(&lockItem{obj: obj})
	return true
}

func (s *LockSet) Remove(obj CacheObject) bool {
	return s.tree.Delete(&lockItem{obj: obj}) != nil
}

func (s *LockSet) Has(obj CacheObject) bool {
	return s.tree.Has(&lockItem{obj: obj})
}

func (s *LockSet) Len() int {
	return s.tree.Len()
}

// Ascend visits objects in acquisition order until fn returns false.
func (s *LockSet) Ascend(fn func(obj CacheObject) bool) {
	s.tree.Ascend(func(i btree.Item) bool {
		return fn(i.(*lockItem).obj)
	})
}

func (s *LockSet) Objects() []CacheObject {
	ret := make([]CacheObject, 0, s.Len())
	s.Ascend(func(obj CacheObject) bool {
		ret = append(ret, obj)
		return true
	})
	return ret
}
