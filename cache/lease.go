package cache

import (
	"sort"
	"time"

	"github.com/cubefs/cubefs/blobstore/util/log"
)

type (
	ClientID int64

	// ClientLease lets a client cache part of an object's metadata until TTL.
	ClientLease struct {
		Client ClientID
		Mask   int // lock bits leased
		TTL    time.Time

		parent *Object
	}

	// LeaseObserver re-evaluates lock gathers that may have been waiting
	// on a lease that just went away.
	LeaseObserver interface {
		EvalGather(lock Lock)
	}
)

func (l *ClientLease) Parent() *Object { return l.parent }

func (l *ClientLease) Expired(now time.Time) bool {
	return !l.TTL.IsZero() && !now.Before(l.TTL)
}

func (o *Object) NumClientLeases() int { return len(o.clientLeases) }

func (o *Object) ClientLease(client ClientID) (*ClientLease, bool) {
	l, ok := o.clientLeases[client]
	return l, ok
}

func (o *Object) ClientLeaseMask(client ClientID) int {
	if l, ok := o.clientLeases[client]; ok {
		return l.Mask
	}
	return 0
}

// ClientLeases returns the leases ordered by client.
func (o *Object) ClientLeases() []*ClientLease {
	ret := make([]*ClientLease, 0, len(o.clientLeases))
	for _, l := range o.clientLeases {
		ret = append(ret, l)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Client < ret[j].Client })
	return ret
}

// AddClientLease creates or widens the lease of client by mask.
func (o *Object) AddClientLease(client ClientID, mask int) *ClientLease {
	l, ok := o.clientLeases[client]
	if !ok {
		if len(o.clientLeases) == 0 {
			o.Pin(PinClientLease)
		}
		if o.clientLeases == nil {
			o.clientLeases = make(map[ClientID]*ClientLease)
		}
		l = &ClientLease{Client: client, parent: o}
		o.clientLeases[client] = l
	}
	l.Mask |= mask
	return l
}

// RemoveClientLease narrows l by mask and drops it once nothing is left.
// Every lock whose bit was dropped is handed to observer so pending
// gathers can proceed. It returns the mask still leased.
func (o *Object) RemoveClientLease(l *ClientLease, mask int, observer LeaseObserver) int {
	if l.parent != o || o.clientLeases[l.Client] != l {
		log.Panicf("remove client lease: client%d lease does not belong to %s", l.Client, o.describe())
	}

	dropped := l.Mask & mask
	l.Mask &^= mask
	remaining := l.Mask
	if remaining == 0 {
		delete(o.clientLeases, l.Client)
		if len(o.clientLeases) == 0 {
			o.Unpin(PinClientLease)
		}
	}

	if dropped != 0 && observer != nil && o.owner != nil {
		for bit := 1; bit <= dropped && bit > 0; bit <<= 1 {
			if dropped&bit == 0 {
				continue
			}
			lock, err := o.owner.GetLock(bit)
			if err != nil {
				continue
			}
			observer.EvalGather(lock)
		}
	}
	return remaining
}

// ExpireClientLeases drops every lease whose TTL passed and returns them.
func (o *Object) ExpireClientLeases(now time.Time, observer LeaseObserver) []*ClientLease {
	var expired []*ClientLease
	for _, l := range o.ClientLeases() {
		if l.Expired(now) {
			o.RemoveClientLease(l, l.Mask, observer)
			expired = append(expired, l)
		}
	}
	return expired
}
