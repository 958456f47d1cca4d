package cache

import (
	"github.com/cubefs/cubefs/blobstore/util/log"
)

type (
	// Continuation resumes work that was parked on an object.
	Continuation interface {
		Finish(err error)
	}

	ContinuationFunc func(err error)

	waiter struct {
		mask uint64
		c    Continuation
	}
)

func (f ContinuationFunc) Finish(err error) { f(err) }

// FinishAll runs every continuation in order.
func FinishAll(ls []Continuation, err error) {
	for _, c := range ls {
		c.Finish(err)
	}
}

func (o *Object) NumWaiters() int { return len(o.waiters) }

// IsWaiterFor reports whether any waiter shares a bit with mask.
func (o *Object) IsWaiterFor(mask uint64) bool {
	for _, w := range o.waiters {
		if w.mask&mask != 0 {
			return true
		}
	}
	return false
}

// AddWaiter parks c until an event in mask fires. Waiters stay registered
// until taken, there is no timeout.
func (o *Object) AddWaiter(mask uint64, c Continuation) {
	if mask == 0 {
		log.Panicf("add waiter with empty mask on %s", o.describe())
	}
	if len(o.waiters) == 0 {
		o.Pin(PinWaiter)
	}
	o.waiters = append(o.waiters, waiter{mask: mask, c: c})
	log.Debugf("add waiter %x %T on %s", mask, c, o.describe())
}

// TakeWaiters removes and returns, in registration order, every waiter
// whose mask shares a bit with mask.
func (o *Object) TakeWaiters(mask uint64) []Continuation {
	if len(o.waiters) == 0 {
		return nil
	}

	var taken []Continuation
	kept := o.waiters[:0]
	for _, w := range o.waiters {
		if w.mask&mask != 0 {
			taken = append(taken, w.c)
			log.Debugf("take waiter mask %x took %T tag %x on %s", mask, w.c, w.mask, o.describe())
			continue
		}
		kept = append(kept, w)
	}
	for i := len(kept); i < len(o.waiters); i++ {
		o.waiters[i] = waiter{}
	}
	o.waiters = kept

	if len(o.waiters) == 0 {
		o.waiters = nil
		o.Unpin(PinWaiter)
	}
	return taken
}

// FinishWaiters takes the waiters matching mask and finishes them with err.
func (o *Object) FinishWaiters(mask uint64, err error) {
	FinishAll(o.TakeWaiters(mask), err)
}
