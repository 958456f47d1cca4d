package cache

import (
	"github.com/cubefs/cubefs/blobstore/util/log"
)

// Pinner is an opaque token naming who holds an auth pin. It is only
// compared, never dereferenced.
type Pinner uint64

func (o *Object) NumAuthPins() int { return o.authPins }

// AuthPin keeps the object from being frozen or migrated while who works on it.
// Callers check CanAuthPin first.
func (o *Object) AuthPin(who Pinner) {
	if o.authPins == 0 {
		o.Pin(PinAuthPin)
	}
	o.authPins++
	if o.refDebug {
		o.authPinSet[who]++
	}
}

func (o *Object) AuthUnpin(who Pinner) {
	if o.authPins == 0 || (o.refDebug && o.authPinSet[who] == 0) {
		log.Panicf("bad auth unpin by %d on %s: %d auth pins", who, o.describe(), o.authPins)
	}
	o.authPins--
	if o.refDebug {
		if o.authPinSet[who]--; o.authPinSet[who] == 0 {
			delete(o.authPinSet, who)
		}
	}
	if o.authPins == 0 {
		o.Unpin(PinAuthPin)
	}
}

// IsAuthPinnedBy is only meaningful with ref debugging on.
func (o *Object) IsAuthPinnedBy(who Pinner) bool {
	return o.authPinSet[who] > 0
}
