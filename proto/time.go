package proto

import (
	"fmt"
	"time"

	"github.com/cubefs/mdscore/codec"
)

// UTime is a wire timestamp: seconds and nanoseconds since the epoch.
type UTime struct {
	Sec  uint32
	Nsec uint32
}

func UTimeFrom(t time.Time) UTime {
	if t.IsZero() {
		return UTime{}
	}
	return UTime{Sec: uint32(t.Unix()), Nsec: uint32(t.Nanosecond())}
}

func (u UTime) Time() time.Time {
	return time.Unix(int64(u.Sec), int64(u.Nsec))
}

func (u UTime) IsZero() bool {
	return u.Sec == 0 && u.Nsec == 0
}

func (u UTime) Less(than UTime) bool {
	if u.Sec != than.Sec {
		return u.Sec < than.Sec
	}
	return u.Nsec < than.Nsec
}

func (u UTime) After(than UTime) bool {
	return than.Less(u)
}

func (u UTime) String() string {
	return fmt.Sprintf("%d.%06d", u.Sec, u.Nsec/1000)
}

func (u *UTime) Encode(e *codec.Encoder) {
	e.PutU32(u.Sec)
	e.PutU32(u.Nsec)
}

func (u *UTime) Decode(d *codec.Decoder) {
	u.Sec = d.U32()
	u.Nsec = d.U32()
}
