package load

import (
	"time"

	"github.com/cubefs/mdscore/decay"
)

const spreadMax = 4

// Spread estimates how many distinct requesters hit an object by counting
// only requesters missing from a ring of the last few seen.
type Spread struct {
	last  [spreadMax]int64
	p, n  int
	count decay.Counter
}

func NewSpread(rate decay.Rate) *Spread {
	s := &Spread{count: decay.NewCounter(rate)}
	for i := range s.last {
		s.last[i] = -1
	}
	return s
}

// Hit returns the spread unchanged if who is among the recent requesters,
// otherwise admits who, evicting the oldest, and counts a hit. The very
// first requester is admitted without counting.
func (s *Spread) Hit(now time.Time, who int64) float64 {
	for i := 0; i < s.n; i++ {
		if s.last[i] == who {
			return s.count.GetLast()
		}
	}

	s.last[s.p] = who
	s.p++
	if s.n < spreadMax {
		s.n++
	}
	if s.p == spreadMax {
		s.p = 0
	}
	if s.n == 1 {
		return 0
	}
	return s.count.Hit(now)
}

func (s *Spread) Get(now time.Time) float64 {
	return s.count.Get(now)
}
