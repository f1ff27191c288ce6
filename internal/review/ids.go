package review

import (
	"sync"
	"time"
)

type IDSource interface {
	Next() int64
}

// TimestampIDs hands out millisecond timestamps. Two calls inside the same
// millisecond get consecutive values, so ids stay unique and increasing.
type TimestampIDs struct {
	now  func() time.Time
	mu   sync.Mutex
	last int64
}

func NewTimestampIDs(now func() time.Time) *TimestampIDs {
	if now == nil {
		now = time.Now
	}
	return &TimestampIDs{now: now}
}

func (t *TimestampIDs) Next() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.now().UnixMilli()
	if id <= t.last {
		id = t.last + 1
	}
	t.last = id
	return id
}
