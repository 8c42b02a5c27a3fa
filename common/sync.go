package common

import (
	"sync/atomic"
)

type AtomicBool int32

func (b *AtomicBool) IsSet() bool { return atomic.LoadInt32((*int32)(b)) != 0 }
func (b *AtomicBool) SetTrue()    { atomic.StoreInt32((*int32)(b), 1) }
func (b *AtomicBool) SetFalse()   { atomic.StoreInt32((*int32)(b), 0) }

// MonotonicInt64 is an int64 that only moves forward, except for an explicit
// Poison which pins it to a negative sentinel for good.
type MonotonicInt64 struct {
	v        atomic.Int64
	poisoned AtomicBool
}

// Load returns the current value.
func (m *MonotonicInt64) Load() int64 {
	return m.v.Load()
}

// Advance stores v if it is larger than the current value and reports whether
// it did. Once poisoned, Advance never succeeds.
func (m *MonotonicInt64) Advance(v int64) bool {
	for {
		if m.poisoned.IsSet() {
			return false
		}
		cur := m.v.Load()
		if v <= cur {
			return false
		}
		if m.v.CompareAndSwap(cur, v) {
			return true
		}
	}
}

// Poison stores the negative sentinel and blocks further advances.
func (m *MonotonicInt64) Poison(sentinel int64) {
	m.poisoned.SetTrue()
	m.v.Store(sentinel)
}

// Poisoned reports whether Poison has been called.
func (m *MonotonicInt64) Poisoned() bool {
	return m.poisoned.IsSet()
}
