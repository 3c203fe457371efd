package helper

import "sync/atomic"

// AtomBool is a bool safe for concurrent use via sync/atomic.
// The zero value is false and ready to use.
type AtomBool struct {
	flag int32
}

// Set stores the given bool value.
func (b *AtomBool) Set(value bool) {
	var i int32
	if value {
		i = 1
	}
	atomic.StoreInt32(&b.flag, i)
}

// Get returns the stored bool value.
func (b *AtomBool) Get() bool {
	return atomic.LoadInt32(&b.flag) != 0
}
