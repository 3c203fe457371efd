package transform

import (
	"sync"
	"sync/atomic"
)

// TransformCloser owns the status and shutdown channels of a transform and
// guarantees they are closed exactly once.
type TransformCloser struct {
	closed       int32 // 0 = open; 1 = closed.
	mu           sync.Mutex
	chanStatus   chan TransformStatus
	chanShutdown chan error
}

func NewTransformCloser(chanStatus chan TransformStatus, chanShutdown chan error) *TransformCloser {
	return &TransformCloser{chanStatus: chanStatus, chanShutdown: chanShutdown}
}

// CloseChannels sends statusToSend (when non-nil) then closes both channels.
// Calls after the first are no-ops.
func (c *TransformCloser) CloseChannels(statusToSend *TransformStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if atomic.LoadInt32(&c.closed) != 0 { // if the channels were closed already...
		return
	}
	if statusToSend != nil { // if we have a final status to send...
		c.chanStatus <- *statusToSend
	}
	close(c.chanStatus) // causes the status consumer goroutine to exit.
	close(c.chanShutdown)
	atomic.StoreInt32(&c.closed, 1)
}

// ChannelsAreOpen reports whether CloseChannels has not run yet.
func (c *TransformCloser) ChannelsAreOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return atomic.LoadInt32(&c.closed) == 0
}
