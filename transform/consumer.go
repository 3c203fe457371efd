package transform

import (
	"sync"

	"github.com/martpipe/martpipe/stream"
)

// consumers maps a producing step name to the set of steps consuming its
// output channel, guarded for concurrent step group launches.
type consumers struct {
	sync.RWMutex
	internal map[string]consumer
}

// consumer keys on the requesting step name. Values are pointers since map
// entries can't have their fields assigned in place.
type consumer map[string]*consumerData

type consumerData struct {
	callbackChan chan chan stream.Record // where the requester wants output channels delivered.
	lastSentChan chan stream.Record      // the most recent channel sent to callbackChan.
}

func (c *consumers) Load(key string) (retval consumer) {
	c.RLock()
	retval = c.internal[key]
	c.RUnlock()
	return
}

func (c *consumers) Store(key string, value consumer) {
	c.Lock()
	c.internal[key] = value
	c.Unlock()
}
