package actions

import (
	"strings"
	"sync"
)

// ConnectionObject names a database object via its logical connection using
// the format <connection>[.<schema>].<object>. The split into connection and
// object halves is computed once on first access.
type ConnectionObject struct {
	ConnectionObject string `errorTxt:"<connection>.[<schema>.]<table or view>" mandatory:"yes"`
	connection       string
	object           string
	done             bool
	mu               sync.Mutex
}

func (c *ConnectionObject) GetConnectionName() string {
	c.splitConnectString()
	return c.connection
}

func (c *ConnectionObject) GetObject() string {
	c.splitConnectString()
	return c.object
}

// splitConnectString populates connection and object from ConnectionObject,
// where object keeps any schema prefix. When there is no "." separator the
// whole string becomes the connection and object is left empty.
func (c *ConnectionObject) splitConnectString() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	if conn, obj, found := strings.Cut(c.ConnectionObject, "."); found && conn != "" {
		c.connection = conn
		c.object = obj
	} else {
		c.connection = c.ConnectionObject
	}
	if c.ConnectionObject != "" { // only cache a split of a populated struct.
		c.done = true
	}
}
