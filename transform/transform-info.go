package transform

import (
	"sync"
	"time"

	"github.com/martpipe/martpipe/stats"
)

// TransformInfo holds the runtime state of one launched transform, keyed by
// GUID in SafeMapTransformInfo so the web handlers can report on it.
type TransformInfo struct {
	Transform TransformDefinition // TODO: implement transform "name" in TransformInfo{} and TransformDefinition{}
	ChanStop  chan error
	Status    TransformStatus `json:"transformStatus"`
	Stats     stats.StatsFetcher
}

// SafeMapTransformInfo wraps map[string]TransformInfo with locking.
type SafeMapTransformInfo struct {
	sync.RWMutex
	Internal map[string]TransformInfo
}

func NewSafeMapTransformInfo() *SafeMapTransformInfo {
	return &SafeMapTransformInfo{Internal: make(map[string]TransformInfo)}
}

func (t *SafeMapTransformInfo) Load(key string) (ti TransformInfo, ok bool) {
	t.RLock()
	ti, ok = t.Internal[key]
	t.RUnlock()
	return
}

func (t *SafeMapTransformInfo) Store(key string, value TransformInfo) {
	t.Lock()
	t.Internal[key] = value
	t.Unlock()
}

func (t *SafeMapTransformInfo) Delete(key string) {
	t.Lock()
	delete(t.Internal, key)
	t.Unlock()
}

// ConsumeTransformStatusChanges applies statuses received on chanStatus to
// the entry for transformGuid until the channel is closed, stamping start and
// end times as the transform moves through its lifecycle.
func (t *SafeMapTransformInfo) ConsumeTransformStatusChanges(transformGuid string, chanStatus chan TransformStatus) {
	for status := range chanStatus {
		ti, _ := t.Load(transformGuid)
		switch status.Status {
		case StatusRunning:
			ti.Status.Status = status.Status
			ti.Status.StartTime = time.Now()
		case StatusComplete, StatusShutdown:
			ti.Status.Status = status.Status
			ti.Status.EndTime = time.Now()
		case StatusCompleteWithError:
			ti.Status.Status = status.Status
			ti.Status.EndTime = time.Now()
			ti.Status.Error = status.Error
		}
		t.Store(transformGuid, ti)
	}
}
