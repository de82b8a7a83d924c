package playback

import "sync"

type jobKind int

const (
	jobPlaybackInfo jobKind = iota
	jobTimelineProperties
	jobMediaProperties
	numJobKinds
)

func (k jobKind) String() string {
	switch k {
	case jobPlaybackInfo:
		return "playbackInfo"
	case jobTimelineProperties:
		return "timelineProperties"
	case jobMediaProperties:
		return "mediaProperties"
	default:
		return "unknown"
	}
}

// jobQueue is a FIFO holding at most one pending job per kind. A handler always reads the
// latest OS state, so a second notification arriving before the first is handled adds
// nothing.
type jobQueue struct {
	mu      sync.Mutex
	pending []jobKind
	queued  [numJobKinds]bool
	wake    chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{wake: make(chan struct{}, 1)}
}

// push never blocks, so it is safe to call from an OS notification.
func (q *jobQueue) push(k jobKind) {
	q.mu.Lock()
	if q.queued[k] {
		q.mu.Unlock()
		return
	}
	q.queued[k] = true
	q.pending = append(q.pending, k)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *jobQueue) pop() (jobKind, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return 0, false
	}
	k := q.pending[0]
	q.pending = q.pending[1:]
	q.queued[k] = false
	return k, true
}
