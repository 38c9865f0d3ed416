package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PendingMessage is an outbound message buffered while the session was not
// Ready. Ordering is FIFO; entries are never dropped silently.
type PendingMessage struct {
	ID          string
	ChannelName string
	Content     string
	QueuedAt    time.Time
}

// Queue buffers sends made while disconnected for replay on reconnect.
// Unbounded, no deduplication: the same content enqueued twice is delivered
// twice.
type Queue struct {
	mu    sync.Mutex
	items []PendingMessage
}

// NewQueue creates an empty pending queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a new pending message to the tail and returns it.
func (q *Queue) Enqueue(channelName, content string) PendingMessage {
	msg := PendingMessage{
		ID:          uuid.New().String(),
		ChannelName: channelName,
		Content:     content,
		QueuedAt:    time.Now(),
	}
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
	return msg
}

// Requeue re-appends a message that failed delivery during a drain. The
// original ID and queued-at time are preserved.
func (q *Queue) Requeue(msg PendingMessage) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
}

// TakeAll snapshots the current contents and clears the live queue. Messages
// enqueued after the snapshot land in the (now empty) live queue and are not
// part of the returned slice.
func (q *Queue) TakeAll() []PendingMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len returns the current number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
