package client

import (
	"github.com/emirpasic/gods/queues/linkedlistqueue"

	"go-bitcoin/internal/reactor"
)

// BroadcastJob is a frame destined for every established peer except
// (optionally) the one that triggered it.
type BroadcastJob struct {
	Frame  []byte
	Except reactor.Token
}

// Broadcaster is a bounded fan-out queue for messages that should reach
// every established peer rather than a single connection - e.g. relaying
// a newly accepted tx to peers other than the one that sent it. This is
// plumbing only: the client decides what to enqueue and when; the
// Broadcaster has no opinion on relay policy.
type Broadcaster struct {
	jobs *linkedlistqueue.Queue
	cap  int
}

// NewBroadcaster builds a Broadcaster that drops the oldest queued job
// once more than capacity jobs are pending, rather than growing unbounded.
func NewBroadcaster(capacity int) *Broadcaster {
	if capacity <= 0 {
		capacity = 256
	}
	return &Broadcaster{jobs: linkedlistqueue.New(), cap: capacity}
}

// Publish queues frame for fan-out to every peer except exceptToken.
func (b *Broadcaster) Publish(frame []byte, exceptToken reactor.Token) {
	if b.jobs.Size() >= b.cap {
		b.jobs.Dequeue()
	}
	b.jobs.Enqueue(BroadcastJob{Frame: frame, Except: exceptToken})
}

// Drain removes and returns every queued job, in publish order.
func (b *Broadcaster) Drain() []BroadcastJob {
	out := make([]BroadcastJob, 0, b.jobs.Size())
	for !b.jobs.Empty() {
		v, _ := b.jobs.Dequeue()
		out = append(out, v.(BroadcastJob))
	}
	return out
}
