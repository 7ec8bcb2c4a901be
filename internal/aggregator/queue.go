package aggregator

import (
	"sync"

	"GeoSentry/internal/domain/models"
)

// incidentQueue is a bounded hand-off between incident producers and the
// aggregation cycle. When full, the oldest entry is dropped so ingestion
// never blocks.
type incidentQueue struct {
	mu       sync.Mutex
	buf      []models.IncidentEvent
	capacity int
	dropped  uint64
}

func newIncidentQueue(capacity int) *incidentQueue {
	return &incidentQueue{capacity: capacity}
}

// Push appends an incident, evicting the oldest when at capacity. Reports
// whether an eviction happened.
func (q *incidentQueue) Push(e models.IncidentEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	evicted := false
	if len(q.buf) >= q.capacity {
		q.buf = q.buf[1:]
		q.dropped++
		evicted = true
	}
	q.buf = append(q.buf, e)
	return evicted
}

// Drain removes and returns all queued incidents.
func (q *incidentQueue) Drain() []models.IncidentEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.buf
	q.buf = nil
	return out
}

func (q *incidentQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

func (q *incidentQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
