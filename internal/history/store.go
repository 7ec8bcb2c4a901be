// Package history keeps the authoritative in-memory per-subject location
// windows. Redis holds a best-effort read mirror for external consumers.
package history

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"GeoSentry/internal/domain/models"
	"GeoSentry/pkg/cache"
	"GeoSentry/pkg/config"
	"GeoSentry/pkg/logger"
)

const shardCount = 16

// Store holds bounded location histories keyed by subject. Each subject keeps
// at most the configured capacity of events, oldest evicted first.
type Store struct {
	shards    [shardCount]*shard
	capacity  int
	cache     cache.Service
	mirrorTTL time.Duration
	log       *logger.Logger
}

type shard struct {
	mu       sync.RWMutex
	subjects map[string][]models.LocationEvent
}

// NewStore creates a Store. cacheSvc may be nil; mirroring is then skipped.
func NewStore(cfg *config.Config, cacheSvc cache.Service, log *logger.Logger) *Store {
	s := &Store{
		capacity:  cfg.Engine.HistoryCapacity,
		cache:     cacheSvc,
		mirrorTTL: cfg.Engine.MirrorTTL,
		log:       log,
	}
	for i := range s.shards {
		s.shards[i] = &shard{subjects: make(map[string][]models.LocationEvent)}
	}
	return s
}

func (s *Store) shardFor(subjectID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(subjectID))
	return s.shards[h.Sum32()%shardCount]
}

// Record appends an event to the subject's history, evicting the oldest entry
// when the window is full. It reports whether the event arrived out of order
// relative to the subject's newest entry; out-of-order events are still
// appended.
func (s *Store) Record(ctx context.Context, event models.LocationEvent) (outOfOrder bool) {
	sh := s.shardFor(event.SubjectID)

	sh.mu.Lock()
	window := sh.subjects[event.SubjectID]
	if n := len(window); n > 0 && event.Timestamp.Before(window[n-1].Timestamp) {
		outOfOrder = true
	}
	window = append(window, event)
	if len(window) > s.capacity {
		window = window[len(window)-s.capacity:]
	}
	sh.subjects[event.SubjectID] = window
	snapshot := make([]models.LocationEvent, len(window))
	copy(snapshot, window)
	sh.mu.Unlock()

	s.mirror(ctx, event.SubjectID, snapshot)
	return outOfOrder
}

// Recent returns up to n of the subject's newest events, oldest first. The
// returned slice is a copy.
func (s *Store) Recent(subjectID string, n int) []models.LocationEvent {
	sh := s.shardFor(subjectID)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	window := sh.subjects[subjectID]
	if n <= 0 || n > len(window) {
		n = len(window)
	}
	out := make([]models.LocationEvent, n)
	copy(out, window[len(window)-n:])
	return out
}

// Count returns how many events are currently retained for the subject.
func (s *Store) Count(subjectID string) int {
	sh := s.shardFor(subjectID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.subjects[subjectID])
}

// mirror writes the subject's current window to the cache. Failures are
// logged and never affect the caller.
func (s *Store) mirror(ctx context.Context, subjectID string, window []models.LocationEvent) {
	if s.cache == nil {
		return
	}
	key := cache.GenerateKey("history", subjectID)
	if err := s.cache.Set(ctx, key, window, s.mirrorTTL); err != nil && s.log != nil {
		s.log.Warn("history mirror write failed",
			logger.String("subject_id", subjectID),
			logger.Error(err))
	}
}
