package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"GeoSentry/internal/domain/models"
	"GeoSentry/pkg/cache"
	"GeoSentry/pkg/config"
)

// captureCache records Set calls; the embedded Service covers the rest of the
// interface.
type captureCache struct {
	cache.Service
	keys []string
	ttls []time.Duration
	err  error
}

func (c *captureCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.keys = append(c.keys, key)
	c.ttls = append(c.ttls, ttl)
	return c.err
}

func testConfig(capacity int) *config.Config {
	cfg := &config.Config{}
	cfg.Engine.HistoryCapacity = capacity
	cfg.Engine.MirrorTTL = time.Hour
	return cfg
}

func event(subject string, ts time.Time) models.LocationEvent {
	return models.LocationEvent{
		SubjectID: subject,
		Latitude:  28.6315,
		Longitude: 77.2167,
		Timestamp: ts,
	}
}

func TestRecordEvictsOldest(t *testing.T) {
	store := NewStore(testConfig(3), nil, nil)
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		store.Record(context.Background(), event("user-1", base.Add(time.Duration(i)*time.Minute)))
	}

	got := store.Recent("user-1", 0)
	if len(got) != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("expected oldest retained event at +2m, got %v", got[0].Timestamp)
	}
	if !got[2].Timestamp.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("expected newest retained event at +4m, got %v", got[2].Timestamp)
	}
}

func TestRecordOutOfOrder(t *testing.T) {
	store := NewStore(testConfig(10), nil, nil)
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	if out := store.Record(context.Background(), event("user-1", base)); out {
		t.Errorf("first event should not be out of order")
	}
	if out := store.Record(context.Background(), event("user-1", base.Add(time.Minute))); out {
		t.Errorf("later event should not be out of order")
	}
	if out := store.Record(context.Background(), event("user-1", base.Add(-time.Minute))); !out {
		t.Errorf("earlier event should be flagged out of order")
	}

	// Out-of-order events are still retained.
	if n := store.Count("user-1"); n != 3 {
		t.Errorf("expected 3 events retained, got %d", n)
	}
}

func TestRecentLimitsAndCopies(t *testing.T) {
	store := NewStore(testConfig(10), nil, nil)
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		store.Record(context.Background(), event("user-1", base.Add(time.Duration(i)*time.Second)))
	}

	got := store.Recent("user-1", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if !got[1].Timestamp.Equal(base.Add(4 * time.Second)) {
		t.Errorf("expected newest event last, got %v", got[1].Timestamp)
	}

	// Mutating the returned slice must not affect the store.
	got[0].SubjectID = "mutated"
	fresh := store.Recent("user-1", 2)
	if fresh[0].SubjectID != "user-1" {
		t.Errorf("returned slice aliases internal storage")
	}
}

func TestRecentUnknownSubject(t *testing.T) {
	store := NewStore(testConfig(10), nil, nil)
	if got := store.Recent("nobody", 5); len(got) != 0 {
		t.Errorf("expected empty history, got %d events", len(got))
	}
}

func TestMirrorKeyAndTTL(t *testing.T) {
	mirror := &captureCache{}
	store := NewStore(testConfig(10), mirror, nil)

	store.Record(context.Background(), event("user-1", time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)))

	if len(mirror.keys) != 1 || mirror.keys[0] != "history:user-1" {
		t.Errorf("unexpected mirror keys %v", mirror.keys)
	}
	if len(mirror.ttls) != 1 || mirror.ttls[0] != time.Hour {
		t.Errorf("unexpected mirror ttls %v", mirror.ttls)
	}
}

func TestMirrorFailureNonFatal(t *testing.T) {
	mirror := &captureCache{err: errors.New("redis down")}
	store := NewStore(testConfig(10), mirror, nil)

	store.Record(context.Background(), event("user-1", time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)))

	if n := store.Count("user-1"); n != 1 {
		t.Errorf("mirror failure must not drop the event, got %d retained", n)
	}
}

func TestConcurrentSubjectsIsolated(t *testing.T) {
	store := NewStore(testConfig(100), nil, nil)
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for s := 0; s < 8; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			subject := fmt.Sprintf("user-%d", s)
			for i := 0; i < 50; i++ {
				store.Record(context.Background(), event(subject, base.Add(time.Duration(i)*time.Second)))
			}
		}(s)
	}
	wg.Wait()

	for s := 0; s < 8; s++ {
		subject := fmt.Sprintf("user-%d", s)
		if n := store.Count(subject); n != 50 {
			t.Errorf("%s: expected 50 events, got %d", subject, n)
		}
	}
}
