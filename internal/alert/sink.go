package alert

import (
	"context"
	"sync"

	"GeoSentry/internal/domain/models"
	"GeoSentry/pkg/kafka"
	"GeoSentry/pkg/logger"
)

const recentRingSize = 100

// Sink delivers alerts to Kafka and keeps a bounded in-memory ring of recent
// alerts for the query surface. The producer may be nil, in which case only
// the ring is maintained.
type Sink struct {
	producer *kafka.Producer
	log      *logger.Logger

	mu     sync.RWMutex
	recent []models.Alert
	next   int
	filled bool
}

func NewSink(producer *kafka.Producer, log *logger.Logger) *Sink {
	return &Sink{
		producer: producer,
		log:      log,
		recent:   make([]models.Alert, recentRingSize),
	}
}

// Publish records the alert in the ring and forwards it to Kafka.
// Kafka failures are logged; the alert still counts as delivered locally.
func (s *Sink) Publish(ctx context.Context, alert *models.Alert) error {
	s.mu.Lock()
	s.recent[s.next] = *alert
	s.next++
	if s.next == recentRingSize {
		s.next = 0
		s.filled = true
	}
	s.mu.Unlock()

	if s.producer == nil {
		return nil
	}
	if err := s.producer.Publish(ctx, alert.SubjectID, alert); err != nil {
		if s.log != nil {
			s.log.Warn("alert publish failed",
				logger.String("alert_id", alert.ID),
				logger.Error(err))
		}
		return err
	}
	return nil
}

// Recent returns up to n alerts, newest first.
func (s *Sink) Recent(n int) []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := s.next
	if s.filled {
		size = recentRingSize
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]models.Alert, 0, n)
	for i := 0; i < n; i++ {
		idx := (s.next - 1 - i + recentRingSize) % recentRingSize
		out = append(out, s.recent[idx])
	}
	return out
}

func (s *Sink) Close() error {
	if s.producer == nil {
		return nil
	}
	return s.producer.Close()
}
