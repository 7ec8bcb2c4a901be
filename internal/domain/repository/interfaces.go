package repository

import (
	"context"

	"GeoSentry/internal/domain/models"
)

// CrimeIntel answers location-intelligence lookups. Implementations must be
// fast or timeout-bounded; callers fall back to conservative defaults when a
// lookup fails.
type CrimeIntel interface {
	// CrimeDensity returns the 0-1 crime density at a coordinate.
	CrimeDensity(ctx context.Context, lat, lng float64) (float64, error)

	// NearbyFrauds returns the count of recent fraud incidents within
	// radiusMeters of the coordinate.
	NearbyFrauds(ctx context.Context, lat, lng, radiusMeters float64) (int, error)

	// GeofenceIncidents returns the count of recent incidents attributed to
	// the fence.
	GeofenceIncidents(ctx context.Context, fence models.Geofence) (int, error)
}

// PresenceTracker tracks which subjects are concurrently observed at the same
// coordinates.
type PresenceTracker interface {
	// Observe records a subject at a coordinate.
	Observe(ctx context.Context, subjectID string, lat, lng float64) error

	// ConcurrentSubjects returns how many other subjects are currently at the
	// same coordinates, excluding the given subject.
	ConcurrentSubjects(ctx context.Context, lat, lng float64, exclude string) (int, error)
}

// AlertSink receives generated alerts for delivery. Delivery is best-effort;
// failures are logged, never fatal to event processing.
type AlertSink interface {
	Publish(ctx context.Context, alert *models.Alert) error
	Recent(n int) []models.Alert
	Close() error
}

// Metrics records engine telemetry.
type Metrics interface {
	RecordEventProcessed(sourceApp string)
	RecordAlert(kind, severity string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordQueueDepth(n int)
	RecordRiskScore(level string, score float64)
}
