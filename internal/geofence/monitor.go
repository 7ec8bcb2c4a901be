// Package geofence checks location events against configured hazard regions.
package geofence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"GeoSentry/internal/domain/models"
	"GeoSentry/internal/domain/repository"
	"GeoSentry/pkg/config"
	"GeoSentry/pkg/geo"
	"GeoSentry/pkg/logger"
)

const violationConfidence = 0.85

// Monitor evaluates events against the configured fences. The fence set is
// fixed at construction; checks are read-only and safe for concurrent use.
type Monitor struct {
	fences        []models.Geofence
	intel         repository.CrimeIntel
	lookupTimeout time.Duration
	log           *logger.Logger
}

func NewMonitor(cfg *config.Config, intel repository.CrimeIntel, log *logger.Logger) *Monitor {
	fences := make([]models.Geofence, 0, len(cfg.Geofences))
	for _, g := range cfg.Geofences {
		fences = append(fences, models.Geofence{
			Name:           g.Name,
			Lat:            g.Lat,
			Lng:            g.Lng,
			RadiusMeters:   g.RadiusMeters,
			RiskLevel:      g.RiskLevel,
			AlertThreshold: g.AlertThreshold,
		})
	}
	return &Monitor{
		fences:        fences,
		intel:         intel,
		lookupTimeout: cfg.Engine.LookupTimeout,
		log:           log,
	}
}

// Fences returns the configured fence set in configuration order.
func (m *Monitor) Fences() []models.Geofence {
	out := make([]models.Geofence, len(m.fences))
	copy(out, m.fences)
	return out
}

// Check returns one violation per fence the event falls inside whose recent
// incident count meets the fence's alert threshold. All fences are evaluated;
// results preserve configuration order. A failed incident lookup counts as
// zero incidents, which suppresses the violation rather than inventing one.
func (m *Monitor) Check(ctx context.Context, event *models.LocationEvent) []models.GeofenceViolation {
	var violations []models.GeofenceViolation

	for _, fence := range m.fences {
		dist := geo.DistanceMeters(event.Latitude, event.Longitude, fence.Lat, fence.Lng)
		if dist > fence.RadiusMeters {
			continue
		}

		incidents := m.incidentCount(ctx, fence)
		if incidents < fence.AlertThreshold {
			continue
		}

		violations = append(violations, models.GeofenceViolation{
			AlertID:        uuid.NewString(),
			FenceName:      fence.Name,
			RiskLevel:      fence.RiskLevel,
			Message:        fmt.Sprintf("subject entered %s risk zone '%s' (%d recent incidents)", fence.RiskLevel, fence.Name, incidents),
			IncidentCount:  incidents,
			DistanceMeters: dist,
			Confidence:     violationConfidence,
		})
	}

	return violations
}

func (m *Monitor) incidentCount(ctx context.Context, fence models.Geofence) int {
	if m.intel == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, m.lookupTimeout)
	defer cancel()

	n, err := m.intel.GeofenceIncidents(ctx, fence)
	if err != nil {
		if m.log != nil {
			m.log.Warn("geofence incident lookup failed",
				logger.String("fence", fence.Name),
				logger.Error(err))
		}
		return 0
	}
	return n
}
