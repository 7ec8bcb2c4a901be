// Package intel provides the reference location-intelligence backends: crime
// density and incident counts derived from configured hotspots plus the live
// incident window, and in-memory presence tracking.
package intel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"GeoSentry/internal/aggregator"
	"GeoSentry/internal/domain/models"
	"GeoSentry/pkg/config"
	"GeoSentry/pkg/geo"
)

// Service implements repository.CrimeIntel from static hotspot data and the
// aggregator's retained incident window.
type Service struct {
	hotspots  []models.Hotspot
	processor *aggregator.Processor
}

func NewService(cfg *config.Config, processor *aggregator.Processor) *Service {
	hotspots := make([]models.Hotspot, 0, len(cfg.Hotspots))
	for _, h := range cfg.Hotspots {
		hotspots = append(hotspots, models.Hotspot{Label: h.Label, Lat: h.Lat, Lng: h.Lng, RecentIncidents: h.RecentIncidents})
	}
	return &Service{hotspots: hotspots, processor: processor}
}

// CrimeDensity scores a coordinate by distance to the nearest known hotspot.
func (s *Service) CrimeDensity(ctx context.Context, lat, lng float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	nearest := -1.0
	for _, h := range s.hotspots {
		d := geo.DistanceKM(lat, lng, h.Lat, h.Lng)
		if nearest < 0 || d < nearest {
			nearest = d
		}
	}
	switch {
	case nearest < 0:
		return 0.2, nil
	case nearest < 1:
		return 0.9, nil
	case nearest < 2:
		return 0.7, nil
	case nearest < 5:
		return 0.5, nil
	default:
		return 0.2, nil
	}
}

// NearbyFrauds counts live window incidents plus static hotspot incident
// history within radiusMeters.
func (s *Service) NearbyFrauds(ctx context.Context, lat, lng, radiusMeters float64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	if s.processor != nil {
		n += s.processor.IncidentsNear(lat, lng, radiusMeters)
	}
	for _, h := range s.hotspots {
		if geo.DistanceMeters(lat, lng, h.Lat, h.Lng) <= radiusMeters {
			n += h.RecentIncidents
		}
	}
	return n, nil
}

// GeofenceIncidents counts incidents attributable to the fence area.
func (s *Service) GeofenceIncidents(ctx context.Context, fence models.Geofence) (int, error) {
	return s.NearbyFrauds(ctx, fence.Lat, fence.Lng, fence.RadiusMeters)
}

const (
	presenceTTL   = 5 * time.Minute
	cellPrecision = 1e4 // ~11m cells
)

// Presence is the in-memory PresenceTracker. Subjects expire after five
// minutes without an observation.
type Presence struct {
	mu    sync.Mutex
	now   func() time.Time
	cells map[string]map[string]time.Time
}

func NewPresence() *Presence {
	return &Presence{now: time.Now, cells: make(map[string]map[string]time.Time)}
}

func cellKey(lat, lng float64) string {
	return fmt.Sprintf("%d:%d", int64(lat*cellPrecision), int64(lng*cellPrecision))
}

func (p *Presence) Observe(ctx context.Context, subjectID string, lat, lng float64) error {
	key := cellKey(lat, lng)
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	cell, ok := p.cells[key]
	if !ok {
		cell = make(map[string]time.Time)
		p.cells[key] = cell
	}
	cell[subjectID] = now

	p.sweep(now)
	return nil
}

// sweep drops expired subjects and removes emptied cells so the map stays
// bounded by live presence, not by every cell ever visited.
func (p *Presence) sweep(now time.Time) {
	for key, cell := range p.cells {
		for subject, seen := range cell {
			if now.Sub(seen) > presenceTTL {
				delete(cell, subject)
			}
		}
		if len(cell) == 0 {
			delete(p.cells, key)
		}
	}
}

func (p *Presence) ConcurrentSubjects(ctx context.Context, lat, lng float64, exclude string) (int, error) {
	key := cellKey(lat, lng)
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for subject, seen := range p.cells[key] {
		if subject == exclude {
			continue
		}
		if now.Sub(seen) <= presenceTTL {
			n++
		}
	}
	return n, nil
}
