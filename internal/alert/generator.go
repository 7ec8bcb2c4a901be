// Package alert turns assessments, violations, and movement patterns into
// prioritized alerts and delivers them to the alert sink.
package alert

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

// Alert types.
const (
	TypeHighRiskLocation   = "high_risk_location"
	TypeGeofenceViolation  = "geofence_violation"
	TypeSuspiciousMovement = "suspicious_movement"
	TypeProximityWarning   = "proximity_warning"
)

const proximityRadiusM = 200

// Generator builds and delivers alerts for one processed event. Alerts are
// write-once; duplicates inside the dedup window are suppressed per subject
// and type.
type Generator struct {
	sink     repository.AlertSink
	dedup    *Deduper
	metrics  repository.Metrics
	hotspots []models.Hotspot
	log      *logger.Logger
}

func NewGenerator(cfg *config.Config, sink repository.AlertSink, metrics repository.Metrics, log *logger.Logger) *Generator {
	hotspots := make([]models.Hotspot, 0, len(cfg.Hotspots))
	for _, h := range cfg.Hotspots {
		hotspots = append(hotspots, models.Hotspot{Label: h.Label, Lat: h.Lat, Lng: h.Lng, RecentIncidents: h.RecentIncidents})
	}
	return &Generator{
		sink:     sink,
		dedup:    NewDeduper(cfg.Engine.AlertDedupWindow),
		metrics:  metrics,
		hotspots: hotspots,
		log:      log,
	}
}

// Proximity returns a warning for each hotspot within 200m of the event.
func (g *Generator) Proximity(event *models.LocationEvent) []models.ProximityAlert {
	var alerts []models.ProximityAlert
	for _, h := range g.hotspots {
		dist := geo.DistanceMeters(event.Latitude, event.Longitude, h.Lat, h.Lng)
		if dist > proximityRadiusM {
			continue
		}
		level := models.RiskMedium
		if h.RecentIncidents >= 5 {
			level = models.RiskHigh
		}
		alerts = append(alerts, models.ProximityAlert{
			HotspotLabel:   h.Label,
			RiskLevel:      level,
			Message:        fmt.Sprintf("within %.0fm of fraud hotspot '%s' (%d recent incidents)", dist, h.Label, h.RecentIncidents),
			DistanceMeters: dist,
			Recommendation: "verify transaction through a secondary channel",
		})
	}
	return alerts
}

// Generate builds the real-time alerts for one event and publishes each to
// the sink. Returned alerts include suppressed-by-dedup ones omitted.
func (g *Generator) Generate(ctx context.Context, event *models.LocationEvent, assessment *models.RiskAssessment, pattern *models.MovementPattern, violations []models.GeofenceViolation) []models.Alert {
	var alerts []models.Alert

	if assessment.Level == models.RiskCritical || assessment.Level == models.RiskHigh {
		alerts = append(alerts, models.Alert{
			Type:              TypeHighRiskLocation,
			Severity:          assessment.Level,
			Priority:          riskPriority(assessment.Level),
			Message:           fmt.Sprintf("high risk location activity (score %.0f)", assessment.Score),
			Factors:           assessment.Factors,
			RecommendedAction: recommendedAction(assessment.Level),
		})
	}

	for _, v := range violations {
		alerts = append(alerts, models.Alert{
			Type:              TypeGeofenceViolation,
			Severity:          v.RiskLevel,
			Priority:          fencePriority(v.RiskLevel),
			Message:           v.Message,
			RecommendedAction: "review recent transactions in the zone",
		})
	}

	if pattern.PatternType == models.PatternHighRisk {
		alerts = append(alerts, models.Alert{
			Type:              TypeSuspiciousMovement,
			Severity:          models.RiskHigh,
			Priority:          2,
			Message:           fmt.Sprintf("high risk movement pattern: %v", pattern.Anomalies),
			Factors:           pattern.Anomalies,
			RecommendedAction: "flag subject for manual review",
		})
	}

	out := alerts[:0]
	for _, a := range alerts {
		if !g.dedup.Allow(event.SubjectID + ":" + a.Type) {
			continue
		}
		a.ID = uuid.NewString()
		a.SubjectID = event.SubjectID
		a.Lat = event.Latitude
		a.Lng = event.Longitude
		a.CreatedAt = time.Now().UTC()

		if err := g.sink.Publish(ctx, &a); err != nil && g.metrics != nil {
			g.metrics.RecordError("alert_publish")
		}
		if g.metrics != nil {
			g.metrics.RecordAlert(a.Type, a.Severity)
		}
		out = append(out, a)
	}
	return out
}

// Recommendations summarizes follow-up actions for the track response.
func Recommendations(assessment *models.RiskAssessment, pattern *models.MovementPattern, violations []models.GeofenceViolation, proximity []models.ProximityAlert) []string {
	var recs []string

	switch assessment.Level {
	case models.RiskCritical:
		recs = append(recs, "deploy patrol units to the area")
		recs = append(recs, "freeze transaction monitoring pending identity verification")
	case models.RiskHigh:
		recs = append(recs, "increase monitoring and require additional authentication")
	case models.RiskMedium:
		recs = append(recs, "monitor account activity closely")
	}
	if assessment.ImpossibleTravel {
		recs = append(recs, "verify device integrity, possible location spoofing")
	}
	if pattern.PatternType == models.PatternHighRisk {
		recs = append(recs, "escalate movement pattern to fraud operations")
	}
	if len(violations) > 0 {
		recs = append(recs, "notify subject of elevated-risk zone entry")
	}
	if len(proximity) > 0 {
		recs = append(recs, "suggest alternative ATM locations")
	}
	if len(recs) == 0 {
		recs = append(recs, "continue standard monitoring")
	}
	return recs
}

func recommendedAction(level string) string {
	if level == models.RiskCritical {
		return "deploy patrol units and freeze transaction monitoring"
	}
	return "increase monitoring"
}

func riskPriority(level string) int {
	if level == models.RiskCritical {
		return 1
	}
	return 2
}

func fencePriority(riskLevel string) int {
	switch riskLevel {
	case models.RiskVeryHigh:
		return 1
	case models.RiskHigh:
		return 2
	case models.RiskMedium:
		return 3
	default:
		return 4
	}
}
