// Package risk computes per-event composite risk assessments.
package risk

import (
	"context"
	"time"

	"GeoSentry/internal/domain/models"
	"GeoSentry/internal/domain/repository"
	"GeoSentry/internal/movement"
	"GeoSentry/pkg/config"
	"GeoSentry/pkg/geo"
	"GeoSentry/pkg/logger"
	"GeoSentry/pkg/util"
)

// Risk factor labels attached to assessments.
const (
	FactorHighCrimeArea    = "high_crime_area"
	FactorUnusualHour      = "unusual_hour_activity"
	FactorPoorAccuracy     = "poor_gps_accuracy"
	FactorImpossibleTravel = "impossible_travel_detected"
	FactorNearbyFrauds     = "nearby_fraud_incidents"
	FactorConcurrent       = "high_concurrent_activity"
)

const atmProximityM = 50

// Scorer combines location intelligence, movement analysis, and presence data
// into a bounded additive risk score. Deterministic for identical inputs.
type Scorer struct {
	intel    repository.CrimeIntel
	presence repository.PresenceTracker
	analyzer *movement.Analyzer

	hotspots  []models.Hotspot
	districts []models.District

	densityMin    float64
	accuracyMaxM  float64
	fraudRadiusM  float64
	concurrentMin int
	lookupTimeout time.Duration

	log *logger.Logger
}

func NewScorer(cfg *config.Config, intel repository.CrimeIntel, presence repository.PresenceTracker, analyzer *movement.Analyzer, log *logger.Logger) *Scorer {
	hotspots := make([]models.Hotspot, 0, len(cfg.Hotspots))
	for _, h := range cfg.Hotspots {
		hotspots = append(hotspots, models.Hotspot{Label: h.Label, Lat: h.Lat, Lng: h.Lng, RecentIncidents: h.RecentIncidents})
	}
	districts := make([]models.District, 0, len(cfg.Districts))
	for _, d := range cfg.Districts {
		districts = append(districts, models.District{Name: d.Name, Lat: d.Lat, Lng: d.Lng, RadiusMeters: d.RadiusMeters, Kind: d.Kind})
	}
	return &Scorer{
		intel:         intel,
		presence:      presence,
		analyzer:      analyzer,
		hotspots:      hotspots,
		districts:     districts,
		densityMin:    cfg.Engine.CrimeDensityMin,
		accuracyMaxM:  cfg.Engine.AccuracyMaxM,
		fraudRadiusM:  cfg.Engine.NearbyFraudRadius,
		concurrentMin: cfg.Engine.ConcurrentMin,
		lookupTimeout: cfg.Engine.LookupTimeout,
		log:           log,
	}
}

// Score builds the assessment for one event. Collaborator lookups are bounded
// by the configured timeout; a failed lookup contributes nothing to the score
// rather than blocking or inventing risk.
func (s *Scorer) Score(ctx context.Context, event *models.LocationEvent) models.RiskAssessment {
	assessment := models.RiskAssessment{
		CrimeDensity:      s.crimeDensity(ctx, event),
		NearbyFrauds:      s.nearbyFrauds(ctx, event),
		ImpossibleTravel:  s.analyzer.ImpossibleTravel(event.SubjectID),
		IsATMLocation:     s.nearATM(event),
		IsBankingDistrict: s.inDistrict(event, "banking"),
		IsTechHub:         s.inDistrict(event, "tech"),
	}

	score := 0.0

	if assessment.CrimeDensity > s.densityMin {
		score += 30
		assessment.Factors = append(assessment.Factors, FactorHighCrimeArea)
	}
	if util.IsNightHour(event.Timestamp.Hour()) {
		score += 20
		assessment.Factors = append(assessment.Factors, FactorUnusualHour)
	}
	if event.AccuracyMeters > s.accuracyMaxM {
		score += 15
		assessment.Factors = append(assessment.Factors, FactorPoorAccuracy)
	}
	if assessment.ImpossibleTravel {
		score += 40
		assessment.Factors = append(assessment.Factors, FactorImpossibleTravel)
	}
	if assessment.NearbyFrauds > 2 {
		score += float64(10 * assessment.NearbyFrauds)
		assessment.Factors = append(assessment.Factors, FactorNearbyFrauds)
	}
	if concurrent := s.concurrent(ctx, event); concurrent >= s.concurrentMin {
		score += 25
		assessment.Factors = append(assessment.Factors, FactorConcurrent)
	}

	if score > 100 {
		score = 100
	}
	assessment.Score = score
	assessment.Level = LevelFor(score)
	return assessment
}

// LevelFor maps a 0-100 score to its risk level.
func LevelFor(score float64) string {
	switch {
	case score >= 70:
		return models.RiskCritical
	case score >= 50:
		return models.RiskHigh
	case score >= 30:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func (s *Scorer) crimeDensity(ctx context.Context, event *models.LocationEvent) float64 {
	if s.intel == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	density, err := s.intel.CrimeDensity(ctx, event.Latitude, event.Longitude)
	if err != nil {
		s.warn("crime density lookup failed", event, err)
		return 0
	}
	return density
}

func (s *Scorer) nearbyFrauds(ctx context.Context, event *models.LocationEvent) int {
	if s.intel == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	n, err := s.intel.NearbyFrauds(ctx, event.Latitude, event.Longitude, s.fraudRadiusM)
	if err != nil {
		s.warn("nearby fraud lookup failed", event, err)
		return 0
	}
	return n
}

func (s *Scorer) concurrent(ctx context.Context, event *models.LocationEvent) int {
	if s.presence == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	n, err := s.presence.ConcurrentSubjects(ctx, event.Latitude, event.Longitude, event.SubjectID)
	if err != nil {
		s.warn("presence lookup failed", event, err)
		return 0
	}
	return n
}

func (s *Scorer) nearATM(event *models.LocationEvent) bool {
	for _, h := range s.hotspots {
		if geo.DistanceMeters(event.Latitude, event.Longitude, h.Lat, h.Lng) <= atmProximityM {
			return true
		}
	}
	return false
}

func (s *Scorer) inDistrict(event *models.LocationEvent, kind string) bool {
	for _, d := range s.districts {
		if d.Kind != kind {
			continue
		}
		if geo.DistanceMeters(event.Latitude, event.Longitude, d.Lat, d.Lng) <= d.RadiusMeters {
			return true
		}
	}
	return false
}

func (s *Scorer) warn(msg string, event *models.LocationEvent, err error) {
	if s.log == nil {
		return
	}
	s.log.Warn(msg, logger.String("subject_id", event.SubjectID), logger.Error(err))
}
