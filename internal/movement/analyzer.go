// Package movement classifies per-subject movement from retained location
// history.
package movement

import (
	"math"

	"GeoSentry/internal/domain/models"
	"GeoSentry/internal/history"
	"GeoSentry/pkg/config"
	"GeoSentry/pkg/geo"
)

// Anomaly indicator labels.
const (
	AnomalyImpossibleSpeed = "impossible_speed_detected"
	AnomalyErratic         = "erratic_movement"
	AnomalyCircular        = "circular_movement"
	AnomalyATMLoitering    = "atm_loitering"
)

const (
	statsMinPoints   = 3
	patternMinPoints = 5
	circleWindow     = 10
	loiterWindow     = 5
	loiterMinHits    = 3
)

// Analyzer derives movement statistics and anomaly classifications from the
// history store. Stateless; safe for concurrent use.
type Analyzer struct {
	store    *history.Store
	hotspots []models.Hotspot

	maxSpeedMS    float64
	varianceMax   float64
	circleRadiusK float64
	circlePathM   float64
	loiterRadiusM float64
	loiterSeconds float64
}

func NewAnalyzer(cfg *config.Config, store *history.Store) *Analyzer {
	hotspots := make([]models.Hotspot, 0, len(cfg.Hotspots))
	for _, h := range cfg.Hotspots {
		hotspots = append(hotspots, models.Hotspot{
			Label:           h.Label,
			Lat:             h.Lat,
			Lng:             h.Lng,
			RecentIncidents: h.RecentIncidents,
		})
	}
	return &Analyzer{
		store:         store,
		hotspots:      hotspots,
		maxSpeedMS:    cfg.Engine.MaxSpeedMS,
		varianceMax:   cfg.Engine.SpeedVarianceMax,
		circleRadiusK: cfg.Engine.CircleRadiusKM,
		circlePathM:   cfg.Engine.CirclePathM,
		loiterRadiusM: cfg.Engine.LoiterRadiusM,
		loiterSeconds: cfg.Engine.LoiterSeconds,
	}
}

// Analyze recomputes the subject's movement pattern from the current history
// window. Each call supersedes the previous classification.
func (a *Analyzer) Analyze(subjectID string) models.MovementPattern {
	window := a.store.Recent(subjectID, 0)

	pattern := models.MovementPattern{
		SubjectID:   subjectID,
		PatternType: models.PatternInsufficientData,
	}

	if len(window) >= statsMinPoints {
		pattern.Stats = computeStats(window)
	}
	if len(window) < patternMinPoints {
		return pattern
	}

	pattern.PatternType = models.PatternNormal
	speeds := segmentSpeeds(window)

	if maxOf(speeds) > a.maxSpeedMS {
		pattern.Anomalies = append(pattern.Anomalies, AnomalyImpossibleSpeed)
		pattern.RiskScore += 40
		a.escalate(&pattern, models.PatternSuspicious)
	}
	if variance(speeds) > a.varianceMax {
		pattern.Anomalies = append(pattern.Anomalies, AnomalyErratic)
		pattern.RiskScore += 20
		a.escalate(&pattern, models.PatternSuspicious)
	}
	if a.isCircular(window) {
		pattern.Anomalies = append(pattern.Anomalies, AnomalyCircular)
		pattern.RiskScore += 30
		a.escalate(&pattern, models.PatternHighRisk)
	}
	if a.isLoitering(window) {
		pattern.Anomalies = append(pattern.Anomalies, AnomalyATMLoitering)
		pattern.RiskScore += 35
		a.escalate(&pattern, models.PatternHighRisk)
	}

	if pattern.RiskScore > 100 {
		pattern.RiskScore = 100
	}
	return pattern
}

// ImpossibleTravel reports whether the subject's two newest points imply
// movement faster than the physical ceiling. Zero or negative elapsed time
// between distinct points also counts.
func (a *Analyzer) ImpossibleTravel(subjectID string) bool {
	window := a.store.Recent(subjectID, 2)
	if len(window) < 2 {
		return false
	}
	prev, cur := window[0], window[1]

	dist := geo.DistanceMeters(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)
	elapsed := cur.Timestamp.Sub(prev.Timestamp).Seconds()
	if elapsed <= 0 {
		return dist > 0
	}
	return dist/elapsed > a.maxSpeedMS
}

func (a *Analyzer) escalate(p *models.MovementPattern, to string) {
	if models.PatternSeverity(to) > models.PatternSeverity(p.PatternType) {
		p.PatternType = to
	}
}

// isCircular checks whether the newest points cluster tightly around their
// centroid while covering enough path distance to rule out standing still.
func (a *Analyzer) isCircular(window []models.LocationEvent) bool {
	if len(window) < circleWindow {
		return false
	}
	recent := window[len(window)-circleWindow:]

	lats := make([]float64, len(recent))
	lngs := make([]float64, len(recent))
	for i, e := range recent {
		lats[i] = e.Latitude
		lngs[i] = e.Longitude
	}
	cLat, cLng := geo.Centroid(lats, lngs)

	for _, e := range recent {
		if geo.DistanceKM(e.Latitude, e.Longitude, cLat, cLng) > a.circleRadiusK {
			return false
		}
	}

	var path float64
	for i := 1; i < len(recent); i++ {
		path += geo.DistanceMeters(recent[i-1].Latitude, recent[i-1].Longitude, recent[i].Latitude, recent[i].Longitude)
	}
	return path > a.circlePathM
}

// isLoitering checks whether most of the newest points sit near one hotspot
// for longer than the loiter window.
func (a *Analyzer) isLoitering(window []models.LocationEvent) bool {
	if len(window) < loiterWindow {
		return false
	}
	recent := window[len(window)-loiterWindow:]

	for _, h := range a.hotspots {
		hits := 0
		for _, e := range recent {
			if geo.DistanceMeters(e.Latitude, e.Longitude, h.Lat, h.Lng) <= a.loiterRadiusM {
				hits++
			}
		}
		if hits < loiterMinHits {
			continue
		}
		span := recent[len(recent)-1].Timestamp.Sub(recent[0].Timestamp).Seconds()
		if span > a.loiterSeconds {
			return true
		}
	}
	return false
}

func computeStats(window []models.LocationEvent) models.MovementStats {
	speeds := segmentSpeeds(window)

	var total float64
	for i := 1; i < len(window); i++ {
		total += geo.DistanceMeters(window[i-1].Latitude, window[i-1].Longitude, window[i].Latitude, window[i].Longitude)
	}

	stats := models.MovementStats{
		TotalDistanceM: total,
		DataPoints:     len(window),
	}
	if len(speeds) > 0 {
		var sum float64
		for _, s := range speeds {
			sum += s
		}
		stats.AvgSpeedMS = sum / float64(len(speeds))
		stats.MaxSpeedMS = maxOf(speeds)
		stats.AvgSpeedKMH = stats.AvgSpeedMS * 3.6
		stats.MaxSpeedKMH = stats.MaxSpeedMS * 3.6
	}
	return stats
}

// segmentSpeeds returns per-segment speeds in m/s, skipping segments with
// non-positive elapsed time.
func segmentSpeeds(window []models.LocationEvent) []float64 {
	var speeds []float64
	for i := 1; i < len(window); i++ {
		elapsed := window[i].Timestamp.Sub(window[i-1].Timestamp).Seconds()
		if elapsed <= 0 {
			continue
		}
		dist := geo.DistanceMeters(window[i-1].Latitude, window[i-1].Longitude, window[i].Latitude, window[i].Longitude)
		speeds = append(speeds, dist/elapsed)
	}
	return speeds
}

func maxOf(vals []float64) float64 {
	var m float64
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}

func variance(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))

	var sq float64
	for _, v := range vals {
		sq += math.Pow(v-mean, 2)
	}
	return sq / float64(len(vals))
}
