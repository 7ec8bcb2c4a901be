// Package usecase wires the engine components into the operations the
// transport layer exposes.
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"GeoSentry/internal/alert"
	"GeoSentry/internal/domain/models"
	"GeoSentry/internal/domain/repository"
	"GeoSentry/internal/geofence"
	"GeoSentry/internal/history"
	"GeoSentry/internal/movement"
	"GeoSentry/internal/risk"
	"GeoSentry/pkg/config"
	"GeoSentry/pkg/logger"
	"GeoSentry/pkg/util"
)

const profileWindow = 20

// TrackSubscriber receives every completed track result, e.g. for streaming.
type TrackSubscriber func(*models.TrackResult)

type subjectState struct {
	lastScore    float64
	lastLevel    string
	highRisk     int
	lastActivity time.Time
}

// LocationEngine is the per-event processing pipeline: record history, score
// risk, classify movement, check fences, and emit alerts.
type LocationEngine struct {
	cfg       *config.Config
	store     *history.Store
	analyzer  *movement.Analyzer
	scorer    *risk.Scorer
	monitor   *geofence.Monitor
	generator *alert.Generator
	intel     repository.CrimeIntel
	presence  repository.PresenceTracker
	metrics   repository.Metrics
	log       *logger.Logger

	stateMu sync.RWMutex
	state   map[string]*subjectState

	subMu sync.RWMutex
	subs  []TrackSubscriber
}

func NewLocationEngine(
	cfg *config.Config,
	store *history.Store,
	analyzer *movement.Analyzer,
	scorer *risk.Scorer,
	monitor *geofence.Monitor,
	generator *alert.Generator,
	intel repository.CrimeIntel,
	presence repository.PresenceTracker,
	metrics repository.Metrics,
	log *logger.Logger,
) *LocationEngine {
	return &LocationEngine{
		cfg:       cfg,
		store:     store,
		analyzer:  analyzer,
		scorer:    scorer,
		monitor:   monitor,
		generator: generator,
		intel:     intel,
		presence:  presence,
		metrics:   metrics,
		log:       log,
		state:     make(map[string]*subjectState),
	}
}

// Subscribe registers a callback for every completed track result. Panicking
// subscribers are isolated.
func (e *LocationEngine) Subscribe(s TrackSubscriber) {
	e.subMu.Lock()
	e.subs = append(e.subs, s)
	e.subMu.Unlock()
}

// Track processes one location report end to end. A missing or unparseable
// timestamp is replaced by the receipt time.
func (e *LocationEngine) Track(ctx context.Context, req *models.TrackRequest) (*models.TrackResult, error) {
	start := time.Now()

	event := models.LocationEvent{
		SubjectID:      req.SubjectID,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Timestamp:      util.ParseTimeDefault(req.Timestamp, time.Now().UTC()),
		AccuracyMeters: req.AccuracyMeters,
		DeviceID:       req.DeviceID,
		SourceApp:      req.SourceApp,
		SessionID:      req.SessionID,
		TransactionID:  req.TransactionID,
	}

	if outOfOrder := e.store.Record(ctx, event); outOfOrder && e.log != nil {
		e.log.Warn("out of order location event",
			logger.String("subject_id", event.SubjectID),
			logger.Any("timestamp", event.Timestamp))
	}

	if e.presence != nil {
		if err := e.presence.Observe(ctx, event.SubjectID, event.Latitude, event.Longitude); err != nil && e.log != nil {
			e.log.Warn("presence observe failed", logger.Error(err))
		}
	}

	assessment := e.scorer.Score(ctx, &event)
	pattern := e.analyzer.Analyze(event.SubjectID)
	violations := e.monitor.Check(ctx, &event)
	proximity := e.generator.Proximity(&event)
	alerts := e.generator.Generate(ctx, &event, &assessment, &pattern, violations)
	recommendations := alert.Recommendations(&assessment, &pattern, violations, proximity)

	e.recordSubjectState(&event, &assessment)

	if e.metrics != nil {
		e.metrics.RecordEventProcessed(event.SourceApp)
		e.metrics.RecordRiskScore(assessment.Level, assessment.Score)
		e.metrics.RecordLatency("track", time.Since(start).Seconds())
	}

	result := &models.TrackResult{
		LocationID:      uuid.NewString(),
		Timestamp:       event.Timestamp,
		Risk:            assessment,
		Movement:        pattern,
		Violations:      violations,
		Proximity:       proximity,
		Alerts:          alerts,
		Recommendations: recommendations,
	}

	e.notify(result)
	return result, nil
}

// RiskProfile summarizes a subject's activity over the last window events.
// A non-positive window falls back to the default of 20.
func (e *LocationEngine) RiskProfile(subjectID string, window int) *models.RiskProfile {
	if window <= 0 {
		window = profileWindow
	}
	pattern := e.analyzer.Analyze(subjectID)
	recent := e.store.Recent(subjectID, window)

	profile := &models.RiskProfile{
		SubjectID:    subjectID,
		TotalTracked: e.store.Count(subjectID),
		PatternType:  pattern.PatternType,
		AnomalyCount: len(pattern.Anomalies),
		Movement:     pattern,
	}
	if len(recent) > 0 {
		last := recent[len(recent)-1].Timestamp
		profile.LastActivity = &last
	}

	e.stateMu.RLock()
	if s, ok := e.state[subjectID]; ok {
		profile.RecentRiskScore = s.lastScore
		profile.HighRiskLocations = s.highRisk
	}
	e.stateMu.RUnlock()

	assessment := models.RiskAssessment{Score: profile.RecentRiskScore, Level: risk.LevelFor(profile.RecentRiskScore)}
	profile.Recommendations = alert.Recommendations(&assessment, &pattern, nil, nil)
	return profile
}

// GeofenceStatuses returns every configured fence with its live incident
// count, in configuration order.
func (e *LocationEngine) GeofenceStatuses(ctx context.Context) []models.GeofenceStatus {
	fences := e.monitor.Fences()
	out := make([]models.GeofenceStatus, 0, len(fences))

	for _, fence := range fences {
		incidents := 0
		if e.intel != nil {
			lctx, cancel := context.WithTimeout(ctx, e.cfg.Engine.LookupTimeout)
			if n, err := e.intel.GeofenceIncidents(lctx, fence); err == nil {
				incidents = n
			}
			cancel()
		}
		status := "monitoring"
		if incidents >= fence.AlertThreshold {
			status = "active"
		}
		out = append(out, models.GeofenceStatus{
			Geofence:      fence,
			IncidentCount: incidents,
			Status:        status,
		})
	}
	return out
}

// HotspotStatuses returns the configured hotspots with time-adjusted risk.
// Night hours carry a 1.3x multiplier.
func (e *LocationEngine) HotspotStatuses(now time.Time) []models.HotspotStatus {
	out := make([]models.HotspotStatus, 0, len(e.cfg.Hotspots))
	for _, h := range e.cfg.Hotspots {
		adjusted := float64(h.RecentIncidents)
		if util.IsNightHour(now.Hour()) {
			adjusted *= 1.3
		}
		level := models.RiskMedium
		if adjusted > 3 {
			level = models.RiskHigh
		}
		out = append(out, models.HotspotStatus{
			Hotspot:      models.Hotspot{Label: h.Label, Lat: h.Lat, Lng: h.Lng, RecentIncidents: h.RecentIncidents},
			RiskLevel:    level,
			AdjustedRisk: adjusted,
		})
	}
	return out
}

func (e *LocationEngine) recordSubjectState(event *models.LocationEvent, assessment *models.RiskAssessment) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	s, ok := e.state[event.SubjectID]
	if !ok {
		s = &subjectState{}
		e.state[event.SubjectID] = s
	}
	s.lastScore = assessment.Score
	s.lastLevel = assessment.Level
	s.lastActivity = event.Timestamp
	if assessment.Level == models.RiskHigh || assessment.Level == models.RiskCritical {
		s.highRisk++
	}
}

func (e *LocationEngine) notify(result *models.TrackResult) {
	e.subMu.RLock()
	subs := make([]TrackSubscriber, len(e.subs))
	copy(subs, e.subs)
	e.subMu.RUnlock()

	for _, s := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil && e.log != nil {
					e.log.Error("track subscriber panicked", logger.Any("panic", r))
				}
			}()
			s(result)
		}()
	}
}
