package alert

import (
	"context"
	"testing"
	"time"

	"GeoSentry/internal/domain/models"
	"GeoSentry/pkg/config"
)

func generatorConfig(dedup time.Duration) *config.Config {
	cfg := &config.Config{}
	cfg.Engine.AlertDedupWindow = dedup
	cfg.Hotspots = []config.HotspotConfig{
		{Label: "HDFC ATM CP", Lat: 28.6304, Lng: 77.2177, RecentIncidents: 5},
		{Label: "SBI ATM KB", Lat: 28.6519, Lng: 77.1909, RecentIncidents: 2},
	}
	return cfg
}

func event() *models.LocationEvent {
	return &models.LocationEvent{
		SubjectID: "u1",
		Latitude:  28.6304,
		Longitude: 77.2177,
		Timestamp: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}
}

func TestProximityWithinRadius(t *testing.T) {
	g := NewGenerator(generatorConfig(0), NewSink(nil, nil), nil, nil)

	alerts := g.Proximity(event())
	if len(alerts) != 1 {
		t.Fatalf("expected 1 proximity alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.HotspotLabel != "HDFC ATM CP" {
		t.Errorf("unexpected hotspot: %s", a.HotspotLabel)
	}
	if a.RiskLevel != models.RiskHigh {
		t.Errorf("5 incidents should be high risk, got %s", a.RiskLevel)
	}
}

func TestProximityLowIncidentHotspot(t *testing.T) {
	g := NewGenerator(generatorConfig(0), NewSink(nil, nil), nil, nil)

	e := &models.LocationEvent{SubjectID: "u1", Latitude: 28.6519, Longitude: 77.1909}
	alerts := g.Proximity(e)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 proximity alert, got %d", len(alerts))
	}
	if alerts[0].RiskLevel != models.RiskMedium {
		t.Errorf("2 incidents should be medium risk, got %s", alerts[0].RiskLevel)
	}
}

func TestGenerateCriticalRisk(t *testing.T) {
	sink := NewSink(nil, nil)
	g := NewGenerator(generatorConfig(0), sink, nil, nil)

	assessment := &models.RiskAssessment{Score: 85, Level: models.RiskCritical, Factors: []string{"impossible_travel_detected"}}
	pattern := &models.MovementPattern{PatternType: models.PatternNormal}

	alerts := g.Generate(context.Background(), event(), assessment, pattern, nil)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.Type != TypeHighRiskLocation {
		t.Errorf("unexpected type %s", a.Type)
	}
	if a.Priority != 1 {
		t.Errorf("critical must be priority 1, got %d", a.Priority)
	}
	if a.ID == "" || a.SubjectID != "u1" {
		t.Errorf("alert identity not populated: %+v", a)
	}
	if a.RecommendedAction != "deploy patrol units and freeze transaction monitoring" {
		t.Errorf("unexpected critical action %q", a.RecommendedAction)
	}

	recent := sink.Recent(10)
	if len(recent) != 1 || recent[0].ID != a.ID {
		t.Errorf("expected alert recorded in sink")
	}
}

func TestGenerateHighRiskAction(t *testing.T) {
	g := NewGenerator(generatorConfig(0), NewSink(nil, nil), nil, nil)

	assessment := &models.RiskAssessment{Score: 55, Level: models.RiskHigh}
	pattern := &models.MovementPattern{PatternType: models.PatternNormal}

	alerts := g.Generate(context.Background(), event(), assessment, pattern, nil)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Priority != 2 {
		t.Errorf("high must be priority 2, got %d", alerts[0].Priority)
	}
	if alerts[0].RecommendedAction != "increase monitoring" {
		t.Errorf("unexpected high action %q", alerts[0].RecommendedAction)
	}
}

func TestGenerateFencePriorities(t *testing.T) {
	g := NewGenerator(generatorConfig(0), NewSink(nil, nil), nil, nil)

	assessment := &models.RiskAssessment{Level: models.RiskLow}
	pattern := &models.MovementPattern{PatternType: models.PatternNormal}
	violations := []models.GeofenceViolation{
		{FenceName: "a", RiskLevel: models.RiskVeryHigh, Message: "m"},
		{FenceName: "b", RiskLevel: models.RiskHigh, Message: "m"},
		{FenceName: "c", RiskLevel: models.RiskMedium, Message: "m"},
		{FenceName: "d", RiskLevel: models.RiskLow, Message: "m"},
	}

	alerts := g.Generate(context.Background(), event(), assessment, pattern, violations)
	if len(alerts) != 4 {
		t.Fatalf("expected 4 alerts, got %d", len(alerts))
	}
	wantPriority := []int{1, 2, 3, 4}
	for i, a := range alerts {
		if a.Type != TypeGeofenceViolation {
			t.Errorf("alert %d: unexpected type %s", i, a.Type)
		}
		if a.Priority != wantPriority[i] {
			t.Errorf("alert %d: priority %d, want %d", i, a.Priority, wantPriority[i])
		}
	}
}

func TestGenerateSuspiciousMovement(t *testing.T) {
	g := NewGenerator(generatorConfig(0), NewSink(nil, nil), nil, nil)

	assessment := &models.RiskAssessment{Level: models.RiskLow}
	pattern := &models.MovementPattern{
		PatternType: models.PatternHighRisk,
		Anomalies:   []string{"circular_movement"},
	}

	alerts := g.Generate(context.Background(), event(), assessment, pattern, nil)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Type != TypeSuspiciousMovement || alerts[0].Priority != 2 {
		t.Errorf("unexpected alert %+v", alerts[0])
	}
}

func TestGenerateDedupSuppressesRepeat(t *testing.T) {
	g := NewGenerator(generatorConfig(time.Hour), NewSink(nil, nil), nil, nil)

	assessment := &models.RiskAssessment{Score: 85, Level: models.RiskCritical}
	pattern := &models.MovementPattern{PatternType: models.PatternNormal}

	first := g.Generate(context.Background(), event(), assessment, pattern, nil)
	if len(first) != 1 {
		t.Fatalf("expected first alert emitted, got %d", len(first))
	}
	second := g.Generate(context.Background(), event(), assessment, pattern, nil)
	if len(second) != 0 {
		t.Errorf("expected repeat suppressed inside window, got %d", len(second))
	}

	// A different subject is not suppressed.
	other := event()
	other.SubjectID = "u2"
	if got := g.Generate(context.Background(), other, assessment, pattern, nil); len(got) != 1 {
		t.Errorf("expected different subject to alert, got %d", len(got))
	}
}

func TestRecommendations(t *testing.T) {
	assessment := &models.RiskAssessment{Level: models.RiskCritical, ImpossibleTravel: true}
	pattern := &models.MovementPattern{PatternType: models.PatternHighRisk}
	violations := []models.GeofenceViolation{{FenceName: "a"}}
	proximity := []models.ProximityAlert{{HotspotLabel: "h"}}

	recs := Recommendations(assessment, pattern, violations, proximity)
	if len(recs) != 6 {
		t.Fatalf("expected 6 recommendations, got %d: %v", len(recs), recs)
	}
	if recs[0] != "deploy patrol units to the area" || recs[1] != "freeze transaction monitoring pending identity verification" {
		t.Errorf("critical level must lead with patrol and freeze actions, got %v", recs[:2])
	}

	quiet := Recommendations(&models.RiskAssessment{Level: models.RiskLow}, &models.MovementPattern{PatternType: models.PatternNormal}, nil, nil)
	if len(quiet) != 1 || quiet[0] != "continue standard monitoring" {
		t.Errorf("expected standard monitoring fallback, got %v", quiet)
	}
}

func TestSinkRingNewestFirst(t *testing.T) {
	sink := NewSink(nil, nil)
	for i := 0; i < 150; i++ {
		sink.Publish(context.Background(), &models.Alert{ID: string(rune('a' + i%26))})
	}
	recent := sink.Recent(5)
	if len(recent) != 5 {
		t.Fatalf("expected 5 alerts, got %d", len(recent))
	}
	if all := sink.Recent(0); len(all) != 100 {
		t.Errorf("ring should cap at 100, got %d", len(all))
	}
}
