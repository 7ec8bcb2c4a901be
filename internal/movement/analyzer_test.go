package movement

import (
	"context"
	"testing"
	"time"

	"GeoSentry/internal/domain/models"
	"GeoSentry/internal/history"
	"GeoSentry/pkg/config"
)

func analyzerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Engine.HistoryCapacity = 100
	cfg.Engine.MirrorTTL = time.Hour
	cfg.Engine.MaxSpeedMS = 41.67
	cfg.Engine.SpeedVarianceMax = 100
	cfg.Engine.CircleRadiusKM = 0.5
	cfg.Engine.CirclePathM = 500
	cfg.Engine.LoiterRadiusM = 100
	cfg.Engine.LoiterSeconds = 600
	cfg.Hotspots = []config.HotspotConfig{
		{Label: "HDFC ATM CP", Lat: 28.6304, Lng: 77.2177, RecentIncidents: 5},
	}
	return cfg
}

func seed(t *testing.T, store *history.Store, subject string, points []models.LocationEvent) {
	t.Helper()
	for _, p := range points {
		p.SubjectID = subject
		store.Record(context.Background(), p)
	}
}

func at(lat, lng float64, ts time.Time) models.LocationEvent {
	return models.LocationEvent{Latitude: lat, Longitude: lng, Timestamp: ts}
}

func TestAnalyzeInsufficientData(t *testing.T) {
	cfg := analyzerConfig()
	store := history.NewStore(cfg, nil, nil)
	a := NewAnalyzer(cfg, store)

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	seed(t, store, "u1", []models.LocationEvent{
		at(28.6315, 77.2167, base),
		at(28.6316, 77.2168, base.Add(time.Minute)),
	})

	p := a.Analyze("u1")
	if p.PatternType != models.PatternInsufficientData {
		t.Errorf("expected insufficient_data, got %s", p.PatternType)
	}
	if p.Stats.DataPoints != 0 {
		t.Errorf("expected no stats below 3 points, got %d data points", p.Stats.DataPoints)
	}
}

func TestAnalyzeNormalWalk(t *testing.T) {
	cfg := analyzerConfig()
	store := history.NewStore(cfg, nil, nil)
	a := NewAnalyzer(cfg, store)

	// ~100m per minute, ~1.7 m/s, steady.
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	var points []models.LocationEvent
	for i := 0; i < 6; i++ {
		points = append(points, at(28.6315+float64(i)*0.0009, 77.2167, base.Add(time.Duration(i)*time.Minute)))
	}
	seed(t, store, "u1", points)

	p := a.Analyze("u1")
	if p.PatternType != models.PatternNormal {
		t.Errorf("expected normal, got %s (anomalies %v)", p.PatternType, p.Anomalies)
	}
	if p.RiskScore != 0 {
		t.Errorf("expected zero risk score, got %v", p.RiskScore)
	}
	if p.Stats.DataPoints != 6 {
		t.Errorf("expected 6 data points, got %d", p.Stats.DataPoints)
	}
	if p.Stats.AvgSpeedMS <= 0 || p.Stats.AvgSpeedMS > 5 {
		t.Errorf("unexpected avg speed %v m/s", p.Stats.AvgSpeedMS)
	}
}

func TestAnalyzeImpossibleSpeed(t *testing.T) {
	cfg := analyzerConfig()
	store := history.NewStore(cfg, nil, nil)
	a := NewAnalyzer(cfg, store)

	// One jump of ~11km in 60s (~185 m/s) in an otherwise slow track.
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	seed(t, store, "u1", []models.LocationEvent{
		at(28.6315, 77.2167, base),
		at(28.6316, 77.2167, base.Add(time.Minute)),
		at(28.7316, 77.2167, base.Add(2*time.Minute)),
		at(28.7317, 77.2167, base.Add(3*time.Minute)),
		at(28.7318, 77.2167, base.Add(4*time.Minute)),
	})

	p := a.Analyze("u1")
	if !contains(p.Anomalies, AnomalyImpossibleSpeed) {
		t.Fatalf("expected impossible speed anomaly, got %v", p.Anomalies)
	}
	if p.PatternType == models.PatternNormal {
		t.Errorf("expected escalated pattern, got %s", p.PatternType)
	}
	if p.RiskScore < 40 {
		t.Errorf("expected risk score >= 40, got %v", p.RiskScore)
	}
}

func TestAnalyzeCircularMovement(t *testing.T) {
	cfg := analyzerConfig()
	store := history.NewStore(cfg, nil, nil)
	a := NewAnalyzer(cfg, store)

	// 10 points on a ~150m-radius loop, covering well over 500m of path, all
	// within 0.5km of the centroid.
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	offsets := [][2]float64{
		{0.0013, 0}, {0.0009, 0.0009}, {0, 0.0013}, {-0.0009, 0.0009},
		{-0.0013, 0}, {-0.0009, -0.0009}, {0, -0.0013}, {0.0009, -0.0009},
		{0.0013, 0}, {0.0009, 0.0009},
	}
	var points []models.LocationEvent
	for i, o := range offsets {
		points = append(points, at(28.6315+o[0], 77.2167+o[1], base.Add(time.Duration(i)*2*time.Minute)))
	}
	seed(t, store, "u1", points)

	p := a.Analyze("u1")
	if !contains(p.Anomalies, AnomalyCircular) {
		t.Fatalf("expected circular anomaly, got %v", p.Anomalies)
	}
	if p.PatternType != models.PatternHighRisk {
		t.Errorf("expected high_risk, got %s", p.PatternType)
	}
}

func TestAnalyzeATMLoitering(t *testing.T) {
	cfg := analyzerConfig()
	store := history.NewStore(cfg, nil, nil)
	a := NewAnalyzer(cfg, store)

	// All 5 points within 100m of the hotspot, spanning 20 minutes.
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	var points []models.LocationEvent
	for i := 0; i < 5; i++ {
		points = append(points, at(28.6304+float64(i)*0.0001, 77.2177, base.Add(time.Duration(i)*5*time.Minute)))
	}
	seed(t, store, "u1", points)

	p := a.Analyze("u1")
	if !contains(p.Anomalies, AnomalyATMLoitering) {
		t.Fatalf("expected loitering anomaly, got %v", p.Anomalies)
	}
	if p.PatternType != models.PatternHighRisk {
		t.Errorf("expected high_risk, got %s", p.PatternType)
	}
	if p.RiskScore < 35 {
		t.Errorf("expected risk score >= 35, got %v", p.RiskScore)
	}
}

func TestAnalyzeLoiterWindowTooShort(t *testing.T) {
	cfg := analyzerConfig()
	store := history.NewStore(cfg, nil, nil)
	a := NewAnalyzer(cfg, store)

	// Same hotspot dwell but only 4 minutes total, under the 600s threshold.
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	var points []models.LocationEvent
	for i := 0; i < 5; i++ {
		points = append(points, at(28.6304, 77.2177, base.Add(time.Duration(i)*time.Minute)))
	}
	seed(t, store, "u1", points)

	p := a.Analyze("u1")
	if contains(p.Anomalies, AnomalyATMLoitering) {
		t.Errorf("short dwell should not trigger loitering")
	}
}

func TestImpossibleTravel(t *testing.T) {
	cfg := analyzerConfig()
	store := history.NewStore(cfg, nil, nil)
	a := NewAnalyzer(cfg, store)

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	seed(t, store, "u1", []models.LocationEvent{
		at(28.6315, 77.2167, base),
		at(28.7315, 77.2167, base.Add(time.Minute)), // ~11km in 60s
	})
	if !a.ImpossibleTravel("u1") {
		t.Errorf("expected impossible travel for 11km/min jump")
	}

	seed(t, store, "u2", []models.LocationEvent{
		at(28.6315, 77.2167, base),
		at(28.6316, 77.2167, base.Add(time.Minute)),
	})
	if a.ImpossibleTravel("u2") {
		t.Errorf("did not expect impossible travel for a short hop")
	}

	if a.ImpossibleTravel("unknown") {
		t.Errorf("single or missing point cannot be impossible travel")
	}
}

func TestImpossibleTravelZeroElapsed(t *testing.T) {
	cfg := analyzerConfig()
	store := history.NewStore(cfg, nil, nil)
	a := NewAnalyzer(cfg, store)

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	seed(t, store, "u1", []models.LocationEvent{
		at(28.6315, 77.2167, base),
		at(28.6415, 77.2167, base), // distinct point, same instant
	})
	if !a.ImpossibleTravel("u1") {
		t.Errorf("distinct points at the same instant should be impossible travel")
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
