package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"GeoSentry/internal/alert"
	"GeoSentry/internal/domain/models"
	"GeoSentry/internal/geofence"
	"GeoSentry/internal/history"
	"GeoSentry/internal/movement"
	"GeoSentry/internal/risk"
	"GeoSentry/pkg/config"
)

type staticIntel struct {
	density   float64
	frauds    int
	incidents int
}

func (s *staticIntel) CrimeDensity(ctx context.Context, lat, lng float64) (float64, error) {
	return s.density, nil
}

func (s *staticIntel) NearbyFrauds(ctx context.Context, lat, lng, radius float64) (int, error) {
	return s.frauds, nil
}

func (s *staticIntel) GeofenceIncidents(ctx context.Context, fence models.Geofence) (int, error) {
	return s.incidents, nil
}

type noPresence struct{}

func (noPresence) Observe(ctx context.Context, subjectID string, lat, lng float64) error {
	return nil
}

func (noPresence) ConcurrentSubjects(ctx context.Context, lat, lng float64, exclude string) (int, error) {
	return 0, nil
}

func engineConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Engine.HistoryCapacity = 100
	cfg.Engine.MirrorTTL = time.Hour
	cfg.Engine.LookupTimeout = 100 * time.Millisecond
	cfg.Engine.MaxSpeedMS = 41.67
	cfg.Engine.SpeedVarianceMax = 100
	cfg.Engine.CircleRadiusKM = 0.5
	cfg.Engine.CirclePathM = 500
	cfg.Engine.LoiterRadiusM = 100
	cfg.Engine.LoiterSeconds = 600
	cfg.Engine.CrimeDensityMin = 0.7
	cfg.Engine.AccuracyMaxM = 100
	cfg.Engine.NearbyFraudRadius = 1000
	cfg.Engine.ConcurrentMin = 6
	cfg.Geofences = []config.GeofenceConfig{
		{Name: "Connaught Place", Lat: 28.6315, Lng: 77.2167, RadiusMeters: 500, RiskLevel: "high", AlertThreshold: 3},
	}
	cfg.Hotspots = []config.HotspotConfig{
		{Label: "HDFC ATM CP", Lat: 28.6304, Lng: 77.2177, RecentIncidents: 5},
	}
	return cfg
}

func newEngine(cfg *config.Config, intel *staticIntel) *LocationEngine {
	store := history.NewStore(cfg, nil, nil)
	analyzer := movement.NewAnalyzer(cfg, store)
	scorer := risk.NewScorer(cfg, intel, noPresence{}, analyzer, nil)
	monitor := geofence.NewMonitor(cfg, intel, nil)
	generator := alert.NewGenerator(cfg, alert.NewSink(nil, nil), nil, nil)
	return NewLocationEngine(cfg, store, analyzer, scorer, monitor, generator, intel, noPresence{}, nil, nil)
}

func trackReq(subject string, lat, lng float64, ts time.Time) *models.TrackRequest {
	return &models.TrackRequest{
		SubjectID:      subject,
		Latitude:       lat,
		Longitude:      lng,
		Timestamp:      ts.Format(time.RFC3339),
		AccuracyMeters: 10,
		DeviceID:       "d1",
		SourceApp:      "mobile_banking",
		SessionID:      "s1",
	}
}

func TestTrackQuietLocation(t *testing.T) {
	e := newEngine(engineConfig(), &staticIntel{density: 0.2})

	res, err := e.Track(context.Background(), trackReq("u1", 28.7041, 77.1025, time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatal(err)
	}
	if res.LocationID == "" {
		t.Errorf("expected location id")
	}
	if res.Risk.Level != models.RiskLow {
		t.Errorf("expected low risk, got %s", res.Risk.Level)
	}
	if len(res.Violations) != 0 || len(res.Alerts) != 0 {
		t.Errorf("quiet location should not alert: %+v", res)
	}
	if len(res.Recommendations) != 1 {
		t.Errorf("expected standard monitoring recommendation, got %v", res.Recommendations)
	}
	if res.Movement.PatternType != models.PatternInsufficientData {
		t.Errorf("single point should be insufficient data, got %s", res.Movement.PatternType)
	}
}

func TestTrackInsideActiveFence(t *testing.T) {
	e := newEngine(engineConfig(), &staticIntel{density: 0.9, incidents: 4})

	res, err := e.Track(context.Background(), trackReq("u1", 28.6315, 77.2167, time.Date(2026, 8, 25, 23, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected 1 geofence violation, got %d", len(res.Violations))
	}
	// density 0.9 (+30) at night (+20) puts the event at high risk.
	if res.Risk.Score != 50 {
		t.Errorf("expected score 50, got %v", res.Risk.Score)
	}
	if res.Risk.Level != models.RiskHigh {
		t.Errorf("expected high risk, got %s", res.Risk.Level)
	}
	found := false
	for _, a := range res.Alerts {
		if a.Type == alert.TypeGeofenceViolation {
			found = true
		}
	}
	if !found {
		t.Errorf("expected geofence violation alert in %v", res.Alerts)
	}
}

func TestTrackDefaultsTimestamp(t *testing.T) {
	e := newEngine(engineConfig(), &staticIntel{density: 0.2})

	req := trackReq("u1", 28.7041, 77.1025, time.Now())
	req.Timestamp = "not-a-time"
	res, err := e.Track(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(res.Timestamp) > time.Minute {
		t.Errorf("expected receipt-time fallback, got %v", res.Timestamp)
	}
}

func TestTrackNotifiesSubscribers(t *testing.T) {
	e := newEngine(engineConfig(), &staticIntel{density: 0.2})

	var got []*models.TrackResult
	e.Subscribe(func(r *models.TrackResult) { panic("boom") })
	e.Subscribe(func(r *models.TrackResult) { got = append(got, r) })

	if _, err := e.Track(context.Background(), trackReq("u1", 28.7041, 77.1025, time.Now().UTC())); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected delivery despite panicking subscriber, got %d", len(got))
	}
}

func TestRiskProfile(t *testing.T) {
	e := newEngine(engineConfig(), &staticIntel{density: 0.9})
	base := time.Date(2026, 8, 25, 23, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		req := trackReq("u1", 28.7041+float64(i)*0.0009, 77.1025, base.Add(time.Duration(i)*time.Minute))
		if _, err := e.Track(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}

	profile := e.RiskProfile("u1", 0)
	if profile.TotalTracked != 6 {
		t.Errorf("expected 6 tracked locations, got %d", profile.TotalTracked)
	}
	if profile.RecentRiskScore != 50 { // density + night
		t.Errorf("expected recent score 50, got %v", profile.RecentRiskScore)
	}
	if profile.HighRiskLocations != 6 {
		t.Errorf("expected 6 high risk locations, got %d", profile.HighRiskLocations)
	}
	if profile.LastActivity == nil {
		t.Errorf("expected last activity set")
	}
	if profile.PatternType != models.PatternNormal {
		t.Errorf("expected normal pattern, got %s", profile.PatternType)
	}
}

func TestRiskProfileUnknownSubject(t *testing.T) {
	e := newEngine(engineConfig(), &staticIntel{})

	profile := e.RiskProfile("nobody", 0)
	if profile.TotalTracked != 0 || profile.RecentRiskScore != 0 {
		t.Errorf("unexpected profile for unknown subject: %+v", profile)
	}
	if profile.PatternType != models.PatternInsufficientData {
		t.Errorf("expected insufficient data, got %s", profile.PatternType)
	}
}

func TestGeofenceStatuses(t *testing.T) {
	e := newEngine(engineConfig(), &staticIntel{incidents: 4})

	statuses := e.GeofenceStatuses(context.Background())
	if len(statuses) != 1 {
		t.Fatalf("expected 1 fence, got %d", len(statuses))
	}
	if statuses[0].Status != "active" || statuses[0].IncidentCount != 4 {
		t.Errorf("expected active fence with 4 incidents, got %+v", statuses[0])
	}

	quiet := newEngine(engineConfig(), &staticIntel{incidents: 1})
	if got := quiet.GeofenceStatuses(context.Background()); got[0].Status != "monitoring" {
		t.Errorf("expected monitoring below threshold, got %s", got[0].Status)
	}
}

func TestHotspotStatusesNightMultiplier(t *testing.T) {
	e := newEngine(engineConfig(), &staticIntel{})

	day := e.HotspotStatuses(time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC))
	if day[0].AdjustedRisk != 5 {
		t.Errorf("expected daytime risk 5, got %v", day[0].AdjustedRisk)
	}

	night := e.HotspotStatuses(time.Date(2026, 8, 25, 23, 0, 0, 0, time.UTC))
	if night[0].AdjustedRisk != 6.5 {
		t.Errorf("expected night risk 6.5, got %v", night[0].AdjustedRisk)
	}
	if night[0].RiskLevel != models.RiskHigh {
		t.Errorf("expected high risk, got %s", night[0].RiskLevel)
	}
}

func TestTrackConcurrentSubjects(t *testing.T) {
	e := newEngine(engineConfig(), &staticIntel{density: 0.2})
	base := time.Now().UTC()

	done := make(chan error, 4)
	for s := 0; s < 4; s++ {
		go func(s int) {
			subject := fmt.Sprintf("u%d", s)
			for i := 0; i < 20; i++ {
				if _, err := e.Track(context.Background(), trackReq(subject, 28.70+float64(i)*0.0009, 77.10, base.Add(time.Duration(i)*time.Minute))); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}(s)
	}
	for s := 0; s < 4; s++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
	for s := 0; s < 4; s++ {
		if n := e.RiskProfile(fmt.Sprintf("u%d", s), 0).TotalTracked; n != 20 {
			t.Errorf("u%d: expected 20 tracked, got %d", s, n)
		}
	}
}
