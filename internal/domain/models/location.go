package models

import "time"

// Risk levels used by assessments, geofences, and alerts.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
	RiskVeryHigh = "very_high" // geofence config only
)

// Movement pattern classifications, in ascending severity.
const (
	PatternInsufficientData = "insufficient_data"
	PatternNormal           = "normal"
	PatternSuspicious       = "suspicious"
	PatternHighRisk         = "high_risk"
)

// LocationEvent is one position report from a financial-app client.
// Immutable once created.
type LocationEvent struct {
	SubjectID      string    `json:"subject_id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Timestamp      time.Time `json:"timestamp"`
	AccuracyMeters float64   `json:"accuracy_meters"`
	DeviceID       string    `json:"device_id"`
	SourceApp      string    `json:"source_app"` // mobile_banking, payment_app, atm_app
	SessionID      string    `json:"session_id"`
	TransactionID  string    `json:"transaction_id,omitempty"`
}

// Geofence is a named circular hazard region. Read-only at runtime.
type Geofence struct {
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	RadiusMeters   float64 `json:"radius_meters"`
	RiskLevel      string  `json:"risk_level"`
	AlertThreshold int     `json:"alert_threshold"` // min incidents before the fence is active
}

// Hotspot is a reference point with recent incident history (e.g., an ATM
// cluster with fraud reports).
type Hotspot struct {
	Label           string  `json:"label"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	RecentIncidents int     `json:"recent_incidents"`
}

// District is a known banking district or tech hub used for location-context
// flags.
type District struct {
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters float64 `json:"radius_meters"`
	Kind         string  `json:"kind"` // banking or tech
}

// GeofenceViolation reports an event inside an active fence.
type GeofenceViolation struct {
	AlertID        string  `json:"alert_id"`
	FenceName      string  `json:"fence_name"`
	RiskLevel      string  `json:"risk_level"`
	Message        string  `json:"message"`
	IncidentCount  int     `json:"incident_count"`
	DistanceMeters float64 `json:"distance_meters"`
	Confidence     float64 `json:"confidence"`
}

// RiskAssessment is the composite per-event risk picture. Created fresh per
// LocationEvent and never mutated.
type RiskAssessment struct {
	Score             float64  `json:"risk_score"` // 0-100
	Level             string   `json:"risk_level"`
	Factors           []string `json:"risk_factors"`
	CrimeDensity      float64  `json:"crime_density"`
	NearbyFrauds      int      `json:"nearby_frauds"`
	ImpossibleTravel  bool     `json:"impossible_travel"`
	IsATMLocation     bool     `json:"is_atm_location"`
	IsBankingDistrict bool     `json:"is_banking_district"`
	IsTechHub         bool     `json:"is_tech_hub"`
}

// MovementStats summarizes a subject's movement over the analyzed window.
type MovementStats struct {
	AvgSpeedMS     float64 `json:"avg_speed_ms"`
	AvgSpeedKMH    float64 `json:"avg_speed_kmh"`
	MaxSpeedMS     float64 `json:"max_speed_ms"`
	MaxSpeedKMH    float64 `json:"max_speed_kmh"`
	TotalDistanceM float64 `json:"total_distance_m"`
	DataPoints     int     `json:"data_points"`
}

// MovementPattern is the per-subject movement classification. Recomputed per
// event from the current history window; each new computation supersedes the
// previous one.
type MovementPattern struct {
	SubjectID   string        `json:"subject_id"`
	PatternType string        `json:"pattern_type"`
	RiskScore   float64       `json:"risk_score"`
	Anomalies   []string      `json:"anomaly_indicators"`
	Stats       MovementStats `json:"movement_stats"`
}

// PatternSeverity orders pattern types for escalation comparisons.
func PatternSeverity(p string) int {
	switch p {
	case PatternNormal:
		return 1
	case PatternSuspicious:
		return 2
	case PatternHighRisk:
		return 3
	default:
		return 0
	}
}

// ProximityAlert flags an event close to a fraud hotspot.
type ProximityAlert struct {
	HotspotLabel   string  `json:"hotspot_label"`
	RiskLevel      string  `json:"risk_level"`
	Message        string  `json:"message"`
	DistanceMeters float64 `json:"distance_meters"`
	Recommendation string  `json:"recommendation"`
}

// Alert is a prioritized, write-once alert appended to the alert sink.
type Alert struct {
	ID                string    `json:"id"`
	SubjectID         string    `json:"subject_id,omitempty"`
	Type              string    `json:"type"`
	Severity          string    `json:"severity"`
	Priority          int       `json:"priority"` // 1 = most urgent
	Message           string    `json:"message"`
	Lat               float64   `json:"lat"`
	Lng               float64   `json:"lng"`
	Factors           []string  `json:"factors,omitempty"`
	RecommendedAction string    `json:"recommended_action"`
	CreatedAt         time.Time `json:"created_at"`
}

// IncidentEvent is one raw incident fed into the aggregator. Not persisted by
// this engine.
type IncidentEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	City      string    `json:"city"`
	Area      string    `json:"area"`
	Lat       float64   `json:"latitude"`
	Lng       float64   `json:"longitude"`
	RiskScore float64   `json:"risk_score"` // 0-1, assigned at ingest
}

// AreaKey returns the city-area grouping key for risk-area aggregation.
func (e *IncidentEvent) AreaKey() string {
	return e.City + "-" + e.Area
}

// HotspotPrediction is a short-window area forecast.
type HotspotPrediction struct {
	City               string  `json:"city"`
	PredictedIncidents int     `json:"predicted_incidents"`
	Confidence         float64 `json:"confidence"`
	RiskLevel          string  `json:"risk_level"`
}

// TrendPrediction describes a fraud type exceeding the trending share.
type TrendPrediction struct {
	Percentage float64 `json:"percentage"`
	GrowthRate float64 `json:"growth_rate"`
	Status     string  `json:"status"` // increasing or stable
}

// RiskArea is a composite-ranked geographic area.
type RiskArea struct {
	Area        string  `json:"area"`
	City        string  `json:"city"`
	RiskScore   float64 `json:"risk_score"` // 0-1
	Incidents   int     `json:"incidents"`
	TotalAmount float64 `json:"total_amount"`
}

// PredictionSnapshot is the shared, periodically replaced aggregate view.
// Single writer (the aggregator); readers always see a complete snapshot.
type PredictionSnapshot struct {
	Hotspots   []HotspotPrediction        `json:"hotspots"`
	Trends     map[string]TrendPrediction `json:"trends"`
	RiskAreas  []RiskArea                 `json:"risk_areas"`
	LastUpdate time.Time                  `json:"last_update"`
}

// TrackResult is the full response for one ingested LocationEvent.
type TrackResult struct {
	LocationID      string              `json:"location_id"`
	Timestamp       time.Time           `json:"timestamp"`
	Risk            RiskAssessment      `json:"risk_analysis"`
	Movement        MovementPattern     `json:"movement_patterns"`
	Violations      []GeofenceViolation `json:"geofence_status"`
	Proximity       []ProximityAlert    `json:"proximity_alerts"`
	Alerts          []Alert             `json:"real_time_alerts"`
	Recommendations []string            `json:"recommendations"`
}

// RiskProfile is the per-subject query surface.
type RiskProfile struct {
	SubjectID         string          `json:"subject_id"`
	TotalTracked      int             `json:"total_locations_tracked"`
	RecentRiskScore   float64         `json:"recent_risk_score"`
	PatternType       string          `json:"pattern_type"`
	AnomalyCount      int             `json:"anomaly_count"`
	HighRiskLocations int             `json:"high_risk_locations"`
	LastActivity      *time.Time      `json:"last_activity,omitempty"`
	Movement          MovementPattern `json:"movement_pattern"`
	Recommendations   []string        `json:"recommendations"`
}

// GeofenceStatus is a fence with its live incident count.
type GeofenceStatus struct {
	Geofence
	IncidentCount int    `json:"incident_count"`
	Status        string `json:"status"` // active or monitoring
}

// HotspotStatus is a hotspot with its time-adjusted risk.
type HotspotStatus struct {
	Hotspot
	RiskLevel    string  `json:"risk_level"`
	AdjustedRisk float64 `json:"adjusted_risk"`
}
