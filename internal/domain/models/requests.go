package models

// Requests for the location tracking HTTP endpoints. Defined in domain for
// consistency and reuse.

type TrackRequest struct {
	SubjectID      string  `json:"subject_id" validate:"required"`
	Latitude       float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude      float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Timestamp      string  `json:"timestamp"` // RFC3339 or unix seconds; defaults to receipt time
	AccuracyMeters float64 `json:"accuracy_meters" default:"10" validate:"gte=0"`
	DeviceID       string  `json:"device_id" validate:"required"`
	SourceApp      string  `json:"source_app" validate:"required,oneof=mobile_banking payment_app atm_app"`
	SessionID      string  `json:"session_id" validate:"required"`
	TransactionID  string  `json:"transaction_id"`
}

type RiskProfileRequest struct {
	SubjectID string `param:"id" validate:"required"`
	Window    int    `query:"window" default:"20" validate:"gte=1,lte=100"`
}
