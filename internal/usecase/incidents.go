package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"GeoSentry/internal/aggregator"
	"GeoSentry/internal/domain/models"
	"GeoSentry/internal/domain/repository"
	"GeoSentry/pkg/logger"
	"GeoSentry/pkg/util"
)

const (
	incidentAlertScore  = 0.8
	incidentAlertAmount = 1_000_000
)

// incidentPayload is the wire shape of an incident message.
type incidentPayload struct {
	ID        string  `json:"id"`
	Timestamp string  `json:"timestamp"`
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	City      string  `json:"city"`
	Area      string  `json:"area"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IncidentHandler consumes raw incident messages, prescores them, raises
// alerts for severe ones, and feeds the aggregation window.
type IncidentHandler struct {
	topic     string
	prescorer *Prescorer
	processor *aggregator.Processor
	sink      repository.AlertSink
	metrics   repository.Metrics
	log       *logger.Logger
}

func NewIncidentHandler(topic string, prescorer *Prescorer, processor *aggregator.Processor, sink repository.AlertSink, metrics repository.Metrics, log *logger.Logger) *IncidentHandler {
	return &IncidentHandler{
		topic:     topic,
		prescorer: prescorer,
		processor: processor,
		sink:      sink,
		metrics:   metrics,
		log:       log,
	}
}

func (h *IncidentHandler) Topic() string {
	return h.topic
}

// Handle decodes one incident message. Malformed messages are rejected with
// an error; valid ones always reach the aggregation queue.
func (h *IncidentHandler) Handle(ctx context.Context, data []byte) error {
	var payload incidentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		if h.metrics != nil {
			h.metrics.RecordError("incident_decode")
		}
		return fmt.Errorf("decode incident: %w", err)
	}
	if payload.City == "" || payload.Type == "" {
		if h.metrics != nil {
			h.metrics.RecordError("incident_invalid")
		}
		return fmt.Errorf("incident missing city or type")
	}

	event := models.IncidentEvent{
		ID:        payload.ID,
		Timestamp: util.ParseTimeDefault(payload.Timestamp, time.Now().UTC()),
		Type:      payload.Type,
		Amount:    payload.Amount,
		City:      payload.City,
		Area:      payload.Area,
		Lat:       payload.Latitude,
		Lng:       payload.Longitude,
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	event.RiskScore = h.prescorer.Score(ctx, &event)

	if event.RiskScore > incidentAlertScore || event.Amount > incidentAlertAmount {
		h.raiseAlert(ctx, &event)
	}

	h.processor.Enqueue(event)
	return nil
}

func (h *IncidentHandler) raiseAlert(ctx context.Context, e *models.IncidentEvent) {
	severity := models.RiskHigh
	priority := 2
	if e.Amount > incidentAlertAmount {
		severity = models.RiskCritical
		priority = 1
	}

	a := &models.Alert{
		ID:                uuid.NewString(),
		Type:              "high_risk_incident",
		Severity:          severity,
		Priority:          priority,
		Message:           fmt.Sprintf("high risk %s in %s-%s (score %.2f, amount %.0f)", e.Type, e.City, e.Area, e.RiskScore, e.Amount),
		Lat:               e.Lat,
		Lng:               e.Lng,
		RecommendedAction: "dispatch fraud operations review",
		CreatedAt:         time.Now().UTC(),
	}

	if h.sink != nil {
		if err := h.sink.Publish(ctx, a); err != nil && h.log != nil {
			h.log.Warn("incident alert publish failed", logger.Error(err))
		}
	}
	if h.metrics != nil {
		h.metrics.RecordAlert(a.Type, a.Severity)
	}
}
